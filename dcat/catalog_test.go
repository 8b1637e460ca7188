package dcat

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/koopjs/koop-output-dcat-ap-201/dataset"
	"github.com/koopjs/koop-output-dcat-ap-201/dcattest"
)

func TestNormalizeVersion(t *testing.T) {
	assert := assert.New(t)
	for _, v := range []string{"", "2", "2.0", "2.0.1", "2.1.0"} {
		version, err := NormalizeVersion(v)
		assert.Nil(err)
		assert.Equal(Version2, version)
	}
	for _, v := range []string{"3", "3.0", "3.0.0"} {
		version, err := NormalizeVersion(v)
		assert.Nil(err)
		assert.Equal(Version3, version)
	}
	_, err := NormalizeVersion("1.1")
	assert.NotNil(err)
	assert.Equal(http.StatusBadRequest, StatusCode(err))
	assert.Equal("Unsupported DCAT-AP version '1.1'", err.Error())
}

func TestCatalogHeader(t *testing.T) {
	assert := assert.New(t)
	header, err := CatalogHeader(Version2, dcattest.Context(), nil)
	assert.Nil(err)

	context := header["@context"].(map[string]any)
	assert.Equal(6, len(context))
	assert.Equal("http://www.w3.org/ns/dcat#", context["dcat"])
	assert.Equal("dcat:Catalog", header["@type"])
	assert.Equal(dcattest.SiteUrl, header["@id"])
	assert.Equal(map[string]any{"foaf:Document": dcattest.SiteUrl + "/search"}, header["foaf:homepage"])
	assert.Equal("Jules Goes The Distance", header["dct:title"])
	assert.Equal(dcattest.OrgTitle, header["dct:publisher"])
	assert.Equal(map[string]any{"@id": "lang:BAK"}, header["dct:language"])
	assert.Equal(map[string]any{
		"@id":       dcattest.OrgBaseUrl,
		"@type":     "foaf:Agent",
		"foaf:name": dcattest.OrgTitle,
	}, header["dct:creator"])
	assert.NotContains(header, "dcat:dataset")
}

func TestCatalogHeaderVersion3(t *testing.T) {
	assert := assert.New(t)
	header, err := CatalogHeader("3.0", dcattest.Context(), nil)
	assert.Nil(err)
	context := header["@context"].(map[string]any)
	assert.Equal(1.1, context["@version"])
	assert.Equal(true, context["@protected"])
	assert.Greater(len(context), 20)
	assert.Equal("http://data.europa.eu/r5r/", context["dcatap"])
}

func TestCatalogHeaderOverrides(t *testing.T) {
	assert := assert.New(t)
	overrides := map[string]any{
		"dct:title":    "My catalog",
		"dcat:dataset": []any{"sneaky"},
	}
	header, err := CatalogHeader(Version2, dataset.Context{}, overrides)
	assert.Nil(err)
	assert.Equal("My catalog", header["dct:title"])
	assert.NotContains(header, "dcat:dataset")
	assert.NotContains(header, "@id")
	assert.NotContains(header, "dct:creator")
	assert.NotContains(header, "dct:language")

	_, err = CatalogHeader("4.0", dataset.Context{}, nil)
	assert.NotNil(err)
}

func TestStreamHeader(t *testing.T) {
	assert := assert.New(t)
	header, err := StreamHeader(map[string]any{"@type": "dcat:Catalog"})
	assert.Nil(err)
	assert.Equal("{\n\t\"@type\": \"dcat:Catalog\",\n\t\"dcat:dataset\": [\n", header)

	// the header and footer frame an empty dataset list
	var doc map[string]any
	assert.Nil(json.Unmarshal([]byte(header+Footer), &doc))
	assert.Equal([]any{}, doc["dcat:dataset"])
}

func TestHeaderSuffixError(t *testing.T) {
	assert := assert.New(t)
	err := HeaderSuffixError{Header: `{"a": 1]`}
	assert.True(strings.HasPrefix(err.Error(), "Catalog header does not end with a closing brace"))
	assert.Equal(http.StatusInternalServerError, StatusCode(&err))
}
