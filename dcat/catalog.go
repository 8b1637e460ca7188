// Copyright (c) 2024 The koop-output-dcat-ap-201 Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package dcat

import (
	"fmt"
	"strings"

	"github.com/koopjs/koop-output-dcat-ap-201/adlib"
	"github.com/koopjs/koop-output-dcat-ap-201/dataset"
)

// supported DCAT-AP feed versions
const (
	Version2 = "2.0.1"
	Version3 = "3.0.0"
)

// the text closing the dcat:dataset array and the catalog
const Footer = "\n\t]\n}"

// the text placed between consecutive dataset entries
const Separator = ",\n"

// the text replacing the closing brace of a serialized catalog header
const datasetArrayOpening = ",\n\t\"dcat:dataset\": [\n"

func version2Context() map[string]any {
	return map[string]any{
		"dcat":  "http://www.w3.org/ns/dcat#",
		"dct":   "http://purl.org/dc/terms/",
		"foaf":  "http://xmlns.com/foaf/0.1/",
		"vcard": "http://www.w3.org/2006/vcard/ns#",
		"ftype": "http://publications.europa.eu/resource/authority/file-type/",
		"lang":  "http://publications.europa.eu/resource/authority/language/",
	}
}

func version3Context() map[string]any {
	return map[string]any{
		"@version":    1.1,
		"@protected":  true,
		"adms":        "http://www.w3.org/ns/adms#",
		"cnt":         "http://www.w3.org/2011/content#",
		"dash":        "http://datashapes.org/dash#",
		"dcat":        "http://www.w3.org/ns/dcat#",
		"dcat-us":     "http://resources.data.gov/ontology/dcat-us#",
		"dcat-us-shp": "http://resources.data.gov/shapes/dcat-us#",
		"dcatap":      "http://data.europa.eu/r5r/",
		"dcterms":     "http://purl.org/dc/terms/",
		"dct":         "http://purl.org/dc/terms/",
		"dqv":         "http://www.w3.org/ns/dqv#",
		"foaf":        "http://xmlns.com/foaf/0.1/",
		"gsp":         "http://www.opengis.net/ont/geosparql#",
		"locn":        "http://www.w3.org/ns/locn#",
		"odrs":        "http://schema.theodi.org/odrs#",
		"org":         "http://www.w3c.org/ns/org#",
		"owl":         "http://www.w3.org/2002/07/owl#",
		"prov":        "http://www.w3.org/ns/prov#",
		"rdf":         "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"rdfs":        "http://www.w3.org/2000/01/rdf-schema#",
		"schema":      "http://schema.org/",
		"sdmx":        "http://purl.org/linked-data/sdmx/2009/attribute#",
		"sh":          "http://www.w3.org/ns/shacl#",
		"skos":        "http://www.w3.org/2004/02/skos/core#",
		"spdx":        "http://spdx.org/rdf/terms#",
		"vcard":       "http://www.w3.org/2006/vcard/ns#",
		"xsd":         "http://www.w3.org/2001/XMLSchema#",
		"lang":        "http://publications.europa.eu/resource/authority/language/",
		"ftype":       "http://publications.europa.eu/resource/authority/file-type/",
		"access":      "http://publications.europa.eu/resource/authority/access-right/",
	}
}

// NormalizeVersion maps a requested feed version onto a supported one. An
// empty version selects Version2.
func NormalizeVersion(version string) (string, error) {
	switch v := strings.TrimSpace(version); {
	case v == "", v == "2", strings.HasPrefix(v, "2."):
		return Version2, nil
	case v == "3", v == "3.0", v == Version3:
		return Version3, nil
	default:
		return "", ValidationError(fmt.Sprintf("Unsupported DCAT-AP version '%s'", version))
	}
}

// CatalogHeader returns the dcat:Catalog object describing the given site,
// with the given overrides applied on top. The dcat:dataset property is
// reserved for the streamed entries and can't be overridden.
func CatalogHeader(version string, ctx dataset.Context, overrides map[string]any) (map[string]any, error) {
	version, err := NormalizeVersion(version)
	if err != nil {
		return nil, err
	}

	header := make(map[string]any)
	if version == Version3 {
		header["@context"] = version3Context()
	} else {
		header["@context"] = version2Context()
	}

	item := ctx.SiteModel.Item
	siteUrl := item.Url
	if siteUrl == "" {
		siteUrl = ctx.SiteUrl
	}
	header["@type"] = "dcat:Catalog"
	if siteUrl != "" {
		header["@id"] = siteUrl
		header["foaf:homepage"] = map[string]any{
			"foaf:Document": siteUrl + "/search",
		}
	}
	if item.Title != "" {
		header["dct:title"] = item.Title
	}
	if item.Description != "" {
		header["dct:description"] = item.Description
	}
	if ctx.OrgTitle != "" {
		header["dct:publisher"] = ctx.OrgTitle
	}
	if lang := dataset.LocaleToLang(item.Culture); lang != "" {
		header["dct:language"] = map[string]any{
			"@id": "lang:" + strings.ToUpper(lang),
		}
	}
	if ctx.OrgBaseUrl != "" {
		header["dct:creator"] = map[string]any{
			"@id":       ctx.OrgBaseUrl,
			"@type":     "foaf:Agent",
			"foaf:name": ctx.OrgTitle,
		}
	}

	for key, value := range overrides {
		if key == "dcat:dataset" {
			continue
		}
		header[key] = adlib.Clone(value)
	}
	return header, nil
}

// StreamHeader serializes a catalog and opens its dcat:dataset array so that
// entries can be appended to it as text.
func StreamHeader(catalog map[string]any) (string, error) {
	text, err := marshalIndent(catalog)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(text, "\n}") {
		return "", &HeaderSuffixError{Header: text}
	}
	return text[:len(text)-2] + datasetArrayOpening, nil
}
