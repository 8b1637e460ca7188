package config

// These tests verify that we can properly configure the feed service with
// a YAML file.

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// a valid service config entry
const VALID_SERVICE string = `
service:
  port: 8080
  max_connections: 100
  portal: https://www.arcgis.com
`

// a valid upstream config entry
const VALID_UPSTREAM string = `
upstream:
  url: ${DCAT_PORTAL_URL}/sharing/rest/search
  page_size: 50
  rate_limit: 5
  timeout: 10
`

// a valid sites config entry
const VALID_SITES string = `
sites:
  jules-goes-the-distance-qa-pre-a-hub.hubqa.arcgis.com:
    id: 884d15dd172c4040b1ed49c0b67b9fff
    url: https://jules-goes-the-distance-qa-pre-a-hub.hubqa.arcgis.com
    title: Jules Goes The Distance
    description: A site for testing
    culture: ba-ei
    org_title: QA Premium Alpha Hub
    org_base_url: https://qa-pre-a-hub.mapsqa.arcgis.com
    org_key: qa-pre-a-hub
    catalog:
      groups:
        - 879d8747fa58421f91b3110210d46af2
      org_id: Xj56SBi2udA78cC9
    template:
      dct:title: "{{name}}"
      dcat:distribution:
        - "{{url}}"
    header:
      dct:title: Jules' catalog
`

// tests whether config.Init reports an error for blank input
func TestInitRejectsBlankInput(t *testing.T) {
	b := []byte("")
	err := Init(b)
	assert.NotNil(t, err, "Blank config didn't trigger an error.")
}

// tests whether config.Init reports an error for an invalid port
func TestInitRejectsBadPort(t *testing.T) {
	yaml := "service:\n  port: -1\n\n" + VALID_UPSTREAM + VALID_SITES
	b := []byte(yaml)
	err := Init(b)
	assert.NotNil(t, err, "Config with bad port didn't trigger an error.")
	yaml = "service:\n  port: 1000000\n\n" + VALID_UPSTREAM + VALID_SITES
	b = []byte(yaml)
	err = Init(b)
	assert.NotNil(t, err, "Config with bad port didn't trigger an error.")
}

// tests whether config.Init reports an error for an invalid max number of
// connections
func TestInitRejectsBadMaxConnections(t *testing.T) {
	yaml := "service:\n  max_connections: 0\n\n" + VALID_UPSTREAM + VALID_SITES
	b := []byte(yaml)
	err := Init(b)
	assert.NotNil(t, err, "Config with bad max_connections didn't trigger an error.")
}

// tests whether config.Init rejects bad upstream parameters
func TestInitRejectsBadUpstream(t *testing.T) {
	for _, upstream := range []string{
		"upstream:\n  url: hahahahahahaha\n\n",
		"upstream:\n  page_size: 0\n\n",
		"upstream:\n  page_size: 101\n\n",
		"upstream:\n  rate_limit: -1\n\n",
		"upstream:\n  timeout: 0\n\n",
	} {
		b := []byte(VALID_SERVICE + upstream + VALID_SITES)
		err := Init(b)
		assert.NotNil(t, err, "Config with bad upstream didn't trigger an error: %s", upstream)
	}
}

// tests whether config.Init rejects a configuration with no sites
func TestInitRejectsNoSitesDefined(t *testing.T) {
	yaml := VALID_SERVICE + VALID_UPSTREAM
	b := []byte(yaml)
	err := Init(b)
	assert.NotNil(t, err, "Config with no sites didn't trigger an error.")

	// a registry can stand in for configured sites
	yaml = VALID_SERVICE + VALID_UPSTREAM + "registry:\n  path: sites.db\n"
	err = Init([]byte(yaml))
	assert.Nil(t, err)
}

// Tests whether config.Init rejects a site with a bad URL.
func TestInitRejectsBadSiteURL(t *testing.T) {
	yaml := fmt.Sprintf("sites:\n  ohaicorp.com:\n    url: hahahahahahaha\n\n")
	b := []byte(yaml)
	err := Init(b)
	assert.NotNil(t, err, "Config with bad site URL didn't trigger an error.")
}

// Tests whether config.Init rejects a site header that overrides the dataset
// list.
func TestInitRejectsDatasetHeaderOverride(t *testing.T) {
	yaml := "sites:\n  ohaicorp.com:\n    url: https://ohaicorp.com\n    header:\n      dcat:dataset: []\n"
	b := []byte(yaml)
	err := Init(b)
	assert.NotNil(t, err, "Config overriding dcat:dataset didn't trigger an error.")
}

// Tests whether config.Init returns no error for a configuration that is
// (ostensibly) valid.
func TestInitAcceptsValidInput(t *testing.T) {
	yaml := VALID_SERVICE + VALID_UPSTREAM + VALID_SITES
	b := []byte(yaml)
	err := Init(b)
	assert.Nil(t, err, fmt.Sprintf("Valid YAML input produced an error: %s", err))
}

// Tests whether config.Init properly initializes its globals for valid input.
func TestInitProperlySetsGlobals(t *testing.T) {
	yaml := VALID_SERVICE + VALID_UPSTREAM + VALID_SITES
	b := []byte(yaml)
	err := Init(b)
	assert.Nil(t, err, fmt.Sprintf("Valid YAML input produced an error: %s", err))

	// Check data
	assert.Equal(t, 8080, Service.Port)
	assert.Equal(t, 100, Service.MaxConnections)
	assert.Equal(t, "https://portal.example.com/sharing/rest/search", Upstream.Url)
	assert.Equal(t, 50, Upstream.PageSize)
	assert.Equal(t, 5.0, Upstream.RateLimit)
	assert.Equal(t, 10*time.Second, Upstream.RequestTimeout())
	assert.Equal(t, 1, len(Sites))

	site := Sites["jules-goes-the-distance-qa-pre-a-hub.hubqa.arcgis.com"]
	assert.Equal(t, "QA Premium Alpha Hub", site.OrgTitle)
	assert.Equal(t, []string{"879d8747fa58421f91b3110210d46af2"}, site.Catalog.Groups)
	assert.Equal(t, "Xj56SBi2udA78cC9", site.Catalog.OrgId)
	assert.Equal(t, "{{name}}", site.Template["dct:title"])
	assert.Equal(t, []any{"{{url}}"}, site.Template["dcat:distribution"])
	assert.Equal(t, "Jules' catalog", site.Header["dct:title"])
}

// Tests whether defaults apply to omitted sections.
func TestInitSetsDefaults(t *testing.T) {
	err := Init([]byte(VALID_SITES))
	assert.Nil(t, err)
	assert.Equal(t, 8080, Service.Port)
	assert.Equal(t, "https://www.arcgis.com", Service.Portal)
	assert.Equal(t, "https://www.arcgis.com/sharing/rest/search", Upstream.Url)
	assert.Equal(t, 100, Upstream.PageSize)
	assert.Equal(t, 30*time.Second, Upstream.RequestTimeout())
}

// this function gets called at the begіnning of a test session
func setup() {
	os.Setenv("DCAT_PORTAL_URL", "https://portal.example.com")
}

// this function gets called after all tests have been run
func breakdown() {
	os.Unsetenv("DCAT_PORTAL_URL")
}

// This runs setup, runs all tests, and does breakdown.
func TestMain(m *testing.M) {
	var status int
	setup()
	status = m.Run()
	breakdown()
	os.Exit(status)
}
