package config

import (
	"fmt"
)

// a site whose catalog is served as a DCAT-AP feed, keyed by hostname
type siteConfig struct {
	// the site's item ID
	Id string `yaml:"id"`
	// the site's URL
	Url string `yaml:"url"`
	// catalog title and description
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	// the site's locale (e.g. en-us)
	Culture string `yaml:"culture"`
	// the organization owning the site
	OrgTitle   string `yaml:"org_title"`
	OrgBaseUrl string `yaml:"org_base_url"`
	OrgKey     string `yaml:"org_key"`
	// the content listed in the catalog
	Catalog struct {
		// groups whose items are listed
		Groups []string `yaml:"groups"`
		// organization whose items are listed
		OrgId string `yaml:"org_id"`
	} `yaml:"catalog"`
	// custom DCAT dataset template (optional)
	Template map[string]any `yaml:"template,omitempty"`
	// catalog header overrides (optional)
	Header map[string]any `yaml:"header,omitempty"`
}

func validateSite(hostname string, site siteConfig) error {
	if err := validateUrl(fmt.Sprintf("site '%s'", hostname), site.Url); err != nil {
		return err
	}
	if site.OrgBaseUrl != "" {
		if err := validateUrl(fmt.Sprintf("site '%s' org_base_url", hostname), site.OrgBaseUrl); err != nil {
			return err
		}
	}
	if _, found := site.Header["dcat:dataset"]; found {
		return fmt.Errorf("Site '%s' can't override dcat:dataset in its header", hostname)
	}
	return nil
}
