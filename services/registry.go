package services

import (
	"github.com/koopjs/koop-output-dcat-ap-201/config"
	"github.com/koopjs/koop-output-dcat-ap-201/dataset"
	"github.com/koopjs/koop-output-dcat-ap-201/sites"
)

// NewSiteRegistry creates a registry of the configured sites, backed by the
// configured SQLite registry (if any) for hostnames not configured directly.
func NewSiteRegistry() (sites.Registry, error) {
	configured := make(map[string]sites.Site, len(config.Sites))
	for hostname, site := range config.Sites {
		configured[hostname] = sites.Site{
			Id:         site.Id,
			OrgTitle:   site.OrgTitle,
			OrgBaseUrl: site.OrgBaseUrl,
			OrgKey:     site.OrgKey,
			Model: dataset.SiteModel{
				Item: dataset.SiteItem{
					Id:          site.Id,
					Url:         site.Url,
					Title:       site.Title,
					Description: site.Description,
					Culture:     site.Culture,
				},
			},
			Catalog: sites.Catalog{
				Groups: site.Catalog.Groups,
				OrgId:  site.Catalog.OrgId,
			},
			Template: site.Template,
			Header:   site.Header,
		}
	}
	registry := sites.ChainRegistry{sites.NewConfigRegistry(configured)}
	if config.Registry.Path != "" {
		stored, err := sites.NewSQLiteRegistry(config.Registry.Path)
		if err != nil {
			return nil, err
		}
		registry = append(registry, stored)
	}
	return registry, nil
}
