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

// Package sites resolves the hostname of a request to the site (and
// organization) whose catalog it serves.
package sites

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/koopjs/koop-output-dcat-ap-201/adlib"
	"github.com/koopjs/koop-output-dcat-ap-201/dataset"
)

// the portal content a site's catalog lists
type Catalog struct {
	// groups whose shared items are listed
	Groups []string `json:"groups,omitempty"`
	// organization whose items are listed
	OrgId string `json:"orgId,omitempty"`
}

// a site served by this service
type Site struct {
	Hostname   string            `json:"hostname"`
	Id         string            `json:"id"`
	OrgTitle   string            `json:"orgTitle"`
	OrgBaseUrl string            `json:"orgBaseUrl"`
	OrgKey     string            `json:"orgKey,omitempty"`
	Model      dataset.SiteModel `json:"model"`
	Catalog    Catalog           `json:"catalog"`
	// custom DCAT template for the site's datasets
	Template map[string]any `json:"template,omitempty"`
	// catalog header overrides
	Header map[string]any `json:"header,omitempty"`
}

// returns true if the site lists any content in its catalog
func (s Site) HasCatalog() bool {
	return len(s.Catalog.Groups) > 0 || s.Catalog.OrgId != ""
}

// Context returns the projection context of the site's datasets, whose item
// pages live on the given portal.
func (s Site) Context(portalUrl string) dataset.Context {
	model := s.Model
	if s.OrgKey != "" && adlib.Lookup(model.Data, "values.orgKey") == nil {
		data := make(map[string]any, len(model.Data)+1)
		for key, value := range model.Data {
			data[key] = value
		}
		values := make(map[string]any)
		if existing, ok := data["values"].(map[string]any); ok {
			for key, value := range existing {
				values[key] = value
			}
		}
		values["orgKey"] = s.OrgKey
		data["values"] = values
		model.Data = data
	}
	return dataset.Context{
		OrgBaseUrl: s.OrgBaseUrl,
		OrgTitle:   s.OrgTitle,
		SiteUrl:    model.Item.Url,
		PortalUrl:  portalUrl,
		SiteModel:  model,
	}
}

// FeedTemplate returns the site's template with its header overrides placed
// under the "header" key, or nil if the site uses the default template and
// header.
func (s Site) FeedTemplate() map[string]any {
	if s.Template == nil && len(s.Header) == 0 {
		return nil
	}
	template := make(map[string]any)
	if s.Template != nil {
		template = adlib.Clone(s.Template).(map[string]any)
	}
	if len(s.Header) > 0 {
		header, _ := template["header"].(map[string]any)
		if header == nil {
			header = make(map[string]any)
		}
		for key, value := range s.Header {
			header[key] = adlib.Clone(value)
		}
		template["header"] = header
	}
	return template
}

// A Registry looks up sites by hostname.
type Registry interface {
	Lookup(ctx context.Context, hostname string) (Site, error)
}

// NormalizeHostname lowercases a hostname and strips any port.
func NormalizeHostname(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}

// a registry holding a fixed set of sites
type ConfigRegistry struct {
	sites map[string]Site
}

// NewConfigRegistry creates a registry of the given sites, keyed by hostname.
// Each site's Hostname is set from its key.
func NewConfigRegistry(sites map[string]Site) *ConfigRegistry {
	registry := &ConfigRegistry{sites: make(map[string]Site, len(sites))}
	for hostname, site := range sites {
		hostname = NormalizeHostname(hostname)
		site.Hostname = hostname
		registry.sites[hostname] = site
	}
	return registry
}

func (r *ConfigRegistry) Lookup(ctx context.Context, hostname string) (Site, error) {
	if site, found := r.sites[NormalizeHostname(hostname)]; found {
		return site, nil
	}
	return Site{}, &NotFoundError{Hostname: hostname}
}

// a registry consulting several registries in turn
type ChainRegistry []Registry

// Lookup returns the site from the first registry that knows the hostname.
func (c ChainRegistry) Lookup(ctx context.Context, hostname string) (Site, error) {
	for _, registry := range c {
		site, err := registry.Lookup(ctx, hostname)
		if err == nil {
			return site, nil
		}
		if !errors.As(err, new(*NotFoundError)) {
			return Site{}, err
		}
	}
	return Site{}, &NotFoundError{Hostname: hostname}
}

// closes every registry in the chain that can be closed
func (c ChainRegistry) Close() error {
	var errs []error
	for _, registry := range c {
		if closer, ok := registry.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}
