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
	"strings"

	"github.com/koopjs/koop-output-dcat-ap-201/adlib"
)

// A FieldValidator reports whether a name refers to a field of upstream
// records. It settles whether the last segment of a fallback chain is a field
// or a literal default.
type FieldValidator interface {
	IsValidField(name string) bool
}

// a set of top-level upstream field names
type FieldSet map[string]struct{}

func NewFieldSet(names ...string) FieldSet {
	set := make(FieldSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// IsValidField accepts a field path whose top-level name is in the set.
func (s FieldSet) IsValidField(name string) bool {
	_, found := s[topLevelName(name)]
	return found
}

// fields of portal items and the attributes the search index adds to them
var DefaultUpstreamFields = NewFieldSet(
	"access", "accessInformation", "appCategories", "avgRating", "banner",
	"boundary", "categories", "collection", "content", "contentStatus",
	"created", "culture", "description", "documentation", "extent", "fields",
	"geometry", "geometryType", "groupDesignations", "guid", "id",
	"industries", "itemModified", "languages", "largeThumbnail", "layer",
	"layers", "license", "licenseInfo", "listed", "metadata", "modified",
	"name", "numComments", "numRatings", "numViews", "orgContactEmail",
	"orgId", "owner", "properties", "proxyFilter", "recordCount",
	"scoreCompleteness", "screenshots", "searchDescription", "server", "size",
	"slug", "snippet", "source", "spatialReference", "statistics",
	"structuredLicense", "tags", "thumbnail", "title", "type", "typeKeywords",
	"url",
)

// fields every feed requests from upstream, whatever its template
var RequiredFields = []string{
	"id", "access", "size", "slug", "url", "owner", "name", "title", "type",
	"typeKeywords", "tags", "description", "culture", "created", "modified",
	"metadata", "server", "geometryType", "orgContactEmail",
}

// names that are computed while projecting a dataset rather than fetched
var computedFields = map[string]bool{
	"landingPage":    true,
	"hubLandingPage": true,
	"agoLandingPage": true,
	"ownerUri":       true,
	"language":       true,
	"keyword":        true,
	"issuedDateTime": true,
	"orgTitle":       true,
	"provenance":     true,
}

// TemplateDependencies returns the deduplicated top-level upstream fields
// referenced by the template's placeholders. In a fallback chain every
// segment but the last is a field; the last is one only if fields says so.
// Computed attributes are not upstream fields and are left out.
func TemplateDependencies(template Template, fields FieldValidator) []string {
	seen := make(map[string]bool)
	deps := make([]string, 0)
	for _, body := range adlib.ListDependencies(map[string]any(template)) {
		segments := strings.Split(body, "||")
		last := len(segments) - 1
		for i, segment := range segments {
			path, _, _ := strings.Cut(strings.TrimSpace(segment), ":")
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}
			if i == last && last > 0 && (fields == nil || !fields.IsValidField(path)) {
				continue
			}
			name := topLevelName(path)
			if computedFields[name] || seen[name] {
				continue
			}
			seen[name] = true
			deps = append(deps, name)
		}
	}
	return deps
}

// FeedDependencies returns RequiredFields followed by any further fields the
// template needs.
func FeedDependencies(template Template, fields FieldValidator) []string {
	deps := make([]string, 0, len(RequiredFields)+8)
	seen := make(map[string]bool, len(RequiredFields))
	for _, name := range RequiredFields {
		seen[name] = true
		deps = append(deps, name)
	}
	for _, name := range TemplateDependencies(template, fields) {
		if !seen[name] {
			seen[name] = true
			deps = append(deps, name)
		}
	}
	return deps
}

func topLevelName(path string) string {
	name, _, _ := strings.Cut(path, ".")
	return name
}
