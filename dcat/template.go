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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/koopjs/koop-output-dcat-ap-201/adlib"
	"github.com/koopjs/koop-output-dcat-ap-201/dataset"
)

// A Template maps DCAT dataset properties to (possibly nested) values whose
// strings may hold {{...}} placeholders.
type Template map[string]any

// paths of fields whose values customers cannot override; nested paths are
// separated by dots
var ProtectedFieldPaths = []string{
	"@type",
	"@id",
	"dct:publisher",
	"dcat:theme",
	"dct:accessRights",
	"dct:identifier",
	"dcat:keyword",
	"dct:provenance",
	"dct:issued",
	"dct:language",
	"dcat:contactPoint.@id",
	"dcat:contactPoint.@type",
}

// DefaultTemplate returns a fresh copy of the default DCAT-AP dataset
// template.
func DefaultTemplate() Template {
	return Template{
		"@type":           "dcat:Dataset",
		"@id":             "{{landingPage}}",
		"dct:title":       "{{name}}",
		"dct:description": "{{description}}",
		"dcat:contactPoint": map[string]any{
			"@id":            "{{ownerUri}}",
			"@type":          "Contact",
			"vcard:fn":       "{{owner}}",
			"vcard:hasEmail": "{{orgContactEmail}}",
		},
		"dct:publisher":    "{{orgTitle}}",
		"dcat:theme":       "geospatial",
		"dct:accessRights": "public",
		"dct:identifier":   "{{agoLandingPage}}",
		"dcat:keyword":     "{{keyword}}",
		"dct:provenance":   "{{provenance}}",
		"dct:issued":       "{{issuedDateTime}}",
		"dct:language":     "",
		"dct:license":      "{{license}}",
	}
}

// ScrubProtectedKeys returns a copy of a custom template without any of the
// protected keys. A custom contact point keeps its own properties but always
// identifies the dataset's owner.
func ScrubProtectedKeys(template Template) Template {
	scrubbed := adlib.Clone(map[string]any(template)).(map[string]any)
	for _, path := range ProtectedFieldPaths {
		if !strings.Contains(path, ".") {
			delete(scrubbed, path)
		}
	}
	if contactPoint, found := scrubbed["dcat:contactPoint"]; found {
		if contact, ok := contactPoint.(map[string]any); ok {
			contact["@id"] = "{{ownerUri}}"
			contact["@type"] = "Contact"
		} else {
			delete(scrubbed, "dcat:contactPoint")
		}
	}
	return Template(scrubbed)
}

// MergeWithDefaultTemplate overlays the (scrubbed) top-level keys of a custom
// template onto the default template. A nil template yields the default.
func MergeWithDefaultTemplate(template Template) Template {
	merged := DefaultTemplate()
	if template == nil {
		return merged
	}
	for key, value := range ScrubProtectedKeys(template) {
		merged[key] = value
	}
	return merged
}

// ParseTemplate decodes a template given as a JSON or YAML object.
func ParseTemplate(data []byte) (Template, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ValidationError("A feed template is required")
	}
	var decoded any
	var err error
	if trimmed[0] == '{' || trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &decoded)
	} else {
		err = yaml.Unmarshal(trimmed, &decoded)
	}
	if err != nil {
		return nil, ValidationError(fmt.Sprintf("Invalid feed template: %s", err.Error()))
	}
	template, ok := decoded.(map[string]any)
	if !ok {
		return nil, ValidationError("A feed template must be an object")
	}
	return Template(template), nil
}

// DefaultTransforms returns the transforms available to templates unless a
// caller supplies its own: toISO formats a date as ISO 8601 and toArray
// coerces a value into a list.
func DefaultTransforms() adlib.Transforms {
	return adlib.Transforms{
		"toISO":   toISO,
		"toArray": toArray,
	}
}

func toISO(key string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	t, ok := dataset.ParseTime(value)
	if !ok {
		return nil, fmt.Errorf("Invalid time value '%v'", value)
	}
	return dataset.ISOString(t), nil
}

func toArray(key string, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return []any{}, nil
	case bool:
		if !v {
			return []any{}, nil
		}
	case string:
		if v == "" {
			return []any{}, nil
		}
	case float64:
		if v == 0 {
			return []any{}, nil
		}
	case int:
		if v == 0 {
			return []any{}, nil
		}
	case []any, []string:
		return adlib.Clone(v), nil
	}
	return []any{value}, nil
}
