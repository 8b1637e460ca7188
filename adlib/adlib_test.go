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

package adlib

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var record = map[string]any{
	"name":    "Tahoe places of interest",
	"owner":   "thervey_qa_pre_a_hub",
	"created": float64(1611934478000),
	"tags":    []any{"Data collection", "just modified"},
	"server": map[string]any{
		"spatialReference": map[string]any{"wkid": float64(4326)},
	},
	"metadata": map[string]any{
		"metadata": map[string]any{
			"dataIdInfo": map[string]any{
				"dataLang": map[string]any{
					"languageCode": map[string]any{"@_value": "ger"},
				},
			},
		},
	},
	"layers": []any{map[string]any{"name": "first"}},
}

var upper = Transforms{
	"upper": func(key string, value any) (any, error) {
		if value == nil {
			return nil, nil
		}
		return strings.ToUpper(fmt.Sprintf("%v", value)), nil
	},
	"fail": func(key string, value any) (any, error) {
		return nil, fmt.Errorf("no way")
	},
	"always": func(key string, value any) (any, error) {
		return []any{}, nil
	},
}

func TestInterpolateWholeValueKeepsType(t *testing.T) {
	assert := assert.New(t)
	out, err := Interpolate(map[string]any{
		"title":   "{{name}}",
		"keyword": "{{tags}}",
		"created": "{{created}}",
		"literal": 42,
	}, record, nil)
	assert.Nil(err)
	result := out.(map[string]any)
	assert.Equal("Tahoe places of interest", result["title"])
	assert.Equal([]any{"Data collection", "just modified"}, result["keyword"])
	assert.Equal(float64(1611934478000), result["created"])
	assert.Equal(42, result["literal"])
}

func TestInterpolateMixedString(t *testing.T) {
	assert := assert.New(t)
	out, err := Interpolate("{{name}} by {{ owner }} ({{created}})", record, nil)
	assert.Nil(err)
	assert.Equal("Tahoe places of interest by thervey_qa_pre_a_hub (1611934478000)", out)
}

func TestInterpolateNestedPaths(t *testing.T) {
	assert := assert.New(t)
	out, err := Interpolate([]any{
		"{{metadata.metadata.dataIdInfo.dataLang.languageCode.@_value}}",
		"{{server.spatialReference.wkid}}",
		"{{layers.0.name}}",
	}, record, nil)
	assert.Nil(err)
	assert.Equal([]any{"ger", float64(4326), "first"}, out)
}

func TestInterpolateLeavesUnresolvedPlaceholders(t *testing.T) {
	assert := assert.New(t)
	out, err := Interpolate(map[string]any{
		"missing": "{{nope}}",
		"mixed":   "prefix {{nope}} suffix",
	}, record, nil)
	assert.Nil(err)
	result := out.(map[string]any)
	assert.Equal("{{nope}}", result["missing"])
	assert.Equal("prefix {{nope}} suffix", result["mixed"])
}

func TestInterpolateFallbackChain(t *testing.T) {
	assert := assert.New(t)
	out, err := Interpolate(map[string]any{
		"first":   "{{nope || name}}",
		"literal": "{{nope || also.nope || default value}}",
		"url":     "{{nope || https://example.com}}",
	}, record, nil)
	assert.Nil(err)
	result := out.(map[string]any)
	assert.Equal("Tahoe places of interest", result["first"])
	assert.Equal("default value", result["literal"])
	assert.Equal("https://example.com", result["url"])
}

func TestInterpolateTransforms(t *testing.T) {
	assert := assert.New(t)
	out, err := Interpolate(map[string]any{
		"upper":   "{{owner:upper}}",
		"missing": "{{nope:upper}}",
		"always":  "{{nope:always}}",
	}, record, upper)
	assert.Nil(err)
	result := out.(map[string]any)
	assert.Equal("THERVEY_QA_PRE_A_HUB", result["upper"])
	assert.Equal("{{nope:upper}}", result["missing"])
	assert.Equal([]any{}, result["always"])
}

func TestInterpolateUnknownTransform(t *testing.T) {
	assert := assert.New(t)
	_, err := Interpolate(map[string]any{"issued": "{{created:toISO}}"}, record, nil)
	assert.NotNil(err)
	assert.Equal("Unknown transform 'toISO' requested for 'created'", err.Error())
}

func TestInterpolateFailingTransform(t *testing.T) {
	assert := assert.New(t)
	_, err := Interpolate("{{name:fail}}", record, upper)
	assert.NotNil(err)
	assert.Equal("Transform 'fail' failed for 'name': no way", err.Error())
}

func TestInterpolateDoesNotAliasData(t *testing.T) {
	assert := assert.New(t)
	out, err := Interpolate("{{tags}}", record, nil)
	assert.Nil(err)
	tags := out.([]any)
	tags[0] = "changed"
	assert.Equal("Data collection", record["tags"].([]any)[0])
}

func TestListDependencies(t *testing.T) {
	assert := assert.New(t)
	deps := ListDependencies(map[string]any{
		"a": "{{ name }}",
		"b": []any{"{{owner}} and {{created:toISO}}", 3},
		"c": map[string]any{"d": "{{nope || name || literal}}"},
		"e": "{{name}}",
	})
	assert.ElementsMatch([]string{"name", "owner", "created:toISO", "nope || name || literal"}, deps)
}

func TestIsUninterpolated(t *testing.T) {
	assert := assert.New(t)
	assert.True(IsUninterpolated("{{distroname}}"))
	assert.True(IsUninterpolated("see {{ Id Injection }} here"))
	assert.False(IsUninterpolated("distro1"))
	assert.False(IsUninterpolated("{{}}"))
}
