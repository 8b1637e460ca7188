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

	"github.com/koopjs/koop-output-dcat-ap-201/adlib"
	"github.com/koopjs/koop-output-dcat-ap-201/dataset"
)

// the number of tabs each compiled entry is indented by, placing it inside
// the catalog's dcat:dataset array
const entryIndent = 2

// A Compiler turns raw dataset records into indented JSON dcat:Dataset
// entries.
type Compiler struct {
	// the organization and site datasets are projected for
	Context dataset.Context
	// the (already merged) template applied to each dataset
	Template Template
	// transforms available to the template; nil selects DefaultTransforms
	Transforms adlib.Transforms
	// if set, the generated distributions of each dataset follow any
	// distributions given by the template
	Distributions bool
}

// CompileFeedEntry compiles a single record against a template without any
// site context and without generated distributions.
func CompileFeedEntry(raw map[string]any, template Template, transforms adlib.Transforms) (string, error) {
	compiler := Compiler{
		Template:   template,
		Transforms: transforms,
	}
	return compiler.Compile(raw)
}

// Compile returns the indented JSON entry for the given raw record. Any
// failure is returned as a compilation Error.
func (c Compiler) Compile(raw map[string]any) (string, error) {
	entry, err := c.compile(raw)
	if err != nil {
		return "", CompilationError(err)
	}
	return entry, nil
}

// Entry returns the compiled (but not yet serialized) entry for a raw record.
func (c Compiler) Entry(raw map[string]any) (map[string]any, error) {
	ds, err := dataset.Project(raw, c.Context)
	if err != nil {
		return nil, err
	}

	fields := ds.Fields()
	if license, _ := fields["license"].(string); license == "none" {
		delete(fields, "license")
	}

	transforms := c.Transforms
	if transforms == nil {
		transforms = DefaultTransforms()
	}
	interpolated, err := adlib.Interpolate(map[string]any(c.Template), fields, transforms)
	if err != nil {
		return nil, err
	}
	entry, ok := interpolated.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("Template did not produce an object")
	}

	// customers can't remove protected fields, so missing data leaves them empty
	for _, path := range ProtectedFieldPaths {
		resetUninterpolatedPath(entry, path)
	}

	c.setDistributions(entry, ds)

	if ds.Language != "" {
		entry["dct:language"] = map[string]any{
			"@id": "lang:" + strings.ToUpper(ds.Language),
		}
	}

	pruneUninterpolated(entry)
	return entry, nil
}

func (c Compiler) compile(raw map[string]any) (string, error) {
	entry, err := c.Entry(raw)
	if err != nil {
		return "", err
	}
	text, err := marshalIndent(entry)
	if err != nil {
		return "", err
	}
	return indent(text, entryIndent), nil
}

// combines the template's own distributions (if given as a list) with the
// dataset's generated distributions, dropping unresolved entries
func (c Compiler) setDistributions(entry map[string]any, ds *dataset.Dataset) {
	custom, isList := entry["dcat:distribution"].([]any)
	if !isList && !c.Distributions {
		return
	}
	distributions := make([]any, 0, len(custom)+8)
	for _, element := range custom {
		if nested, ok := element.([]any); ok {
			distributions = append(distributions, nested...)
		} else {
			distributions = append(distributions, element)
		}
	}
	if c.Distributions {
		for _, distribution := range GenerateDistributions(ds) {
			distributions = append(distributions, distribution)
		}
	}
	kept := distributions[:0]
	for _, distribution := range distributions {
		if s, ok := distribution.(string); ok && adlib.IsUninterpolated(s) {
			continue
		}
		kept = append(kept, distribution)
	}
	entry["dcat:distribution"] = kept
}

// replaces the value at the given dotted path with an empty string if it
// still holds a placeholder
func resetUninterpolatedPath(entry map[string]any, path string) {
	node := entry
	steps := strings.Split(path, ".")
	for _, step := range steps[:len(steps)-1] {
		next, ok := node[step].(map[string]any)
		if !ok {
			return
		}
		node = next
	}
	last := steps[len(steps)-1]
	if s, ok := node[last].(string); ok && adlib.IsUninterpolated(s) {
		node[last] = ""
	}
}

// removes map entries and list elements that still hold placeholders
func pruneUninterpolated(node map[string]any) {
	for key, value := range node {
		switch v := value.(type) {
		case string:
			if adlib.IsUninterpolated(v) {
				delete(node, key)
			}
		case map[string]any:
			pruneUninterpolated(v)
		case []any:
			node[key] = pruneList(v)
		}
	}
}

func pruneList(list []any) []any {
	kept := list[:0]
	for _, element := range list {
		switch v := element.(type) {
		case string:
			if adlib.IsUninterpolated(v) {
				continue
			}
		case map[string]any:
			pruneUninterpolated(v)
		case []any:
			element = pruneList(v)
		}
		kept = append(kept, element)
	}
	return kept
}

// serializes a value as tab-indented JSON without escaping HTML characters
func marshalIndent(value any) (string, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "\t")
	if err := encoder.Encode(value); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buffer.String(), "\n"), nil
}

// indents every line of the given text by the given number of tabs
func indent(text string, tabs int) string {
	prefix := strings.Repeat("\t", tabs)
	return prefix + strings.ReplaceAll(text, "\n", "\n"+prefix)
}
