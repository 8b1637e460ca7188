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
	"io"

	"github.com/koopjs/koop-output-dcat-ap-201/adlib"
	"github.com/koopjs/koop-output-dcat-ap-201/dataset"
	"github.com/koopjs/koop-output-dcat-ap-201/feed"
)

// options for assembling a DCAT-AP feed
type FeedOptions struct {
	// a custom template (nil for the default), optionally holding catalog
	// header overrides under its "header" key
	Template Template
	// transforms available to the template (nil for DefaultTransforms)
	Transforms adlib.Transforms
	// the requested DCAT-AP version ("" for Version2)
	Version string
	// the organization and site the feed describes
	Context dataset.Context
	// upstream fields, used to tell fields from literals in fallback chains
	// (nil for DefaultUpstreamFields)
	Fields FieldValidator
}

// A Feed holds everything needed to stream one DCAT-AP document.
type Feed struct {
	Version   string
	Header    string
	Footer    string
	Separator string
	// upstream fields that records must carry for the template to resolve
	Dependencies []string
	Compiler     Compiler
}

// GetDataStream prepares a feed: it merges the template with the default,
// builds the catalog header and computes the feed's upstream dependencies.
func GetDataStream(options FeedOptions) (*Feed, error) {
	version, err := NormalizeVersion(options.Version)
	if err != nil {
		return nil, err
	}

	var overrides map[string]any
	custom := options.Template
	if custom != nil {
		if header, found := custom["header"]; found {
			overrides, _ = header.(map[string]any)
			custom = Template(adlib.Clone(map[string]any(custom)).(map[string]any))
			delete(custom, "header")
		}
	}
	template := MergeWithDefaultTemplate(custom)

	catalog, err := CatalogHeader(version, options.Context, overrides)
	if err != nil {
		return nil, err
	}
	header, err := StreamHeader(catalog)
	if err != nil {
		return nil, err
	}

	fields := options.Fields
	if fields == nil {
		fields = DefaultUpstreamFields
	}
	return &Feed{
		Version:      version,
		Header:       header,
		Footer:       Footer,
		Separator:    Separator,
		Dependencies: FeedDependencies(template, fields),
		Compiler: Compiler{
			Context:       options.Context,
			Template:      template,
			Transforms:    options.Transforms,
			Distributions: true,
		},
	}, nil
}

// Format compiles one record into a feed entry.
func (f *Feed) Format(record map[string]any) (string, error) {
	return f.Compiler.Compile(record)
}

// Stream returns a stream writing the feed to w.
func (f *Feed) Stream(w io.Writer) *feed.Stream {
	return feed.NewStream(w, f.Header, f.Footer, f.Separator, f.Format)
}
