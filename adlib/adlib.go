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

// Package adlib interpolates {{...}} placeholders in nested templates.
//
// A template is any tree of map[string]any, []any, strings, and scalar
// literals. String leaves may contain placeholders of the form
//
//	{{path}}                  value at a dotted path in the data
//	{{path:transform}}        value passed through a named transform
//	{{pathA || pathB || lit}} first resolvable path, else the literal
//
// Placeholders that cannot be resolved are left verbatim so callers can
// decide how to treat missing data.
package adlib

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// a function applied to a resolved value; key is the path being resolved
type TransformFunc func(key string, value any) (any, error)

// named transforms available to {{path:transform}} placeholders
type Transforms map[string]TransformFunc

var (
	placeholderRegexp   = regexp.MustCompile(`\{\{([^{}]+)\}\}`)
	wholeValueRegexp    = regexp.MustCompile(`^\{\{([^{}]+)\}\}$`)
	uninterpolatedRegex = regexp.MustCompile(`\{\{.+?\}\}`)
)

// Interpolate resolves every placeholder in the given template against data,
// returning a new tree. The template itself is never modified.
func Interpolate(template any, data map[string]any, transforms Transforms) (any, error) {
	r := resolver{data: data, transforms: transforms}
	return r.walk(template)
}

// ListDependencies returns the body of every placeholder found in the
// template's string leaves, trimmed and deduplicated in first-seen order.
// Fallback chains are returned whole (e.g. "a || b || default").
func ListDependencies(template any) []string {
	seen := make(map[string]struct{})
	deps := make([]string, 0)
	var visit func(node any)
	visit = func(node any) {
		switch v := node.(type) {
		case string:
			for _, match := range placeholderRegexp.FindAllStringSubmatch(v, -1) {
				body := strings.TrimSpace(match[1])
				if body == "" {
					continue
				}
				if _, found := seen[body]; !found {
					seen[body] = struct{}{}
					deps = append(deps, body)
				}
			}
		case map[string]any:
			for _, child := range v {
				visit(child)
			}
		case []any:
			for _, child := range v {
				visit(child)
			}
		case []string:
			for _, child := range v {
				visit(child)
			}
		}
	}
	visit(template)
	return deps
}

// IsUninterpolated returns true if s still contains a {{...}} placeholder.
func IsUninterpolated(s string) bool {
	return uninterpolatedRegex.MatchString(s)
}

// Lookup returns the value at the given dotted path, or nil if any step of
// the path is missing. A key containing dots is matched directly first.
func Lookup(data map[string]any, path string) any {
	if path == "" || data == nil {
		return nil
	}
	if value, found := data[path]; found {
		return value
	}
	var node any = data
	for _, step := range strings.Split(path, ".") {
		switch v := node.(type) {
		case map[string]any:
			next, found := v[step]
			if !found {
				return nil
			}
			node = next
		case []any:
			i, err := strconv.Atoi(step)
			if err != nil || i < 0 || i >= len(v) {
				return nil
			}
			node = v[i]
		default:
			return nil
		}
	}
	return node
}

type resolver struct {
	data       map[string]any
	transforms Transforms
}

func (r resolver) walk(node any) (any, error) {
	switch v := node.(type) {
	case string:
		return r.interpolateString(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, child := range v {
			value, err := r.walk(child)
			if err != nil {
				return nil, err
			}
			out[key] = value
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			value, err := r.walk(child)
			if err != nil {
				return nil, err
			}
			out[i] = value
		}
		return out, nil
	case []string:
		out := make([]any, len(v))
		for i, child := range v {
			value, err := r.interpolateString(child)
			if err != nil {
				return nil, err
			}
			out[i] = value
		}
		return out, nil
	default:
		return v, nil
	}
}

func (r resolver) interpolateString(s string) (any, error) {
	// a string that is a single placeholder takes on the resolved value's type
	if match := wholeValueRegexp.FindStringSubmatch(s); match != nil {
		value, ok, err := r.resolve(match[1])
		if err != nil {
			return nil, err
		}
		if !ok {
			return s, nil
		}
		return Clone(value), nil
	}

	var err error
	out := placeholderRegexp.ReplaceAllStringFunc(s, func(placeholder string) string {
		if err != nil {
			return placeholder
		}
		value, ok, resolveErr := r.resolve(placeholder[2 : len(placeholder)-2])
		if resolveErr != nil {
			err = resolveErr
			return placeholder
		}
		if !ok {
			return placeholder
		}
		return stringify(value)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// resolves the body of a placeholder, returning the value and whether it
// resolved at all
func (r resolver) resolve(body string) (any, bool, error) {
	segments := strings.Split(body, "||")
	for i := range segments {
		segments[i] = strings.TrimSpace(segments[i])
	}
	last := len(segments) - 1
	for i, segment := range segments {
		if segment == "" {
			continue
		}
		value, err := r.resolveSegment(segment)
		if err != nil {
			// the last segment of a chain may be a literal that merely looks
			// like path:transform (e.g. a URL)
			if _, unknown := err.(*UnknownTransformError); unknown && i == last && last > 0 {
				return segment, true, nil
			}
			return nil, false, err
		}
		if value != nil {
			return value, true, nil
		}
	}
	if last > 0 && segments[last] != "" {
		return segments[last], true, nil
	}
	return nil, false, nil
}

func (r resolver) resolveSegment(segment string) (any, error) {
	colon := strings.Index(segment, ":")
	if colon == -1 {
		return Lookup(r.data, segment), nil
	}
	path := strings.TrimSpace(segment[:colon])
	name := strings.TrimSpace(segment[colon+1:])
	transform, found := r.transforms[name]
	if !found {
		// field names may themselves contain colons
		if value := Lookup(r.data, segment); value != nil {
			return value, nil
		}
		return nil, &UnknownTransformError{Transform: name, Path: path}
	}
	value, err := transform(path, Lookup(r.data, path))
	if err != nil {
		return nil, &TransformError{Transform: name, Path: path, Err: err}
	}
	return value, nil
}

// renders a value embedded in a larger string
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(b)
}

// Clone returns a deep copy of maps and slices within the given value so
// that interpolated output never aliases the input data.
func Clone(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, child := range v {
			out[key] = Clone(child)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = Clone(child)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = child
		}
		return out
	default:
		return v
	}
}
