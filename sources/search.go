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

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// the largest page the portal search API returns
const MaxPageSize = 100

// options for paging through a portal's item search
type SearchOptions struct {
	// URL of the search endpoint (e.g. https://www.arcgis.com/sharing/rest/search)
	Url string
	// groups whose items are searched (any of them)
	Groups []string
	// organization whose items are searched
	OrgId string
	// any further query terms
	Query string
	// fields requested for each record (all fields if empty)
	Fields []string
	// records requested per page (default: MaxPageSize)
	PageSize int
	// maximum number of page requests per second (0 for no limit)
	RateLimit float64
	// timeout for each page request (default: 30 seconds)
	Timeout time.Duration
}

// A SearchSource yields the records matching a portal search, requesting a
// page at a time.
type SearchSource struct {
	Options SearchOptions
	Client  http.Client
	limiter *rate.Limiter
	query   string
	page    []Record
	start   int
	done    bool
}

// the body of a search response
type searchResponse struct {
	Total     int      `json:"total"`
	NextStart int      `json:"nextStart"`
	Results   []Record `json:"results"`
	Error     *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewSearchSource(options SearchOptions) (*SearchSource, error) {
	if options.Url == "" {
		return nil, fmt.Errorf("No search URL was given")
	}
	if options.PageSize <= 0 || options.PageSize > MaxPageSize {
		options.PageSize = MaxPageSize
	}
	if options.Timeout <= 0 {
		options.Timeout = 30 * time.Second
	}
	query := SearchQuery(options.Groups, options.OrgId, options.Query)
	if query == "" {
		return nil, fmt.Errorf("A search needs at least one group, an organization or a query")
	}
	limit := rate.Inf
	if options.RateLimit > 0 {
		limit = rate.Limit(options.RateLimit)
	}
	return &SearchSource{
		Options: options,
		Client:  SecureHttpClient(options.Timeout),
		limiter: rate.NewLimiter(limit, 1),
		query:   query,
		start:   1,
	}, nil
}

// SearchQuery builds a portal search query matching items shared with any of
// the given groups and owned by the given organization.
func SearchQuery(groups []string, orgId, query string) string {
	terms := make([]string, 0, 3)
	if len(groups) > 0 {
		groupTerms := make([]string, len(groups))
		for i, group := range groups {
			groupTerms[i] = fmt.Sprintf(`group:"%s"`, group)
		}
		terms = append(terms, "("+strings.Join(groupTerms, " OR ")+")")
	}
	if orgId != "" {
		terms = append(terms, fmt.Sprintf(`orgid:"%s"`, orgId))
	}
	if query = strings.TrimSpace(query); query != "" {
		terms = append(terms, "("+query+")")
	}
	return strings.Join(terms, " AND ")
}

func (s *SearchSource) Next(ctx context.Context) (Record, error) {
	for len(s.page) == 0 {
		if s.done {
			return nil, io.EOF
		}
		if err := s.fetch(ctx); err != nil {
			return nil, err
		}
	}
	record := s.page[0]
	s.page = s.page[1:]
	return record, nil
}

// requests the next page of results
func (s *SearchSource) fetch(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	values := url.Values{}
	values.Set("q", s.query)
	values.Set("start", strconv.Itoa(s.start))
	values.Set("num", strconv.Itoa(s.Options.PageSize))
	values.Set("f", "json")
	if len(s.Options.Fields) > 0 {
		values.Set("fields", strings.Join(s.Options.Fields, ","))
	}
	resource := fmt.Sprintf("%s?%s", s.Options.Url, values.Encode())
	slog.Debug(fmt.Sprintf("GET: %s", resource))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resource, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &UpstreamError{
			Url:        s.Options.Url,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var page searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return &UpstreamError{
			Url:        s.Options.Url,
			StatusCode: http.StatusBadGateway,
			Message:    fmt.Sprintf("invalid search response: %s", err.Error()),
		}
	}
	// the portal reports some failures in the body of a 200 response
	if page.Error != nil {
		return &UpstreamError{
			Url:        s.Options.Url,
			StatusCode: page.Error.Code,
			Message:    page.Error.Message,
		}
	}

	s.page = page.Results
	if page.NextStart <= 0 || len(page.Results) == 0 {
		s.done = true
	} else {
		s.start = page.NextStart
	}
	return nil
}
