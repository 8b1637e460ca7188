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

// This package contains testing utilities for the DCAT feed service.
package dcattest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"

	"github.com/koopjs/koop-output-dcat-ap-201/dataset"
)

// Enables DEBUG log messages for the service's structured log (slog).
func EnableDebugLogging() {
	logLevel := new(slog.LevelVar)
	logLevel.Set(slog.LevelDebug)
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(h))
}

//go:embed testdata/dataset.json
var datasetJSON []byte

//go:embed testdata/search_hit.json
var searchHitJSON []byte

//go:embed testdata/portal_item.json
var portalItemJSON []byte

// the organization and site the fixtures belong to
const (
	SiteUrl    = "https://jules-goes-the-distance-qa-pre-a-hub.hubqa.arcgis.com"
	Hostname   = "jules-goes-the-distance-qa-pre-a-hub.hubqa.arcgis.com"
	OrgTitle   = "QA Premium Alpha Hub"
	OrgBaseUrl = "https://qa-pre-a-hub.mapsqa.arcgis.com"
	OrgKey     = "qa-pre-a-hub"
	OrgId      = "Xj56SBi2udA78cC9"
)

func decode(data []byte) map[string]any {
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		panic(fmt.Sprintf("invalid test fixture: %s", err.Error()))
	}
	return record
}

// Returns a fresh copy of a flat portal API dataset record (a point layer
// with descriptive metadata).
func Dataset() map[string]any {
	return decode(datasetJSON)
}

// Returns a fresh copy of the same dataset as a search index hit.
func SearchHit() map[string]any {
	return decode(searchHitJSON)
}

// Returns a fresh copy of an item as the portal's search API returns it, with
// a service name distinct from its title.
func PortalItem() map[string]any {
	return decode(portalItemJSON)
}

// Returns a fresh copy of the flat dataset record with its metadata block
// removed.
func DatasetWithoutMetadata() map[string]any {
	record := Dataset()
	delete(record, "metadata")
	return record
}

func SiteItem() dataset.SiteItem {
	return dataset.SiteItem{
		Id:          "884d15dd172c4040b1ed49c0b67b9fff",
		Url:         SiteUrl,
		Title:       "Jules Goes The Distance",
		Description: "Create your own initiative by combining existing applications with a custom site. Use this initiative to form teams around a problem and invite your community to participate.",
		Culture:     "ba-ei",
		Owner:       "qa_pre_a_hub_admin",
	}
}

func SiteModel() dataset.SiteModel {
	return dataset.SiteModel{Item: SiteItem()}
}

// Returns the projection context of the fixture site.
func Context() dataset.Context {
	return dataset.Context{
		OrgBaseUrl: OrgBaseUrl,
		OrgTitle:   OrgTitle,
		SiteUrl:    SiteUrl,
		SiteModel:  SiteModel(),
	}
}

//---------------------
// Portal test fixture
//---------------------

// Portal is a fake ArcGIS portal serving a fixed set of records from its
// sharing/rest/search endpoint.
type Portal struct {
	Server *httptest.Server
	// the requests received, in order
	Requests []*http.Request

	mutex   sync.Mutex
	records []map[string]any
	status  int
}

// Starts a portal serving the given records. The caller must call Close.
func NewPortal(records ...map[string]any) *Portal {
	portal := &Portal{records: records, status: http.StatusOK}
	portal.Server = httptest.NewServer(http.HandlerFunc(portal.search))
	return portal
}

// the URL of the portal's search endpoint
func (p *Portal) SearchUrl() string {
	return p.Server.URL + "/sharing/rest/search"
}

// Makes every subsequent search fail with the given status code.
func (p *Portal) FailWith(status int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.status = status
}

func (p *Portal) Close() {
	p.Server.Close()
}

func (p *Portal) search(w http.ResponseWriter, r *http.Request) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.Requests = append(p.Requests, r.Clone(r.Context()))

	if p.status != http.StatusOK {
		w.WriteHeader(p.status)
		fmt.Fprintf(w, `{"error": {"code": %d, "message": "search failed"}}`, p.status)
		return
	}

	query := r.URL.Query()
	start, err := strconv.Atoi(query.Get("start"))
	if err != nil || start < 1 {
		start = 1
	}
	num, err := strconv.Atoi(query.Get("num"))
	if err != nil || num < 1 {
		num = 10
	}

	// the portal's paging is 1-based
	first := min(start-1, len(p.records))
	last := min(first+num, len(p.records))
	nextStart := -1
	if last < len(p.records) {
		nextStart = last + 1
	}
	results := p.records[first:last]
	if results == nil {
		results = []map[string]any{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"total":     len(p.records),
		"start":     start,
		"num":       num,
		"nextStart": nextStart,
		"results":   results,
	})
}
