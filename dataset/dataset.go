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

// Package dataset projects raw catalog records into the canonical dataset
// view that DCAT templates are applied to.
package dataset

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/koopjs/koop-output-dcat-ap-201/adlib"
)

// the portal used to build item pages when none is given
const DefaultPortalUrl = "https://www.arcgis.com"

// keyword given to Hub pages that carry no tags of their own
const HubPageKeyword = "ArcGIS Hub page"

// the largest CSV item (in bytes) served through the download proxy
const MaxProxiedCSVSize = 5000000

// information about the site item that hosts a catalog
type SiteItem struct {
	Id          string `json:"id" yaml:"id"`
	Url         string `json:"url" yaml:"url"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Culture     string `json:"culture" yaml:"culture"`
	Owner       string `json:"owner,omitempty" yaml:"owner,omitempty"`
}

// a site model: the site item plus its (free-form) data block
type SiteModel struct {
	Item SiteItem       `json:"item" yaml:"item"`
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// the organization and site a dataset is being projected for
type Context struct {
	// base URL of the organization's portal (e.g. https://myorg.maps.arcgis.com)
	OrgBaseUrl string
	// display name of the organization
	OrgTitle string
	// URL of the site whose landing pages datasets link to
	SiteUrl string
	// URL of the portal hosting item pages (default: DefaultPortalUrl)
	PortalUrl string
	// model of the site, used to resolve content paths
	SiteModel SiteModel
}

type SpatialReference struct {
	Wkid       int
	LatestWkid int
}

// capabilities of the service backing a dataset
type Server struct {
	SpatialReference    *SpatialReference
	SupportedExtensions []string
}

// Dataset is the canonical view of one catalog record.
type Dataset struct {
	Id              string
	Url             string
	Owner           string
	Name            string
	Type            string
	TypeKeywords    []string
	Tags            []string
	Description     string
	Culture         string
	Created         time.Time
	Modified        time.Time
	Slug            string
	Access          string
	Size            int64
	License         string
	Metadata        map[string]any
	Server          Server
	GeometryType    string
	OrgContactEmail string

	// computed attributes
	LandingPage    string
	AgoLandingPage string
	OwnerUri       string
	Language       string
	Keyword        []string
	IssuedDateTime string
	OrgTitle       string
	Provenance     string

	// the normalized record, passed through to templates as-is
	Record map[string]any
}

// Project normalizes a raw record (a portal API record, a search index hit,
// or a GeoJSON feature) and computes its derived attributes.
func Project(raw map[string]any, ctx Context) (*Dataset, error) {
	if raw == nil {
		return nil, &MissingRecordError{}
	}
	record := normalize(raw)

	ds := &Dataset{
		Id:              stringValue(record["id"]),
		Url:             stringValue(record["url"]),
		Owner:           stringValue(record["owner"]),
		Name:            stringValue(record["name"]),
		Type:            stringValue(record["type"]),
		TypeKeywords:    stringsValue(record["typeKeywords"]),
		Tags:            stringsValue(record["tags"]),
		Description:     stringValue(record["description"]),
		Culture:         stringValue(record["culture"]),
		Slug:            stringValue(record["slug"]),
		Access:          stringValue(record["access"]),
		License:         stringValue(record["license"]),
		GeometryType:    stringValue(record["geometryType"]),
		OrgContactEmail: stringValue(record["orgContactEmail"]),
		OrgTitle:        ctx.OrgTitle,
		Record:          record,
	}
	ds.Created, _ = ParseTime(record["created"])
	ds.Modified, _ = ParseTime(record["modified"])
	if size, ok := numberValue(record["size"]); ok {
		ds.Size = int64(size)
	}
	if metadata, ok := record["metadata"].(map[string]any); ok {
		ds.Metadata = metadata
	}
	if server, ok := record["server"].(map[string]any); ok {
		ds.Server = parseServer(server)
	}

	ds.LandingPage = landingPage(ds, ctx)
	ds.AgoLandingPage = agoLandingPage(ds.Id, ctx.PortalUrl)
	ds.OwnerUri = ownerUri(ctx.OrgBaseUrl, ds.Owner)
	ds.Language = ds.language()
	ds.Keyword = ds.keyword()
	ds.IssuedDateTime = ds.issuedDateTime()
	ds.Provenance = stringValue(ds.metadataValue("dataIdInfo.idCredit"))
	return ds, nil
}

// Fields returns the view that templates are interpolated against: the
// normalized record overlaid with the computed attributes. Computed
// attributes without a value are left out.
func (ds *Dataset) Fields() map[string]any {
	fields := make(map[string]any, len(ds.Record)+12)
	for key, value := range ds.Record {
		fields[key] = value
	}
	set := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	set("name", ds.Name)
	set("orgContactEmail", ds.OrgContactEmail)
	set("landingPage", ds.LandingPage)
	set("hubLandingPage", ds.LandingPage)
	set("agoLandingPage", ds.AgoLandingPage)
	set("ownerUri", ds.OwnerUri)
	set("language", ds.Language)
	set("issuedDateTime", ds.IssuedDateTime)
	set("orgTitle", ds.OrgTitle)
	set("provenance", ds.Provenance)
	if ds.Keyword != nil {
		keyword := make([]any, len(ds.Keyword))
		for i, k := range ds.Keyword {
			keyword[i] = k
		}
		fields["keyword"] = keyword
	}
	return fields
}

//----------------------
// Capability predicates
//----------------------

// feature layers are identified by an item ID suffixed with a layer index
func (ds *Dataset) IsFeatureLayer() bool {
	return strings.Contains(ds.Id, "_")
}

func (ds *Dataset) HasGeometryType() bool {
	return ds.GeometryType != ""
}

func (ds *Dataset) SupportsWFS() bool {
	return slices.Contains(ds.Server.SupportedExtensions, "WFSServer")
}

func (ds *Dataset) SupportsWMS() bool {
	return slices.Contains(ds.Server.SupportedExtensions, "WMSServer")
}

// small public CSV items are downloaded through the hub's proxy
func (ds *Dataset) IsProxiedCSV() bool {
	return ds.Type == "CSV" && ds.Access == "public" && ds.Size <= MaxProxiedCSVSize
}

func (ds *Dataset) IsPage() bool {
	return ds.Type == "Hub Page" || ds.Type == "Site Page" ||
		slices.Contains(ds.TypeKeywords, "hubPage")
}

//---------
// URLs
//---------

// DownloadUrl returns the landing page download URL for the given format
// (e.g. "csv"), requesting the dataset's own spatial reference when it has a
// wkid.
func (ds *Dataset) DownloadUrl(format string) string {
	query := ""
	if sr := ds.Server.SpatialReference; sr != nil && sr.Wkid != 0 {
		outSR := struct {
			LatestWkid int `json:"latestWkid,omitempty"`
			Wkid       int `json:"wkid"`
		}{
			LatestWkid: sr.LatestWkid,
			Wkid:       sr.Wkid,
		}
		b, _ := json.Marshal(outSR)
		query = "?outSR=" + url.QueryEscape(string(b))
	}
	return fmt.Sprintf("%s.%s%s", ds.LandingPage, format, query)
}

var (
	restServicesRegexp = regexp.MustCompile(`(?i)rest/services`)
	layerIndexRegexp   = regexp.MustCompile(`\d+$`)
)

// OgcUrl rewrites the dataset's REST service URL into the GetCapabilities URL
// of its OGC service of the given type ("WMS" or "WFS"; default "WMS").
func (ds *Dataset) OgcUrl(serviceType string) string {
	if serviceType == "" {
		serviceType = "WMS"
	}
	u := ds.Url
	if loc := restServicesRegexp.FindStringIndex(u); loc != nil {
		u = u[:loc[0]] + "services" + u[loc[1]:]
	}
	return layerIndexRegexp.ReplaceAllLiteralString(u,
		fmt.Sprintf("%sServer?request=GetCapabilities&service=%s", serviceType, serviceType))
}

//--------------------
// computed attributes
//--------------------

func (ds *Dataset) metadataValue(path string) any {
	return adlib.Lookup(ds.Metadata, "metadata."+path)
}

func (ds *Dataset) language() string {
	if lang := stringValue(ds.metadataValue("dataIdInfo.dataLang.languageCode.@_value")); lang != "" {
		return lang
	}
	return LocaleToLang(ds.Culture)
}

func (ds *Dataset) keyword() []string {
	if metaKeyword := stringsValue(ds.metadataValue("dataIdInfo.searchKeys.keyword")); len(metaKeyword) > 0 {
		return metaKeyword
	}
	hasNoTags := len(ds.Tags) == 0 || ds.Tags[0] == ""
	if hasNoTags && ds.IsPage() {
		return []string{HubPageKeyword}
	}
	return ds.Tags
}

func (ds *Dataset) issuedDateTime() string {
	if pubDate := stringValue(ds.metadataValue("dataIdInfo.idCitation.date.pubDate")); pubDate != "" {
		return pubDate
	}
	if ds.Created.IsZero() {
		return ""
	}
	return ISOString(ds.Created)
}

// content families and the site path segment their landing pages live under
var familyPaths = map[string]string{
	"Hub Page":                "pages",
	"Site Page":               "pages",
	"Hub Initiative":          "initiatives",
	"Web Map":                 "maps",
	"Web Scene":               "maps",
	"Web Mapping Application": "apps",
	"Dashboard":               "apps",
	"StoryMap":                "apps",
	"Web Experience":          "apps",
	"Hub Site Application":    "apps",
	"Site Application":        "apps",
	"Form":                    "apps",
	"PDF":                     "documents",
	"Microsoft Word":          "documents",
	"Microsoft Excel":         "documents",
	"Microsoft Powerpoint":    "documents",
	"Document Link":           "documents",
}

func landingPage(ds *Dataset, ctx Context) string {
	siteUrl := NormalizeSiteUrl(ctx.SiteUrl)
	if siteUrl == "" {
		return ""
	}
	identifier := ds.Slug
	if identifier == "" {
		identifier = ds.Id
	} else if orgKey := siteOrgKey(ctx.SiteModel); orgKey != "" {
		// slugs from the site's own organization are addressed without a namespace
		identifier = strings.TrimPrefix(identifier, orgKey+"::")
	}
	family, found := familyPaths[ds.Type]
	if !found {
		family = "datasets"
	}
	return fmt.Sprintf("%s/%s/%s", siteUrl, family, identifier)
}

func siteOrgKey(site SiteModel) string {
	return stringValue(adlib.Lookup(site.Data, "values.orgKey"))
}

// NormalizeSiteUrl trims trailing slashes and forces an https:// scheme.
func NormalizeSiteUrl(siteUrl string) string {
	siteUrl = strings.TrimRight(strings.TrimSpace(siteUrl), "/")
	if siteUrl == "" {
		return ""
	}
	lower := strings.ToLower(siteUrl)
	switch {
	case strings.HasPrefix(lower, "https://"):
		return siteUrl
	case strings.HasPrefix(lower, "http://"):
		return "https://" + siteUrl[len("http://"):]
	default:
		return "https://" + siteUrl
	}
}

func agoLandingPage(id, portalUrl string) string {
	if id == "" {
		return ""
	}
	if portalUrl == "" {
		portalUrl = DefaultPortalUrl
	}
	itemId, layer, isLayer := strings.Cut(id, "_")
	page := fmt.Sprintf("%s/home/item.html?id=%s", strings.TrimRight(portalUrl, "/"), itemId)
	if isLayer {
		page += "&sublayer=" + layer
	}
	return page
}

func ownerUri(orgBaseUrl, owner string) string {
	if owner == "" {
		return ""
	}
	return fmt.Sprintf("%s/sharing/rest/community/users/%s?f=json",
		strings.TrimRight(orgBaseUrl, "/"), url.PathEscape(owner))
}

//----------------
// normalization
//----------------

// flattens the known record shapes into a single-level record
func normalize(raw map[string]any) map[string]any {
	record := raw
	if source, ok := raw["_source"].(map[string]any); ok {
		record = source
	}
	if record["type"] == "Feature" {
		if properties, ok := record["properties"].(map[string]any); ok {
			flat := make(map[string]any, len(properties)+1)
			for key, value := range properties {
				flat[key] = value
			}
			if geometry, found := record["geometry"]; found {
				flat["geometry"] = geometry
			}
			record = flat
		}
	}

	item, isIndexHit := record["item"].(map[string]any)
	flat := make(map[string]any, len(record)+len(item))
	for key, value := range record {
		flat[key] = value
	}
	if isIndexHit {
		delete(flat, "item")
		for key, value := range item {
			flat[key] = value
		}
		if title, found := item["title"]; found {
			flat["name"] = title
		}
		if defaults, ok := record["default"].(map[string]any); ok {
			delete(flat, "default")
			for _, key := range []string{"id", "url"} {
				if value, found := defaults[key]; found {
					flat[key] = value
				}
			}
		}
		if layer, ok := record["layer"].(map[string]any); ok {
			if geometryType, found := layer["geometryType"]; found {
				flat["geometryType"] = geometryType
			}
		}
	} else if title := stringValue(record["title"]); title != "" {
		// portal items keep their file or service name in name
		flat["name"] = title
	}
	if stringValue(flat["orgContactEmail"]) == "" {
		if contact := stringValue(adlib.Lookup(flat, "org.portalProperties.links.contactUs.url")); contact != "" {
			flat["orgContactEmail"] = contact
		}
	}
	return flat
}

func parseServer(server map[string]any) Server {
	var s Server
	if sr, ok := server["spatialReference"].(map[string]any); ok {
		wkid, _ := numberValue(sr["wkid"])
		latestWkid, _ := numberValue(sr["latestWkid"])
		if wkid != 0 || latestWkid != 0 {
			s.SpatialReference = &SpatialReference{
				Wkid:       int(wkid),
				LatestWkid: int(latestWkid),
			}
		}
	}
	switch extensions := server["supportedExtensions"].(type) {
	case string:
		for _, extension := range strings.Split(extensions, ",") {
			if extension = strings.TrimSpace(extension); extension != "" {
				s.SupportedExtensions = append(s.SupportedExtensions, extension)
			}
		}
	default:
		s.SupportedExtensions = stringsValue(extensions)
	}
	return s
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// converts a list (or a lone string) into a slice of strings
func stringsValue(value any) []string {
	switch v := value.(type) {
	case []string:
		return slices.Clone(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, element := range v {
			out = append(out, stringValue(element))
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}

func numberValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseTime interprets a timestamp given as epoch milliseconds (number or
// numeric string) or as a formatted date string.
func ParseTime(value any) (time.Time, bool) {
	if ms, ok := numberValue(value); ok {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ISOString formats a time the way JavaScript's Date.toISOString does.
func ISOString(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
