package sources

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/koopjs/koop-output-dcat-ap-201/dcattest"
)

// drains a source, returning the ids of its records
func collectIds(t *testing.T, src Source) []any {
	ids := make([]any, 0)
	for {
		record, err := src.Next(context.Background())
		if err == io.EOF {
			return ids
		}
		assert.Nil(t, err)
		if err != nil {
			return ids
		}
		ids = append(ids, record["id"])
	}
}

func TestFromSlice(t *testing.T) {
	assert := assert.New(t)
	src := FromSlice(Record{"id": "a"}, Record{"id": "b"})
	assert.Equal([]any{"a", "b"}, collectIds(t, src))

	_, err := src.Next(context.Background())
	assert.Equal(io.EOF, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FromSlice(Record{"id": "a"}).Next(ctx)
	assert.ErrorIs(err, context.Canceled)
}

func TestJSONSourceArray(t *testing.T) {
	assert := assert.New(t)
	src := NewJSONSource(strings.NewReader(`
	  [ {"id": "a"}, {"id": "b", "nested": {"x": 1}} ]`))
	assert.Equal([]any{"a", "b"}, collectIds(t, src))

	empty := NewJSONSource(strings.NewReader(`[]`))
	assert.Equal([]any{}, collectIds(t, empty))
}

func TestJSONSourceStream(t *testing.T) {
	assert := assert.New(t)
	src := NewJSONSource(strings.NewReader("{\"id\": \"a\"}\n{\"id\": \"b\"}\n{\"id\": \"c\"}\n"))
	assert.Equal([]any{"a", "b", "c"}, collectIds(t, src))

	empty := NewJSONSource(strings.NewReader("  \n"))
	_, err := empty.Next(context.Background())
	assert.Equal(io.EOF, err)
}

func TestJSONSourceInvalidRecord(t *testing.T) {
	assert := assert.New(t)
	src := NewJSONSource(strings.NewReader(`[{"id": "a"}, 42]`))
	record, err := src.Next(context.Background())
	assert.Nil(err)
	assert.Equal("a", record["id"])
	_, err = src.Next(context.Background())
	assert.NotNil(err)
	assert.Contains(err.Error(), "Invalid record 1")
}

func TestSearchQuery(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(`(group:"a" OR group:"b") AND orgid:"org"`,
		SearchQuery([]string{"a", "b"}, "org", ""))
	assert.Equal(`orgid:"org" AND (type:"Feature Service")`,
		SearchQuery(nil, "org", `type:"Feature Service"`))
	assert.Equal("", SearchQuery(nil, "", " "))
}

func TestNewSearchSourceValidation(t *testing.T) {
	assert := assert.New(t)
	_, err := NewSearchSource(SearchOptions{Groups: []string{"a"}})
	assert.NotNil(err)
	_, err = NewSearchSource(SearchOptions{Url: "https://www.arcgis.com/sharing/rest/search"})
	assert.NotNil(err)

	src, err := NewSearchSource(SearchOptions{
		Url:      "https://www.arcgis.com/sharing/rest/search",
		OrgId:    "org",
		PageSize: 1000,
	})
	assert.Nil(err)
	assert.Equal(MaxPageSize, src.Options.PageSize)
	assert.Equal(30*time.Second, src.Options.Timeout)
}

func TestSearchSourcePaging(t *testing.T) {
	assert := assert.New(t)
	portal := dcattest.NewPortal(
		Record{"id": "1"}, Record{"id": "2"}, Record{"id": "3"},
		Record{"id": "4"}, Record{"id": "5"},
	)
	defer portal.Close()

	src, err := NewSearchSource(SearchOptions{
		Url:       portal.SearchUrl(),
		Groups:    []string{"group1"},
		OrgId:     dcattest.OrgId,
		Fields:    []string{"id", "name"},
		PageSize:  2,
		RateLimit: 100,
	})
	assert.Nil(err)
	assert.Equal([]any{"1", "2", "3", "4", "5"}, collectIds(t, src))

	assert.Equal(3, len(portal.Requests))
	starts := make([]string, 0)
	for _, req := range portal.Requests {
		query := req.URL.Query()
		starts = append(starts, query.Get("start"))
		assert.Equal("2", query.Get("num"))
		assert.Equal("json", query.Get("f"))
		assert.Equal("id,name", query.Get("fields"))
		assert.Equal(`(group:"group1") AND orgid:"Xj56SBi2udA78cC9"`, query.Get("q"))
	}
	assert.Equal([]string{"1", "3", "5"}, starts)
}

func TestSearchSourceUpstreamError(t *testing.T) {
	assert := assert.New(t)
	portal := dcattest.NewPortal(Record{"id": "1"})
	defer portal.Close()
	portal.FailWith(http.StatusBadRequest)

	src, err := NewSearchSource(SearchOptions{Url: portal.SearchUrl(), OrgId: "org"})
	assert.Nil(err)
	_, err = src.Next(context.Background())
	assert.IsType(&UpstreamError{}, err)
	upstreamErr := err.(*UpstreamError)
	assert.Equal(http.StatusBadRequest, upstreamErr.StatusCode)
	assert.Equal(http.StatusBadRequest, upstreamErr.HTTPStatus())
}

func TestSearchSourceCancelled(t *testing.T) {
	assert := assert.New(t)
	portal := dcattest.NewPortal(Record{"id": "1"})
	defer portal.Close()

	src, err := NewSearchSource(SearchOptions{Url: portal.SearchUrl(), OrgId: "org"})
	assert.Nil(err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Next(ctx)
	assert.NotNil(err)
	assert.Equal(0, len(portal.Requests))
}

func TestSecureHttpClient(t *testing.T) {
	client := SecureHttpClient(time.Second * 10)
	assert.Equal(t, time.Second*10, client.Timeout)
	assert.NotNil(t, client.Transport)

	secureOriginal := &http.Request{
		URL: &url.URL{Scheme: "https", Host: "example.com", Path: "/"},
	}
	secureTarget := &http.Request{
		URL: &url.URL{Scheme: "https", Host: "redirect.com", Path: "/"},
	}
	insecureTarget := &http.Request{
		URL: &url.URL{Scheme: "http", Host: "redirect.com", Path: "/"},
	}

	// secure redirects are followed
	err := client.CheckRedirect(secureTarget, []*http.Request{secureOriginal})
	assert.Nil(t, err)

	// downgrades are refused
	err = client.CheckRedirect(insecureTarget, []*http.Request{secureOriginal})
	assert.IsType(t, &DowngradedRedirectError{}, err)
	dre := err.(*DowngradedRedirectError)
	assert.Equal(t, "redirect.com/", dre.Endpoint)

	// long redirect chains stop
	via := make([]*http.Request, maxRedirects)
	for i := range via {
		via[i] = secureOriginal
	}
	err = client.CheckRedirect(secureTarget, via)
	assert.Equal(t, http.ErrUseLastResponse, err)
}
