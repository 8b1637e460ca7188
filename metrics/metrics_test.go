package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveFeed(t *testing.T) {
	assert := assert.New(t)
	m := NewMetrics()
	m.ObserveFeed("2.0.1", http.StatusOK, 3, 250*time.Millisecond)
	m.ObserveFeed("2.0.1", http.StatusOK, 2, 100*time.Millisecond)
	m.ObserveFeed("3.0.0", http.StatusNotFound, 0, time.Millisecond)

	assert.Equal(2.0, testutil.ToFloat64(m.FeedRequests.WithLabelValues("2.0.1", "200")))
	assert.Equal(1.0, testutil.ToFloat64(m.FeedRequests.WithLabelValues("3.0.0", "404")))
	assert.Equal(5.0, testutil.ToFloat64(m.DatasetsEmitted.WithLabelValues("2.0.1")))
}

func TestObserveFailure(t *testing.T) {
	assert := assert.New(t)
	m := NewMetrics()
	m.ObserveFailure("2.0.1", "stream")
	assert.Equal(1.0, testutil.ToFloat64(m.FeedFailures.WithLabelValues("2.0.1", "stream")))
	assert.Equal(0.0, testutil.ToFloat64(m.FeedFailures.WithLabelValues("2.0.1", "setup")))
}

func TestHandler(t *testing.T) {
	assert := assert.New(t)
	m := NewMetrics()
	m.ObserveFeed("2.0.1", http.StatusOK, 1, time.Second)

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(http.StatusOK, recorder.Code)
	body, err := io.ReadAll(recorder.Body)
	assert.Nil(err)
	assert.Contains(string(body), `dcat_feed_requests_total{status="200",version="2.0.1"} 1`)
}
