package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humamux"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/net/netutil"

	"github.com/koopjs/koop-output-dcat-ap-201/config"
	"github.com/koopjs/koop-output-dcat-ap-201/dcat"
	"github.com/koopjs/koop-output-dcat-ap-201/metrics"
	"github.com/koopjs/koop-output-dcat-ap-201/sites"
	"github.com/koopjs/koop-output-dcat-ap-201/sources"
)

// Version numbers
var majorVersion = 0
var minorVersion = 1
var patchVersion = 0

// Version string
var version = fmt.Sprintf("%d.%d.%d", majorVersion, minorVersion, patchVersion)

// feed endpoints, by DCAT-AP version
var feedPaths = map[string]string{
	dcat.Version2: "/dcat-ap/2.0.1",
	dcat.Version3: "/dcat-ap/3.0.0",
}

// This type implements the FeedService interface, serving each site's catalog
// as a DCAT-AP feed built from the portal's search API.
type feedService struct {
	// name of the service
	Name string
	// service version identifier
	Version string
	// time which the service was started
	StartTime time.Time
	// port on which the service currently runs
	Port int
	// router for REST endpoints
	Router *mux.Router
	// API wrapper
	API huma.API
	// HTTP server.
	Server *http.Server
	// sites served, by hostname
	Registry sites.Registry
	// feed metrics
	Metrics *metrics.Metrics
}

type ServiceInfoOutput struct {
	Body ServiceInfoResponse `doc:"information about the service itself"`
}

// handler method for root
func (service *feedService) getRoot(ctx context.Context,
	input *struct{}) (*ServiceInfoOutput, error) {

	slog.Info("Querying root endpoint...")
	return &ServiceInfoOutput{
		Body: ServiceInfoResponse{
			Name:          service.Name,
			Version:       service.Version,
			Uptime:        int(service.uptime()),
			Documentation: "/docs",
			Feeds:         []string{feedPaths[dcat.Version2], feedPaths[dcat.Version3]},
		},
	}, nil
}

// returns a handler method streaming the requesting site's feed in the given
// DCAT-AP version
func (service *feedService) getFeed(feedVersion string) func(context.Context,
	*struct{}) (*huma.StreamResponse, error) {
	return func(ctx context.Context, input *struct{}) (*huma.StreamResponse, error) {
		return &huma.StreamResponse{
			Body: func(ctx huma.Context) {
				service.streamFeed(ctx, feedVersion)
			},
		}, nil
	}
}

// a writer that sends the response's status with its first byte, so that
// failures before anything is written can still be reported as errors
type feedWriter struct {
	ctx     huma.Context
	started bool
}

func (w *feedWriter) Write(p []byte) (int, error) {
	if !w.started {
		w.ctx.SetStatus(http.StatusOK)
		w.started = true
	}
	n, err := w.ctx.BodyWriter().Write(p)
	if flusher, ok := w.ctx.BodyWriter().(http.Flusher); ok {
		flusher.Flush()
	}
	return n, err
}

// streams the feed of the site at the request's host
func (service *feedService) streamFeed(ctx huma.Context, feedVersion string) {
	start := time.Now()
	logger := slog.With("request", uuid.New().String(), "version", feedVersion)
	host := ctx.Host()
	logger.Info(fmt.Sprintf("Generating DCAT-AP %s feed for %s...", feedVersion, host))
	ctx.SetHeader("Content-Type", "application/json")

	// reports a failure that happened before any of the feed was written
	fail := func(err error) {
		status := dcat.StatusCode(err)
		logger.Error(fmt.Sprintf("Couldn't generate feed for %s: %s", host, err.Error()))
		service.Metrics.ObserveFailure(feedVersion, "setup")
		service.Metrics.ObserveFeed(feedVersion, status, 0, time.Since(start))
		writeError(ctx, err.Error(), status)
	}

	site, err := service.Registry.Lookup(ctx.Context(), host)
	if err != nil {
		fail(err)
		return
	}
	if !site.HasCatalog() {
		ctx.SetStatus(http.StatusOK)
		io.WriteString(ctx.BodyWriter(), "{}")
		service.Metrics.ObserveFeed(feedVersion, http.StatusOK, 0, time.Since(start))
		return
	}

	dcatFeed, err := dcat.GetDataStream(dcat.FeedOptions{
		Template: site.FeedTemplate(),
		Version:  feedVersion,
		Context:  site.Context(config.Service.Portal),
	})
	if err != nil {
		fail(err)
		return
	}
	source, err := sources.NewSearchSource(sources.SearchOptions{
		Url:       config.Upstream.Url,
		Groups:    site.Catalog.Groups,
		OrgId:     site.Catalog.OrgId,
		Fields:    dcatFeed.Dependencies,
		PageSize:  config.Upstream.PageSize,
		RateLimit: config.Upstream.RateLimit,
		Timeout:   config.Upstream.RequestTimeout(),
	})
	if err != nil {
		fail(err)
		return
	}

	writer := &feedWriter{ctx: ctx}
	count, err := dcatFeed.Stream(writer).Copy(ctx.Context(), source)
	if err != nil {
		if !writer.started {
			fail(err)
			return
		}
		// the status is already sent, so all we can do is cut the response short
		if !errors.Is(err, context.Canceled) {
			logger.Error(fmt.Sprintf("Feed for %s failed after %d datasets: %s",
				host, count, err.Error()))
		}
		service.Metrics.ObserveFailure(feedVersion, "stream")
		return
	}
	service.Metrics.ObserveFeed(feedVersion, http.StatusOK, count, time.Since(start))
	logger.Info(fmt.Sprintf("Wrote %d datasets for %s", count, host))
}

// returns the uptime for the service in seconds
func (service *feedService) uptime() float64 {
	return time.Since(service.StartTime).Seconds()
}

// constructs a feed service serving the sites in the given registry
func NewFeedService(registry sites.Registry) (FeedService, error) {
	if registry == nil {
		return nil, fmt.Errorf("No site registry was given.")
	}

	service := new(feedService)
	service.Name = "DCAT-AP feed"
	service.Version = version
	service.Port = -1
	service.Registry = registry
	service.Metrics = metrics.NewMetrics()

	// set up routing
	service.Router = mux.NewRouter()
	api := humamux.New(service.Router, huma.DefaultConfig(service.Name, service.Version))
	service.API = api
	huma.Get(api, "/", service.getRoot)
	huma.Register(api, huma.Operation{
		OperationID: "get-dcat-ap-2",
		Method:      http.MethodGet,
		Path:        feedPaths[dcat.Version2],
		Summary:     "DCAT-AP 2.0.1 feed of the requesting site's catalog",
	}, service.getFeed(dcat.Version2))
	huma.Register(api, huma.Operation{
		OperationID: "get-dcat-ap-3",
		Method:      http.MethodGet,
		Path:        feedPaths[dcat.Version3],
		Summary:     "DCAT-AP 3.0.0 feed of the requesting site's catalog",
	}, service.getFeed(dcat.Version3))
	service.Router.Handle("/metrics", service.Metrics.Handler()).Methods(http.MethodGet)

	return service, nil
}

// starts the feed service
func (service *feedService) Start(port int) error {
	slog.Info(fmt.Sprintf("Starting %s service on port %d...", service.Name, port))
	slog.Info(fmt.Sprintf("(Accepting up to %d connections)", config.Service.MaxConnections))

	service.StartTime = time.Now()

	// create a listener that limits the number of incoming connections
	service.Port = port
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return err
	}
	defer listener.Close()
	listener = netutil.LimitListener(listener, config.Service.MaxConnections)

	// start the server
	service.Server = &http.Server{
		Handler: service.Router}
	err = service.Server.Serve(listener)

	// we don't report the server closing as an error
	if err != http.ErrServerClosed {
		return err
	}
	return nil
}

// gracefully shuts down the service without interrupting active connections
func (service *feedService) Shutdown(ctx context.Context) error {
	var err error
	if service.Server != nil {
		err = service.Server.Shutdown(ctx)
	}
	return errors.Join(err, service.closeRegistry())
}

// closes down the service abruptly, freeing all resources
func (service *feedService) Close() {
	if service.Server != nil {
		service.Server.Close()
	}
	service.closeRegistry()
}

func (service *feedService) closeRegistry() error {
	if closer, ok := service.Registry.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
