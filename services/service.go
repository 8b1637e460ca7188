package services

import (
	"context"
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"
)

// this type encodes a JSON object for responding to root queries
type ServiceInfoResponse struct {
	Name          string   `json:"name" example:"DCAT-AP feed" doc:"The name of the service API"`
	Version       string   `json:"version" example:"1.0.0" doc:"The version string (major.minor.patch)"`
	Uptime        int      `json:"uptime" example:"345600" doc:"The time the service has been up (seconds)"`
	Documentation string   `json:"documentation" example:"/docs" doc:"The OpenAPI documentation endpoint"`
	Feeds         []string `json:"feeds" doc:"The feed endpoints, one per DCAT-AP version"`
}

// This type holds information about an error that occurred responding to a
// request.
type ErrorResponse struct {
	// A descriptive error message
	Error string `json:"error"`
}

// This package-specific helper function writes an error to a huma context,
// giving it the proper status code, and encoding an ErrorResponse in the
// response body.
func writeError(ctx huma.Context, message string, code int) {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.SetStatus(code)
	data, _ := json.Marshal(ErrorResponse{Error: message})
	ctx.BodyWriter().Write(data)
}

// FeedService defines the interface for our DCAT-AP feed service.
type FeedService interface {
	// Starts the service on the selected port, returning an error that indicates
	// success or failure.
	Start(port int) error
	// Gracefully shuts down the service without interrupting active connections.
	Shutdown(ctx context.Context) error
	// Closes down the service, freeing all resources.
	Close()
}
