package config

import (
	"fmt"
	"time"
)

// the portal search API that dataset records are read from
type upstreamConfig struct {
	// URL of the portal's search endpoint
	Url string `yaml:"url"`
	// number of records requested per page (1-100)
	PageSize int `yaml:"page_size"`
	// maximum number of search requests per second (0 for no limit)
	RateLimit float64 `yaml:"rate_limit"`
	// timeout for each search request, in seconds
	Timeout int `yaml:"timeout"`
}

// the timeout for each search request
func (c upstreamConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func validateUpstreamParameters(params upstreamConfig) error {
	if err := validateUrl("upstream", params.Url); err != nil {
		return err
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		return fmt.Errorf("Invalid upstream page_size: %d (must be 1-100)", params.PageSize)
	}
	if params.RateLimit < 0 {
		return fmt.Errorf("Invalid upstream rate_limit: %g (must be non-negative)",
			params.RateLimit)
	}
	if params.Timeout <= 0 {
		return fmt.Errorf("Invalid upstream timeout: %d (must be positive)", params.Timeout)
	}
	return nil
}

// an optional SQLite database of sites, consulted for hostnames that aren't
// configured under sites
type registryConfig struct {
	// path to the database file
	Path string `yaml:"path"`
}
