package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// a type with service configuration parameters
type serviceConfig struct {
	// Port on which the service listens
	Port int `json:"port" yaml:"port"`
	// Maximum number of allowed incoming connections.
	MaxConnections int `json:"maxConnections" yaml:"max_connections"`
	// URL of the portal hosting item pages linked from datasets
	Portal string `json:"portal" yaml:"portal"`
	// Set to true to enable debug-level logging
	Debug bool `json:"debug" yaml:"debug"`
}

// global config variables
var Service serviceConfig
var Upstream upstreamConfig
var Registry registryConfig
var Sites map[string]siteConfig

// This struct performs the unmarshalling from the YAML config file and then
// copies its fields to the globals above.
type configFile struct {
	Service  serviceConfig         `yaml:"service"`
	Upstream upstreamConfig        `yaml:"upstream"`
	Registry registryConfig        `yaml:"registry"`
	Sites    map[string]siteConfig `yaml:"sites"`
}

// This helper locates and reads a configuration file, returning an error
// indicating success or failure. All environment variables of the form
// ${ENV_VAR} are expanded.
func readConfig(bytes []byte) error {
	// Before we do anything else, expand any provided environment variables.
	bytes = []byte(os.ExpandEnv(string(bytes)))

	var conf configFile
	conf.Service.Port = 8080
	conf.Service.MaxConnections = 100
	conf.Service.Portal = "https://www.arcgis.com"
	conf.Upstream.Url = "https://www.arcgis.com/sharing/rest/search"
	conf.Upstream.PageSize = 100
	conf.Upstream.Timeout = 30
	err := yaml.Unmarshal(bytes, &conf)
	if err != nil {
		slog.Error(fmt.Sprintf("Couldn't parse configuration data: %s", err))
		return err
	}

	// copy the config data into place
	Service = conf.Service
	Upstream = conf.Upstream
	Registry = conf.Registry
	Sites = conf.Sites

	return err
}

// This helper validates the given service parameters, returning an
// error indicating success or failure.
func validateServiceParameters(params serviceConfig) error {
	if params.Port < 0 || params.Port > 65535 {
		return fmt.Errorf("Invalid port: %d (must be 0-65535)", params.Port)
	}
	if params.MaxConnections <= 0 {
		return fmt.Errorf("Invalid max_connections: %d (must be positive)",
			params.MaxConnections)
	}
	if err := validateUrl("service.portal", params.Portal); err != nil {
		return err
	}
	return nil
}

// checks that the given string is an absolute http(s) URL
func validateUrl(name, value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("Invalid %s URL '%s': %s", name, value, err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("Invalid %s URL '%s' (must be http or https)", name, value)
	}
	if u.Host == "" {
		return fmt.Errorf("Invalid %s URL '%s' (no host)", name, value)
	}
	return nil
}

// This helper validates the given configfile, returning an error that indicates
// success or failure.
func validateConfig() error {
	err := validateServiceParameters(Service)
	if err != nil {
		return err
	}

	err = validateUpstreamParameters(Upstream)
	if err != nil {
		return err
	}

	// Were we given any sites?
	if len(Sites) == 0 && Registry.Path == "" {
		return fmt.Errorf("No sites were provided!")
	}
	for hostname, site := range Sites {
		err = validateSite(hostname, site)
		if err != nil {
			return err
		}
	}
	return nil
}

// Initializes the feed service configuration using the given YAML byte data.
func Init(yamlData []byte) error {

	// Read the configuration from our YAML file.
	err := readConfig(yamlData)
	if err != nil {
		return err
	}

	// Validate the configuration.
	err = validateConfig()
	return err
}
