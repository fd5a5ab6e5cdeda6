package dispatch

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/xano-meta/pkg/xano/locator"
)

// DefaultGlobalAPI is the account-wide metadata API root.
const DefaultGlobalAPI = "https://app.xano.com/api:meta"

// Config contains configuration for the dispatcher. It is read once by New
// and never mutated afterwards.
type Config struct {
	// Token is the bearer credential sent with every request.
	// Never logged or serialized.
	Token string `json:"-"`

	// DomainSuffix is appended to instance names to form their host.
	// Default: "n7c.xano.io"
	DomainSuffix string `json:"domainSuffix,omitempty"`

	// GlobalAPI is the account-wide API root used by instance discovery.
	// Default: "https://app.xano.com/api:meta"
	GlobalAPI string `json:"globalApi,omitempty"`

	// BaseURL, when set, replaces every instance's metadata API root, e.g.
	// for a self-hosted deployment behind a single host.
	BaseURL string `json:"baseUrl,omitempty"`

	// Timeout for a single HTTP exchange. Zero leaves the transport default.
	Timeout time.Duration `json:"timeout,omitempty"`

	// TLSVerify controls TLS certificate verification.
	// Set to false only for development/testing with self-signed certs
	TLSVerify *bool `json:"tlsVerify,omitempty"`

	// FS is the filesystem attachments are read from. Default: OS filesystem.
	FS afero.Fs `json:"-"`

	// Logger is optional.
	Logger hclog.Logger `json:"-"`

	// HTTPClient overrides the client built from this config.
	HTTPClient *http.Client `json:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	tlsVerify := true
	return &Config{
		DomainSuffix: locator.DefaultDomainSuffix,
		GlobalAPI:    DefaultGlobalAPI,
		TLSVerify:    &tlsVerify,
	}
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.DomainSuffix == "" {
		c.DomainSuffix = defaults.DomainSuffix
	}
	if c.GlobalAPI == "" {
		c.GlobalAPI = defaults.GlobalAPI
	}
	if c.TLSVerify == nil {
		c.TLSVerify = defaults.TLSVerify
	}
	if c.FS == nil {
		c.FS = afero.NewOsFs()
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
}

// Validate checks if the configuration is valid. All problems are reported,
// not only the first.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Token == "" {
		result = multierror.Append(result, fmt.Errorf("token is required"))
	}

	if err := validateURL("global_api", c.GlobalAPI); err != nil {
		result = multierror.Append(result, err)
	}
	if err := validateURL("base_url", c.BaseURL); err != nil {
		result = multierror.Append(result, err)
	}

	if c.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("timeout must not be negative, got: %v", c.Timeout))
	}

	return result.ErrorOrNil()
}

func validateURL(name, raw string) error {
	if raw == "" {
		return nil
	}
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got: %s", name, parsedURL.Scheme)
	}
	return nil
}

// NewHTTPClient creates a configured HTTP client.
func (c *Config) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	if c.TLSVerify != nil && !*c.TLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &http.Client{
		Timeout:   c.Timeout,
		Transport: transport,
	}
}
