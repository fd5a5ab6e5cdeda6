package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/xano-meta/pkg/xano/catalog"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/dispatch"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/locator"
)

// Environment variables read by ApplyEnv.
const (
	EnvToken        = "XANO_API_TOKEN"
	EnvInstance     = "XANO_INSTANCE"
	EnvDomainSuffix = "XANO_DOMAIN_SUFFIX"
	EnvGlobalAPI    = "XANO_GLOBAL_API"
	EnvLogLevel     = "XANO_LOG_LEVEL"
	EnvConfigPath   = "XANO_CONFIG"
)

const (
	defaultTimeout  = "30s"
	defaultLogLevel = "info"
)

// Config contains the xano-meta configuration.
type Config struct {
	// Token is the Xano metadata API bearer token. Prefer the XANO_API_TOKEN
	// environment variable over writing it into a file.
	Token string `hcl:"token,optional"`

	// Instance is the default instance name for commands that take one.
	Instance string `hcl:"instance,optional"`

	// DomainSuffix is appended to instance names to form their host.
	DomainSuffix string `hcl:"domain_suffix,optional"`

	// GlobalAPI is the account-wide metadata API root.
	GlobalAPI string `hcl:"global_api,optional"`

	// BaseURL replaces every instance's metadata API root when set.
	BaseURL string `hcl:"base_url,optional"`

	// Timeout bounds a single HTTP exchange, e.g. "30s".
	Timeout string `hcl:"timeout,optional"`

	// TLSVerify disables certificate verification when false.
	TLSVerify *bool `hcl:"tls_verify,optional"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `hcl:"log_level,optional"`

	// FallbackInstances are listed, flagged as synthesized, when instance
	// discovery returns nothing.
	FallbackInstances []*FallbackInstance `hcl:"fallback_instance,block"`
}

// FallbackInstance configures one static instance.
type FallbackInstance struct {
	Name    string `hcl:"name,label" json:"name"`
	Display string `hcl:"display,optional" json:"display,omitempty"`
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadFile decodes an HCL configuration file from fs and applies defaults.
func LoadFile(fs afero.Fs, path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("configuration file path is required")
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}

	src, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var c Config
	if err := hclsimple.Decode(path, src, nil, &c); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}
	c.applyDefaults()

	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.DomainSuffix == "" {
		c.DomainSuffix = locator.DefaultDomainSuffix
	}
	if c.GlobalAPI == "" {
		c.GlobalAPI = dispatch.DefaultGlobalAPI
	}
	if c.Timeout == "" {
		c.Timeout = defaultTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// ApplyEnv overlays values from the environment. lookup is usually
// os.LookupEnv. Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	for env, field := range map[string]*string{
		EnvToken:        &c.Token,
		EnvInstance:     &c.Instance,
		EnvDomainSuffix: &c.DomainSuffix,
		EnvGlobalAPI:    &c.GlobalAPI,
		EnvLogLevel:     &c.LogLevel,
	} {
		if val, ok := lookup(env); ok && val != "" {
			*field = val
		}
	}
}

// Validate checks if the configuration is valid. All problems are reported.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Token == "" {
		result = multierror.Append(result,
			fmt.Errorf("API token is required (-token, %s or the token attribute)", EnvToken))
	}

	if _, err := c.TimeoutDuration(); err != nil {
		result = multierror.Append(result, err)
	}

	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		result = multierror.Append(result, fmt.Errorf("invalid log_level %q", c.LogLevel))
	}

	seen := make(map[string]bool)
	for i, fb := range c.FallbackInstances {
		if fb.Name == "" {
			result = multierror.Append(result, fmt.Errorf("fallback_instance %d: name is required", i))
			continue
		}
		if seen[fb.Name] {
			result = multierror.Append(result, fmt.Errorf("fallback_instance %q: defined twice", fb.Name))
		}
		seen[fb.Name] = true
	}

	return result.ErrorOrNil()
}

// TimeoutDuration parses Timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout must not be negative, got: %s", c.Timeout)
	}
	return d, nil
}

// DispatchConfig returns the dispatcher configuration. The config must be
// valid.
func (c *Config) DispatchConfig(fs afero.Fs, logger hclog.Logger) *dispatch.Config {
	timeout, _ := c.TimeoutDuration()
	return &dispatch.Config{
		Token:        c.Token,
		DomainSuffix: c.DomainSuffix,
		GlobalAPI:    c.GlobalAPI,
		BaseURL:      c.BaseURL,
		Timeout:      timeout,
		TLSVerify:    c.TLSVerify,
		FS:           fs,
		Logger:       logger,
	}
}

// CatalogOptions returns the catalog options.
func (c *Config) CatalogOptions(logger hclog.Logger) catalog.Options {
	opts := catalog.Options{
		DomainSuffix: c.DomainSuffix,
		GlobalAPI:    c.GlobalAPI,
		Logger:       logger,
	}
	for _, fb := range c.FallbackInstances {
		opts.FallbackInstances = append(opts.FallbackInstances, catalog.FallbackInstance{
			Name:    fb.Name,
			Display: fb.Display,
		})
	}
	return opts
}
