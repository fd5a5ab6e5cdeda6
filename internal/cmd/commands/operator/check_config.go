package operator

import (
	"flag"
	"fmt"
	"strings"

	"github.com/hashicorp-forge/xano-meta/internal/cmd/base"
	"github.com/hashicorp-forge/xano-meta/internal/config"
)

type CheckConfigCommand struct {
	*base.Command

	api        base.APIFlags
	flagFormat string
}

// resolvedConfig is the printable form of a configuration. The token is
// never printed.
type resolvedConfig struct {
	Token             string                     `json:"token"`
	Instance          string                     `json:"instance,omitempty"`
	DomainSuffix      string                     `json:"domain_suffix"`
	GlobalAPI         string                     `json:"global_api"`
	BaseURL           string                     `json:"base_url,omitempty"`
	Timeout           string                     `json:"timeout"`
	TLSVerify         bool                       `json:"tls_verify"`
	LogLevel          string                     `json:"log_level"`
	FallbackInstances []*config.FallbackInstance `json:"fallback_instances,omitempty"`
}

func (c *CheckConfigCommand) Synopsis() string {
	return "Validate and print the resolved configuration"
}

func (c *CheckConfigCommand) Help() string {
	return `Usage: xano-meta operator check-config [options]

  Resolve the configuration from the configuration file, the environment and
  the flags, validate it and print the result. The API token is redacted.
  Exits 1 when the configuration is invalid.` + c.Flags().Help()
}

func (c *CheckConfigCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("check-config", flag.ContinueOnError))

	c.api.Register(f)
	f.StringVar(
		&c.flagFormat, "format", base.FormatYAML,
		"Output format: json or yaml",
	)

	return f
}

func (c *CheckConfigCommand) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := c.LoadConfig(&c.api)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	out, err := base.Render(resolve(cfg), c.flagFormat)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	c.UI.Output(out)
	return 0
}

func resolve(cfg *config.Config) resolvedConfig {
	return resolvedConfig{
		Token:             redact(cfg.Token),
		Instance:          cfg.Instance,
		DomainSuffix:      cfg.DomainSuffix,
		GlobalAPI:         cfg.GlobalAPI,
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.Timeout,
		TLSVerify:         cfg.TLSVerify == nil || *cfg.TLSVerify,
		LogLevel:          cfg.LogLevel,
		FallbackInstances: cfg.FallbackInstances,
	}
}

// redact keeps the last four characters of long tokens.
func redact(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", 8) + token[len(token)-4:]
}
