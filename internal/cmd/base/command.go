package base

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/xano-meta/internal/config"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/catalog"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/dispatch"
)

// Command is embedded by every CLI command.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui

	// FS is used for configuration files and upload attachments.
	FS afero.Fs

	// LookupEnv reads environment variables.
	LookupEnv func(string) (string, bool)

	// Stdin and Stdout carry the serve command's JSON lines.
	Stdin  io.Reader
	Stdout io.Writer
}

// NewCommand returns a Command wired to the process environment.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{
		Log:       log,
		UI:        ui,
		FS:        afero.NewOsFs(),
		LookupEnv: os.LookupEnv,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
	}
}

// APIFlags are the flags shared by every command that talks to the Xano
// metadata API.
type APIFlags struct {
	ConfigPath string
	Token      string
	Instance   string
	LogLevel   string
}

// Register adds the API flags to f.
func (a *APIFlags) Register(f *FlagSet) {
	f.StringVar(
		&a.ConfigPath, "config", "",
		fmt.Sprintf("[%s] Path to an HCL configuration file", config.EnvConfigPath),
	)
	f.StringVar(
		&a.Token, "token", "",
		fmt.Sprintf("[%s] Xano metadata API token", config.EnvToken),
	)
	f.StringVar(
		&a.Instance, "instance", "",
		fmt.Sprintf("[%s] Default instance name", config.EnvInstance),
	)
	f.StringVar(
		&a.LogLevel, "log-level", "",
		fmt.Sprintf("[%s] Log level: trace, debug, info, warn, error", config.EnvLogLevel),
	)
}

// LoadConfig resolves the configuration from, in increasing precedence, the
// configuration file, the environment and the flags.
func (c *Command) LoadConfig(a *APIFlags) (*config.Config, error) {
	path := a.ConfigPath
	if val, ok := c.LookupEnv(config.EnvConfigPath); ok && path == "" {
		path = val
	}

	cfg := config.NewConfig()
	if path != "" {
		var err error
		cfg, err = config.LoadFile(c.FS, path)
		if err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv(c.LookupEnv)

	if a.Token != "" {
		cfg.Token = a.Token
	}
	if a.Instance != "" {
		cfg.Instance = a.Instance
	}
	if a.LogLevel != "" {
		cfg.LogLevel = a.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c.Log.SetLevel(hclog.LevelFromString(cfg.LogLevel))
	return cfg, nil
}

// NewCatalog builds the dispatcher and operation catalog for a validated
// configuration.
func (c *Command) NewCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	d, err := dispatch.New(cfg.DispatchConfig(c.FS, c.Log))
	if err != nil {
		return nil, err
	}
	return catalog.New(d, cfg.CatalogOptions(c.Log)), nil
}

// DefaultInstance sets args["instance_name"] to instance when the named
// operation takes an instance and the caller did not pass one.
func DefaultInstance(cat *catalog.Catalog, name string, args map[string]any, instance string) {
	if instance == "" || args == nil {
		return
	}
	if _, set := args["instance_name"]; set {
		return
	}
	op, ok := cat.Lookup(name)
	if !ok {
		return
	}
	for _, p := range op.Params() {
		if p.Name == "instance_name" {
			args["instance_name"] = instance
			return
		}
	}
}
