package call

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"

	"github.com/hashicorp-forge/xano-meta/internal/cmd/base"
)

type Command struct {
	*base.Command

	api          base.APIFlags
	flagArgs     string
	flagArgsFile string
	flagFormat   string
}

func (c *Command) Synopsis() string {
	return "Run one metadata API operation"
}

func (c *Command) Help() string {
	return `Usage: xano-meta call [options] <operation> [key=value ...]

  Run one operation and print its result. Arguments are given as key=value
  pairs, as a JSON object with -args, or both; pairs win. Values that parse as
  JSON are used as such, anything else is a string:

    xano-meta call list-tables instance_name=xnwv-v1z6-dvnr workspace_id=1
    xano-meta call create-table workspace_id=1 name=orders 'tag=["shop"]'
    xano-meta call -args '{"workspace_id":1,"table_id":2}' get-table-schema

  instance_name defaults to -instance or XANO_INSTANCE when the operation
  takes one. A failed operation prints its error object and exits 1.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("call", flag.ContinueOnError))

	c.api.Register(f)
	f.StringVar(
		&c.flagArgs, "args", "",
		"Operation arguments as a JSON object",
	)
	f.StringVar(
		&c.flagArgsFile, "args-file", "",
		"Path to a file holding the operation arguments as a JSON object",
	)
	f.StringVar(
		&c.flagFormat, "format", base.FormatJSON,
		"Output format: json or yaml",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() < 1 {
		c.UI.Error("an operation name is required")
		c.UI.Error(c.Help())
		return 1
	}
	name := f.Arg(0)

	// Allow flags after the operation name.
	if err := f.Parse(f.Args()[1:]); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	opArgs, err := c.arguments(f.Args())
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	cfg, err := c.LoadConfig(&c.api)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	cat, err := c.NewCatalog(cfg)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing client: %v", err))
		return 1
	}

	base.DefaultInstance(cat, name, opArgs, cfg.Instance)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.Log.Debug("running operation", "operation", name)
	result := cat.Invoke(ctx, name, opArgs)

	out, err := base.Render(result, c.flagFormat)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	if !result.OK() {
		c.UI.Error(out)
		return 1
	}
	c.UI.Output(out)
	return 0
}

// arguments merges -args-file, -args and key=value pairs, in that order.
func (c *Command) arguments(pairs []string) (map[string]any, error) {
	out := make(map[string]any)

	if c.flagArgsFile != "" {
		data, err := afero.ReadFile(c.FS, c.flagArgsFile)
		if err != nil {
			return nil, fmt.Errorf("error reading arguments file: %w", err)
		}
		if err := base.DecodeJSON(data, &out); err != nil {
			return nil, fmt.Errorf("arguments file must hold a JSON object: %w", err)
		}
	}

	if c.flagArgs != "" {
		var fromFlag map[string]any
		if err := base.DecodeJSON([]byte(c.flagArgs), &fromFlag); err != nil {
			return nil, fmt.Errorf("-args must be a JSON object: %w", err)
		}
		for k, v := range fromFlag {
			out[k] = v
		}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not of the form key=value", pair)
		}
		out[key] = parseValue(value)
	}

	return out, nil
}

// parseValue returns the JSON value of s, or s itself when it is not JSON.
func parseValue(s string) any {
	var v any
	if err := base.DecodeJSON([]byte(s), &v); err != nil {
		return s
	}
	return v
}
