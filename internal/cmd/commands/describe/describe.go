package describe

import (
	"flag"
	"fmt"
	"strings"

	"github.com/hashicorp-forge/xano-meta/internal/cmd/base"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/catalog"
)

type Command struct {
	*base.Command

	flagFormat string
}

type description struct {
	Name     string          `json:"name"`
	Command  string          `json:"command"`
	Family   string          `json:"family"`
	Synopsis string          `json:"synopsis"`
	Params   []catalog.Param `json:"params"`
}

func (c *Command) Synopsis() string {
	return "Show the parameters of an operation"
}

func (c *Command) Help() string {
	return `Usage: xano-meta describe [options] <operation>

  Show an operation's parameters, their types and defaults. The operation may
  be given as "xano_list_tables", "list_tables" or "list-tables".` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("describe", flag.ContinueOnError))

	f.StringVar(
		&c.flagFormat, "format", base.FormatText,
		"Output format: text, json or yaml",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("expected exactly one operation name")
		c.UI.Error(c.Help())
		return 1
	}

	cat := catalog.New(nil, catalog.Options{Logger: c.Log})
	op, ok := cat.Lookup(f.Arg(0))
	if !ok {
		c.UI.Error(fmt.Sprintf("unknown operation %q; run \"xano-meta operations\" for a list", f.Arg(0)))
		return 1
	}

	d := description{
		Name:     op.Name,
		Command:  catalog.CommandName(op.Name),
		Family:   op.Family,
		Synopsis: op.Synopsis,
		Params:   op.Params(),
	}

	if c.flagFormat != base.FormatText {
		out, err := base.Render(d, c.flagFormat)
		if err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		c.UI.Output(out)
		return 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n\n  %s\n\nParameters:\n", d.Name, d.Command, d.Synopsis)
	if len(d.Params) == 0 {
		b.WriteString("\n  none\n")
	}
	for _, p := range d.Params {
		fmt.Fprintf(&b, "\n  %s  %s", p.Name, p.Type)
		if p.Default != nil {
			fmt.Fprintf(&b, "  (default: %v)", p.Default)
		}
		if p.Description != "" {
			fmt.Fprintf(&b, "\n      %s", p.Description)
		}
		b.WriteString("\n")
	}
	c.UI.Output(strings.TrimRight(b.String(), "\n"))
	return 0
}
