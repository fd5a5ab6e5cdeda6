package operations

import (
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/hashicorp-forge/xano-meta/internal/cmd/base"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/catalog"
)

type Command struct {
	*base.Command

	flagFamily string
	flagFormat string
}

type operationInfo struct {
	Name     string `json:"name"`
	Command  string `json:"command"`
	Family   string `json:"family"`
	Synopsis string `json:"synopsis"`
}

func (c *Command) Synopsis() string {
	return "List the available metadata API operations"
}

func (c *Command) Help() string {
	return `Usage: xano-meta operations [options]

  List every operation that can be run with "xano-meta call" or sent to
  "xano-meta serve".` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("operations", flag.ContinueOnError))

	f.StringVar(
		&c.flagFamily, "family", "",
		"Only list operations of one family (instance, workspace, table, schema, index, content, file, history, transfer)",
	)
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

	// Listing needs no credentials, so the catalog runs without an executor.
	cat := catalog.New(nil, catalog.Options{Logger: c.Log})

	var ops []operationInfo
	for _, op := range cat.Operations() {
		if c.flagFamily != "" && op.Family != c.flagFamily {
			continue
		}
		ops = append(ops, operationInfo{
			Name:     op.Name,
			Command:  catalog.CommandName(op.Name),
			Family:   op.Family,
			Synopsis: op.Synopsis,
		})
	}
	if len(ops) == 0 {
		c.UI.Error(fmt.Sprintf("no operations in family %q", c.flagFamily))
		return 1
	}

	if c.flagFormat == base.FormatText {
		var b strings.Builder
		w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FAMILY\tCOMMAND\tSYNOPSIS")
		for _, op := range ops {
			fmt.Fprintf(w, "%s\t%s\t%s\n", op.Family, op.Command, op.Synopsis)
		}
		w.Flush()
		c.UI.Output(strings.TrimRight(b.String(), "\n"))
		return 0
	}

	out, err := base.Render(ops, c.flagFormat)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	c.UI.Output(out)
	return 0
}
