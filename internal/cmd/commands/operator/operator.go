package operator

import (
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/xano-meta/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Perform operator-specific tasks"
}

func (c *Command) Help() string {
	return `Usage: xano-meta operator <subcommand> [options] [args]

  This command groups subcommands for checking a xano-meta setup.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}
