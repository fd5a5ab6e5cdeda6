package version

import (
	"github.com/hashicorp-forge/xano-meta/internal/cmd/base"
	"github.com/hashicorp-forge/xano-meta/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return `Usage: xano-meta version

  Print the xano-meta version.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output("xano-meta " + version.Version)
	return 0
}
