package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/xano-meta/internal/cmd/base"
	"github.com/hashicorp-forge/xano-meta/internal/cmd/commands/call"
	"github.com/hashicorp-forge/xano-meta/internal/cmd/commands/describe"
	"github.com/hashicorp-forge/xano-meta/internal/cmd/commands/operations"
	"github.com/hashicorp-forge/xano-meta/internal/cmd/commands/operator"
	"github.com/hashicorp-forge/xano-meta/internal/cmd/commands/serve"
	"github.com/hashicorp-forge/xano-meta/internal/cmd/commands/version"
)

// Commands is the mapping of all available xano-meta commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := base.NewCommand(log, ui)

	Commands = map[string]cli.CommandFactory{
		"call": func() (cli.Command, error) {
			return &call.Command{Command: b}, nil
		},
		"describe": func() (cli.Command, error) {
			return &describe.Command{Command: b}, nil
		},
		"operations": func() (cli.Command, error) {
			return &operations.Command{Command: b}, nil
		},
		"operator": func() (cli.Command, error) {
			return &operator.Command{Command: b}, nil
		},
		"operator check-config": func() (cli.Command, error) {
			return &operator.CheckConfigCommand{Command: b}, nil
		},
		"serve": func() (cli.Command, error) {
			return &serve.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
