package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/aurora-is-near/aurora-go/cli/engine"
	"github.com/aurora-is-near/aurora-go/cli/keys"
	"github.com/aurora-is-near/aurora-go/cli/near"
	"github.com/aurora-is-near/aurora-go/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "aurora-go\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates an aurora-go instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "aurora-go"
	ctl.Version = config.Version
	ctl.Usage = "NEAR RPC client for the Aurora Engine"
	ctl.ErrWriter = os.Stderr

	ctl.Commands = append(ctl.Commands, near.NewCommands()...)
	ctl.Commands = append(ctl.Commands, engine.NewCommands()...)
	ctl.Commands = append(ctl.Commands, keys.NewCommands()...)
	return ctl
}
