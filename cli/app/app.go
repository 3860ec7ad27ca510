package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/adenium-io/adenium-go/cli/trie"
	"github.com/adenium-io/adenium-go/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "Adenium\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates an Adenium instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "adenium-go"
	ctl.Version = config.Version
	ctl.Usage = "Authenticated radix trie index"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, trie.NewCommands()...)
	return ctl
}
