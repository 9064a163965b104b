package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/hegemone/adapter"
	"github.com/mklimuk/hegemone/cmd/hegemone/console"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "USB to I2C bridge maintenance",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "index", Usage: "bridge index when more than one is plugged in"},
	},
	Subcommands: []*cli.Command{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
	},
}

func newMCP2221(c *cli.Context) *adapter.MCP2221 {
	var a *adapter.MCP2221
	if c.IsSet("index") {
		a = adapter.NewMCP2221(c.Int("index"))
	} else {
		a = adapter.NewMCP2221()
	}
	a.Verbose = c.Bool("verbose")
	return a
}

func printStatus(status *adapter.MCP2221Status) error {
	if err := yaml.NewEncoder(os.Stdout).Encode(status); err != nil {
		return console.Fail("encoding error", err)
	}
	return nil
}

var mcp2221StatusCmd = cli.Command{
	Name: "status",
	Action: func(c *cli.Context) error {
		status, err := newMCP2221(c).Status(newContext(c))
		if err != nil {
			return console.Fail("adapter communication error", err)
		}
		return printStatus(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel a stuck transfer and free the bus",
	Action: func(c *cli.Context) error {
		status, err := newMCP2221(c).ReleaseBus(newContext(c))
		if err != nil {
			return console.Fail("adapter communication error", err)
		}
		return printStatus(status)
	},
}
