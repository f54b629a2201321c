// Command fsstreamd runs a simulated controller with the file streaming engine.
//
// Usage:
//
//	fsstreamd serve [--config FILE] [--port DEV --baud N | --stdio]
//	fsstreamd ls [--root DIR] [--all]
//	fsstreamd cat [--root DIR] NAME
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "fsstreamd",
		Usage:   "stream G-code jobs from a virtual file system",
		Version: version,
		Commands: []*cli.Command{
			serveCommand(),
			listCommand(),
			catCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "fsstreamd:", err)
		os.Exit(1)
	}
}
