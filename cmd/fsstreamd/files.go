package main

import (
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/arloliu/go-fsstream/fsstream"
	"github.com/arloliu/go-fsstream/logger"
	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/stream"
	"github.com/arloliu/go-fsstream/vfs"
)

func rootFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "root",
		Usage: "host directory served as /",
		Value: ".",
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "ls",
		Usage: "list files in the controller listing format",
		Flags: []cli.Flag{
			rootFlag(),
			&cli.BoolFlag{
				Name:  "all",
				Usage: "include files of every type",
			},
		},
		Action: func(c *cli.Context) error {
			player, err := offlinePlayer(c.String("root"))
			if err != nil {
				return err
			}

			return player.List(os.Stdout, !c.Bool("all"))
		},
	}
}

func catCommand() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "print a file with normalized line endings",
		ArgsUsage: "NAME",
		Flags:     []cli.Flag{rootFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("exactly one file name is required", 2)
			}

			player, err := offlinePlayer(c.String("root"))
			if err != nil {
				return err
			}

			return player.Dump(os.Stdout, c.Args().First())
		},
	}
}

// offlinePlayer returns a player over dir mounted read-only at "/", without a transport.
func offlinePlayer(dir string) (*fsstream.Player, error) {
	osFs := afero.NewOsFs()
	if ok, err := afero.DirExists(osFs, dir); err != nil || !ok {
		return nil, cli.Exit("directory not found: "+dir, 2)
	}

	log := logger.Discard()
	m, err := machine.New(stream.NewRegistry(nil, stream.WithRegistryLogger(log)),
		machine.WithLogger(log),
		machine.WithBanner(""),
	)
	if err != nil {
		return nil, err
	}

	fsys, err := vfs.New(vfs.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := fsys.Mount("/", afero.NewBasePathFs(osFs, dir), vfs.Mode{Name: "dir", ReadOnly: true}); err != nil {
		return nil, err
	}

	return fsstream.New(m, fsys, fsstream.WithLogger(log))
}
