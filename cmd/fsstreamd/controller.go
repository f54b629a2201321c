package main

import (
	"fmt"

	"github.com/arloliu/go-fsstream/config"
	"github.com/arloliu/go-fsstream/fsstream"
	"github.com/arloliu/go-fsstream/logger"
	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/macro"
	"github.com/arloliu/go-fsstream/media"
	"github.com/arloliu/go-fsstream/stream"
	"github.com/arloliu/go-fsstream/vfs"
	"github.com/arloliu/go-fsstream/ymodem"
)

// controller is a machine with every file system component attached.
type controller struct {
	m      *machine.Machine
	fs     *vfs.FS
	player *fsstream.Player
	macros *macro.Stack
	upload *ymodem.Receiver
	media  *media.Driver
	log    logger.Logger
}

// newController builds a controller on t. It must be called before t receives any byte.
func newController(cfg *config.Config, t stream.Transport, log logger.Logger) (*controller, error) {
	c := &controller{log: log}

	reg := stream.NewRegistry(t, stream.WithRegistryLogger(log.With("component", "stream")))

	var err error
	c.m, err = machine.New(reg, machine.WithLogger(log.With("component", "machine")))
	if err != nil {
		return nil, err
	}

	c.fs, err = vfs.New(vfs.WithLogger(log.With("component", "vfs")))
	if err != nil {
		return nil, err
	}

	for _, mc := range cfg.Storage.Mounts {
		mode := vfs.Mode{Name: mc.Label(), ReadOnly: mc.ReadOnly}
		if err := c.fs.Mount(mc.Path, mc.Backend(), mode); err != nil {
			return nil, fmt.Errorf("mount %s: %w", mc.Path, err)
		}
	}

	streamOpts := append(cfg.StreamOptions(), fsstream.WithLogger(log.With("component", "fsstream")))
	if c.player, err = fsstream.New(c.m, c.fs, streamOpts...); err != nil {
		return nil, err
	}

	macroOpts := append(cfg.MacroOptions(), macro.WithLogger(log.With("component", "macro")))
	if c.macros, err = macro.New(c.m, c.fs, macroOpts...); err != nil {
		return nil, err
	}

	uploadOpts := append(cfg.UploadOptions(),
		ymodem.WithOnComplete(c.onUpload),
		ymodem.WithLogger(log.With("component", "ymodem")),
	)
	if c.upload, err = ymodem.New(c.m, c.fs, uploadOpts...); err != nil {
		return nil, err
	}

	if card := cfg.Storage.Card.Card(); card != nil {
		mediaOpts := append(cfg.MediaOptions(), media.WithLogger(log.With("component", "media")))
		if c.media, err = media.New(c.m, c.fs, card, mediaOpts...); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *controller) onUpload(res ymodem.Result) {
	if res.Err != nil {
		c.log.Warn("upload failed", "name", res.Name, "error", res.Err)
		return
	}
	if res.Name != "" {
		c.log.Info("upload completed", "name", res.Name, "bytes", res.Received, "duration", res.Duration)
	}
}
