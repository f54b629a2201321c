package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/arloliu/go-fsstream/config"
	"github.com/arloliu/go-fsstream/logger"
	"github.com/arloliu/go-fsstream/stream"
)

const (
	defaultBaud = 115200
	// pollInterval paces the main loop while no input is pending.
	pollInterval = time.Millisecond
	// pollBurst is the number of main loop steps run per tick.
	pollBurst = 64
	// ctrlC ends a --stdio session, the terminal being in raw mode.
	ctrlC = 0x03
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run a controller on a serial port or the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"FSSTREAM_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "port",
				Usage: "serial device, e.g. /dev/ttyUSB0",
			},
			&cli.UintFlag{
				Name:  "baud",
				Usage: "serial baud rate",
				Value: defaultBaud,
			},
			&cli.BoolFlag{
				Name:  "stdio",
				Usage: "use the terminal as the transport",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override the configured log level",
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	if (c.String("port") == "") == !c.Bool("stdio") {
		return cli.Exit("exactly one of --port and --stdio is required", 2)
	}

	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cli.Exit(err, 2)
		}
	}
	if level := c.String("log-level"); level != "" {
		cfg.Log.Level = level
	}

	log := cfg.Log.Logger(os.Stderr)
	logger.SetLogger(log)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		in  io.Reader
		out io.Writer
	)
	if c.Bool("stdio") {
		restore, err := rawTerminal()
		if err != nil {
			return err
		}
		defer restore()

		in = &interruptReader{r: os.Stdin, cancel: stop}
		out = os.Stdout
	} else {
		dev, err := serial.Open(serial.OpenOptions{
			PortName:        c.String("port"),
			BaudRate:        c.Uint("baud"),
			DataBits:        8,
			StopBits:        1,
			MinimumReadSize: 1,
		})
		if err != nil {
			return err
		}
		defer dev.Close()

		in, out = dev, dev
	}

	port := stream.NewPort(stream.KindSerial, out, stream.WithSuspend())
	ctl, err := newController(cfg, port, log)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- port.Run(ctx, in) }()

	log.Info("controller started", "stdio", c.Bool("stdio"), "port", c.String("port"))
	ctl.run(ctx)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	default:
	}

	return nil
}

// run drives the main loop until ctx is done.
func (c *controller) run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.player.End(false)
			c.log.Info("controller stopped")
			return
		case <-ticker.C:
			for i := 0; i < pollBurst; i++ {
				c.m.Poll()
			}
		}
	}
}

// rawTerminal puts stdin in raw mode so realtime command bytes arrive unbuffered.
func rawTerminal() (func(), error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}

	return func() { _ = term.Restore(fd, state) }, nil
}

// interruptReader cancels the session when Ctrl-C is read.
type interruptReader struct {
	r      io.Reader
	cancel func()
}

func (ir *interruptReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	for i := 0; i < n; i++ {
		if p[i] == ctrlC {
			ir.cancel()
			return i, io.EOF
		}
	}

	return n, err
}
