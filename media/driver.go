// Package media manages a removable card mounted into the virtual file system.
//
// The driver adds the $FM (mount), $FU (unmount) and $FF (format) commands and reports the mount
// state in realtime status reports as |SD:<n>, where bit 0 is set while the card is mounted and
// bit 1 when the card slot signals insertion. Except for Detect, the driver belongs to the main
// loop.
package media

import (
	"fmt"
	"strconv"

	"github.com/arloliu/go-fsstream/logger"
	"github.com/arloliu/go-fsstream/machine"
	"github.com/arloliu/go-fsstream/stream"
	"github.com/arloliu/go-fsstream/vfs"
)

// PluginName is listed in the build info report.
const PluginName = "SDCARD v1.24"

var msgAutoMountFailed = machine.Info("SD card automount failed")

// Driver mounts a Card into a virtual file system on request.
type Driver struct {
	m    *machine.Machine
	fs   *vfs.FS
	card Card
	cfg  *config

	mounted bool
	// a report is pending
	changed bool

	logger logger.Logger
}

// New creates a driver for card and registers its commands and event handlers.
func New(m *machine.Machine, fsys *vfs.FS, card Card, opts ...Option) (*Driver, error) {
	if card == nil {
		return nil, fmt.Errorf("media: nil card")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	d := &Driver{
		m:      m,
		fs:     fsys,
		card:   card,
		cfg:    cfg,
		logger: cfg.logger,
	}

	err := m.RegisterCommands(
		machine.Command{Name: "FM", Run: d.cmdMount, NoArgs: true, Help: "mount SD card"},
		machine.Command{Name: "FU", Run: d.cmdUnmount, NoArgs: true, Help: "unmount SD card"},
		machine.Command{Name: "FF", Run: d.cmdFormat, NoArgs: true, Help: "format SD card"},
	)
	if err != nil {
		return nil, err
	}

	hooks := m.Hooks()
	hooks.RealtimeReport.Observe(d.onRealtimeReport)
	hooks.ReportOptions.Observe(func(r *machine.OptionsReport) {
		r.NewOpts = append(r.NewOpts, "SD")
		r.Plugins = append(r.Plugins, PluginName)
	})

	if cfg.autoMount {
		m.AddTask(d.autoMount)
	}

	return d, nil
}

// Mounted reports whether the card is mounted.
func (d *Driver) Mounted() bool { return d.mounted }

// MountPath returns the path the card is mounted at.
func (d *Driver) MountPath() string { return d.cfg.mountPath }

// Mount mounts the card. Mounting a mounted card does nothing.
func (d *Driver) Mount() error {
	if d.mounted {
		return nil
	}

	backend, err := d.card.Mount()
	if err != nil {
		d.logger.Warn("card mount failed", "error", err)
		return fmt.Errorf("%w: %w", ErrMountFailed, err)
	}

	mode := vfs.Mode{Name: d.cfg.name, ReadOnly: d.cfg.readOnly}
	if err := d.fs.Mount(d.cfg.mountPath, backend, mode); err != nil {
		_ = d.card.Unmount()
		return fmt.Errorf("%w: %w", ErrMountFailed, err)
	}

	d.mounted = true
	d.changed = true

	return nil
}

// Unmount unmounts the card.
func (d *Driver) Unmount() error {
	if !d.mounted {
		return ErrNotMounted
	}

	if err := d.fs.Unmount(d.cfg.mountPath); err != nil {
		return fmt.Errorf("%w: %w", ErrMountFailed, err)
	}
	d.mounted = false
	d.changed = true

	if err := d.card.Unmount(); err != nil {
		d.logger.Warn("card release failed", "error", err)
		return fmt.Errorf("%w: %w", ErrMountFailed, err)
	}

	return nil
}

// Format erases the card contents.
func (d *Driver) Format() error {
	if !d.mounted {
		return ErrNotMounted
	}

	if err := d.fs.Format(d.cfg.mountPath); err != nil {
		if StatusOf(err) == machine.StatusFsReadOnly {
			return err
		}

		return fmt.Errorf("%w: %w", ErrFormatFailed, err)
	}

	return nil
}

// Detect signals card insertion or removal. It may be called from any goroutine; the card is
// mounted or unmounted from the main loop.
func (d *Driver) Detect(inserted bool) {
	d.m.AddTask(func() {
		switch {
		case !inserted && d.mounted:
			if err := d.Unmount(); err != nil {
				d.logger.Warn("unmount on removal failed", "error", err)
			}
		case inserted && !d.mounted:
			if err := d.Mount(); err != nil {
				d.logger.Warn("mount on insertion failed", "error", err)
			}
		}
	})
}

func (d *Driver) autoMount() {
	if !d.mounted && d.Mount() != nil {
		d.m.Feedback(msgAutoMountFailed)
	}
}

func (d *Driver) onRealtimeReport(r *machine.Report) {
	if !r.Full && !d.changed {
		return
	}

	n := 0
	if d.cfg.detectable {
		n = 2
	}
	if d.mounted {
		n++
	}
	r.WriteString("|SD:" + strconv.Itoa(n))
	d.changed = false
}

func (d *Driver) cmdMount(machine.State, string) machine.Status {
	return StatusOf(d.Mount())
}

func (d *Driver) cmdUnmount(machine.State, string) machine.Status {
	return StatusOf(d.Unmount())
}

func (d *Driver) cmdFormat(state machine.State, _ string) machine.Status {
	if state != machine.StateIdle || d.m.Registry().Kind() == stream.KindFile {
		return StatusOf(ErrBusy)
	}

	return StatusOf(d.Format())
}
