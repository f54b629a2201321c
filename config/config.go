package config

import (
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/spf13/afero"

	"github.com/arloliu/go-fsstream/fsstream"
	"github.com/arloliu/go-fsstream/logger"
	"github.com/arloliu/go-fsstream/macro"
	"github.com/arloliu/go-fsstream/media"
	"github.com/arloliu/go-fsstream/ymodem"
)

// Config is the content of an fsstreamd configuration file. Every value is optional; zero values
// keep the component defaults.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Stream  StreamConfig  `yaml:"stream"`
	Macro   MacroConfig   `yaml:"macro"`
	Upload  UploadConfig  `yaml:"upload"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
	Source bool   `yaml:"source"`
}

// StorageConfig lists the fixed mounts and the removable card.
type StorageConfig struct {
	Mounts []MountConfig `yaml:"mounts"`
	Card   CardConfig    `yaml:"card"`
}

// MountConfig is a backing store mounted at start-up. Exactly one of Dir and Memory is set.
type MountConfig struct {
	Path     string `yaml:"path"`
	Name     string `yaml:"name"`
	Dir      string `yaml:"dir"`
	Memory   bool   `yaml:"memory"`
	ReadOnly bool   `yaml:"read_only"`
}

// CardConfig is the removable card handled by the media driver. The card is disabled unless
// Dir or Memory is set.
type CardConfig struct {
	Path       string `yaml:"path"`
	Dir        string `yaml:"dir"`
	Memory     bool   `yaml:"memory"`
	ReadOnly   bool   `yaml:"read_only"`
	AutoMount  *bool  `yaml:"auto_mount"`
	Detectable bool   `yaml:"detectable"`
}

// StreamConfig holds the job player settings.
type StreamConfig struct {
	RewindOnM2       *bool    `yaml:"rewind_on_m2"`
	WebUIRewindGuard *bool    `yaml:"webui_rewind_guard"`
	FileTypes        []string `yaml:"file_types"`
	MaxNameLength    int      `yaml:"max_name_length"`
	ScanDepth        int      `yaml:"scan_depth"`
}

// MacroConfig holds the macro stack settings. A nil script name keeps the default, an empty one
// disables the binding.
type MacroConfig struct {
	StackDepth    int      `yaml:"stack_depth"`
	SearchPaths   []string `yaml:"search_paths"`
	ToolChange    *string  `yaml:"tool_change"`
	ToolSelect    *string  `yaml:"tool_select"`
	PalletShuttle *string  `yaml:"pallet_shuttle"`
	ForceToolZero bool     `yaml:"force_tool_zero"`
}

// UploadConfig holds the upload receiver settings.
type UploadConfig struct {
	Timeout    Duration `yaml:"timeout"`
	MaxErrors  int      `yaml:"max_errors"`
	BufferSize int      `yaml:"buffer_size"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "500ms", "2s").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed

	return nil
}

// Default returns the configuration used without a config file: an in-memory card mounted at "/".
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Card: CardConfig{Memory: true}},
	}
}

// Validate checks the storage layout.
func (c *Config) Validate() error {
	var errs []error

	seen := make(map[string]bool)
	for i, m := range c.Storage.Mounts {
		if !validPath(m.Path) {
			errs = append(errs, fmt.Errorf("storage.mounts[%d]: invalid path %q", i, m.Path))
			continue
		}
		if (m.Dir == "") == !m.Memory {
			errs = append(errs, fmt.Errorf("storage.mounts[%d]: exactly one of dir and memory must be set", i))
		}
		if seen[m.Path] {
			errs = append(errs, fmt.Errorf("storage.mounts[%d]: duplicate path %q", i, m.Path))
		}
		seen[m.Path] = true
	}

	card := c.Storage.Card
	if card.Dir != "" && card.Memory {
		errs = append(errs, errors.New("storage.card: dir and memory are exclusive"))
	}
	if card.Enabled() {
		if card.Path != "" && !validPath(card.Path) {
			errs = append(errs, fmt.Errorf("storage.card: invalid path %q", card.Path))
		}
		if seen[card.MountPath()] {
			errs = append(errs, fmt.Errorf("storage.card: path %q is also a fixed mount", card.MountPath()))
		}
	}

	return errors.Join(errs...)
}

func validPath(p string) bool {
	return p != "" && p[0] == '/' && path.Clean(p) == p
}

// Logger creates the logger described by the log section, writing to w.
func (c LogConfig) Logger(w io.Writer) logger.Logger {
	return logger.NewSlogWriter(w, logger.ParseLevel(c.Level), c.Source, c.Pretty)
}

// Backend returns the afero backing store of the mount.
func (m MountConfig) Backend() afero.Fs {
	if m.Memory {
		return afero.NewMemMapFs()
	}

	return afero.NewBasePathFs(afero.NewOsFs(), m.Dir)
}

// Label returns the mount name, derived from the backing store kind when unset.
func (m MountConfig) Label() string {
	switch {
	case m.Name != "":
		return m.Name
	case m.Memory:
		return "memory"
	default:
		return "dir"
	}
}

// Enabled reports whether a card is configured.
func (c CardConfig) Enabled() bool {
	return c.Dir != "" || c.Memory
}

// MountPath returns the path the card is mounted at.
func (c CardConfig) MountPath() string {
	if c.Path == "" {
		return media.DefaultMountPath
	}

	return c.Path
}

// Card returns the configured card, or nil when none is configured.
func (c CardConfig) Card() media.Card {
	switch {
	case c.Dir != "":
		return media.NewDirCard(c.Dir)
	case c.Memory:
		return media.NewMemCard()
	default:
		return nil
	}
}

// MediaOptions converts the card section to media driver options. The card is mounted
// automatically unless auto_mount is false.
func (c *Config) MediaOptions() []media.Option {
	card := c.Storage.Card
	autoMount := card.AutoMount == nil || *card.AutoMount

	return []media.Option{
		media.WithMountPath(card.MountPath()),
		media.WithReadOnly(card.ReadOnly),
		media.WithAutoMount(autoMount),
		media.WithDetectable(card.Detectable),
	}
}

// StreamOptions converts the stream section to job player options.
func (c *Config) StreamOptions() []fsstream.Option {
	s := c.Stream

	var opts []fsstream.Option
	if s.RewindOnM2 != nil {
		opts = append(opts, fsstream.WithRewindOnM2(*s.RewindOnM2))
	}
	if s.WebUIRewindGuard != nil {
		opts = append(opts, fsstream.WithWebUIRewindGuard(*s.WebUIRewindGuard))
	}
	if len(s.FileTypes) > 0 {
		opts = append(opts, fsstream.WithFileTypes(s.FileTypes...))
	}
	if s.MaxNameLength != 0 {
		opts = append(opts, fsstream.WithMaxNameLength(s.MaxNameLength))
	}
	if s.ScanDepth != 0 {
		opts = append(opts, fsstream.WithScanDepth(s.ScanDepth))
	}

	return opts
}

// MacroOptions converts the macro section to macro stack options.
func (c *Config) MacroOptions() []macro.Option {
	s := c.Macro

	var opts []macro.Option
	if s.StackDepth != 0 {
		opts = append(opts, macro.WithStackDepth(s.StackDepth))
	}
	if len(s.SearchPaths) > 0 {
		opts = append(opts, macro.WithSearchPaths(s.SearchPaths...))
	}
	if s.ToolChange != nil {
		opts = append(opts, macro.WithToolChangeScript(*s.ToolChange))
	}
	if s.ToolSelect != nil {
		opts = append(opts, macro.WithToolSelectScript(*s.ToolSelect))
	}
	if s.PalletShuttle != nil {
		opts = append(opts, macro.WithPalletShuttleScript(*s.PalletShuttle))
	}
	if s.ForceToolZero {
		opts = append(opts, macro.WithForceToolZero(true))
	}

	return opts
}

// UploadOptions converts the upload section to upload receiver options.
func (c *Config) UploadOptions() []ymodem.Option {
	s := c.Upload

	var opts []ymodem.Option
	if s.Timeout.Duration != 0 {
		opts = append(opts, ymodem.WithTimeout(s.Timeout.Duration))
	}
	if s.MaxErrors != 0 {
		opts = append(opts, ymodem.WithMaxErrors(s.MaxErrors))
	}
	if s.BufferSize != 0 {
		opts = append(opts, ymodem.WithBufferSize(s.BufferSize))
	}

	return opts
}
