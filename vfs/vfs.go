// Package vfs implements the virtual file system the streaming engine reads from.
//
// Backing stores are afero file systems mounted at absolute paths; a path is served by the
// mount with the longest matching prefix. Directories that only exist because something is
// mounted below them (for example "/" when only "/littlefs" is mounted) are synthesized.
//
// The mount table may be read and changed from any goroutine. The working directory and open
// file handles belong to the main loop.
package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/spf13/afero"

	"github.com/arloliu/go-fsstream/hook"
	"github.com/arloliu/go-fsstream/logger"
)

// File is an open file handle.
type File = afero.File

const writeFlags = os.O_WRONLY | os.O_RDWR | os.O_CREATE | os.O_TRUNC | os.O_APPEND

type mount struct {
	path    string
	mode    Mode
	backend afero.Fs
}

// FS is a virtual file system made of mounted afero backends.
type FS struct {
	mounts *xsync.MapOf[string, *mount]
	cwd    atomic.Pointer[string]

	onMount   *hook.Chain[MountEvent]
	onUnmount *hook.Chain[MountEvent]

	logger logger.Logger
}

// New creates an empty virtual file system.
func New(opts ...Option) (*FS, error) {
	v := &FS{
		mounts:    xsync.NewMapOf[string, *mount](),
		onMount:   hook.NewChain[MountEvent](nil),
		onUnmount: hook.NewChain[MountEvent](nil),
		logger:    logger.Component("vfs"),
	}
	root := "/"
	v.cwd.Store(&root)

	for _, opt := range opts {
		if err := opt.apply(v); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// OnMount returns the chain notified after a backing store is mounted.
func (v *FS) OnMount() *hook.Chain[MountEvent] { return v.onMount }

// OnUnmount returns the chain notified after a backing store is unmounted.
func (v *FS) OnUnmount() *hook.Chain[MountEvent] { return v.onUnmount }

// Mount attaches backend at mountPath.
func (v *FS) Mount(mountPath string, backend afero.Fs, mode Mode) error {
	if mountPath == "" || mountPath[0] != '/' || path.Clean(mountPath) != mountPath {
		return fmt.Errorf("%w: %q", ErrInvalidMountPath, mountPath)
	}
	if backend == nil {
		return fmt.Errorf("%w: nil backend for %q", ErrInvalidMountPath, mountPath)
	}

	if mode.ReadOnly {
		backend = afero.NewReadOnlyFs(backend)
	}

	m := &mount{path: mountPath, mode: mode, backend: backend}
	if _, loaded := v.mounts.LoadOrStore(mountPath, m); loaded {
		return fmt.Errorf("%w: %q", ErrAlreadyMounted, mountPath)
	}

	v.logger.Info("file system mounted", "path", mountPath, "name", mode.Name, "read_only", mode.ReadOnly)
	v.onMount.Fire(MountEvent{Path: mountPath, Mode: mode})

	return nil
}

// Unmount detaches the backing store mounted at mountPath.
func (v *FS) Unmount(mountPath string) error {
	m, ok := v.mounts.LoadAndDelete(mountPath)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotMounted, mountPath)
	}

	if cwd := v.Getwd(); within(cwd, mountPath) {
		root := "/"
		v.cwd.Store(&root)
	}

	v.logger.Info("file system unmounted", "path", mountPath)
	v.onUnmount.Fire(MountEvent{Path: mountPath, Mode: m.mode})

	return nil
}

// Mounted reports whether a backing store is mounted exactly at mountPath.
func (v *FS) Mounted(mountPath string) bool {
	_, ok := v.mounts.Load(mountPath)
	return ok
}

// ModeOf returns the mount mode of the backing store serving name.
func (v *FS) ModeOf(name string) (Mode, bool) {
	m, _, err := v.resolve(name)
	if err != nil {
		return Mode{}, false
	}

	return m.mode, true
}

// Mounts returns the sorted list of mount paths.
func (v *FS) Mounts() []string {
	paths := make([]string, 0, v.mounts.Size())
	v.mounts.Range(func(p string, _ *mount) bool {
		paths = append(paths, p)
		return true
	})
	sort.Strings(paths)

	return paths
}

// Abs returns the absolute, cleaned form of name relative to the working directory.
func (v *FS) Abs(name string) string {
	if name == "" {
		return v.Getwd()
	}
	if name[0] != '/' {
		name = path.Join(v.Getwd(), name)
	}

	return path.Clean(name)
}

// Getwd returns the working directory.
func (v *FS) Getwd() string {
	return *v.cwd.Load()
}

// Chdir changes the working directory.
func (v *FS) Chdir(name string) error {
	abs := v.Abs(name)

	if !v.isVirtualDir(abs) {
		fi, err := v.Stat(abs)
		if err != nil || !fi.IsDir() {
			return fmt.Errorf("%w: %q", ErrDirNotFound, abs)
		}
	}
	v.cwd.Store(&abs)

	return nil
}

// Open opens name for reading.
func (v *FS) Open(name string) (File, error) {
	return v.OpenFile(name, os.O_RDONLY, 0)
}

// Create creates or truncates name for writing.
func (v *FS) Create(name string) (File, error) {
	return v.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
}

// OpenFile is the generalized open call.
func (v *FS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	m, rel, err := v.resolve(name)
	if err != nil {
		return nil, err
	}
	if flag&writeFlags != 0 && m.mode.ReadOnly {
		return nil, fmt.Errorf("%w: %q", ErrReadOnly, name)
	}

	return m.backend.OpenFile(rel, flag, perm)
}

// Stat returns file information for name.
func (v *FS) Stat(name string) (os.FileInfo, error) {
	abs := v.Abs(name)
	m, rel, err := v.resolve(abs)
	if err != nil {
		if v.isVirtualDir(abs) {
			return dirInfo(path.Base(abs)), nil
		}

		return nil, err
	}

	fi, err := m.backend.Stat(rel)
	if err != nil && v.isVirtualDir(abs) {
		return dirInfo(path.Base(abs)), nil
	}

	return fi, err
}

// ReadDir returns the entries of the directory name sorted by name.
// Mount points directly below name are included as directories.
func (v *FS) ReadDir(name string) ([]os.FileInfo, error) {
	abs := v.Abs(name)

	var entries []os.FileInfo
	m, rel, err := v.resolve(abs)
	switch {
	case err == nil:
		entries, err = afero.ReadDir(m.backend, rel)
		if err != nil && !v.isVirtualDir(abs) {
			return nil, fmt.Errorf("%w: %q: %w", ErrDirNotFound, abs, err)
		}
	case !v.isVirtualDir(abs):
		return nil, err
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		seen[e.Name()] = struct{}{}
	}
	for _, child := range v.childMounts(abs) {
		if _, ok := seen[child]; !ok {
			entries = append(entries, dirInfo(child))
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	return entries, nil
}

// Remove deletes the file name.
func (v *FS) Remove(name string) error {
	m, rel, err := v.resolve(name)
	if err != nil {
		return err
	}
	if m.mode.ReadOnly {
		return fmt.Errorf("%w: %q", ErrReadOnly, name)
	}

	return m.backend.Remove(rel)
}

// Mkdir creates the directory name.
func (v *FS) Mkdir(name string) error {
	m, rel, err := v.resolve(name)
	if err != nil {
		return err
	}
	if m.mode.ReadOnly {
		return fmt.Errorf("%w: %q", ErrReadOnly, name)
	}

	return m.backend.MkdirAll(rel, 0o755)
}

// Format erases every file and directory on the backing store mounted at mountPath.
func (v *FS) Format(mountPath string) error {
	m, ok := v.mounts.Load(mountPath)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotMounted, mountPath)
	}
	if m.mode.ReadOnly {
		return fmt.Errorf("%w: %q", ErrReadOnly, mountPath)
	}

	entries, err := afero.ReadDir(m.backend, "/")
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := m.backend.RemoveAll(path.Join("/", e.Name())); err != nil {
			return err
		}
	}
	v.logger.Warn("file system formatted", "path", mountPath, "entries", len(entries))

	return nil
}

// resolve finds the mount serving name and the path relative to it.
func (v *FS) resolve(name string) (*mount, string, error) {
	abs := v.Abs(name)

	var best *mount
	v.mounts.Range(func(p string, m *mount) bool {
		if within(abs, p) && (best == nil || len(p) > len(best.path)) {
			best = m
		}
		return true
	})
	if best == nil {
		return nil, "", fmt.Errorf("%w: %q", ErrNotMounted, abs)
	}

	rel := strings.TrimPrefix(abs, best.path)
	if rel == "" || rel[0] != '/' {
		rel = "/" + rel
	}

	return best, rel, nil
}

// isVirtualDir reports whether abs is a mount point or an ancestor of one.
func (v *FS) isVirtualDir(abs string) bool {
	found := false
	v.mounts.Range(func(p string, _ *mount) bool {
		found = within(p, abs)
		return !found
	})

	return found
}

func (v *FS) childMounts(abs string) []string {
	var children []string
	v.mounts.Range(func(p string, _ *mount) bool {
		if p != abs && path.Dir(p) == abs {
			children = append(children, path.Base(p))
		}
		return true
	})

	return children
}

// within reports whether p equals dir or lies below it.
func within(p, dir string) bool {
	if dir == "/" {
		return strings.HasPrefix(p, "/")
	}

	return p == dir || strings.HasPrefix(p, dir+"/")
}

// IsNotExist reports whether err indicates a missing file or directory.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrDirNotFound)
}

type dirInfo string

func (d dirInfo) Name() string       { return string(d) }
func (d dirInfo) Size() int64        { return 0 }
func (d dirInfo) Mode() os.FileMode  { return fs.ModeDir | 0o755 }
func (d dirInfo) ModTime() time.Time { return time.Time{} }
func (d dirInfo) IsDir() bool        { return true }
func (d dirInfo) Sys() any           { return nil }
