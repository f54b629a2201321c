package vfs

import "os"

// Dir is an open directory stream.
type Dir struct {
	path    string
	entries []os.FileInfo
	idx     int
}

// OpenDir opens the directory name for iteration.
// The entry list is read when the directory is opened.
func (v *FS) OpenDir(name string) (*Dir, error) {
	abs := v.Abs(name)
	entries, err := v.ReadDir(abs)
	if err != nil {
		return nil, err
	}

	return &Dir{path: abs, entries: entries}, nil
}

// Path returns the absolute path of the directory.
func (d *Dir) Path() string { return d.path }

// Next returns the next entry. ok is false at the end of the directory.
func (d *Dir) Next() (os.FileInfo, bool) {
	if d.idx >= len(d.entries) {
		return nil, false
	}
	fi := d.entries[d.idx]
	d.idx++

	return fi, true
}

// Rewind restarts iteration at the first entry.
func (d *Dir) Rewind() { d.idx = 0 }

// Close releases the directory stream.
func (d *Dir) Close() error {
	d.entries = nil
	return nil
}
