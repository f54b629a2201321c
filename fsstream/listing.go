package fsstream

import (
	"fmt"
	"io"
	"path"
	"strings"
)

// Listing markers.
const (
	dirSize        = -1
	unusableSuffix = "|UNUSABLE"
)

type scanFrame struct {
	path  string
	depth int
}

// List writes the files below the working directory to w, one "[FILE:<path>|SIZE:<n>]" line per
// entry. Directories are listed with size -1 and descended up to the configured depth. When
// filtered is set only files with a known extension are shown. Names that cannot be streamed
// are flagged "|UNUSABLE".
func (p *Player) List(w io.Writer, filtered bool) error {
	if !p.mounted {
		return ErrNotMounted
	}

	root := p.fs.Getwd()
	if root != "/" {
		if err := writeEntry(w, joinPath(root, ".."), dirSize, true); err != nil {
			return err
		}
	}

	stack := []scanFrame{{path: root, depth: p.cfg.scanDepth}}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		subdirs, err := p.listDir(w, frame, filtered)
		if err != nil {
			return err
		}

		// reversed so the first subdirectory is visited next
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, scanFrame{path: subdirs[i], depth: frame.depth - 1})
		}
	}

	return nil
}

// listDir lists one directory and returns the subdirectories to descend into.
func (p *Player) listDir(w io.Writer, frame scanFrame, filtered bool) ([]string, error) {
	dir, err := p.fs.OpenDir(frame.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListFailed, err)
	}
	defer dir.Close()

	var subdirs []string
	for fi, ok := dir.Next(); ok; fi, ok = dir.Next() {
		name := fi.Name()
		full := joinPath(frame.path, name)
		usable := p.usableName(name)

		if fi.IsDir() {
			if err := writeEntry(w, full, dirSize, usable); err != nil {
				return nil, err
			}
			if usable && frame.depth > 1 {
				if len(full) > MaxPathLength {
					p.logger.Debug("path too long, not descending", "path", full)
					continue
				}
				subdirs = append(subdirs, full)
			}

			continue
		}

		if filtered && !p.allowedType(name) {
			continue
		}
		if err := writeEntry(w, full, fi.Size(), usable); err != nil {
			return nil, err
		}
	}

	return subdirs, nil
}

// allowedType reports whether the extension of name is one of the configured file types.
func (p *Player) allowedType(name string) bool {
	ext := path.Ext(name)
	if ext == "" || len(ext) > maxFileTypeLength+1 {
		return false
	}
	ext = strings.ToLower(ext[1:])

	for _, t := range p.cfg.fileTypes {
		if t == ext {
			return true
		}
	}

	return false
}

// usableName reports whether name can be passed to the stream command.
func (p *Player) usableName(name string) bool {
	if len(name) > p.cfg.maxNameLength {
		return false
	}

	for i := 0; i < len(name); i++ {
		switch c := name[i]; {
		case c < ' ', c == 0x7f, c == '?', c == '~', c == '!':
			return false
		}
	}

	return true
}

func writeEntry(w io.Writer, name string, size int64, usable bool) error {
	suffix := ""
	if !usable {
		suffix = unusableSuffix
	}
	_, err := fmt.Fprintf(w, "[FILE:%s|SIZE:%d%s]\r\n", name, size, suffix)

	return err
}

func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}

	return dir + "/" + name
}
