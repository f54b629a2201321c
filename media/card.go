package media

import (
	"fmt"

	"github.com/spf13/afero"
)

// Card is a removable storage medium.
type Card interface {
	// Mount makes the medium accessible and returns its backing store.
	Mount() (afero.Fs, error)
	// Unmount releases the medium. The backing store returned by Mount is not used afterwards.
	Unmount() error
}

// DirCard is a card whose contents live in a host directory.
type DirCard struct {
	dir string
	os  afero.Fs
}

// NewDirCard returns a card serving dir.
func NewDirCard(dir string) *DirCard {
	return &DirCard{dir: dir, os: afero.NewOsFs()}
}

// Dir returns the host directory of the card.
func (c *DirCard) Dir() string { return c.dir }

// Mount implements Card. It fails when the directory does not exist.
func (c *DirCard) Mount() (afero.Fs, error) {
	ok, err := afero.DirExists(c.os, c.dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("directory %q not found", c.dir)
	}

	return afero.NewBasePathFs(c.os, c.dir), nil
}

// Unmount implements Card.
func (*DirCard) Unmount() error { return nil }

// MemCard is a card held in memory. Its contents survive unmounting.
type MemCard struct {
	fs afero.Fs
}

// NewMemCard returns an empty in-memory card.
func NewMemCard() *MemCard {
	return &MemCard{fs: afero.NewMemMapFs()}
}

// Fs returns the backing store of the card, for preloading files.
func (c *MemCard) Fs() afero.Fs { return c.fs }

// Mount implements Card.
func (c *MemCard) Mount() (afero.Fs, error) { return c.fs, nil }

// Unmount implements Card.
func (*MemCard) Unmount() error { return nil }
