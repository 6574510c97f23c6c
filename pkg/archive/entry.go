package archive

import (
	"archive/tar"
	"io"

	"github.com/arthur-debert/fsmerge/pkg/fsobj"
)

// EntryType tags an archive entry. Values match tar type flags.
type EntryType byte

const (
	TypeFile        EntryType = tar.TypeReg
	TypeHardlink    EntryType = tar.TypeLink
	TypeSymlink     EntryType = tar.TypeSymlink
	TypeCharDevice  EntryType = tar.TypeChar
	TypeBlockDevice EntryType = tar.TypeBlock
	TypeDir         EntryType = tar.TypeDir
	TypeFifo        EntryType = tar.TypeFifo
)

// Entry is one member of an archive
type Entry struct {
	Type  EntryType
	Name  string
	UID   int
	GID   int
	Mode  uint32
	Mtime float64
	// Linkname is the link text of symlinks and hardlinks
	Linkname     string
	Major, Minor uint32
	// Data is the content of regular files. Each entry must carry its own
	// source: file order is tracked by source identity.
	Data fsobj.DataSource
	// Size is the content length of regular files, -1 when unknown
	Size int64
}

// Source yields archive entries in stream order and returns io.EOF after
// the last one
type Source interface {
	Next() (*Entry, error)
}

// SliceSource is a Source over an in-memory list of entries
type SliceSource struct {
	entries []Entry
	pos     int
}

// NewSliceSource returns a Source yielding entries in order
func NewSliceSource(entries ...Entry) *SliceSource {
	return &SliceSource{entries: entries}
}

// Next implements Source
func (s *SliceSource) Next() (*Entry, error) {
	if s.pos >= len(s.entries) {
		return nil, io.EOF
	}
	e := &s.entries[s.pos]
	s.pos++
	return e, nil
}
