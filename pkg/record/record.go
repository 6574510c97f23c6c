// Package record stores the installed contents of each package.
//
// Every package gets a directory below the database root holding a
// CONTENTS.cbor file: a deterministic CBOR document listing the package
// objects in merge order.
package record

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/arthur-debert/fsmerge/pkg/contents"
	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/filesystem"
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/livefs"
	"github.com/arthur-debert/fsmerge/pkg/logging"
	"github.com/arthur-debert/fsmerge/pkg/paths"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// ContentsFile is the record file name inside a package directory
const ContentsFile = "CONTENTS.cbor"

// FormatVersion is written into every record
const FormatVersion = 1

type entry struct {
	Kind     string            `cbor:"kind"`
	Location string            `cbor:"location"`
	Mode     uint32            `cbor:"mode"`
	UID      int               `cbor:"uid"`
	GID      int               `cbor:"gid"`
	Mtime    float64           `cbor:"mtime"`
	Target   string            `cbor:"target,omitempty"`
	Major    uint32            `cbor:"major,omitempty"`
	Minor    uint32            `cbor:"minor,omitempty"`
	Char     bool              `cbor:"char,omitempty"`
	Chksums  map[string]string `cbor:"chksums,omitempty"`
}

type document struct {
	Version int     `cbor:"version"`
	Name    string  `cbor:"name"`
	Written int64   `cbor:"written"`
	Entries []entry `cbor:"entries"`
}

// Store is an installed-contents database
type Store struct {
	fs     filesystem.FS
	dir    string
	offset string
	now    func() time.Time
	logger zerolog.Logger
}

// NewStore opens the database rooted at dir. Restored files read their
// data from below offset.
func NewStore(fsys filesystem.FS, dir, offset string) *Store {
	return &Store{
		fs:     fsys,
		dir:    dir,
		offset: offset,
		now:    time.Now,
		logger: logging.GetLogger("record"),
	}
}

// Dir returns the database root
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", errors.Newf(errors.ErrInvalidInput, "invalid package name %q", name)
	}
	return filepath.Join(s.dir, name, ContentsFile), nil
}

// Has reports whether name has a record
func (s *Store) Has(name string) bool {
	p, err := s.path(name)
	if err != nil {
		return false
	}
	ok, err := afero.Exists(s.fs, p)
	return err == nil && ok
}

// Write records set as the contents of name, replacing any previous record
func (s *Store) Write(name string, set *contents.Set) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	doc := document{
		Version: FormatVersion,
		Name:    name,
		Written: s.now().Unix(),
		Entries: make([]entry, 0, set.Len()),
	}
	for obj := range set.All() {
		doc.Entries = append(doc.Entries, toEntry(obj))
	}
	data, err := marshal(doc)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot encode record %s", name)
	}

	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create record dir for %s", name)
	}
	tmp := p + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "cannot write record %s", name)
	}
	if err := s.fs.Rename(tmp, p); err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "cannot write record %s", name)
	}
	s.logger.Debug().Str("package", name).Int("entries", len(doc.Entries)).Msg("Wrote record")
	return nil
}

// Read returns the recorded contents of name as a frozen set in merge order
func (s *Store) Read(name string) (*contents.Set, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		if errors.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrRecordNotFound, "no record for %s", name).
				WithDetail("package", name)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read record %s", name)
	}

	var doc document
	if err := unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, errors.ErrRecordCorrupt, "cannot decode record %s", name)
	}
	if doc.Version != FormatVersion {
		return nil, errors.Newf(errors.ErrRecordCorrupt, "record %s has format %d, want %d",
			name, doc.Version, FormatVersion)
	}

	objs := make([]fsobj.Object, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		obj, err := s.fromEntry(e)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrRecordCorrupt, "bad entry in record %s", name)
		}
		objs = append(objs, obj)
	}
	return contents.NewOrdered(objs...), nil
}

// Remove deletes the record of name
func (s *Store) Remove(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if !s.Has(name) {
		return errors.Newf(errors.ErrRecordNotFound, "no record for %s", name)
	}
	if err := s.fs.RemoveAll(filepath.Dir(p)); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot remove record %s", name)
	}
	return nil
}

// List returns the recorded package names, sorted
func (s *Store) List() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot list %s", s.dir)
	}
	var names []string
	for _, info := range infos {
		if info.IsDir() && s.Has(info.Name()) {
			names = append(names, info.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func toEntry(obj fsobj.Object) entry {
	m := obj.Metadata()
	e := entry{
		Kind:     obj.Kind().String(),
		Location: m.Location,
		Mode:     m.Mode,
		UID:      m.UID,
		GID:      m.GID,
		Mtime:    m.Mtime,
	}
	switch o := obj.(type) {
	case fsobj.File:
		e.Chksums = o.Chksums
	case fsobj.Symlink:
		e.Target = o.Target
	case fsobj.Device:
		e.Major, e.Minor, e.Char = o.Major, o.Minor, o.Char
	}
	return e
}

func (s *Store) fromEntry(e entry) (fsobj.Object, error) {
	if !strings.HasPrefix(e.Location, paths.Separator) {
		return nil, errors.Newf(errors.ErrInvalidInput, "relative location %q", e.Location)
	}
	opts := []fsobj.Option{
		fsobj.WithMode(e.Mode),
		fsobj.WithUID(e.UID),
		fsobj.WithGID(e.GID),
		fsobj.WithMtime(e.Mtime),
	}
	switch e.Kind {
	case fsobj.KindFile.String():
		src := livefs.NewFileSource(s.fs, paths.Under(s.offset, e.Location))
		return fsobj.NewFile(e.Location, src, e.Chksums, opts...), nil
	case fsobj.KindDir.String():
		return fsobj.NewDir(e.Location, opts...), nil
	case fsobj.KindSymlink.String():
		return fsobj.NewSymlink(e.Location, e.Target, opts...), nil
	case fsobj.KindFifo.String():
		return fsobj.NewFifo(e.Location, opts...), nil
	case fsobj.KindDevice.String():
		return fsobj.NewDevice(e.Location, e.Major, e.Minor, e.Char, opts...), nil
	}
	return nil, errors.Newf(errors.ErrUnsupportedEntryType, "unknown kind %q", e.Kind)
}
