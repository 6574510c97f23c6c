package commands

import (
	"fmt"

	"github.com/arthur-debert/fsmerge/pkg/archive"
	"github.com/arthur-debert/fsmerge/pkg/contents"
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/logging"
)

// Entry is one line of a contents listing
type Entry struct {
	Type   fsobj.Kind `yaml:"-"`
	Kind   string     `yaml:"kind"`
	Path   string     `yaml:"path"`
	Mode   string     `yaml:"mode"`
	UID    int        `yaml:"uid"`
	GID    int        `yaml:"gid"`
	Mtime  float64    `yaml:"mtime"`
	Size   int64      `yaml:"size,omitempty"`
	Target string     `yaml:"target,omitempty"`
	Device string     `yaml:"device,omitempty"`
}

// ListArchive returns the normalized contents of the archive at path in
// merge order
func ListArchive(env Env, path string) ([]Entry, error) {
	logger := logging.GetLogger("commands.contents")
	logger.Debug().Str("archive", path).Msg("Executing command")

	set, err := archive.ReadFile(env.FS, path)
	if err != nil {
		return nil, err
	}
	return Entries(set), nil
}

// ListInstalled returns the recorded contents of name
func ListInstalled(env Env, name string) ([]Entry, error) {
	set, err := env.Store().Read(name)
	if err != nil {
		return nil, err
	}
	return Entries(set), nil
}

// Entries converts set to listing entries, keeping its order
func Entries(set *contents.Set) []Entry {
	out := make([]Entry, 0, set.Len())
	for obj := range set.All() {
		m := obj.Metadata()
		e := Entry{
			Type:  obj.Kind(),
			Kind:  obj.Kind().String(),
			Path:  obj.Path(),
			Mode:  fmt.Sprintf("%04o", m.Mode),
			UID:   m.UID,
			GID:   m.GID,
			Mtime: m.Mtime,
		}
		switch o := obj.(type) {
		case fsobj.File:
			if size := o.Size(); size > 0 {
				e.Size = size
			}
		case fsobj.Symlink:
			e.Target = o.Target
		case fsobj.Device:
			kind := "block"
			if o.Char {
				kind = "char"
			}
			e.Device = fmt.Sprintf("%s %d:%d", kind, o.Major, o.Minor)
		}
		out = append(out, e)
	}
	return out
}
