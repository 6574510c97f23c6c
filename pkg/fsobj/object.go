package fsobj

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/arthur-debert/fsmerge/pkg/paths"
)

// Kind identifies the concrete type of an Object
type Kind int

const (
	KindFile Kind = iota
	KindDir
	KindSymlink
	KindFifo
	KindDevice
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "sym"
	case KindFifo:
		return "fifo"
	case KindDevice:
		return "dev"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Permission bits beyond the rwx triplets
const (
	ModeSetUID uint32 = 0o4000
	ModeSetGID uint32 = 0o2000
	ModeSticky uint32 = 0o1000

	ModeWorldWritable uint32 = 0o002
	ModeBits          uint32 = 0o7777
)

// Meta is the POSIX metadata shared by every object
type Meta struct {
	Location string
	Mode     uint32
	UID      int
	GID      int
	// Mtime is seconds since the epoch with sub-second precision
	Mtime float64
}

// ModTime converts Mtime to a time.Time
func (m Meta) ModTime() time.Time {
	return MtimeToTime(m.Mtime)
}

// Object is implemented by File, Dir, Symlink, Fifo and Device
type Object interface {
	Kind() Kind
	Path() string
	Metadata() Meta
	String() string

	withMeta(Meta) Object
}

// File is a regular file
type File struct {
	Meta
	Data DataSource
	// Chksums holds at least "size"; treat as read-only
	Chksums map[string]string
	// Dev and Inode identify hardlinks; nil when tracking is disabled
	Dev   *uint64
	Inode *uint64
}

// Dir is a directory
type Dir struct {
	Meta
}

// Symlink is a symbolic link
type Symlink struct {
	Meta
	// Target is the raw link text
	Target string
}

// Fifo is a named pipe
type Fifo struct {
	Meta
}

// Device is a character or block device node
type Device struct {
	Meta
	Major uint32
	Minor uint32
	Char  bool
}

func (File) Kind() Kind    { return KindFile }
func (Dir) Kind() Kind     { return KindDir }
func (Symlink) Kind() Kind { return KindSymlink }
func (Fifo) Kind() Kind    { return KindFifo }
func (Device) Kind() Kind  { return KindDevice }

func (f File) Path() string    { return f.Location }
func (d Dir) Path() string     { return d.Location }
func (s Symlink) Path() string { return s.Location }
func (f Fifo) Path() string    { return f.Location }
func (d Device) Path() string  { return d.Location }

func (f File) Metadata() Meta    { return f.Meta }
func (d Dir) Metadata() Meta     { return d.Meta }
func (s Symlink) Metadata() Meta { return s.Meta }
func (f Fifo) Metadata() Meta    { return f.Meta }
func (d Device) Metadata() Meta  { return d.Meta }

func (f File) withMeta(m Meta) Object    { f.Meta = m; return f }
func (d Dir) withMeta(m Meta) Object     { d.Meta = m; return d }
func (s Symlink) withMeta(m Meta) Object { s.Meta = m; return s }
func (f Fifo) withMeta(m Meta) Object    { f.Meta = m; return f }
func (d Device) withMeta(m Meta) Object  { d.Meta = m; return d }

func (f File) String() string    { return "file:" + f.Location }
func (d Dir) String() string     { return "dir:" + d.Location }
func (s Symlink) String() string { return fmt.Sprintf("sym:%s -> %s", s.Location, s.Target) }
func (f Fifo) String() string    { return "fifo:" + f.Location }
func (d Device) String() string {
	return fmt.Sprintf("dev:%s (%d, %d)", d.Location, d.Major, d.Minor)
}

// ResolvedTarget is the absolute, normalized path the link points at,
// resolved relative to the directory holding the link
func (s Symlink) ResolvedTarget() string {
	return paths.Resolve(s.Location, s.Target)
}

// Size returns the recorded size checksum, or -1 when it is unknown
func (f File) Size() int64 {
	v, ok := f.Chksums[ChksumSize]
	if !ok {
		return -1
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return -1
	}
	return n
}

// Option overrides one attribute when building or changing an object
type Option func(*Meta)

// WithUID sets the owner uid
func WithUID(uid int) Option { return func(m *Meta) { m.UID = uid } }

// WithGID sets the owner gid
func WithGID(gid int) Option { return func(m *Meta) { m.GID = gid } }

// WithMode sets the permission bits, setuid/setgid/sticky included
func WithMode(mode uint32) Option { return func(m *Meta) { m.Mode = mode & ModeBits } }

// WithMtime sets the modification time in seconds
func WithMtime(mtime float64) Option { return func(m *Meta) { m.Mtime = mtime } }

func newMeta(loc string, mode uint32, opts []Option) Meta {
	m := Meta{Location: paths.Normalize(loc), Mode: mode}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// NewFile builds a regular file with mode 0644 unless overridden
func NewFile(loc string, data DataSource, chksums map[string]string, opts ...Option) File {
	return File{Meta: newMeta(loc, 0o644, opts), Data: data, Chksums: chksums}
}

// NewDir builds a directory with mode 0755 unless overridden
func NewDir(loc string, opts ...Option) Dir {
	return Dir{Meta: newMeta(loc, 0o755, opts)}
}

// NewSymlink builds a symlink with mode 0777 unless overridden
func NewSymlink(loc, target string, opts ...Option) Symlink {
	return Symlink{Meta: newMeta(loc, 0o777, opts), Target: target}
}

// NewFifo builds a fifo with mode 0644 unless overridden
func NewFifo(loc string, opts ...Option) Fifo {
	return Fifo{Meta: newMeta(loc, 0o644, opts)}
}

// NewDevice builds a device node with mode 0600 unless overridden
func NewDevice(loc string, major, minor uint32, char bool, opts ...Option) Device {
	return Device{Meta: newMeta(loc, 0o600, opts), Major: major, Minor: minor, Char: char}
}

// Change returns a copy of obj with the given attributes overridden.
// The location is preserved.
func Change(obj Object, opts ...Option) Object {
	m := obj.Metadata()
	loc := m.Location
	for _, opt := range opts {
		opt(&m)
	}
	m.Location = loc
	return obj.withMeta(m)
}

// WithLocation returns a copy of obj moved to loc
func WithLocation(obj Object, loc string) Object {
	m := obj.Metadata()
	m.Location = paths.Normalize(loc)
	return obj.withMeta(m)
}

// Equal compares kind, location and kind-specific identity
func Equal(a, b Object) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() || a.Path() != b.Path() {
		return false
	}
	switch x := a.(type) {
	case Symlink:
		return x.Target == b.(Symlink).Target
	case Device:
		y := b.(Device)
		return x.Major == y.Major && x.Minor == y.Minor && x.Char == y.Char
	}
	return true
}

// SameAttributes reports whether a and b are Equal and also agree on
// ownership, mode and mtime
func SameAttributes(a, b Object) bool {
	return Equal(a, b) && a.Metadata() == b.Metadata()
}

// Less is the natural object order: by location
func Less(a, b Object) bool {
	return a.Path() < b.Path()
}

// MtimeToTime converts float seconds to a time.Time
func MtimeToTime(mtime float64) time.Time {
	sec, frac := math.Modf(mtime)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9)))
}

// TimeToMtime converts a time.Time to float seconds
func TimeToMtime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// ModeFromFileMode extracts permission and special bits from an os.FileMode
func ModeFromFileMode(fm os.FileMode) uint32 {
	mode := uint32(fm.Perm())
	if fm&os.ModeSetuid != 0 {
		mode |= ModeSetUID
	}
	if fm&os.ModeSetgid != 0 {
		mode |= ModeSetGID
	}
	if fm&os.ModeSticky != 0 {
		mode |= ModeSticky
	}
	return mode
}

// FileMode converts permission and special bits to an os.FileMode
func FileMode(mode uint32) os.FileMode {
	fm := os.FileMode(mode & 0o777)
	if mode&ModeSetUID != 0 {
		fm |= os.ModeSetuid
	}
	if mode&ModeSetGID != 0 {
		fm |= os.ModeSetgid
	}
	if mode&ModeSticky != 0 {
		fm |= os.ModeSticky
	}
	return fm
}
