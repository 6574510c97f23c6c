package archive

import (
	"archive/tar"
	"bytes"
	"io"
	"sync"

	"github.com/arthur-debert/fsmerge/pkg/contents"
	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/spf13/afero"
)

// TarSource reads entries from a tar stream
type TarSource struct {
	tr     *tar.Reader
	closer io.Closer
	// headers read so far, including skipped ones
	index int
	// members serves lazy member reads from a replayable stream; nil when
	// the stream cannot be replayed and member data is buffered instead
	members *memberCursor
}

// NewTarSource reads a one-shot tar stream. Regular file data is
// buffered in memory as entries are read.
func NewTarSource(r io.Reader) *TarSource {
	return &TarSource{tr: tar.NewReader(r)}
}

// OpenFile opens a tar archive on fs. Regular file data is read lazily
// from a second stream that only moves forward, so reading members in
// archive order decompresses the archive once. Entries stay readable after
// the source is closed; such reads reopen the archive until the next Close.
// CompressionNone with a recognized file suffix is replaced by the detected
// compression.
func OpenFile(fs afero.Fs, path string, c Compression) (*TarSource, error) {
	if c == CompressionNone {
		c = DetectCompression(path)
	}
	reopen := func() (io.ReadCloser, error) {
		f, err := fs.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to open archive %s", path)
		}
		dr, err := decompress(f, c)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return &stackedReader{Reader: dr, closers: []io.Closer{dr, f}}, nil
	}
	rc, err := reopen()
	if err != nil {
		return nil, err
	}
	return &TarSource{tr: tar.NewReader(rc), closer: rc, members: &memberCursor{reopen: reopen, pos: -1}}, nil
}

// ReadFile opens the archive at path, detecting compression from its
// name, and returns its normalized content set
func ReadFile(fs afero.Fs, path string) (*contents.Set, error) {
	src, err := OpenFile(fs, path, CompressionNone)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()
	return Convert(src)
}

// Close releases the underlying streams when the source owns them
func (s *TarSource) Close() error {
	var first error
	if s.members != nil {
		first = s.members.release()
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil && first == nil {
			first = err
		}
		s.closer = nil
	}
	return first
}

// Next implements Source
func (s *TarSource) Next() (*Entry, error) {
	for {
		hdr, err := s.tr.Next()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrArchiveRead, "failed to read tar header")
		}
		index := s.index
		s.index++
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		e := &Entry{
			Type:     EntryType(hdr.Typeflag),
			Name:     hdr.Name,
			UID:      hdr.Uid,
			GID:      hdr.Gid,
			Mode:     uint32(hdr.Mode) & fsobj.ModeBits,
			Mtime:    fsobj.TimeToMtime(hdr.ModTime),
			Linkname: hdr.Linkname,
			Major:    uint32(hdr.Devmajor),
			Minor:    uint32(hdr.Devminor),
			Size:     hdr.Size,
		}
		if e.Type == TypeFile {
			if e.Data, err = s.memberData(index); err != nil {
				return nil, err
			}
		}
		return e, nil
	}
}

func (s *TarSource) memberData(index int) (fsobj.DataSource, error) {
	if s.members != nil {
		return &memberSource{cursor: s.members, index: index}, nil
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, s.tr); err != nil {
		return nil, errors.Wrap(err, errors.ErrArchiveRead, "failed to read tar member")
	}
	return fsobj.NewBytesSource(buf.Bytes()), nil
}

// memberSource reads the index-th header's data through a shared cursor
type memberSource struct {
	cursor *memberCursor
	index  int
}

func (m *memberSource) Open() (io.ReadCloser, error) {
	return m.cursor.open(m.index)
}

// memberCursor shares one forward-only stream between member reads.
// Reading a member at or behind the cursor restarts the stream; a read
// while another member is still open gets a private stream.
type memberCursor struct {
	mu     sync.Mutex
	reopen func() (io.ReadCloser, error)
	rc     io.ReadCloser
	tr     *tar.Reader
	// pos is the index of the last header read from tr, -1 before any
	pos  int
	busy bool
	// gen changes whenever the stream is replaced
	gen int
}

func (c *memberCursor) open(index int) (io.ReadCloser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return c.private(index)
	}
	if c.rc == nil || index <= c.pos {
		if err := c.restart(); err != nil {
			return nil, err
		}
	}
	for c.pos < index {
		if _, err := c.tr.Next(); err != nil {
			_ = c.closeStream()
			return nil, errors.Wrapf(err, errors.ErrArchiveRead, "failed to seek to tar member %d", index)
		}
		c.pos++
	}
	c.busy = true
	return &cursorReader{cursor: c, gen: c.gen}, nil
}

func (c *memberCursor) restart() error {
	if err := c.closeStream(); err != nil {
		return err
	}
	rc, err := c.reopen()
	if err != nil {
		return err
	}
	c.rc, c.tr, c.pos = rc, tar.NewReader(rc), -1
	return nil
}

func (c *memberCursor) private(index int) (io.ReadCloser, error) {
	rc, err := c.reopen()
	if err != nil {
		return nil, err
	}
	tr := tar.NewReader(rc)
	for i := 0; i <= index; i++ {
		if _, err := tr.Next(); err != nil {
			_ = rc.Close()
			return nil, errors.Wrapf(err, errors.ErrArchiveRead, "failed to seek to tar member %d", index)
		}
	}
	return &stackedReader{Reader: tr, closers: []io.Closer{rc}}, nil
}

func (c *memberCursor) closeStream() error {
	if c.rc == nil {
		return nil
	}
	err := c.rc.Close()
	c.rc, c.tr, c.pos = nil, nil, -1
	c.gen++
	return err
}

func (c *memberCursor) release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	return c.closeStream()
}

// cursorReader reads the current member of a cursor; closing it hands the
// stream back without closing it
type cursorReader struct {
	cursor *memberCursor
	gen    int
	closed bool
}

func (r *cursorReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, io.ErrClosedPipe
	}
	r.cursor.mu.Lock()
	defer r.cursor.mu.Unlock()
	if r.cursor.gen != r.gen {
		return 0, io.ErrClosedPipe
	}
	return r.cursor.tr.Read(p)
}

func (r *cursorReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.cursor.mu.Lock()
	defer r.cursor.mu.Unlock()
	if r.cursor.gen == r.gen {
		r.cursor.busy = false
	}
	return nil
}

// stackedReader closes a chain of closers, innermost first
type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
