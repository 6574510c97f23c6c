package archive

import (
	"compress/bzip2"
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the stream compression wrapped around a tar
// archive
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionLZ4
	// CompressionBzip2 is read-only: there is no bzip2 encoder available.
	CompressionBzip2
)

// String returns the canonical name of a compression
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionBzip2:
		return "bzip2"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name. Short forms (gz, zst, bz2)
// are accepted.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return CompressionNone, nil
	case "gz", "gzip":
		return CompressionGzip, nil
	case "zst", "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	case "bz2", "bzip2":
		return CompressionBzip2, nil
	default:
		return CompressionNone, errors.Newf(errors.ErrNotSupported, "unknown compression %q", name)
	}
}

var suffixes = []struct {
	suffix string
	c      Compression
}{
	{".tar.gz", CompressionGzip},
	{".tgz", CompressionGzip},
	{".tar.zst", CompressionZstd},
	{".tzst", CompressionZstd},
	{".tar.lz4", CompressionLZ4},
	{".tar.bz2", CompressionBzip2},
	{".tbz2", CompressionBzip2},
}

// DetectCompression guesses the compression from a file name
func DetectCompression(name string) Compression {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return s.c
		}
	}
	return CompressionNone
}

// IsPlainTar reports whether name carries an uncompressed tar suffix
func IsPlainTar(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".tar")
}

// decompress wraps r in a reader for c
func decompress(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrArchiveRead, "failed to open gzip stream")
		}
		return zr, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrArchiveRead, "failed to open zstd stream")
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case CompressionBzip2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	}
	return nil, errors.Newf(errors.ErrNotSupported, "cannot decompress %s", c)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// compress wraps w in a writer for c. Closing the result flushes the
// compressor but leaves w open.
func compress(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrArchiveWrite, "failed to open zstd stream")
		}
		return enc, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	}
	return nil, errors.Newf(errors.ErrNotSupported, "cannot compress with %s", c)
}
