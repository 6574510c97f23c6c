package fsobj

import (
	"bytes"
	"encoding/hex"
	"io"
	"strconv"

	"github.com/zeebo/blake3"
)

// Checksum names
const (
	ChksumSize   = "size"
	ChksumBlake3 = "blake3"
)

// DataSource is a lazily readable byte stream. Open may be called any
// number of times; each call yields an independent reader.
//
// Implementations are compared by identity, so they must be pointer types.
type DataSource interface {
	Open() (io.ReadCloser, error)
}

// BytesSource serves an in-memory buffer
type BytesSource struct {
	data []byte
}

// NewBytesSource wraps b; b must not be modified afterwards
func NewBytesSource(b []byte) *BytesSource {
	return &BytesSource{data: b}
}

func (s *BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

// FuncSource serves whatever its factory returns
type FuncSource struct {
	open func() (io.ReadCloser, error)
}

// NewFuncSource wraps a re-openable factory
func NewFuncSource(open func() (io.ReadCloser, error)) *FuncSource {
	return &FuncSource{open: open}
}

func (s *FuncSource) Open() (io.ReadCloser, error) {
	return s.open()
}

// Checksum streams ds once and returns its size and BLAKE3 digest
func Checksum(ds DataSource) (map[string]string, error) {
	r, err := ds.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	hasher := blake3.New()
	n, err := io.Copy(hasher, r)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		ChksumSize:   strconv.FormatInt(n, 10),
		ChksumBlake3: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// SizeChksum returns a checksum map carrying only the size
func SizeChksum(size int64) map[string]string {
	return map[string]string{ChksumSize: strconv.FormatInt(size, 10)}
}
