//go:build !unix

package filesystem

import (
	"io/fs"
	"os"
)

func mknod(name string, _ fs.FileMode, _ bool, _, _ uint32) error {
	return unsupported("mknod", name)
}

func attrs(name string) (Attr, bool, error) {
	if _, err := os.Lstat(name); err != nil {
		return Attr{}, false, err
	}
	return Attr{}, false, nil
}
