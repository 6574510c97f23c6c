//go:build unix

package filesystem

import (
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

func mknod(name string, mode fs.FileMode, dev bool, major, minor uint32) error {
	perm := uint32(mode.Perm())
	if !dev {
		if err := unix.Mkfifo(name, perm); err != nil {
			return &os.PathError{Op: "mkfifo", Path: name, Err: err}
		}
		return nil
	}
	kind := uint32(unix.S_IFBLK)
	if mode&os.ModeCharDevice != 0 {
		kind = unix.S_IFCHR
	}
	if err := unix.Mknod(name, kind|perm, int(unix.Mkdev(major, minor))); err != nil {
		return &os.PathError{Op: "mknod", Path: name, Err: err}
	}
	return nil
}

func attrs(name string) (Attr, bool, error) {
	var st unix.Stat_t
	if err := unix.Lstat(name, &st); err != nil {
		return Attr{}, false, &os.PathError{Op: "lstat", Path: name, Err: err}
	}
	rdev := uint64(st.Rdev)
	return Attr{
		UID:   int(st.Uid),
		GID:   int(st.Gid),
		Dev:   uint64(st.Dev),
		Inode: uint64(st.Ino),
		Major: unix.Major(rdev),
		Minor: unix.Minor(rdev),
	}, true, nil
}
