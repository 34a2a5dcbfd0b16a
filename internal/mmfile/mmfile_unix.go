//go:build unix

package mmfile

import (
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// Map validates the image size at path, maps it read-only and returns the
// arena bytes with a function that unmaps them. The unmap function may be
// called more than once.
func Map(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mmfile: open")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, errors.Wrap(err, "mmfile: stat")
	}
	if err := checkImageSize(info.Size()); err != nil {
		return nil, nil, errors.Wrap(err, path)
	}

	arena, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "mmfile: map %s", path)
	}
	unmap := func() error {
		if arena == nil {
			return nil
		}
		err := unix.Munmap(arena)
		arena = nil
		return errors.Wrap(err, "mmfile: unmap")
	}
	return arena, unmap, nil
}
