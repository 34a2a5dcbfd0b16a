//go:build unix

package provider

import (
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"

	"github.com/joshuapare/heapkit/internal/format"
)

// File is an arena backed by a memory-mapped file. The full capacity is mapped
// once at open time and the file is grown with ftruncate on every Extend, so the
// mapping never moves. Only bytes below Len are ever touched.
//
// NOT thread-safe.
type File struct {
	f     *os.File
	data  []byte // mapping of the full capacity
	size  int
	calls int
}

// OpenFile creates (or truncates) path and maps capacity bytes of it.
func OpenFile(path string, capacity int) (*File, error) {
	if capacity <= 0 {
		return nil, errors.Newf("provider: invalid capacity %d", capacity)
	}
	capacity = format.Align(capacity, os.Getpagesize())

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, errors.Wrap(err, "provider: open backing file")
	}

	data, err := unix.Mmap(int(f.Fd()), 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "provider: mmap backing file")
	}

	return &File{f: f, data: data}, nil
}

// Extend grows the backing file by n bytes and returns the offset of the first new byte.
func (p *File) Extend(n int) (int, error) {
	if p.data == nil {
		return 0, ErrClosed
	}
	if err := checkExtend(n, p.size, len(p.data)); err != nil {
		return 0, err
	}
	if err := p.f.Truncate(int64(p.size + n)); err != nil {
		return 0, errors.Wrapf(err, "provider: grow backing file to %d bytes", p.size+n)
	}
	old := p.size
	p.size += n
	p.calls++
	return old, nil
}

// Bytes returns all granted bytes.
func (p *File) Bytes() []byte {
	if p.data == nil {
		return nil
	}
	return p.data[:p.size:p.size]
}

// Len returns the number of granted bytes.
func (p *File) Len() int { return p.size }

// Calls returns the number of successful Extend calls.
func (p *File) Calls() int { return p.calls }

// Sync flushes the pages covering [off, off+n) to the backing file.
func (p *File) Sync(off, n int) error {
	if p.data == nil {
		return ErrClosed
	}
	page := os.Getpagesize()
	start := off &^ (page - 1)
	end := min(format.Align(off+n, page), format.Align(p.size, page))
	if start < 0 || start >= end {
		return nil
	}
	if err := unix.Msync(p.data[start:end], unix.MS_SYNC); err != nil {
		return errors.Wrapf(err, "provider: msync [%d,%d)", start, end)
	}
	return nil
}

// Close unmaps the arena and closes the backing file.
func (p *File) Close() error {
	var err error
	if p.data != nil {
		err = unix.Munmap(p.data)
		p.data = nil
	}
	if p.f != nil {
		if cerr := p.f.Close(); err == nil {
			err = cerr
		}
		p.f = nil
	}
	return err
}
