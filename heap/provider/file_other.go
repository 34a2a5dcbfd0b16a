//go:build !unix

package provider

import (
	"os"

	"github.com/cockroachdb/errors"
)

// File is an arena backed by a regular file on platforms without mmap support.
// Bytes live in a buffer reserved at open time; Sync writes ranges through to the file.
//
// NOT thread-safe.
type File struct {
	f     *os.File
	buf   []byte
	calls int
}

// OpenFile creates (or truncates) path and reserves capacity bytes for it.
func OpenFile(path string, capacity int) (*File, error) {
	if capacity <= 0 {
		return nil, errors.Newf("provider: invalid capacity %d", capacity)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, errors.Wrap(err, "provider: open backing file")
	}
	return &File{f: f, buf: make([]byte, 0, capacity)}, nil
}

// Extend grows the backing file by n bytes and returns the offset of the first new byte.
func (p *File) Extend(n int) (int, error) {
	if p.f == nil {
		return 0, ErrClosed
	}
	old := len(p.buf)
	if err := checkExtend(n, old, cap(p.buf)); err != nil {
		return 0, err
	}
	if err := p.f.Truncate(int64(old + n)); err != nil {
		return 0, errors.Wrapf(err, "provider: grow backing file to %d bytes", old+n)
	}
	p.buf = p.buf[:old+n]
	p.calls++
	return old, nil
}

// Bytes returns all granted bytes.
func (p *File) Bytes() []byte { return p.buf }

// Len returns the number of granted bytes.
func (p *File) Len() int { return len(p.buf) }

// Calls returns the number of successful Extend calls.
func (p *File) Calls() int { return p.calls }

// Sync writes [off, off+n) through to the backing file.
func (p *File) Sync(off, n int) error {
	if p.f == nil {
		return ErrClosed
	}
	end := min(off+n, len(p.buf))
	if off < 0 || off >= end {
		return nil
	}
	if _, err := p.f.WriteAt(p.buf[off:end], int64(off)); err != nil {
		return errors.Wrapf(err, "provider: write [%d,%d)", off, end)
	}
	return nil
}

// Close closes the backing file.
func (p *File) Close() error {
	if p.f == nil {
		return nil
	}
	err := p.f.Close()
	p.f = nil
	return err
}
