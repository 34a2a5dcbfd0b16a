//go:build !unix

package mmfile

import (
	"os"

	"github.com/cockroachdb/errors"
)

// Map reads the entire image when mmap is not available.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mmfile: read")
	}
	if err := checkImageSize(int64(len(data))); err != nil {
		return nil, nil, errors.Wrap(err, path)
	}
	return data, func() error { return nil }, nil
}
