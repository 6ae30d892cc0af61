//go:build !unix

package bufcopy

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// IsPipe reports whether h refers to a named pipe. Without fstat the handle
// has to describe itself.
func IsPipe(h Handle) (bool, error) {
	s, ok := h.(interface {
		Stat() (os.FileInfo, error)
	})
	if !ok {
		return false, errors.WithStack(newIOError("stat", syscall.EINVAL))
	}
	fi, err := s.Stat()
	if err != nil {
		return false, errors.WithStack(newIOError("stat", err))
	}
	return fi.Mode()&os.ModeNamedPipe != 0, nil
}
