//go:build unix

package bufcopy

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// IsPipe reports whether h refers to a FIFO or pipe.
func IsPipe(h Handle) (bool, error) {
	var st unix.Stat_t
	if err := unix.Fstat(borrow(h).fd, &st); err != nil {
		return false, errors.WithStack(newIOError("fstat", err))
	}
	return st.Mode&unix.S_IFMT == unix.S_IFIFO, nil
}
