package bufcopy

import "io"

// Handle is an OS descriptor the engine may borrow for one call.
// *os.File satisfies it. Note that (*os.File).Fd puts the file into
// blocking mode.
type Handle interface {
	Fd() uintptr
}

// Reader is a readable Handle.
type Reader interface {
	io.Reader
	Handle
}

// Writer is a writable Handle.
type Writer interface {
	io.Writer
	Handle
}

// Flusher is implemented by destinations that buffer in user space.
type Flusher interface {
	Flush() error
}

// borrowed is a caller-owned descriptor. It deliberately has no Close method.
type borrowed struct {
	fd int
}

func borrow(h Handle) borrowed {
	return borrowed{fd: int(h.Fd())}
}

func flush(w io.Writer) error {
	if f, ok := w.(Flusher); ok {
		return f.Flush()
	}
	return nil
}
