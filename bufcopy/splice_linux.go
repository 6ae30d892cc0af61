//go:build linux

package bufcopy

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const haveSplice = true

// pipePair is an intermediate pipe owned by the call that created it.
type pipePair struct {
	r, w int
}

func newPipe() (*pipePair, error) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		return nil, errors.WithStack(newIOError("pipe2", err))
	}
	return &pipePair{r: p[0], w: p[1]}, nil
}

func (p *pipePair) Close() error {
	errR := unix.Close(p.r)
	errW := unix.Close(p.w)
	if errR != nil {
		return errR
	}
	return errW
}

func spliceFd(rfd, wfd, n int) (int, error) {
	for {
		m, err := unix.Splice(rfd, nil, wfd, nil, n, unix.SPLICE_F_MOVE)
		if err == unix.EINTR {
			continue
		}
		if m < 0 {
			m = 0
		}
		return int(m), err
	}
}

func vmspliceFd(fd int, b []byte) (int, error) {
	iov := []unix.Iovec{{Base: &b[0]}}
	iov[0].SetLen(len(b))
	for {
		n, err := unix.Vmsplice(fd, iov, 0)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

func (c *Copier) stages() (fill, drain spliceFunc) {
	fill, drain = c.fill, c.drain
	if fill == nil {
		fill = spliceFd
	}
	if drain == nil {
		drain = spliceFd
	}
	return
}

func (c *Copier) injector() injectFunc {
	if c.inject == nil {
		return vmspliceFd
	}
	return c.inject
}

// spliceExact moves exactly n bytes from rfd to wfd, or fails. It returns how
// many bytes did move, so nothing still in rfd is lost track of.
func spliceExact(splice spliceFunc, rfd, wfd, n int) (int, error) {
	moved := 0
	for moved < n {
		m, err := splice(rfd, wfd, n-moved)
		moved += m
		if err != nil {
			return moved, err
		}
		if m == 0 {
			return moved, io.ErrUnexpectedEOF
		}
	}
	return moved, nil
}

// spliceWrite relays src to dst through a private pipe until EOF.
//
// Stage one pulls up to spliceSize bytes from src into the pipe, stage two
// pushes that exact amount on to dst. When stage two fails the staged bytes
// are drained to dst with read/write and the relay reports fallback. When
// stage one fails nothing is staged and the relay reports fallback as well;
// whether the error is fatal is left to the buffered copy that follows.
func (c *Copier) spliceWrite(dst, src borrowed) (res relayResult, err error) {
	p, err := newPipe()
	if err != nil {
		c.log().WithError(err).Debug("no intermediate pipe")
		res.fallback = true
		return res, nil
	}
	defer p.Close()

	fill, drain := c.stages()
	for {
		n, err := fill(src.fd, p.w, spliceSize)
		if err != nil {
			c.log().WithError(err).Debug("splice from source failed")
			res.fallback = true
			return res, nil
		}
		if n == 0 {
			return res, nil
		}

		m, err := spliceExact(drain, p.r, dst.fd, n)
		if err != nil {
			c.log().WithError(err).WithFields(logrus.Fields{
				"staged": n,
				"moved":  m,
			}).Debug("splice to destination failed, draining pipe")
			res.fallback = true
			res.recovered += int64(m)
			if m < n {
				buf := buffers.Get()
				k, derr := copyExact(p.r, dst.fd, n-m, buf)
				buffers.Put(buf)
				res.recovered += int64(k)
				if derr != nil {
					c.stats().RecoveredBytes.Add(res.recovered)
					return res, errors.WithStack(&WriteError{Msg: "draining intermediate pipe", Err: derr})
				}
			}
			c.stats().RecoveredBytes.Add(res.recovered)
			return res, nil
		}
		res.spliced += int64(n)
		c.stats().SplicedBytes.Add(int64(n))
	}
}

// copyExact moves exactly n bytes from rfd to wfd with read(2) and write(2).
// rfd is an intermediate pipe known to hold at least n bytes, so running into
// EOF first is reported as io.ErrUnexpectedEOF.
func copyExact(rfd, wfd, n int, buf []byte) (int, error) {
	written := 0
	for written < n {
		chunk := buf[:min(n-written, len(buf))]
		if err := readFull(rfd, chunk); err != nil {
			return written, err
		}
		w, err := writeAll(wfd, chunk)
		written += w
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func readFull(fd int, b []byte) error {
	for len(b) > 0 {
		n, err := unix.Read(fd, b)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return errors.WithStack(newIOError("read", err))
		}
		if n == 0 {
			return errors.WithStack(io.ErrUnexpectedEOF)
		}
		b = b[n:]
	}
	return nil
}

func writeAll(fd int, b []byte) (int, error) {
	written := 0
	for written < len(b) {
		n, err := unix.Write(fd, b[written:])
		if err == unix.EINTR {
			continue
		}
		if n > 0 {
			written += n
		}
		if err != nil {
			return written, errors.WithStack(newIOError("write", err))
		}
		if n == 0 {
			return written, errors.WithStack(io.ErrShortWrite)
		}
	}
	return written, nil
}

// InjectToPipe moves data straight into the pipe dst with vmsplice(2).
//
// It returns the number of bytes now in the pipe and whether the caller has
// to write the rest, data[n:], some other way; that is the case when dst is
// not a pipe or the kernel lacks vmsplice. Other failures are fatal.
// vmsplice maps the pages of data into the pipe, so data must not be
// modified until the reader has consumed it.
func (c *Copier) InjectToPipe(data []byte, dst Handle) (int64, bool, error) {
	fd := borrow(dst).fd
	inject := c.injector()
	var moved int64
	for len(data) > 0 {
		n, err := inject(fd, data)
		if err != nil {
			_, fallback, err := maybeUnsupported("vmsplice", err)
			return moved, fallback, err
		}
		if n == 0 {
			return moved, false, errors.WithStack(newIOError("vmsplice", io.ErrShortWrite))
		}
		data = data[n:]
		moved += int64(n)
		c.stats().InjectedBytes.Add(int64(n))
	}
	return moved, false, nil
}

// InjectToHandle moves data to dst, which need not be a pipe, by vmsplicing
// it into pipeW and splicing it from pipeR on to dst. The pipe belongs to
// the caller and is expected to be empty; it is left empty on return unless
// a fatal error occurred.
func (c *Copier) InjectToHandle(data []byte, pipeR, pipeW, dst Handle) (int64, bool, error) {
	r, w, out := borrow(pipeR).fd, borrow(pipeW).fd, borrow(dst).fd
	_, drain := c.stages()
	inject := c.injector()

	var moved int64
	for len(data) > 0 {
		n, err := inject(w, data)
		if err != nil {
			_, fallback, err := maybeUnsupported("vmsplice", err)
			return moved, fallback, err
		}
		if n == 0 {
			return moved, false, errors.WithStack(newIOError("vmsplice", io.ErrShortWrite))
		}
		c.stats().InjectedBytes.Add(int64(n))

		m, err := spliceExact(drain, r, out, n)
		moved += int64(m)
		if err != nil {
			if _, _, ferr := maybeUnsupported("splice", err); ferr != nil {
				return moved, false, ferr
			}
			buf := buffers.Get()
			k, derr := copyExact(r, out, n-m, buf)
			buffers.Put(buf)
			moved += int64(k)
			c.stats().RecoveredBytes.Add(int64(k))
			if derr != nil {
				return moved, false, errors.WithStack(&WriteError{Msg: "draining intermediate pipe", Err: derr})
			}
			return moved, true, nil
		}
		data = data[n:]
	}
	return moved, false, nil
}
