// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package bufcopy

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// spliceSize is the most one relay iteration asks the kernel to move.
	spliceSize = 128 * 1024
	// bufSize is the buffer used by the drain and the buffered copy.
	bufSize = 16 * 1024
)

var buffers = newBytePool(16, bufSize)

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}()

// spliceFunc moves up to n bytes from rfd to wfd.
type spliceFunc func(rfd, wfd, n int) (int, error)

// injectFunc moves a prefix of b into the pipe fd.
type injectFunc func(fd int, b []byte) (int, error)

// Copier moves bytes between descriptors, preferring splice(2) when Splice
// is set. The zero value only ever uses the buffered copy.
type Copier struct {
	// Splice enables the zero-copy relay. New sets it to whether the
	// platform has splice(2).
	Splice bool
	Log    logrus.FieldLogger
	Stats  *Stats

	// fill and drain are the two relay stages, nil means splice(2).
	fill  spliceFunc
	drain spliceFunc

	// inject hands memory to a pipe, nil means vmsplice(2).
	inject injectFunc
}

// Option configures a Copier.
type Option func(*Copier)

// WithoutSplice disables the zero-copy relay.
func WithoutSplice() Option {
	return func(c *Copier) { c.Splice = false }
}

// WithLogger sets the logger that receives fallback decisions.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Copier) { c.Log = l }
}

// WithStats makes the Copier count into s instead of DefaultStats.
func WithStats(s *Stats) Option {
	return func(c *Copier) { c.Stats = s }
}

// New returns a Copier using splice(2) where available.
func New(opts ...Option) *Copier {
	c := &Copier{Splice: haveSplice, Log: discardLogger, Stats: DefaultStats}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Default is the Copier used by the package-level functions.
var Default = New()

// CopyStream copies src to dst until EOF with Default.
func CopyStream(dst Writer, src Reader) (int64, error) {
	return Default.CopyStream(dst, src)
}

// InjectToPipe writes data into the pipe dst with Default.
func InjectToPipe(data []byte, dst Handle) (int64, bool, error) {
	return Default.InjectToPipe(data, dst)
}

// InjectToHandle writes data to dst through the caller's pipe with Default.
func InjectToHandle(data []byte, pipeR, pipeW, dst Handle) (int64, bool, error) {
	return Default.InjectToHandle(data, pipeR, pipeW, dst)
}

func (c *Copier) log() logrus.FieldLogger {
	if c.Log == nil {
		return discardLogger
	}
	return c.Log
}

func (c *Copier) stats() *Stats {
	if c.Stats == nil {
		return DefaultStats
	}
	return c.Stats
}

// CopyStream copies everything remaining in src to dst and returns the number
// of bytes delivered to dst.
//
// With Splice set it relays through a private pipe with splice(2). If the
// relay cannot be used, or gives up half way, the rest is copied through a
// user-space buffer starting exactly where the relay stopped, and dst is
// flushed so the buffered tail lands after the spliced head.
func (c *Copier) CopyStream(dst Writer, src Reader) (written int64, err error) {
	if c.Splice {
		// bytes already sitting in a user-space buffer must go out first
		if err := flush(dst); err != nil {
			return 0, errors.Wrap(err, "flush")
		}
		res, err := c.spliceWrite(borrow(dst), borrow(src))
		written = res.spliced + res.recovered
		if err != nil {
			return written, err
		}
		if !res.fallback {
			return written, nil
		}
		c.stats().Fallbacks.Add(1)
		c.log().WithFields(logrus.Fields{
			"spliced":   res.spliced,
			"recovered": res.recovered,
		}).Debug("splice gave up, continuing with buffered copy")
	}

	n, err := c.CopyBuffer(dst, src)
	written += n
	if err != nil {
		return written, err
	}
	if err := flush(dst); err != nil {
		return written, errors.Wrap(err, "flush")
	}
	return written, nil
}

// CopyBuffer copies src to dst through a pooled buffer, writing every chunk
// in full. It never looks at descriptors and never flushes.
func (c *Copier) CopyBuffer(dst io.Writer, src io.Reader) (written int64, err error) {
	buf := buffers.Get()
	defer buffers.Put(buf)

	for {
		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[:nr])
			if nw > 0 {
				written += int64(nw)
				c.stats().FallbackBytes.Add(int64(nw))
			}
			if ew != nil {
				err = errors.WithStack(ew)
				break
			}
			if nr != nw {
				err = errors.WithStack(io.ErrShortWrite)
				break
			}
		}
		if er != nil {
			if er != io.EOF {
				err = errors.WithStack(er)
			}
			break
		}
	}
	return written, err
}

// relayResult accounts for one relay run. spliced bytes went through both
// splice stages; recovered bytes were staged by splice and delivered by the
// drain (or by a partial second stage) when the relay gave up.
type relayResult struct {
	spliced   int64
	recovered int64
	fallback  bool
}
