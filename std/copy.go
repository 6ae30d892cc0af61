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

package std

import (
	"io"

	"github.com/pkg/errors"

	"github.com/xtaci/fastcopy/bufcopy"
)

// Copy copies src to dst with c. When both ends are descriptors the copy may
// bypass user space; otherwise (compressing writers, decompressing readers)
// it goes through c's buffered copy and dst is flushed afterwards.
func Copy(c *bufcopy.Copier, dst io.Writer, src io.Reader) (written int64, err error) {
	if w, ok := dst.(bufcopy.Writer); ok {
		if r, ok := src.(bufcopy.Reader); ok {
			return c.CopyStream(w, r)
		}
	}

	written, err = c.CopyBuffer(dst, src)
	if err != nil {
		return written, err
	}
	if f, ok := dst.(bufcopy.Flusher); ok {
		if err := f.Flush(); err != nil {
			return written, errors.Wrap(err, "flush")
		}
	}
	return written, nil
}
