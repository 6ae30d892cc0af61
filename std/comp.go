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
	"sort"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// CompWriter is a compressing stream. Flush pushes out a complete block,
// Close ends the stream without closing the underlying writer.
type CompWriter interface {
	io.WriteCloser
	Flush() error
}

// codec maps a compression name to its stream constructors.
type codec struct {
	writer func(w io.Writer) CompWriter
	reader func(r io.Reader) io.Reader
}

// codecs is the lookup table of supported stream formats.
var codecs = map[string]codec{
	"snappy": {
		writer: func(w io.Writer) CompWriter { return snappy.NewBufferedWriter(w) },
		reader: func(r io.Reader) io.Reader { return snappy.NewReader(r) },
	},
	"lz4": {
		writer: func(w io.Writer) CompWriter { return lz4.NewWriter(w) },
		reader: func(r io.Reader) io.Reader { return lz4.NewReader(r) },
	},
}

// Codecs returns the supported compression names.
func Codecs() []string {
	names := lo.Keys(codecs)
	sort.Strings(names)
	return names
}

// NewCompWriter returns a compressing writer on top of w.
func NewCompWriter(name string, w io.Writer) (CompWriter, error) {
	c, ok := codecs[name]
	if !ok {
		return nil, errors.Errorf("unknown compression: %v", name)
	}
	return c.writer(w), nil
}

// NewCompReader returns a reader decompressing r.
func NewCompReader(name string, r io.Reader) (io.Reader, error) {
	c, ok := codecs[name]
	if !ok {
		return nil, errors.Errorf("unknown compression: %v", name)
	}
	return c.reader(r), nil
}
