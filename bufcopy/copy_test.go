package bufcopy

import (
	"bufio"
	"bytes"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hello = []byte("Hello, world!")

func payload(n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(int64(n))).Read(b)
	return b
}

// pipeSource returns the read end of a pipe fed with data, then closed.
func pipeSource(t *testing.T, data []byte) *os.File {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	go func() {
		w.Write(data)
		w.Close()
	}()
	return r
}

func fileSource(t *testing.T, data []byte) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

// pipeSink returns the write end of a pipe and a func that closes it and
// returns everything that came out of the read end.
func pipeSink(t *testing.T) (*os.File, func() []byte) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	done := make(chan []byte, 1)
	go func() {
		b, _ := io.ReadAll(r)
		r.Close()
		done <- b
	}()
	return w, func() []byte {
		w.Close()
		return <-done
	}
}

func fileSink(t *testing.T, flag int) (*os.File, func() []byte) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dst")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|flag, 0o644)
	require.NoError(t, err)
	return f, func() []byte {
		f.Close()
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		return b
	}
}

func copiers() map[string]func(*Stats) *Copier {
	return map[string]func(*Stats) *Copier{
		"default": func(s *Stats) *Copier { return New(WithStats(s)) },
		"nosplice": func(s *Stats) *Copier {
			return New(WithStats(s), WithoutSplice())
		},
	}
}

func TestCopyStreamHelloWorld(t *testing.T) {
	for name, newCopier := range copiers() {
		t.Run(name, func(t *testing.T) {
			c := newCopier(new(Stats))
			src := pipeSource(t, hello)
			dst, output := pipeSink(t)

			n, err := c.CopyStream(dst, src)
			require.NoError(t, err)
			assert.Equal(t, int64(13), n)
			assert.Equal(t, hello, output())
		})
	}
}

func TestCopyStreamKinds(t *testing.T) {
	data := payload(1<<20 + 123)
	sources := map[string]func(*testing.T, []byte) *os.File{
		"pipe": pipeSource,
		"file": fileSource,
	}
	sinks := map[string]func(*testing.T) (*os.File, func() []byte){
		"pipe": pipeSink,
		"file": func(t *testing.T) (*os.File, func() []byte) { return fileSink(t, 0) },
	}

	for cname, newCopier := range copiers() {
		for sname, source := range sources {
			for dname, sink := range sinks {
				t.Run(cname+"/"+sname+"-"+dname, func(t *testing.T) {
					stats := new(Stats)
					c := newCopier(stats)
					src := source(t, data)
					dst, output := sink(t)

					n, err := c.CopyStream(dst, src)
					require.NoError(t, err)
					assert.Equal(t, int64(len(data)), n)
					assert.True(t, bytes.Equal(data, output()), "output differs from input")
					assert.Equal(t, n, stats.SplicedBytes.Load()+stats.RecoveredBytes.Load()+stats.FallbackBytes.Load())
				})
			}
		}
	}
}

func TestCopyStreamEmpty(t *testing.T) {
	for name, newCopier := range copiers() {
		t.Run(name, func(t *testing.T) {
			src := pipeSource(t, nil)
			dst, output := pipeSink(t)

			n, err := newCopier(new(Stats)).CopyStream(dst, src)
			require.NoError(t, err)
			assert.Equal(t, int64(0), n)
			assert.Empty(t, output())
		})
	}
}

// bufferedFile buffers writes in user space in front of a descriptor.
type bufferedFile struct {
	*bufio.Writer
	f       *os.File
	flushes int
}

func (b *bufferedFile) Fd() uintptr { return b.f.Fd() }

func (b *bufferedFile) Flush() error {
	b.flushes++
	return b.Writer.Flush()
}

func TestCopyStreamFlushesBufferedDestination(t *testing.T) {
	for name, newCopier := range copiers() {
		t.Run(name, func(t *testing.T) {
			f, output := fileSink(t, 0)
			dst := &bufferedFile{Writer: bufio.NewWriter(f), f: f}

			// already buffered bytes come first
			dst.WriteString("head:")
			n, err := newCopier(new(Stats)).CopyStream(dst, fileSource(t, hello))
			require.NoError(t, err)
			assert.Equal(t, int64(13), n)
			assert.Equal(t, 0, dst.Buffered())
			assert.NotZero(t, dst.flushes)
			assert.Equal(t, "head:Hello, world!", string(output()))
		})
	}
}

func TestZeroCopierUsesBufferedCopy(t *testing.T) {
	stats := new(Stats)
	c := &Copier{Stats: stats}
	dst, output := pipeSink(t)

	n, err := c.CopyStream(dst, pipeSource(t, hello))
	require.NoError(t, err)
	assert.Equal(t, int64(13), n)
	assert.Equal(t, hello, output())
	assert.Equal(t, int64(13), stats.FallbackBytes.Load())
	assert.Equal(t, int64(0), stats.Fallbacks.Load())
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) { return 0, os.ErrPermission }

func TestCopyBufferErrors(t *testing.T) {
	c := New(WithStats(new(Stats)))

	n, err := c.CopyBuffer(shortWriter{}, bytes.NewReader(hello))
	assert.Equal(t, int64(6), n)
	assert.True(t, errors.Is(err, io.ErrShortWrite))

	n, err = c.CopyBuffer(io.Discard, failingReader{})
	assert.Equal(t, int64(0), n)
	assert.True(t, errors.Is(err, os.ErrPermission))
}

func TestStats(t *testing.T) {
	s := new(Stats)
	s.SplicedBytes.Add(3)
	s.Fallbacks.Add(1)

	assert.Equal(t, len(s.Header()), len(s.ToSlice()))
	assert.Equal(t, []string{"3", "0", "0", "0", "1"}, s.ToSlice())
	assert.Equal(t, "spliced=3 recovered=0 fallback=0 injected=0 fallbacks=1", s.String())

	s.Reset()
	assert.Equal(t, []string{"0", "0", "0", "0", "0"}, s.ToSlice())
}
