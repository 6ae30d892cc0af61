package std

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtaci/fastcopy/bufcopy"
)

func TestCopyDescriptors(t *testing.T) {
	stats := new(bufcopy.Stats)
	c := bufcopy.New(bufcopy.WithStats(stats), bufcopy.WithoutSplice())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src"), []byte("hello world"), 0o644))
	src, err := os.Open(filepath.Join(dir, "src"))
	require.NoError(t, err)
	defer src.Close()
	dst, err := os.Create(filepath.Join(dir, "dst"))
	require.NoError(t, err)
	defer dst.Close()

	n, err := Copy(c, dst, src)
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)

	got, err := os.ReadFile(filepath.Join(dir, "dst"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
}

func TestCopyThroughCodec(t *testing.T) {
	c := bufcopy.New(bufcopy.WithStats(new(bufcopy.Stats)))
	payload := bytes.Repeat([]byte("reader from data "), 1000)

	var wire bytes.Buffer
	w, err := NewCompWriter("snappy", &wire)
	require.NoError(t, err)
	n, err := Copy(c, w, bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	// Copy flushed the codec, the data is decodable before Close
	r, err := NewCompReader("snappy", bytes.NewReader(wire.Bytes()))
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got))
}

var errFlush = errors.New("disk full")

type failingFlusher struct{ bytes.Buffer }

func (f *failingFlusher) Flush() error { return errFlush }

func TestCopyFlushError(t *testing.T) {
	c := bufcopy.New(bufcopy.WithStats(new(bufcopy.Stats)))

	var dst failingFlusher
	n, err := Copy(c, &dst, bytes.NewReader([]byte("hello world")))
	assert.Equal(t, int64(11), n)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errFlush))
	assert.Contains(t, err.Error(), "flush: disk full")
}
