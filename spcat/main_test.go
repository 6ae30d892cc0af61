package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog() *logrus.Entry {
	log := logrus.New()
	log.Out = io.Discard
	return log.WithField("test", "test")
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// runToFile runs spcat with stdout redirected to a fresh file and returns
// what was written.
func runToFile(t *testing.T, config *Config, stdin *os.File) ([]byte, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stdout")
	stdout, err := os.Create(path)
	require.NoError(t, err)

	runErr := run(config, newTestLog(), stdin, stdout)
	require.NoError(t, stdout.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b, runErr
}

func TestRunConcatenates(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a", []byte("Hello, "))
	b := writeFile(t, dir, "b", bytes.Repeat([]byte("world!"), 50000))

	stdin, err := os.Open(writeFile(t, dir, "stdin", []byte("<stdin>")))
	require.NoError(t, err)
	defer stdin.Close()

	for _, nosplice := range []bool{false, true} {
		stdin.Seek(0, io.SeekStart)
		out, err := runToFile(t, &Config{Files: []string{a, "-", b}, NoSplice: nosplice}, stdin)
		require.NoError(t, err)

		want := append([]byte("Hello, <stdin>"), bytes.Repeat([]byte("world!"), 50000)...)
		assert.True(t, bytes.Equal(want, out), "nosplice=%v", nosplice)
	}
}

func TestRunDefaultsToStdin(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	go func() {
		w.Write([]byte("Hello, world!"))
		w.Close()
	}()

	out, err := runToFile(t, &Config{}, r)
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", string(out))
}

func TestRunSkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a", []byte("kept"))

	out, err := runToFile(t, &Config{Files: []string{filepath.Join(dir, "missing"), a}}, nil)
	assert.Error(t, err)
	assert.Equal(t, "kept", string(out))
}

func TestRunCompressRoundTrip(t *testing.T) {
	dir := t.TempDir()
	data := bytes.Repeat([]byte("compress me, "), 10000)
	src := writeFile(t, dir, "src", data)

	for _, codec := range []string{"snappy", "lz4"} {
		packed, err := runToFile(t, &Config{Files: []string{src, src}, Compress: codec}, nil)
		require.NoError(t, err)
		assert.Less(t, len(packed), len(data))

		packedPath := writeFile(t, dir, "packed."+codec, packed)
		out, err := runToFile(t, &Config{Files: []string{packedPath}, Decompress: codec}, nil)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(append(append([]byte{}, data...), data...), out), codec)
	}
}

func TestRunUnknownCodec(t *testing.T) {
	_, err := runToFile(t, &Config{Compress: "zstd"}, nil)
	assert.Error(t, err)
}
