package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterAppendsWithoutRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := NewRotatingFileWriter(path, 1024, 2)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("world\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", string(data))
}

func TestWriterRotatesAtSizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := NewRotatingFileWriter(path, 20, 2)
	require.NoError(t, err)
	defer w.Close()

	first := strings.Repeat("a", 18) + "\n"
	_, err = w.Write([]byte(first))
	require.NoError(t, err)

	second := "next line\n"
	_, err = w.Write([]byte(second))
	require.NoError(t, err)

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, second, string(current))

	backup, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, first, string(backup))
}

func TestWriterDropsOldestBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := NewRotatingFileWriter(path, 4, 1)
	require.NoError(t, err)
	defer w.Close()

	for _, line := range []string{"one\n", "two\n", "three\n"} {
		_, err = w.Write([]byte(line))
		require.NoError(t, err)
	}

	backup, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, "two\n", string(backup))

	_, err = os.Stat(path + ".2")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := NewRotatingFileWriter(path, 1024, 0)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late\n"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestWriterRejectsBadConfig(t *testing.T) {
	_, err := NewRotatingFileWriter("", 1024, 1)
	assert.Error(t, err)

	_, err = NewRotatingFileWriter(filepath.Join(t.TempDir(), "app.log"), 0, 1)
	assert.Error(t, err)
}
