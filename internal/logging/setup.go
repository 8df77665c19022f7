package logging

import (
	"io"
	"log"
	"os"
)

const (
	defaultMaxSizeBytes = 10 << 20
	defaultMaxBackups   = 3
)

// Setup sends the standard logger to stderr and, when a path is configured,
// additionally to a size-rotated file. The returned closer is a no-op when
// no file is in play.
func Setup(logFile string) (io.Closer, error) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if logFile == "" {
		return nopCloser{}, nil
	}

	w, err := NewRotatingFileWriter(logFile, defaultMaxSizeBytes, defaultMaxBackups)
	if err != nil {
		return nil, err
	}

	log.SetOutput(io.MultiWriter(os.Stderr, w))
	return w, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
