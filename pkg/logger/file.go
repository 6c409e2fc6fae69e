package logger

import (
	"io"
	"log"
	"os"

	"github.com/spf13/afero"
)

// FileLogger appends to a log file and closes it on Close.
type FileLogger struct {
	*StandardLogger
	f io.Closer
}

// NewFileLogger opens path for appending, creating it if needed.
func NewFileLogger(fs afero.Fs, path string) (*FileLogger, error) {
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{
		StandardLogger: NewStandardLogger(log.New(f, "", log.LstdFlags)),
		f:              f,
	}, nil
}

// Close closes the underlying file. Later calls return nil.
func (l *FileLogger) Close() error {
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

var _ Logger = (*FileLogger)(nil)
