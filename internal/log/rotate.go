package log

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for NewFileWriter.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
)

// NewFileWriter returns a writer that appends to path and rotates the file
// once it reaches DefaultMaxSizeMB. Rotated files are gzip compressed.
// The caller must Close the writer.
func NewFileWriter(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAgeDays,
		Compress:   true,
	}
}
