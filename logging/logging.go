// Package logging builds the process logger shared by the server and the
// ingestion commands.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

// New returns a logger writing to stdout and, when path is set, appending to
// the file at path. The returned close function releases the file.
func New(path string) (*log.Logger, func() error, error) {
	writers := []io.Writer{os.Stdout}
	closeFn := func() error { return nil }

	if path != "" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, err
			}
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, file)
		closeFn = file.Close
	}

	return log.New(io.MultiWriter(writers...), "", log.LstdFlags), closeFn, nil
}
