package csvlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Log appends rows to a CSV file, writing the header on first use. The file
// is opened per append so interrupted runs never hold it hostage.
type Log struct {
	path   string
	header []string
}

// New describes a CSV log at path with the given header.
func New(path string, header ...string) *Log {
	return &Log{path: path, header: header}
}

// Path returns the log file location.
func (l *Log) Path() string { return l.path }

// Append writes one row, creating the file with its header when missing.
func (l *Log) Append(fields ...string) error {
	if len(fields) != len(l.header) {
		return fmt.Errorf("csvlog: %d fields for %d columns", len(fields), len(l.header))
	}
	if err := l.ensureHeader(); err != nil {
		return err
	}

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("csvlog: open %s: %w", l.path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(fields); err != nil {
		return fmt.Errorf("csvlog: write row: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csvlog: flush: %w", err)
	}
	return file.Sync()
}

func (l *Log) ensureHeader() error {
	_, err := os.Stat(l.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("csvlog: stat %s: %w", l.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("csvlog: ensure dir: %w", err)
	}
	file, err := os.Create(l.path)
	if err != nil {
		return fmt.Errorf("csvlog: create %s: %w", l.path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(l.header); err != nil {
		return fmt.Errorf("csvlog: write header: %w", err)
	}
	writer.Flush()
	return writer.Error()
}
