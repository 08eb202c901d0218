package responselog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// CSVAppender appends rows to a local delimited file, writing the header when
// the file does not exist yet.
type CSVAppender struct {
	path string
	mu   sync.Mutex
}

func NewCSVAppender(path string) *CSVAppender {
	return &CSVAppender{path: path}
}

func (a *CSVAppender) Name() string { return "csv" }

func (a *CSVAppender) Path() string { return a.path }

func (a *CSVAppender) Append(_ context.Context, row Row) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	writeHeader := false
	if _, err := os.Stat(a.path); errors.Is(err, fs.ErrNotExist) {
		writeHeader = true
	} else if err != nil {
		return fmt.Errorf("%w: stat %s: %v", ErrAppendFailed, a.path, err)
	}

	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrAppendFailed, a.path, err)
	}

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(Header); err != nil {
			f.Close()
			return fmt.Errorf("%w: write header: %v", ErrAppendFailed, err)
		}
	}
	if err := w.Write(row.Values()); err != nil {
		f.Close()
		return fmt.Errorf("%w: write row: %v", ErrAppendFailed, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("%w: flush: %v", ErrAppendFailed, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrAppendFailed, a.path, err)
	}
	return nil
}
