// Package backup keeps a copy of every successfully rendered report on
// disk, one directory per day:
//
//	<dir>/2024-05-01/sales_report-1714555800123456789.csv
//
// Write failures are returned to the caller, which logs them; a backup
// never fails the HTTP response.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/yanizio/kapenta/internal/routing"
)

// Writer stores rendered output under a root directory.
type Writer struct {
	dir string
	now func() time.Time
}

// New returns a Writer rooted at dir.  A relative dir is resolved against
// baseDir.  The directory is created if missing.
func New(dir, baseDir string) (*Writer, error) {
	if !filepath.IsAbs(dir) && baseDir != "" {
		dir = filepath.Join(baseDir, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory %q: %w", dir, err)
	}
	return &Writer{dir: dir, now: time.Now}, nil
}

// Dir is the resolved root directory.
func (w *Writer) Dir() string { return w.dir }

// Write stores body for the named report and returns the file path.
func (w *Writer) Write(reportName, ext string, body []byte) (string, error) {
	at := w.now()
	day := filepath.Join(w.dir, at.Format("2006-01-02"))
	if err := os.MkdirAll(day, 0o755); err != nil {
		return "", fmt.Errorf("create backup day directory: %w", err)
	}

	name := routing.RouteSegment(reportName) + "-" + strconv.FormatInt(at.UnixNano(), 10)
	if ext != "" {
		name += "." + ext
	}
	file := filepath.Join(day, filepath.Base(name))

	if err := os.WriteFile(file, body, 0o644); err != nil {
		return "", fmt.Errorf("write backup %s: %w", file, err)
	}
	return file, nil
}
