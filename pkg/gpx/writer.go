package gpx

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/LukaGrunt/nabajk/pkg/logx"
	"github.com/LukaGrunt/nabajk/pkg/ride"
)

// Writer persists rendered GPX documents under a single export directory
// with timestamped filenames.
type Writer struct {
	dir    string
	logger *logx.Logger
	now    func() time.Time
}

// NewWriter creates a writer rooted at dir. The directory is created on the
// first save if missing.
func NewWriter(dir string, logger *logx.Logger) *Writer {
	return &Writer{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// Save renders the track and writes it durably, returning the final path.
// The document is staged in a temp file and renamed into place, so a failed
// write never leaves a partial file at the returned path.
func (w *Writer) Save(points []ride.RecordedPoint, name string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create gpx directory: %w", err)
	}

	doc := Render(points, name)
	filename := fmt.Sprintf("nabajk_%d.gpx", w.now().UnixMilli())
	path := filepath.Join(w.dir, filename)

	tmp, err := os.CreateTemp(w.dir, filename+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create gpx temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write gpx document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close gpx temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("finalize gpx file: %w", err)
	}

	w.logger.Info("GPX track written", "path", path, "points", len(points))
	return path, nil
}
