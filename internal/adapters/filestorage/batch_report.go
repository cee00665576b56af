// Package filestorage persists pipeline artifacts to local disk.
package filestorage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Robertosoftware/rentify-nl/internal/contextkeys"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"
)

// BatchReportWriter writes one JSON artifact per pipeline run into a
// configured directory, named by the run's start time.
type BatchReportWriter struct {
	dir string
	now func() time.Time
}

func NewBatchReportWriter(dir string) (*BatchReportWriter, error) {
	if dir == "" {
		return nil, fmt.Errorf("batch report directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create batch report directory %s: %w", dir, err)
	}
	return &BatchReportWriter{dir: dir, now: time.Now}, nil
}

// Write serializes the report to scrape_YYYYMMDD_HHMMSS.json and returns
// the file path.
func (w *BatchReportWriter) Write(ctx context.Context, report port.BatchReport) (string, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "BatchReportWriter",
	})

	name := fmt.Sprintf("scrape_%s.json", w.now().UTC().Format("20060102_150405"))
	path := filepath.Join(w.dir, name)

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal batch report: %w", err)
	}

	if err := os.WriteFile(path, body, 0o644); err != nil {
		logger.Error("Failed to write batch report", err, port.Fields{"path": path})
		return "", fmt.Errorf("failed to write batch report %s: %w", path, err)
	}

	logger.Info("Wrote batch report", port.Fields{"path": path, "pairs": len(report)})
	return path, nil
}
