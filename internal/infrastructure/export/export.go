// Package export writes aggregate timelines to files for offline analysis.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"assetsync-service/internal/domain"

	"github.com/parquet-go/parquet-go"
)

// TimelineRow is one aggregate value on one day.
type TimelineRow struct {
	Date  string  `json:"date" parquet:"date"`
	Unix  int64   `json:"ts" parquet:"ts"`
	Value float64 `json:"aggregate_value" parquet:"aggregate_value"`
}

func Rows(points []domain.TimelinePoint) []TimelineRow {
	out := make([]TimelineRow, 0, len(points))
	for _, p := range points {
		out = append(out, TimelineRow{Date: p.Date.String(), Unix: p.Date.Unix(), Value: p.AggregateValue})
	}
	return out
}

type TimelineSaver interface {
	Extension() string
	Save(rows []TimelineRow, path string) error
}

type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(rows []TimelineRow, path string) error {
	return parquet.WriteFile(path, rows)
}

type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(rows []TimelineRow, path string) error {
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// NewTimelineSaver picks a saver by format name. It returns nil for unknown formats.
func NewTimelineSaver(format string) TimelineSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}

// SaveTimeline writes points to path, choosing the format from the file extension.
func SaveTimeline(points []domain.TimelinePoint, path string) error {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	s := NewTimelineSaver(ext)
	if s == nil {
		return fmt.Errorf("export: unsupported format %q (use .parquet or .json)", ext)
	}
	if err := s.Save(Rows(points), path); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}
