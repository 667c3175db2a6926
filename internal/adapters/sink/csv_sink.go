package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/rfq-workflow/internal/ports"
	"go.uber.org/zap"
)

// CSVSink writes each channel to <dir>/<basename>[_<channel>].csv. The
// admitted channel carries no suffix; it is the file reviewed at the checkpoint.
type CSVSink struct {
	dir      string
	basename string
	logger   *zap.Logger
}

// NewCSVSink creates a new CSV sink
func NewCSVSink(dir, basename string, logger *zap.Logger) *CSVSink {
	if basename == "" {
		basename = "emails"
	}
	return &CSVSink{dir: dir, basename: basename, logger: logger}
}

// FileName returns the file name used for a channel
func FileName(basename string, channel ports.Channel) string {
	if channel == ports.ChannelAdmitted {
		return basename + ".csv"
	}
	return fmt.Sprintf("%s_%s.csv", basename, channel)
}

// Write replaces the channel file with the table
func (s *CSVSink) Write(ctx context.Context, channel ports.Channel, table ports.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(s.dir, FileName(s.basename, channel))
	tmp, err := os.CreateTemp(s.dir, ".tmp-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(table.Columns); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(table.Rows); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move output file into place: %w", err)
	}

	s.logger.Debug("Wrote CSV file", zap.String("path", path), zap.Int("rows", len(table.Rows)))
	return path, nil
}
