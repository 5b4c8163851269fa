package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"powerposition/config"
	"powerposition/logger"
	"powerposition/models"
)

// ReportWriter turns a set of positions into one report file per run.
type ReportWriter struct {
	folder      string
	format      string
	compression string
	uploader    Uploader
	log         *logger.Entry
}

// NewReportWriter prepares a writer for cfg. uploader may be nil.
func NewReportWriter(cfg config.ReportConfig, uploader Uploader, log *logger.Log) *ReportWriter {
	format := cfg.Format
	if format == "" {
		format = config.FormatCSV
	}
	return &ReportWriter{
		folder:      cfg.OutputFolderPath,
		format:      format,
		compression: cfg.Compression,
		uploader:    uploader,
		log:         log.WithComponent("report_writer"),
	}
}

// Write stores positions for referenceDate and returns the local file path.
func (w *ReportWriter) Write(ctx context.Context, referenceDate, generatedAt time.Time, positions []models.Position) (string, error) {
	folder, err := expandHome(w.folder)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("create output folder %s: %w", folder, err)
	}

	name := ReportFileName(referenceDate, generatedAt, w.format)
	path := filepath.Join(folder, name)

	switch w.format {
	case config.FormatParquet:
		err = WriteParquet(path, positions, w.compression)
	case config.FormatCSV:
		err = WriteCSV(path, positions)
	default:
		err = fmt.Errorf("unsupported report format %q", w.format)
	}
	if err != nil {
		return "", err
	}

	log := w.log.WithFields(logger.Fields{"path": path, "format": w.format})
	logger.LogDataFlowEntry(log, "aggregator", w.format+"_file", len(positions), "positions")

	if w.uploader != nil {
		if _, err := w.uploader.Upload(ctx, path, name); err != nil {
			return "", fmt.Errorf("mirror report: %w", err)
		}
	}
	return path, nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}
