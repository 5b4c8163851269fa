package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"powerposition/models"
)

const (
	csvSeparator   = ';'
	instantLayout  = "2006-01-02T15:04:05Z"
	fileDateLayout = "20060102"
	fileTimeLayout = "200601021504"
)

var csvHeader = []string{"Datetime", "Volume"}

// ReportFileName returns PowerPosition_<YYYYMMDD>_<YYYYMMDDHHmm>.<ext>.
// The reference date is taken as a calendar day; generatedAt is rendered in UTC.
func ReportFileName(referenceDate, generatedAt time.Time, ext string) string {
	return fmt.Sprintf("PowerPosition_%s_%s.%s",
		referenceDate.Format(fileDateLayout),
		generatedAt.UTC().Format(fileTimeLayout),
		ext,
	)
}

// WriteCSV writes positions to path, replacing any existing file.
func WriteCSV(path string, positions []models.Position) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	w.Comma = csvSeparator
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range positions {
		record := []string{p.Instant.UTC().Format(instantLayout), p.Volume.String()}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
