package writer

import (
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"powerposition/models"
)

// positionRecord is the parquet row layout, mirroring the CSV columns.
type positionRecord struct {
	Datetime int64   `parquet:"name=datetime, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Volume   float64 `parquet:"name=volume, type=DOUBLE"`
}

func compressionCodec(name string) (parquet.CompressionCodec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "snappy":
		return parquet.CompressionCodec_SNAPPY, nil
	case "gzip":
		return parquet.CompressionCodec_GZIP, nil
	case "zstd":
		return parquet.CompressionCodec_ZSTD, nil
	case "none", "uncompressed":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return parquet.CompressionCodec_UNCOMPRESSED, fmt.Errorf("unsupported parquet compression %q", name)
	}
}

// WriteParquet writes positions as a single parquet file at path.
func WriteParquet(path string, positions []models.Position, compression string) (err error) {
	codec, err := compressionCodec(compression)
	if err != nil {
		return err
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	pw, err := writer.NewParquetWriter(fw, new(positionRecord), 1)
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}
	pw.CompressionType = codec

	for _, p := range positions {
		rec := positionRecord{
			Datetime: p.Instant.UTC().UnixMilli(),
			Volume:   p.Volume.InexactFloat64(),
		}
		if err := pw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finish parquet: %w", err)
	}
	return nil
}
