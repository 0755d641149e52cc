package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"arvaiapulse/internal/config"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths *config.Paths
}

// NewCSVWriter creates a new CSV writer instance. Relative file paths are
// resolved against paths.ExportsDir; paths may be nil.
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// Write writes one table to w.
func (cw *CSVWriter) Write(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writeTable(writer, options.Headers, options.Records); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// WriteCSV writes data to a CSV file with the given options
func (cw *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := cw.resolvePath(filePath)

	slog.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	return writeFile(fullPath, func(w io.Writer) error {
		return cw.Write(w, options)
	})
}

// WriteReport writes the annual table followed, after one empty line, by the
// weekly breakdown. The weekly table has only its header when no week is
// selected.
func (cw *CSVWriter) WriteReport(w io.Writer, report Report) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writeTable(writer, AnnualHeaders, report.AnnualRows()); err != nil {
		return err
	}

	writer.Flush()
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	if err := writeTable(writer, WeeklyHeaders, report.WeeklyRows()); err != nil {
		return err
	}

	writer.Flush()
	return writer.Error()
}

// SaveReport writes the report to filePath.
func (cw *CSVWriter) SaveReport(filePath string, report Report) (string, error) {
	fullPath := cw.resolvePath(filePath)
	err := writeFile(fullPath, func(w io.Writer) error {
		return cw.WriteReport(w, report)
	})
	return fullPath, err
}

func writeTable(writer *csv.Writer, headers []string, records [][]string) error {
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return nil
}

// writeFile creates fullPath with its directory and hands it to fn.
func writeFile(fullPath string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}

	if err := fn(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// resolvePath resolves relative paths against the exports directory
func (cw *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || cw.paths == nil || cw.paths.ExportsDir == "" {
		return filePath
	}
	return filepath.Join(cw.paths.ExportsDir, filePath)
}
