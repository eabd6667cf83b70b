// CLAUDE:SUMMARY Append-only CSV store with canonical-URL dedup index and XLSX finalization with a timestamped fallback path.
package dataset

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

// Store persists records incrementally. Rows go to an intermediate CSV the
// moment they are extracted, so a crashed run still leaves usable output.
// Finalize converts the CSV to the configured XLSX path at the end.
//
// Single writer, no external concurrent writers assumed.
type Store struct {
	csvPath   string
	xlsxPath  string
	processed map[string]struct{}
	file      *os.File
	w         *csv.Writer
	logger    *slog.Logger
}

// NewStore creates a store for the given XLSX output path. The intermediate
// CSV lives next to it as <basename>.csv.
func NewStore(outputPath string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	base := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))
	return &Store{
		csvPath:   base + ".csv",
		xlsxPath:  outputPath,
		processed: make(map[string]struct{}),
		logger:    logger,
	}
}

// CSVPath returns the intermediate CSV path.
func (s *Store) CSVPath() string { return s.csvPath }

// LoadProcessed reads any pre-existing output (XLSX and/or CSV) and indexes
// the canonical form of every stored provenance URL. Missing or unreadable
// files are treated as empty — a fresh run starts from nothing.
func (s *Store) LoadProcessed() map[string]struct{} {
	s.loadCSV()
	s.loadXLSX()
	s.logger.Info("dataset: loaded processed index",
		"count", len(s.processed), "csv", s.csvPath, "xlsx", s.xlsxPath)
	return s.processed
}

func (s *Store) loadCSV() {
	f, err := os.Open(s.csvPath)
	if err != nil {
		return
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		s.logger.Warn("dataset: unreadable intermediate CSV, ignoring", "path", s.csvPath, "error", err)
		return
	}
	s.indexRows(rows)
}

func (s *Store) loadXLSX() {
	f, err := excelize.OpenFile(s.xlsxPath)
	if err != nil {
		return
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		s.logger.Warn("dataset: unreadable XLSX output, ignoring", "path", s.xlsxPath, "error", err)
		return
	}
	s.indexRows(rows)
}

// indexRows finds the _source_url column from the header row and records the
// canonical form of every value below it.
func (s *Store) indexRows(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	urlCol := -1
	for i, name := range rows[0] {
		if name == SourceURLColumn {
			urlCol = i
			break
		}
	}
	if urlCol < 0 {
		return
	}
	for _, row := range rows[1:] {
		if urlCol >= len(row) || row[urlCol] == "" {
			continue
		}
		canon, err := Canonicalize(row[urlCol])
		if err != nil {
			continue
		}
		s.processed[canon] = struct{}{}
	}
}

// Seen reports whether a canonical URL is already in the dataset.
func (s *Store) Seen(canonical string) bool {
	_, ok := s.processed[canonical]
	return ok
}

// Append writes one record to the intermediate CSV, creating file and header
// on first write, and flushes immediately. A record whose canonical source
// URL is already indexed is dropped, keeping the at-most-once invariant even
// if the caller's own skip check was bypassed.
func (s *Store) Append(rec Record) error {
	canon, err := Canonicalize(rec.SourceURL)
	if err != nil {
		return fmt.Errorf("dataset: append: %w", err)
	}
	if s.Seen(canon) {
		s.logger.Debug("dataset: duplicate record dropped", "url", canon)
		return nil
	}

	if s.w == nil {
		if err := s.openCSV(); err != nil {
			return err
		}
	}

	if err := s.w.Write(rec.Row()); err != nil {
		return fmt.Errorf("dataset: write row: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("dataset: flush: %w", err)
	}

	s.processed[canon] = struct{}{}
	return nil
}

func (s *Store) openCSV() error {
	if dir := filepath.Dir(s.csvPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("dataset: mkdir: %w", err)
		}
	}

	info, statErr := os.Stat(s.csvPath)
	needHeader := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(s.csvPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("dataset: open CSV: %w", err)
	}
	s.file = f
	s.w = csv.NewWriter(f)

	if needHeader {
		if err := s.w.Write(Columns); err != nil {
			return fmt.Errorf("dataset: write header: %w", err)
		}
		s.w.Flush()
	}
	return s.w.Error()
}

// Close closes the underlying CSV file. Safe to call when nothing was written.
func (s *Store) Close() error {
	if s.w != nil {
		s.w.Flush()
	}
	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		s.w = nil
		return err
	}
	return nil
}

// Finalize converts the intermediate CSV into the XLSX output and returns the
// path actually written. A run that appended nothing leaves no CSV behind;
// that is an empty dataset, not a failure, and produces a header-only XLSX.
// If the preferred destination cannot be written (file locked by a
// spreadsheet program, directory read-only), it falls back to a
// timestamp-suffixed sibling path instead of failing — the CSV remains the
// source of truth either way. An error is returned only when an existing CSV
// cannot be read.
func (s *Store) Finalize() (string, error) {
	rows, err := s.finalizeRows()
	if err != nil {
		return "", err
	}

	x := excelize.NewFile()
	defer x.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return "", fmt.Errorf("dataset: finalize: %w", err)
		}
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		if err := x.SetSheetRow(sheetName, cell, &vals); err != nil {
			return "", fmt.Errorf("dataset: finalize: %w", err)
		}
	}

	if err := x.SaveAs(s.xlsxPath); err == nil {
		s.logger.Info("dataset: finalized", "path", s.xlsxPath, "rows", len(rows))
		return s.xlsxPath, nil
	} else {
		s.logger.Warn("dataset: primary output not writable, using fallback", "path", s.xlsxPath, "error", err)
	}

	alt := s.fallbackPath()
	if err := x.SaveAs(alt); err != nil {
		// Both destinations refused; the CSV still holds everything.
		s.logger.Error("dataset: fallback output not writable either", "path", alt, "error", err)
		return s.csvPath, nil
	}
	s.logger.Info("dataset: finalized to fallback path", "path", alt, "rows", len(rows))
	return alt, nil
}

// finalizeRows reads the intermediate CSV. A missing file yields just the
// header row so an empty run still finalizes cleanly.
func (s *Store) finalizeRows() ([][]string, error) {
	f, err := os.Open(s.csvPath)
	if os.IsNotExist(err) {
		s.logger.Info("dataset: no intermediate CSV, finalizing empty dataset", "path", s.csvPath)
		return [][]string{Columns}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: finalize: open CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: finalize: read CSV: %w", err)
	}
	return rows, nil
}

func (s *Store) fallbackPath() string {
	ext := filepath.Ext(s.xlsxPath)
	base := strings.TrimSuffix(s.xlsxPath, ext)
	return fmt.Sprintf("%s_%s%s", base, time.Now().Format("20060102_150405"), ext)
}
