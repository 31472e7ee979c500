// Package ledger persists the artifacts of a resolution run.
package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cesargomez89/genofetch/internal/constants"
	"github.com/cesargomez89/genofetch/internal/domain"
)

// Fixed output headers. Downstream tooling parses these by name; changing
// them breaks the pipeline contract.
var (
	StatusHeader = []string{
		constants.ColCellLine,
		constants.ColAcceptedName,
		constants.ColLegacyName,
		constants.ColGenus,
		"Query Used",
		"Status",
		"Accession",
		"Assembly Level",
		"Annotated",
		"Detail",
	}
	DownloadInfoHeader = []string{
		"Accession",
		"Assembly Level",
		"Annotated",
		"Query Used",
		"Species",
	}
)

// Writer persists the status ledger, the accession list and the
// download-info table. Each file is written to a temporary sibling and
// renamed into place so a crash never leaves a truncated artifact behind.
type Writer struct {
	statusPath       string
	accessionsPath   string
	downloadInfoPath string
}

func NewWriter(statusPath, accessionsPath, downloadInfoPath string) *Writer {
	return &Writer{
		statusPath:       statusPath,
		accessionsPath:   accessionsPath,
		downloadInfoPath: downloadInfoPath,
	}
}

// Write persists all three artifacts for the complete record set. Records
// must already be in input order; every input row appears exactly once in
// the status ledger.
func (w *Writer) Write(records []domain.ResolutionRecord) error {
	if err := w.writeStatus(records); err != nil {
		return fmt.Errorf("failed to write status ledger: %w", err)
	}
	if err := w.writeAccessions(records); err != nil {
		return fmt.Errorf("failed to write accession list: %w", err)
	}
	if err := w.writeDownloadInfo(records); err != nil {
		return fmt.Errorf("failed to write download info: %w", err)
	}
	return nil
}

func (w *Writer) writeStatus(records []domain.ResolutionRecord) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, StatusHeader)
	for _, rec := range records {
		rows = append(rows, []string{
			rec.CellLine,
			rec.AcceptedName,
			rec.LegacyName,
			rec.Genus,
			string(rec.QueryUsed),
			string(rec.Status),
			rec.Accession,
			rec.AssemblyLevel,
			formatAnnotated(rec),
			rec.Detail,
		})
	}
	return writeCSVAtomic(w.statusPath, rows)
}

// writeAccessions emits one line per RESOLVED species, without header and
// without deduplication: downstream dedup owns collapsing shared genomes,
// and the line count must match the RESOLVED row count of the ledger.
func (w *Writer) writeAccessions(records []domain.ResolutionRecord) error {
	var b strings.Builder
	for _, rec := range records {
		if rec.Status != domain.StatusResolved {
			continue
		}
		b.WriteString(rec.Accession)
		b.WriteByte('\n')
	}
	return writeFileAtomic(w.accessionsPath, []byte(b.String()))
}

func (w *Writer) writeDownloadInfo(records []domain.ResolutionRecord) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, DownloadInfoHeader)
	for _, rec := range records {
		if rec.Status != domain.StatusResolved {
			continue
		}
		rows = append(rows, []string{
			rec.Accession,
			rec.AssemblyLevel,
			formatAnnotated(rec),
			string(rec.QueryUsed),
			rec.AcceptedName,
		})
	}
	return writeCSVAtomic(w.downloadInfoPath, rows)
}

func formatAnnotated(rec domain.ResolutionRecord) string {
	if rec.Status != domain.StatusResolved {
		return ""
	}
	return strconv.FormatBool(rec.Annotated)
}

func writeCSVAtomic(path string, rows [][]string) error {
	var b strings.Builder
	cw := csv.NewWriter(&b)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return writeFileAtomic(path, []byte(b.String()))
}

// writeFileAtomic writes to a temporary file in the destination directory
// and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, constants.FilePermissions); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
