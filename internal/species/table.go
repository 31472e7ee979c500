// Package species reads the input species table.
package species

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cesargomez89/genofetch/internal/constants"
	"github.com/cesargomez89/genofetch/internal/domain"
)

// ReadTable parses the species CSV. The header must contain the cell_line,
// Accepted name, Legacy Name and Genus columns in any order. A row with an
// empty accepted name is a configuration error that aborts the run, not a
// per-row resolution failure.
func ReadTable(path string) ([]domain.SpeciesRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open species table: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return parseTable(f)
}

func parseTable(r io.Reader) ([]domain.SpeciesRequest, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("species table is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var requests []domain.SpeciesRequest
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}

		req := domain.SpeciesRequest{
			CellLine:     clean(row[cols[constants.ColCellLine]]),
			AcceptedName: clean(row[cols[constants.ColAcceptedName]]),
			LegacyName:   clean(row[cols[constants.ColLegacyName]]),
			Genus:        clean(row[cols[constants.ColGenus]]),
		}
		if req.AcceptedName == "" {
			return nil, fmt.Errorf("row %d: %s must not be empty", line, constants.ColAcceptedName)
		}
		requests = append(requests, req)
	}

	if len(requests) == 0 {
		return nil, fmt.Errorf("species table has no data rows")
	}
	return requests, nil
}

func columnIndex(header []string) (map[string]int, error) {
	required := []string{
		constants.ColCellLine,
		constants.ColAcceptedName,
		constants.ColLegacyName,
		constants.ColGenus,
	}

	cols := make(map[string]int, len(required))
	for i, name := range header {
		cols[clean(name)] = i
	}

	var missing []string
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("species table missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// clean strips surrounding whitespace and stray tabs carried over from
// spreadsheet exports.
func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\t", ""))
}
