package bundle

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"classifier-service/internal/models"
)

// LoadComparison reads the training-time model comparison table.
// A missing file yields an empty table.
func LoadComparison(path string) ([]models.ComparisonRow, error) {
	if path == "" {
		return []models.ComparisonRow{}, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.ComparisonRow{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseComparison(f)
}

// ParseComparison decodes a CSV table whose header row names the columns.
// A column whose non-empty cells are all numeric becomes JSON numbers;
// other columns stay text. Empty and NaN cells become null.
func ParseComparison(r io.Reader) ([]models.ComparisonRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse comparison table: %w", err)
	}
	if len(records) == 0 {
		return []models.ComparisonRow{}, nil
	}

	header := records[0]
	for i, name := range header {
		if strings.TrimSpace(name) == "" {
			header[i] = "Unnamed: " + strconv.Itoa(i)
		}
	}
	dedupeHeader(header)

	body := records[1:]
	numeric := make([]bool, len(header))
	for col := range header {
		numeric[col] = columnIsNumeric(body, col)
	}

	rows := make([]models.ComparisonRow, 0, len(body))
	for _, record := range body {
		row := make(models.ComparisonRow, len(header))
		for col, name := range header {
			row[name] = cellValue(record[col], numeric[col])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// dedupeHeader renames repeated column names in place the way pandas does:
// the second "x" becomes "x.1", the third "x.2"; a taken name gains another suffix.
func dedupeHeader(header []string) {
	counts := make(map[string]int, len(header))
	for i, name := range header {
		n := counts[name]
		for n > 0 {
			counts[name] = n + 1
			name = name + "." + strconv.Itoa(n)
			n = counts[name]
		}
		counts[name] = n + 1
		header[i] = name
	}
}

func columnIsNumeric(records [][]string, col int) bool {
	for _, record := range records {
		cell := strings.TrimSpace(record[col])
		if isMissing(cell) {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return false
		}
	}
	return true
}

func cellValue(cell string, numeric bool) interface{} {
	cell = strings.TrimSpace(cell)
	if isMissing(cell) {
		return nil
	}
	if !numeric {
		return cell
	}
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n
	}
	f, _ := strconv.ParseFloat(cell, 64)
	// JSON has no encoding for infinities.
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return f
}

func isMissing(cell string) bool {
	switch cell {
	case "", "NaN", "nan", "NA", "N/A", "null", "None":
		return true
	}
	return false
}
