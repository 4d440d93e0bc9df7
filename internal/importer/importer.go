// Package importer reads item rows from CSV and XLSX uploads.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go-inventory-ledger/internal/service"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv or .xlsx")
	ErrEmptyFile         = errors.New("file has no header row")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read picks the decoder from the file extension.
func Read(filename string, r io.Reader) ([]service.ImportRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx":
		return ReadXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ReadCSV decodes a header-first CSV. Columns are matched by name in any
// order; a leading UTF-8 BOM is ignored.
func ReadCSV(r io.Reader) ([]service.ImportRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	var lines []int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record)
		lines = append(lines, line)
	}
	return fromRecords(records, lines)
}

// ReadXLSX decodes the first sheet of a workbook with the same header rules as ReadCSV.
func ReadXLSX(r io.Reader) ([]service.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	lines := make([]int, len(records))
	for i := range lines {
		lines[i] = i + 1
	}
	return fromRecords(records, lines)
}

// fromRecords maps data rows through the header; lines holds the source
// line of each record.
func fromRecords(records [][]string, lines []int) ([]service.ImportRow, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	columns := make(map[string]int)
	for i, h := range records[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, seen := columns[key]; !seen {
			columns[key] = i
		}
	}
	cell := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := make([]service.ImportRow, 0, len(records)-1)
	for n, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		rows = append(rows, service.ImportRow{
			Line:     lines[n+1],
			Name:     cell(record, "name"),
			Spec:     cell(record, "spec"),
			Quantity: cell(record, "quantity"),
			Location: cell(record, "location"),
		})
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
