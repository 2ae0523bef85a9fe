// Package upload reads product rows from user supplied spreadsheets.
package upload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jboursiquot/pricedash"
)

// Format identifies a supported spreadsheet encoding.
type Format string

const (
	XLSX Format = "xlsx"
	CSV  Format = "csv"
)

var (
	errUnsupported = errors.New("unsupported file type, expected .xlsx or .csv")
	errNoColumns   = errors.New("expected at least two columns (title, price)")
)

// DetectFormat picks the format from the file extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return XLSX, nil
	case ".csv":
		return CSV, nil
	}
	return "", &pricedash.ParseError{File: name, Err: errUnsupported}
}

// Parse reads a product table from r. Columns are matched by header name when
// the first row names them, and positionally (title, price) otherwise.
// Every failure is a *pricedash.ParseError.
func Parse(name string, r io.Reader) (pricedash.ProductTable, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	var records [][]string
	price := parsePrice
	switch format {
	case XLSX:
		records, err = readXLSX(r)
		price = parseCellPrice
	case CSV:
		records, err = readCSV(r)
	}
	if err != nil {
		return nil, &pricedash.ParseError{File: name, Err: err}
	}
	return toTable(name, records, price)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	// raw values: the display text is rounded and grouped by the cell's number format
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

// header names accepted for each column; the Portuguese names come from the
// legacy export.
var (
	titleHeaders = []string{"title", "titulo", "título", "name", "product"}
	priceHeaders = []string{"price", "preco", "preço", "value"}
)

func toTable(name string, records [][]string, readPrice func(string) (float64, error)) (pricedash.ProductTable, error) {
	table := pricedash.ProductTable{}
	if len(records) == 0 {
		return table, nil
	}

	titleCol, priceCol, hasHeader := columns(records[0])
	start := 0
	if hasHeader || unnamedHeader(records[0], readPrice) {
		start = 1
	}

	for i := start; i < len(records); i++ {
		line := i + 1
		rec := records[i]
		if blank(rec) {
			continue
		}
		if len(rec) <= max(titleCol, priceCol) {
			return nil, &pricedash.ParseError{File: name, Line: line, Err: errNoColumns}
		}
		title := strings.TrimSpace(rec[titleCol])
		if title == "" {
			return nil, &pricedash.ParseError{File: name, Line: line, Err: errors.New("empty title")}
		}
		price, err := readPrice(rec[priceCol])
		if err != nil {
			return nil, &pricedash.ParseError{File: name, Line: line, Err: err}
		}
		table = append(table, pricedash.ProductRow{Title: title, Price: price})
	}
	return table, nil
}

// columns locates the title and price columns in a candidate header row.
// Without both names it falls back to the first two columns.
func columns(header []string) (titleCol, priceCol int, ok bool) {
	titleCol, priceCol = -1, -1
	for i, cell := range header {
		h := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case titleCol < 0 && slices.Contains(titleHeaders, h):
			titleCol = i
		case priceCol < 0 && slices.Contains(priceHeaders, h):
			priceCol = i
		}
	}
	if titleCol < 0 || priceCol < 0 {
		return 0, 1, false
	}
	return titleCol, priceCol, true
}

// unnamedHeader reports whether a first row without known column names is
// still a header: its title cell is filled but its price cell is not a number.
func unnamedHeader(first []string, readPrice func(string) (float64, error)) bool {
	if len(first) < 2 || strings.TrimSpace(first[0]) == "" {
		return false
	}
	_, err := readPrice(first[1])
	return err != nil
}

// parsePrice accepts plain decimals, a leading currency marker and grouped
// digits in either convention: "1,234.50" and "R$ 1.234,50" both read as
// 1234.5. When both separators appear the later one is the decimal mark. A
// lone separator followed by exactly three digits ("1.234") could be either,
// so it is rejected.
func parsePrice(s string) (float64, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimPrefix(v, "R$")
	v = strings.TrimPrefix(v, "$")
	v = strings.TrimSpace(v)

	n, err := normalizeDecimal(v)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	p, err := strconv.ParseFloat(n, 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return p, nil
}

// parseCellPrice reads a raw workbook value. Numeric cells arrive as plain
// decimals; text cells fall back to parsePrice.
func parseCellPrice(s string) (float64, error) {
	p, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err == nil && !math.IsNaN(p) && !math.IsInf(p, 0) {
		return p, nil
	}
	return parsePrice(s)
}

var (
	errAmbiguous = errors.New("ambiguous separator, write the decimals explicitly (1234.00 or 1234,00)")
	errGrouping  = errors.New("malformed digit grouping")
)

// normalizeDecimal rewrites v so strconv.ParseFloat reads it: thousands
// separators are dropped and the decimal mark becomes a dot.
func normalizeDecimal(v string) (string, error) {
	sign := ""
	if strings.HasPrefix(v, "-") || strings.HasPrefix(v, "+") {
		sign, v = v[:1], v[1:]
	}
	dot, comma := strings.LastIndex(v, "."), strings.LastIndex(v, ",")

	switch {
	case dot < 0 && comma < 0:
		return sign + v, nil
	case dot >= 0 && comma >= 0:
		mark, group := ".", ","
		if comma > dot {
			mark, group = ",", "."
		}
		if strings.Count(v, mark) > 1 {
			return "", errGrouping
		}
		i := strings.LastIndex(v, mark)
		if !grouped(v[:i], group) {
			return "", errGrouping
		}
		return sign + strings.ReplaceAll(v[:i], group, "") + "." + v[i+1:], nil
	}

	sep := "."
	if comma >= 0 {
		sep = ","
	}
	if strings.Count(v, sep) > 1 {
		if !grouped(v, sep) {
			return "", errGrouping
		}
		return sign + strings.ReplaceAll(v, sep, ""), nil
	}
	i := strings.Index(v, sep)
	if len(v)-i-1 == 3 && grouped(v, sep) {
		return "", errAmbiguous
	}
	return sign + v[:i] + "." + v[i+1:], nil
}

// grouped reports whether v is digits split by sep into thousands groups:
// a leading group of one to three digits not starting with zero, then groups
// of exactly three.
func grouped(v, sep string) bool {
	parts := strings.Split(v, sep)
	if len(parts) < 2 {
		return false
	}
	for i, p := range parts {
		if !digits(p) {
			return false
		}
		switch {
		case i == 0 && (len(p) > 3 || p[0] == '0'):
			return false
		case i > 0 && len(p) != 3:
			return false
		}
	}
	return true
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
