package dataprocessing

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"consolidator/internal/config"
	"consolidator/internal/shipment"
)

var (
	// ErrMissingColumn is returned when the header row lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrNoHeader is returned for an input without any non-empty row.
	ErrNoHeader = errors.New("no header row found")
	// ErrTooManyRecords is returned when the input exceeds the parser's record limit.
	ErrTooManyRecords = errors.New("too many records")
	// ErrUnsupportedFormat is returned by Parse for an unknown file extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	errEmptyValue = errors.New("value is required")
)

const utf8BOM = "\ufeff"

// Column identifies a logical input column.
type Column string

const (
	ColumnPOL          Column = "POL"
	ColumnPOD          Column = "POD"
	ColumnETS          Column = "ETS"
	ColumnETA          Column = "ETA"
	ColumnATA          Column = "ATA"
	ColumnShipmentType Column = "Shipment Type"
	ColumnMovement     Column = "Movement"
	ColumnVolume       Column = "Volume in cbm"
)

// requiredColumns must all be present in the header row.
var requiredColumns = []Column{ColumnPOL, ColumnPOD, ColumnETS, ColumnShipmentType, ColumnVolume}

// headerAliases maps normalized header text to its column.
var headerAliases = map[string]Column{
	"pol":               ColumnPOL,
	"port of loading":   ColumnPOL,
	"pod":               ColumnPOD,
	"port of discharge": ColumnPOD,
	"ets":               ColumnETS,
	"etd":               ColumnETS,
	"eta":               ColumnETA,
	"ata":               ColumnATA,
	"shipment type":     ColumnShipmentType,
	"type":              ColumnShipmentType,
	"movement":          ColumnMovement,
	"movement type":     ColumnMovement,
	"volume in cbm":     ColumnVolume,
	"volume (cbm)":      ColumnVolume,
	"volume":            ColumnVolume,
	"cbm":               ColumnVolume,
}

// dateLayouts are tried in order. Day-first is the primary input format.
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2/1/2006 15:04",
}

// groupedNumber matches comma thousands separators such as 1,250.5. A comma
// anywhere else, as in a decimal comma, is rejected.
var groupedNumber = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseError reports a cell that could not be converted.
type ParseError struct {
	Row    int
	Column Column
	Value  string
	Err    error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d, column %q: cannot parse %q: %v", e.Row, e.Column, e.Value, e.Err)
}

// Unwrap returns the underlying conversion error
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parser converts tabular shipment exports into shipment records.
type Parser struct {
	logger     *slog.Logger
	maxRecords int
}

// ParserOption configures a Parser
type ParserOption func(*Parser)

// WithMaxRecords caps the number of data rows. Zero means unlimited.
func WithMaxRecords(n int) ParserOption {
	return func(p *Parser) {
		p.maxRecords = n
	}
}

// NewParser creates a parser. A nil logger falls back to slog.Default.
func NewParser(logger *slog.Logger, opts ...ParserOption) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Parser{logger: logger.With(slog.String("component", "parser"))}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseCSV reads shipment records from CSV text using a default parser.
func ParseCSV(r io.Reader) ([]shipment.ShipmentRecord, error) {
	return NewParser(nil).ParseCSV(r)
}

// ParseXLSX reads shipment records from an Excel workbook using a default parser.
func ParseXLSX(r io.Reader) ([]shipment.ShipmentRecord, error) {
	return NewParser(nil).ParseXLSX(r)
}

// ParseFile opens path and parses it according to its extension.
func ParseFile(path string) ([]shipment.ShipmentRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return NewParser(nil).Parse(filepath.Base(path), f)
}

// Parse dispatches on the file name extension: .csv or .xlsx.
func (p *Parser) Parse(name string, r io.Reader) ([]shipment.ShipmentRecord, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case config.CSVExtension:
		return p.ParseCSV(r)
	case config.XLSXExtension:
		return p.ParseXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// ParseCSV reads a header row followed by data rows. Rows may be ragged.
func (p *Parser) ParseCSV(r io.Reader) ([]shipment.ShipmentRecord, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && string(bom) == utf8BOM {
		br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	p.logger.Debug("CSV read", slog.Int("rows", len(rows)))

	return p.parseRows(rows, nil)
}

// ParseXLSX reads the "Shipments" sheet, or the first sheet when absent.
func (p *Parser) ParseXLSX(r io.Reader) ([]shipment.ShipmentRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := config.ShipmentSheet
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoHeader
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	p.logger.Debug("Workbook read", slog.String("sheet", sheet), slog.Int("rows", len(rows)))

	return p.parseRows(rows, excelSerialDate)
}

// parseRows maps the first non-empty row as header and converts the rest.
// serial, when set, converts numeric date cells.
func (p *Parser) parseRows(rows [][]string, serial func(string) (time.Time, bool)) ([]shipment.ShipmentRecord, error) {
	headerRow := -1
	for i, row := range rows {
		if !isBlank(row) {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, ErrNoHeader
	}

	columns, err := mapColumns(rows[headerRow])
	if err != nil {
		return nil, err
	}

	records := make([]shipment.ShipmentRecord, 0, len(rows)-headerRow-1)
	skipped := 0
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			skipped++
			continue
		}
		if p.maxRecords > 0 && len(records) >= p.maxRecords {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRecords, p.maxRecords)
		}

		rec, err := convertRow(row, i+1, columns, serial)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	p.logger.Info("Shipment records parsed",
		slog.Int("records", len(records)),
		slog.Int("blank_rows", skipped))
	return records, nil
}

// mapColumns locates each known column in the header row.
func mapColumns(header []string) (map[Column]int, error) {
	columns := make(map[Column]int)
	for i, cell := range header {
		col, ok := headerAliases[normalizeHeader(cell)]
		if !ok {
			continue
		}
		if _, seen := columns[col]; !seen {
			columns[col] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, string(col))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return columns, nil
}

func convertRow(row []string, rowNum int, columns map[Column]int, serial func(string) (time.Time, bool)) (shipment.ShipmentRecord, error) {
	cell := func(col Column) string {
		idx, ok := columns[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rec shipment.ShipmentRecord
	rec.POL = cell(ColumnPOL)
	rec.POD = cell(ColumnPOD)
	rec.ShipmentType = cell(ColumnShipmentType)
	rec.Movement = cell(ColumnMovement)

	dates := []struct {
		col Column
		dst *time.Time
	}{
		{ColumnETS, &rec.ETS},
		{ColumnETA, &rec.ETA},
		{ColumnATA, &rec.ATA},
	}
	for _, d := range dates {
		raw := cell(d.col)
		t, err := parseDate(raw, serial)
		if err != nil {
			return rec, &ParseError{Row: rowNum, Column: d.col, Value: raw, Err: err}
		}
		*d.dst = t
	}

	raw := cell(ColumnVolume)
	vol, err := parseVolume(raw)
	if err != nil {
		return rec, &ParseError{Row: rowNum, Column: ColumnVolume, Value: raw, Err: err}
	}
	rec.VolumeCBM = vol

	return rec, nil
}

// parseDate returns the zero time for an empty cell.
func parseDate(s string, serial func(string) (time.Time, bool)) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial != nil {
		if t, ok := serial(s); ok {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("expected DD/MM/YYYY")
}

func parseVolume(s string) (float64, error) {
	if s == "" {
		return 0, errEmptyValue
	}
	if strings.Contains(s, ",") {
		if !groupedNumber.MatchString(s) {
			return 0, fmt.Errorf("ambiguous comma, expected thousands groups like 1,250.5")
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return v, nil
}

// excelSerialDate converts an Excel date serial such as "45293" to a date.
func excelSerialDate(s string) (time.Time, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, utf8BOM)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
