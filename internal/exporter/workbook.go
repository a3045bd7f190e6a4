package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"consolidator/internal/shipment"
)

// WriteWorkbook writes the report as an Excel workbook with one sheet per
// table, in the order returned by Tables. Undefined metrics are empty cells.
func WriteWorkbook(report *shipment.Report, w io.Writer) error {
	if report == nil {
		return fmt.Errorf("nil report")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	defaultSheet := f.GetSheetName(0)
	for i, t := range Tables(report) {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.Sheet); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Sheet); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", t.Sheet, err)
		}

		if err := writeSheet(f, t, headerStyle); err != nil {
			return fmt.Errorf("failed to write sheet %q: %w", t.Sheet, err)
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, t Table, headerStyle int) error {
	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Sheet, "A1", &header); err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(t.Headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.Sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range t.Rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = workbookValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Sheet, cell, &values); err != nil {
			return err
		}
	}

	return f.SetPanes(t.Sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
