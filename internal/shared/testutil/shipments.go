package testutil

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"consolidator/internal/shipment"
)

// SampleHeader is the column order used by SampleCSV and SampleXLSX.
var SampleHeader = []string{"POL", "POD", "ETS", "ETA", "ATA", "Shipment Type", "Movement", "Volume in cbm"}

// SampleCSV is a five-row shipment export. The CNSHA-NLRTM Carriers LCL lane
// averages 20.5 CBM per week; the last row arrives before it departs.
const SampleCSV = `POL,POD,ETS,ETA,ATA,Shipment Type,Movement,Volume in cbm
CNSHA,NLRTM,02/01/2024,20/01/2024,01/02/2024,Carriers LCL,Gateway Rotterdam,22
CNSHA,NLRTM,09/01/2024,27/01/2024,09/02/2024,Carriers LCL,Gateway Rotterdam,19
CNSHA,NLRTM,02/01/2024,20/01/2024,30/01/2024,LCL,CFS-CFS,6
CNSHA,DEHAM,16/01/2024,10/02/2024,,LCL,CFS-CFS,12.5
SGSIN,DEHAM,06/02/2024,01/03/2024,04/02/2024,LCL,Gateway Hamburg,50
`

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SampleRecords returns the records SampleCSV parses to.
func SampleRecords() []shipment.ShipmentRecord {
	return []shipment.ShipmentRecord{
		{POL: "CNSHA", POD: "NLRTM", ETS: day(2024, 1, 2), ETA: day(2024, 1, 20), ATA: day(2024, 2, 1), ShipmentType: shipment.TypeCarriersLCL, Movement: "Gateway Rotterdam", VolumeCBM: 22},
		{POL: "CNSHA", POD: "NLRTM", ETS: day(2024, 1, 9), ETA: day(2024, 1, 27), ATA: day(2024, 2, 9), ShipmentType: shipment.TypeCarriersLCL, Movement: "Gateway Rotterdam", VolumeCBM: 19},
		{POL: "CNSHA", POD: "NLRTM", ETS: day(2024, 1, 2), ETA: day(2024, 1, 20), ATA: day(2024, 1, 30), ShipmentType: shipment.TypeLCL, Movement: "CFS-CFS", VolumeCBM: 6},
		{POL: "CNSHA", POD: "DEHAM", ETS: day(2024, 1, 16), ETA: day(2024, 2, 10), ShipmentType: shipment.TypeLCL, Movement: "CFS-CFS", VolumeCBM: 12.5},
		{POL: "SGSIN", POD: "DEHAM", ETS: day(2024, 2, 6), ETA: day(2024, 3, 1), ATA: day(2024, 2, 4), ShipmentType: shipment.TypeLCL, Movement: "Gateway Hamburg", VolumeCBM: 50},
	}
}

// SampleXLSX builds a workbook holding rows under SampleHeader on a sheet
// named sheet. Dates are written as DD/MM/YYYY strings.
func SampleXLSX(t *testing.T, sheet string, records []shipment.ShipmentRecord) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" && sheet != f.GetSheetName(0) {
		if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
	}
	name := f.GetSheetName(0)

	if err := f.SetSheetRow(name, "A1", &SampleHeader); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for i, r := range records {
		row := []interface{}{r.POL, r.POD, ddmmyyyy(r.ETS), ddmmyyyy(r.ETA), ddmmyyyy(r.ATA), r.ShipmentType, r.Movement, r.VolumeCBM}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			t.Fatalf("write row %d: %v", i, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func ddmmyyyy(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}
