package dataprocessing

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"consolidator/internal/shared/testutil"
	"consolidator/internal/shipment"
)

func TestParseCSV(t *testing.T) {
	records, err := ParseCSV(strings.NewReader(testutil.SampleCSV))
	require.NoError(t, err)
	assert.Equal(t, testutil.SampleRecords(), records)
}

func TestParseCSV_HeaderVariants(t *testing.T) {
	input := "\ufeff  volume   in CBM ,Remarks,pod,POL,Shipment type,etd\n" +
		"\"1,250.5\",urgent,NLRTM,CNSHA,LCL,5/3/2024\n"

	records, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "CNSHA", r.POL)
	assert.Equal(t, "NLRTM", r.POD)
	assert.Equal(t, shipment.TypeLCL, r.ShipmentType)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), r.ETS)
	assert.True(t, r.ETA.IsZero())
	assert.True(t, r.ATA.IsZero())
	assert.Empty(t, r.Movement)
	assert.Equal(t, 1250.5, r.VolumeCBM)
}

func TestParseCSV_SkipsBlankRows(t *testing.T) {
	input := ",,,,\nPOL,POD,ETS,Shipment Type,Volume in cbm\n,,,,\nCNSHA,NLRTM,02/01/2024,LCL,3\n"

	records, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3.0, records[0].VolumeCBM)
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantIs    error
		wantRow   int
		wantCol   Column
		wantValue string
	}{
		{
			name:   "missing volume column",
			input:  "POL,POD,ETS,Shipment Type\nCNSHA,NLRTM,02/01/2024,LCL\n",
			wantIs: ErrMissingColumn,
		},
		{
			name:   "empty input",
			input:  "",
			wantIs: ErrNoHeader,
		},
		{
			name:      "bad date",
			input:     "POL,POD,ETS,Shipment Type,Volume in cbm\nCNSHA,NLRTM,2024/13/45,LCL,3\n",
			wantRow:   2,
			wantCol:   ColumnETS,
			wantValue: "2024/13/45",
		},
		{
			name:      "bad volume",
			input:     "POL,POD,ETS,Shipment Type,Volume in cbm\nCNSHA,NLRTM,02/01/2024,LCL,3\nCNSHA,NLRTM,02/01/2024,LCL,lots\n",
			wantRow:   3,
			wantCol:   ColumnVolume,
			wantValue: "lots",
		},
		{
			name:      "decimal comma volume",
			input:     "POL,POD,ETS,Shipment Type,Volume in cbm\nCNSHA,NLRTM,02/01/2024,LCL,\"1,5\"\n",
			wantRow:   2,
			wantCol:   ColumnVolume,
			wantValue: "1,5",
		},
		{
			name:      "short comma group",
			input:     "POL,POD,ETS,Shipment Type,Volume in cbm\nCNSHA,NLRTM,02/01/2024,LCL,\"12,34\"\n",
			wantRow:   2,
			wantCol:   ColumnVolume,
			wantValue: "12,34",
		},
		{
			name:      "NaN volume",
			input:     "POL,POD,ETS,Shipment Type,Volume in cbm\nCNSHA,NLRTM,02/01/2024,LCL,NaN\n",
			wantRow:   2,
			wantCol:   ColumnVolume,
			wantValue: "NaN",
		},
		{
			name:      "infinite volume",
			input:     "POL,POD,ETS,Shipment Type,Volume in cbm\nCNSHA,NLRTM,02/01/2024,LCL,+Inf\n",
			wantRow:   2,
			wantCol:   ColumnVolume,
			wantValue: "+Inf",
		},
		{
			name:      "empty volume",
			input:     "POL,POD,ETS,Shipment Type,Volume in cbm\nCNSHA,NLRTM,02/01/2024,LCL,\n",
			wantRow:   2,
			wantCol:   ColumnVolume,
			wantValue: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ParseCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Nil(t, records)

			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
				return
			}
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantRow, perr.Row)
			assert.Equal(t, tt.wantCol, perr.Column)
			assert.Equal(t, tt.wantValue, perr.Value)
		})
	}
}

func TestParseVolume_ThousandsGroups(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"18", 18},
		{"44.999", 44.999},
		{"1,250.5", 1250.5},
		{"12,345,678", 12345678},
		{"-1,000", -1000},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseVolume(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"1,5", "12,34", "1,2345", ",250", "1,250,", "1.250,5"} {
		_, err := parseVolume(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseCSV_MissingColumnNamesAll(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("POL,ETA\n"))
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "POD, ETS, Shipment Type, Volume in cbm")
}

func TestParser_MaxRecords(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	p := NewParser(logger, WithMaxRecords(4))
	_, err := p.ParseCSV(strings.NewReader(testutil.SampleCSV))
	assert.ErrorIs(t, err, ErrTooManyRecords)

	p = NewParser(logger, WithMaxRecords(5))
	records, err := p.ParseCSV(strings.NewReader(testutil.SampleCSV))
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestParseXLSX(t *testing.T) {
	t.Run("named sheet", func(t *testing.T) {
		data := testutil.SampleXLSX(t, "Shipments", testutil.SampleRecords())

		records, err := ParseXLSX(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, testutil.SampleRecords(), records)
	})

	t.Run("first sheet fallback", func(t *testing.T) {
		data := testutil.SampleXLSX(t, "Export", testutil.SampleRecords()[:2])

		records, err := ParseXLSX(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, testutil.SampleRecords()[:2], records)
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := ParseXLSX(strings.NewReader("POL,POD\n"))
		assert.Error(t, err)
	})
}

func TestParseXLSX_SerialDates(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := []interface{}{"POL", "POD", "ETS", "Shipment Type", "Volume in cbm"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	// 45293 is 2 January 2024 in the 1900 date system.
	row := []interface{}{"CNSHA", "NLRTM", 45293, "LCL", 7.25}
	require.NoError(t, f.SetSheetRow(sheet, "A2", &row))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	records, err := ParseXLSX(&buf)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), records[0].ETS)
	assert.Equal(t, 7.25, records[0].VolumeCBM)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "shipments.CSV")
	require.NoError(t, os.WriteFile(csvPath, []byte(testutil.SampleCSV), 0o644))
	records, err := ParseFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, records, 5)

	xlsxPath := filepath.Join(dir, "shipments.xlsx")
	require.NoError(t, os.WriteFile(xlsxPath, testutil.SampleXLSX(t, "Shipments", testutil.SampleRecords()), 0o644))
	records, err = ParseFile(xlsxPath)
	require.NoError(t, err)
	assert.Len(t, records, 5)

	txtPath := filepath.Join(dir, "shipments.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte(testutil.SampleCSV), 0o644))
	_, err = ParseFile(txtPath)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ParseFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}
