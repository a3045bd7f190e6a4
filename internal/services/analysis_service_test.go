package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"consolidator/internal/config"
	apperrors "consolidator/internal/errors"
	"consolidator/internal/infrastructure"
	"consolidator/internal/shared/testutil"
	"consolidator/internal/shipment"
)

type serviceFixture struct {
	service *AnalysisService
	spans   *tracetest.SpanRecorder
	reader  *sdkmetric.ManualReader
}

func newServiceFixture(t *testing.T, mutate func(*config.AnalysisConfig)) *serviceFixture {
	t.Helper()

	cfg := config.Default().Analysis
	if mutate != nil {
		mutate(&cfg)
	}

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := infrastructure.CreateAnalysisMetrics(mp.Meter("test"))
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	return &serviceFixture{
		service: NewAnalysisService(cfg, logger,
			WithTracer(tp.Tracer("test")),
			WithMetrics(metrics)),
		spans:  spans,
		reader: reader,
	}
}

// counter sums every data point of an int64 counter
func (f *serviceFixture) counter(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func (f *serviceFixture) spanNames() []string {
	var names []string
	for _, s := range f.spans.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func TestAnalysisService_Analyze(t *testing.T) {
	f := newServiceFixture(t, nil)

	report, err := f.service.Analyze(context.Background(), AnalysisInput{Records: testutil.SampleRecords()})
	require.NoError(t, err)

	assert.Equal(t, shipment.GranularityWeek, report.Granularity)
	assert.Equal(t, 5, report.AnalyzedRecords)
	assert.Equal(t, 1, report.Lanes.Metrics.ConsolidationLanes)
	assert.Equal(t, 2, report.Lanes.Metrics.CoLoadLanes)

	assert.Equal(t, []string{"analysis.run"}, f.spanNames())
	attrs := f.spans.Ended()[0].Attributes()
	var source string
	for _, kv := range attrs {
		if kv.Key == "analysis.source" {
			source = kv.Value.AsString()
		}
	}
	assert.Equal(t, SourceJSON, source)

	assert.Equal(t, int64(1), f.counter(t, "analysis_runs_total"))
	assert.Equal(t, int64(5), f.counter(t, "analysis_records_total"))
	assert.Equal(t, int64(3), f.counter(t, "analysis_opportunities_total"))
}

func TestAnalysisService_Analyze_Filter(t *testing.T) {
	f := newServiceFixture(t, nil)

	report, err := f.service.Analyze(context.Background(), AnalysisInput{
		Records:     testutil.SampleRecords(),
		Filter:      shipment.Filter{Origins: []string{"SGSIN"}},
		Granularity: shipment.GranularityMonth,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, report.InputRecords)
	assert.Equal(t, 1, report.AnalyzedRecords)
	assert.Equal(t, shipment.GranularityMonth, report.Granularity)
}

func TestAnalysisService_Analyze_Empty(t *testing.T) {
	f := newServiceFixture(t, nil)

	report, err := f.service.Analyze(context.Background(), AnalysisInput{})
	require.NoError(t, err)
	assert.Zero(t, report.AnalyzedRecords)
	assert.Empty(t, report.Lanes.Summaries)
	assert.False(t, report.Transit.Metrics.Mean.Valid)
}

func TestAnalysisService_Analyze_TooManyRecords(t *testing.T) {
	f := newServiceFixture(t, func(c *config.AnalysisConfig) { c.MaxRecords = 2 })

	_, err := f.service.Analyze(context.Background(), AnalysisInput{Records: testutil.SampleRecords()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManyInputs)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)

	assert.Equal(t, int64(1), f.counter(t, "analysis_runs_total"))
	assert.Zero(t, f.counter(t, "analysis_records_total"))
}

func TestAnalysisService_Analyze_InvalidDataset(t *testing.T) {
	f := newServiceFixture(t, nil)

	records := testutil.SampleRecords()
	records[1].VolumeCBM = -1
	records[3].ETS = time.Time{}

	_, err := f.service.Analyze(context.Background(), AnalysisInput{Records: records})
	require.Error(t, err)
	assert.ErrorIs(t, err, shipment.ErrInvalidDataset)

	var verr *shipment.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 2, verr.Total)
}

func TestAnalysisService_Analyze_Canceled(t *testing.T) {
	f := newServiceFixture(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.Analyze(ctx, AnalysisInput{Records: testutil.SampleRecords()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalysisService_AnalyzeUpload(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		body     func(t *testing.T) []byte
	}{
		{
			name:     "csv",
			filename: "shipments.csv",
			body:     func(*testing.T) []byte { return []byte(testutil.SampleCSV) },
		},
		{
			name:     "xlsx",
			filename: "Shipments.XLSX",
			body: func(t *testing.T) []byte {
				return testutil.SampleXLSX(t, "Shipments", testutil.SampleRecords())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t, nil)

			report, err := f.service.AnalyzeUpload(context.Background(), tt.filename,
				bytes.NewReader(tt.body(t)), UploadParams{Filter: shipment.Filter{Destinations: []string{"NLRTM"}}})
			require.NoError(t, err)

			assert.Equal(t, 3, report.AnalyzedRecords)
			assert.Equal(t, 1, report.Lanes.Metrics.ConsolidationLanes)
			assert.Equal(t, []string{"analysis.parse", "analysis.run"}, f.spanNames())
		})
	}
}

func TestAnalysisService_AnalyzeUpload_Errors(t *testing.T) {
	badDate := strings.Replace(testutil.SampleCSV, "09/01/2024", "2024-13-45", 1)

	tests := []struct {
		name       string
		filename   string
		body       string
		maxRecords int
		wantType   apperrors.ErrorType
		wantRow    int
	}{
		{"unsupported extension", "shipments.txt", testutil.SampleCSV, 0, apperrors.ErrTypeUnsupported, 0},
		{"bad date", "shipments.csv", badDate, 0, apperrors.ErrTypeParsing, 3},
		{"missing column", "shipments.csv", "POL,POD\nCNSHA,NLRTM\n", 0, apperrors.ErrTypeParsing, 0},
		{"too many records", "shipments.csv", testutil.SampleCSV, 2, apperrors.ErrTypeValidation, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t, func(c *config.AnalysisConfig) { c.MaxRecords = tt.maxRecords })

			_, err := f.service.AnalyzeUpload(context.Background(), tt.filename, strings.NewReader(tt.body), UploadParams{})
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantType, appErr.Type)
			if tt.wantRow > 0 {
				assert.Equal(t, tt.wantRow, appErr.Context["row"])
			}
			assert.Zero(t, f.counter(t, "analysis_runs_total"))
		})
	}
}

func TestAnalysisService_WriteWorkbook(t *testing.T) {
	f := newServiceFixture(t, nil)

	var buf bytes.Buffer
	err := f.service.WriteWorkbook(context.Background(), nil, &buf)
	assert.True(t, errors.Is(err, ErrNilReport))

	report, err := f.service.Analyze(context.Background(), AnalysisInput{Records: testutil.SampleRecords()})
	require.NoError(t, err)
	require.NoError(t, f.service.WriteWorkbook(context.Background(), report, &buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()
	assert.Contains(t, wb.GetSheetList(), "Consolidation")
}
