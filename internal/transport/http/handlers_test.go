package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"consolidator/internal/config"
	apierrors "consolidator/internal/errors"
	"consolidator/internal/middleware"
	"consolidator/internal/services"
	"consolidator/internal/shared/testutil"
	"consolidator/internal/shipment"
	api "consolidator/pkg/contracts/api/v1"
)

// MockAnalysisService is a mock implementation of AnalysisServiceInterface
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Analyze(ctx context.Context, in services.AnalysisInput) (*shipment.Report, error) {
	args := m.Called(in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipment.Report), args.Error(1)
}

func (m *MockAnalysisService) AnalyzeUpload(ctx context.Context, filename string, r io.Reader, params services.UploadParams) (*shipment.Report, error) {
	args := m.Called(filename, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipment.Report), args.Error(1)
}

func (m *MockAnalysisService) WriteWorkbook(ctx context.Context, report *shipment.Report, w io.Writer) error {
	args := m.Called(report)
	if data, ok := args.Get(0).([]byte); ok {
		_, _ = w.Write(data)
	}
	return args.Error(1)
}

func newTestRouter(t *testing.T, svc AnalysisServiceInterface) chi.Router {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	eh := apierrors.NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.Mount("/analysis", NewAnalysisHandler(svc, middleware.NewValidator(logger), eh, logger).Routes())
	return r
}

func uploadRequest(t *testing.T, path string, fields map[string][]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(FormFile, "../../shipments.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(testutil.SampleCSV))
	require.NoError(t, err)
	for k, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAnalysisHandler_Analyze(t *testing.T) {
	svc := new(MockAnalysisService)
	report := &shipment.Report{Granularity: shipment.GranularityYear, AnalyzedRecords: 1}

	svc.On("Analyze", mock.MatchedBy(func(in services.AnalysisInput) bool {
		return len(in.Records) == 1 &&
			in.Records[0].POL == "CNSHA" &&
			in.Records[0].ETS.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) &&
			in.Records[0].ATA.IsZero() &&
			in.Records[0].VolumeCBM == 0 &&
			in.Granularity == shipment.GranularityYear &&
			in.Source == services.SourceJSON &&
			assert.ObjectsAreEqual([]string{"NLRTM"}, in.Filter.Destinations)
	})).Return(report, nil)

	body := `{"records":[{"pol":" CNSHA ","pod":"NLRTM","ets":"02/01/2024","shipment_type":"LCL","volume_cbm":0}],
		"destinations":["NLRTM"],"granularity":"YEAR"}`
	req := httptest.NewRequest(http.MethodPost, "/analysis", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Year", got["granularity"])
	svc.AssertExpectations(t)
}

// The record count is bounded by the service's configured limit, not by the
// request contract.
func TestAnalysisRequest_RecordCountUnbounded(t *testing.T) {
	volume := 1.0
	rec := api.ShipmentRecordRequest{
		POL: "CNSHA", POD: "NLRTM", ETS: "02/01/2024", ShipmentType: "LCL", VolumeCBM: &volume,
	}
	records := make([]api.ShipmentRecordRequest, config.DefaultMaxRecords+1)
	for i := range records {
		records[i] = rec
	}

	v := middleware.NewValidator(nil)
	assert.NoError(t, v.ValidateStruct(api.AnalysisRequest{Records: records}))
}

func TestAnalysisHandler_Analyze_VolumeRequired(t *testing.T) {
	svc := new(MockAnalysisService)

	body := `{"records":[{"pol":"CNSHA","pod":"NLRTM","ets":"02/01/2024","shipment_type":"LCL"}]}`
	req := httptest.NewRequest(http.MethodPost, "/analysis", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "records[0].volume_cbm")
	svc.AssertNotCalled(t, "Analyze", mock.Anything)
}

func TestAnalysisHandler_Analyze_ServiceError(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("Analyze", mock.Anything).Return(nil, context.DeadlineExceeded)

	req := httptest.NewRequest(http.MethodPost, "/analysis", strings.NewReader(`{"records":[]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestAnalysisHandler_Upload_FormParams(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("AnalyzeUpload", "shipments.csv", services.UploadParams{
		Filter: shipment.Filter{
			Origins:      []string{"CNSHA", "SGSIN", "KRPUS"},
			Destinations: []string{"DEHAM"},
		},
		Granularity: shipment.GranularityMonth,
	}).Return(&shipment.Report{}, nil)

	req := uploadRequest(t, "/analysis/upload", map[string][]string{
		FormOrigins:      {"CNSHA, SGSIN", "KRPUS,"},
		FormDestinations: {"DEHAM"},
		FormGranularity:  {"Month"},
	})
	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_Upload_QueryGranularity(t *testing.T) {
	svc := new(MockAnalysisService)

	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, uploadRequest(t, "/analysis/upload?granularity=hourly", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "granularity")
	svc.AssertNotCalled(t, "AnalyzeUpload", mock.Anything, mock.Anything)
}

func TestAnalysisHandler_Upload_WrongContentType(t *testing.T) {
	svc := new(MockAnalysisService)

	req := httptest.NewRequest(http.MethodPost, "/analysis/upload", strings.NewReader(testutil.SampleCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestAnalysisHandler_Export(t *testing.T) {
	svc := new(MockAnalysisService)
	report := &shipment.Report{GeneratedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)}
	svc.On("AnalyzeUpload", "shipments.csv", mock.Anything).Return(report, nil)
	svc.On("WriteWorkbook", report).Return([]byte("PK-workbook"), nil)

	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, uploadRequest(t, "/analysis/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, XLSXContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="consolidation-report-20240301-093000.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "11", rec.Header().Get("Content-Length"))
	assert.Equal(t, "PK-workbook", rec.Body.String())
}

func TestAnalysisHandler_Export_WorkbookFailure(t *testing.T) {
	svc := new(MockAnalysisService)
	report := &shipment.Report{}
	svc.On("AnalyzeUpload", mock.Anything, mock.Anything).Return(report, nil)
	svc.On("WriteWorkbook", report).Return([]byte("partial"), errors.New("disk full"))

	rec := httptest.NewRecorder()
	newTestRouter(t, svc).ServeHTTP(rec, uploadRequest(t, "/analysis/export", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "partial")
}

func TestFormList(t *testing.T) {
	form := &multipart.Form{Value: map[string][]string{
		"origins": {" CNSHA ,SGSIN", "", ",KRPUS"},
	}}
	assert.Equal(t, []string{"CNSHA", "SGSIN", "KRPUS"}, formList(form, "origins"))
	assert.Nil(t, formList(form, "destinations"))
	assert.Nil(t, formList(nil, "origins"))
}

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewHealthHandler(services.NewHealthService("9.9.9", logger), logger)

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, "9.9.9", got["version"])
}

func TestMetricsHandler(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "analysis_runs_total 3\n")
	})

	rec := httptest.NewRecorder()
	NewMetricsHandler(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "analysis_runs_total 3\n", rec.Body.String())

	rec = httptest.NewRecorder()
	NewMetricsHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
