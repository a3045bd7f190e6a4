package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "consolidator/internal/errors"
	"consolidator/internal/middleware"
	"consolidator/internal/services"
	"consolidator/internal/shipment"
	api "consolidator/pkg/contracts/api/v1"
)

// Multipart field names
const (
	FormFile         = "file"
	FormOrigins      = "origins"
	FormDestinations = "destinations"
	FormGranularity  = "granularity"
)

// XLSXContentType is the media type of exported workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// AnalysisServiceInterface defines the analysis operations the handler needs
type AnalysisServiceInterface interface {
	Analyze(ctx context.Context, in services.AnalysisInput) (*shipment.Report, error)
	AnalyzeUpload(ctx context.Context, filename string, r io.Reader, params services.UploadParams) (*shipment.Report, error)
	WriteWorkbook(ctx context.Context, report *shipment.Report, w io.Writer) error
}

// AnalysisHandler handles analysis requests with RFC 7807 errors
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	validator    *middleware.Validator
	query        *middleware.QueryParamValidator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisServiceInterface, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{
		service:      service,
		validator:    validator,
		query:        middleware.NewQueryParamValidator(errorHandler),
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "analysis_handler")),
	}
}

// Routes returns the analysis routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(middleware.ContentTypeValidator(h.errorHandler, "application/json")).
		Post("/", h.Analyze)

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data"))
		r.Post("/upload", h.Upload)
		r.Post("/export", h.Export)
	})

	return r
}

// Analyze handles POST /api/v1/analysis
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req api.AnalysisRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, decodeError(err))
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	records, err := toRecords(req.Records)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "analysis requested",
		slog.String("request_id", chimw.GetReqID(r.Context())),
		slog.Int("records", len(records)),
		slog.Any("origins", req.Origins),
		slog.Any("destinations", req.Destinations))

	report, err := h.service.Analyze(r.Context(), services.AnalysisInput{
		Records:     records,
		Filter:      shipment.Filter{Origins: req.Origins, Destinations: req.Destinations},
		Granularity: mustGranularity(req.Granularity),
		Source:      services.SourceJSON,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// Upload handles POST /api/v1/analysis/upload
func (h *AnalysisHandler) Upload(w http.ResponseWriter, r *http.Request) {
	report, ok := h.analyzeUpload(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, report)
}

// Export handles POST /api/v1/analysis/export. The response is the report
// as an XLSX workbook.
func (h *AnalysisHandler) Export(w http.ResponseWriter, r *http.Request) {
	report, ok := h.analyzeUpload(w, r)
	if !ok {
		return
	}

	// Buffer the workbook so a failure can still produce a problem response.
	var buf bytes.Buffer
	if err := h.service.WriteWorkbook(r.Context(), report, &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filename := fmt.Sprintf("consolidation-report-%s.xlsx", report.GeneratedAt.Format("20060102-150405"))
	w.Header().Set("Content-Type", XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write workbook response",
			slog.String("error", err.Error()))
	}
}

// analyzeUpload reads the multipart form and runs the analysis. On failure
// the error response has been written and ok is false.
func (h *AnalysisHandler) analyzeUpload(w http.ResponseWriter, r *http.Request) (*shipment.Report, bool) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.errorHandler.HandleError(w, r, decodeError(err))
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(FormFile)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.errorHandler.HandleError(w, r, apierrors.ErrMissingFile)
			return nil, false
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return nil, false
	}
	defer file.Close()

	params := api.UploadParams{
		Origins:      formList(r.MultipartForm, FormOrigins),
		Destinations: formList(r.MultipartForm, FormDestinations),
		Granularity:  strings.TrimSpace(r.FormValue(FormGranularity)),
	}
	if err := h.validator.ValidateStruct(params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	}

	granularity := mustGranularity(params.Granularity)
	if granularity == "" {
		// Query string fallback, e.g. /export?granularity=Month
		g, ok := h.query.ValidateGranularity(w, r, FormGranularity, "")
		if !ok {
			return nil, false
		}
		granularity = g
	}

	h.logger.InfoContext(r.Context(), "analysis upload received",
		slog.String("request_id", chimw.GetReqID(r.Context())),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
		slog.String("granularity", string(granularity)))

	report, err := h.service.AnalyzeUpload(r.Context(), filepath.Base(header.Filename), file, services.UploadParams{
		Filter:      shipment.Filter{Origins: params.Origins, Destinations: params.Destinations},
		Granularity: granularity,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	}
	return report, true
}

// toRecords converts request DTOs into engine records. Dates have already
// passed the ddmmyyyy validator.
func toRecords(reqs []api.ShipmentRecordRequest) ([]shipment.ShipmentRecord, error) {
	records := make([]shipment.ShipmentRecord, 0, len(reqs))
	for i, req := range reqs {
		var (
			rec = shipment.ShipmentRecord{
				POL:          strings.TrimSpace(req.POL),
				POD:          strings.TrimSpace(req.POD),
				ShipmentType: strings.TrimSpace(req.ShipmentType),
				Movement:     strings.TrimSpace(req.Movement),
			}
			err error
		)
		if req.VolumeCBM != nil {
			rec.VolumeCBM = *req.VolumeCBM
		}
		if rec.ETS, err = parseDate(req.ETS); err != nil {
			return nil, apierrors.ErrValidation(fmt.Sprintf("records[%d].ets", i), "must be a date in DD/MM/YYYY format")
		}
		if rec.ETA, err = parseDate(req.ETA); err != nil {
			return nil, apierrors.ErrValidation(fmt.Sprintf("records[%d].eta", i), "must be a date in DD/MM/YYYY format")
		}
		if rec.ATA, err = parseDate(req.ATA); err != nil {
			return nil, apierrors.ErrValidation(fmt.Sprintf("records[%d].ata", i), "must be a date in DD/MM/YYYY format")
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseDate parses a DD/MM/YYYY date. Empty means absent.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(middleware.DateLayout, s)
}

// mustGranularity parses a granularity the validator has accepted
func mustGranularity(s string) shipment.Granularity {
	if s == "" {
		return ""
	}
	g, err := shipment.ParseGranularity(s)
	if err != nil {
		return ""
	}
	return g
}

// formList collects comma-separated values across repeated form fields
func formList(form *multipart.Form, field string) []string {
	if form == nil {
		return nil
	}
	var out []string
	for _, value := range form.Value[field] {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// decodeError keeps body size errors intact so they map to 413
func decodeError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return err
	}
	return apierrors.InvalidRequestWithError(err)
}
