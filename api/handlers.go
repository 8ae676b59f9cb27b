/*
handlers.go - HTTP API handlers for the training report service

PURPOSE:
  Exposes ingestion, storage and the reporting engine via REST API.
  Handlers parse the request, load stored runs, call the pure report
  functions and serialize the result.

ENDPOINTS:
  Records:
    POST   /api/records                 Submit raw rows as JSON
    POST   /api/records/import          Upload a CSV/XLSX feed (multipart "file")
    GET    /api/records                 List stored runs (?institution=)
    GET    /api/records/{id}            Get one run
    DELETE /api/records/{id}            Delete one run
    GET    /api/imports                 Import log

  Reports (?year=2021..2026, omitted = all years):
    GET    /api/reports/institutions                 Institution table
    GET    /api/reports/institutions/{name}/courses  Drill-down
    GET    /api/reports/yearly                       Yearly rollup
    GET    /api/reports/monthly                      Monthly rollup
    GET    /api/reports/export.xlsx                  Workbook export

  Data quality:
    GET    /api/health-check            Health report over stored runs
    GET    /api/institutions/groups     Grouping table in use

  Scenarios:
    GET    /api/scenarios               List demo datasets
    POST   /api/scenarios/load          Replace data with a demo dataset
    POST   /api/reset                   Clear all data

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, bad feeds, years outside 2021-2026
  - 404: Record not found
  - 413: Upload too large
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo datasets
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/export"
	"github.com/warp/training-report/factory"
	"github.com/warp/training-report/generic"
	"github.com/warp/training-report/health"
	"github.com/warp/training-report/ingest"
	"github.com/warp/training-report/institution"
	"github.com/warp/training-report/pipeline"
	"github.com/warp/training-report/report"
	"github.com/warp/training-report/revenue"
)

// DefaultMaxUploadBytes bounds feed uploads when the handler is not configured.
const DefaultMaxUploadBytes = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   course.Store
	Grouper *institution.Grouper
	Clock   generic.Clock
	Logger  *slog.Logger
	Metrics *Metrics

	// EligibilityDays overrides the 3-week settling period when positive.
	EligibilityDays int
	MaxUploadBytes  int64

	transformer *pipeline.Transformer
	engine      *revenue.Engine
	validate    *validator.Validate

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler over store using grouper for institution names.
// A nil clock uses the wall clock; a nil logger uses slog.Default().
func NewHandler(store course.Store, grouper *institution.Grouper, clock generic.Clock, logger *slog.Logger) *Handler {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		Store:          store,
		Grouper:        grouper,
		Clock:          clock,
		Logger:         logger.With(slog.String("component", "api")),
		Metrics:        NewMetrics(),
		MaxUploadBytes: DefaultMaxUploadBytes,
		transformer:    pipeline.NewTransformer(grouper, clock),
		engine:         revenue.NewEngine(grouper),
		validate:       v,
	}
}

func (h *Handler) today() time.Time {
	return generic.Today(h.Clock)
}

func (h *Handler) reporter() *report.Reporter {
	rep := report.NewReporter(h.engine, h.today())
	rep.EligibilityDays = h.EligibilityDays
	return rep
}

func (h *Handler) checker() *health.Checker {
	c := health.NewChecker(h.today())
	if h.EligibilityDays > 0 {
		c.EligibilityDays = h.EligibilityDays
	}
	return c
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

// CreateRecords transforms and stores raw rows posted as JSON.
func (h *Handler) CreateRecords(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	for i, raw := range req.Records {
		if raw.UniqueID.Trimmed() == "" {
			h.fail(w, r, "Invalid record", &generic.ParseError{
				Row: i + 1, Field: course.ColUniqueID, Err: errors.New("unique id is required"),
			})
			return
		}
	}

	source := req.Source
	if source == "" {
		source = "json"
	}
	resp, err := h.store(r.Context(), source, ingest.Feed{Records: req.Records})
	if err != nil {
		h.fail(w, r, "Failed to store records", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ImportRecords accepts a CSV or XLSX upload in the multipart field "file".
func (h *Handler) ImportRecords(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Metrics.ImportFailures.WithLabelValues("too_large").Inc()
			writeError(w, http.StatusRequestEntityTooLarge, "Upload too large", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart body", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field", err)
		return
	}
	defer file.Close()

	feed, err := ingest.Read(file, header.Filename)
	if err != nil {
		h.Metrics.ImportFailures.WithLabelValues(failureReason(err)).Inc()
		h.fail(w, r, "Failed to read feed", err)
		return
	}
	if len(feed.Records) == 0 {
		h.Metrics.ImportFailures.WithLabelValues("empty").Inc()
		writeError(w, http.StatusBadRequest, "Feed has no data rows", generic.ErrEmptyFeed)
		return
	}

	resp, err := h.store(r.Context(), header.Filename, feed)
	if err != nil {
		h.fail(w, r, "Failed to store records", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// store runs the transform, upserts the result and logs the import. Rows
// without a unique id cannot be keyed, so they are left out of the upsert
// and reported by the health check as missing fields.
func (h *Handler) store(ctx context.Context, source string, feed ingest.Feed) (ImportResponse, error) {
	processed := h.transformer.Process(feed.Records)
	records := make([]course.ProcessedRecord, 0, len(processed))
	for _, rec := range processed {
		if rec.UniqueID != "" {
			records = append(records, rec)
		}
	}
	rejected := len(processed) - len(records)

	if err := h.Store.Upsert(ctx, records); err != nil {
		return ImportResponse{}, err
	}

	imp := course.Import{
		ID:             uuid.New().String(),
		Source:         source,
		RecordCount:    len(records),
		SkippedRows:    feed.SkippedRows,
		UnknownColumns: feed.UnknownColumns,
		ImportedAt:     h.Clock.Now().UTC(),
	}
	if err := h.Store.RecordImport(ctx, imp); err != nil {
		return ImportResponse{}, err
	}

	h.Metrics.RecordsImported.WithLabelValues(sourceLabel(source)).Add(float64(len(records)))
	h.refreshStoredGauge(ctx)

	check := h.checker().Check(processed)
	h.Logger.InfoContext(ctx, "records imported",
		slog.String("import_id", imp.ID),
		slog.String("source", source),
		slog.Int("records", len(records)),
		slog.Int("skipped_rows", feed.SkippedRows),
		slog.Int("rejected_rows", rejected),
		slog.Int("health_errors", len(check.Errors)),
	)
	if len(feed.UnknownColumns) > 0 {
		h.Logger.WarnContext(ctx, "feed has unrecognized columns",
			slog.String("import_id", imp.ID),
			slog.Any("columns", feed.UnknownColumns),
		)
	}

	unknown := feed.UnknownColumns
	if unknown == nil {
		unknown = []string{}
	}
	return ImportResponse{
		ImportID:       imp.ID,
		Source:         source,
		RecordCount:    len(records),
		SkippedRows:    feed.SkippedRows,
		RejectedRows:   rejected,
		UnknownColumns: unknown,
		Health:         summarizeHealth(check),
	}, nil
}

// ListRecords returns stored runs, optionally filtered to one institution
// (as training institution or partner).
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.List(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list records", err)
		return
	}

	if name := r.URL.Query().Get("institution"); name != "" {
		canonical := h.Grouper.Canonicalize(name)
		filtered := make([]course.ProcessedRecord, 0, len(records))
		for _, rec := range records {
			p := h.engine.Parties(&rec)
			if p.Training == canonical || (p.Partnered && p.Partner == canonical) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	if records == nil {
		records = []course.ProcessedRecord{}
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Count: len(records), Records: records})
}

// GetRecord returns one run.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get record", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteRecord removes one run.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "Failed to delete record", err)
		return
	}
	h.refreshStoredGauge(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// ListImports returns the import log.
func (h *Handler) ListImports(w http.ResponseWriter, r *http.Request) {
	imports, err := h.Store.ListImports(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list imports", err)
		return
	}
	writeJSON(w, http.StatusOK, imports)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// InstitutionReport returns the institution table.
func (h *Handler) InstitutionReport(w http.ResponseWriter, r *http.Request) {
	year, records, ok := h.loadScope(w, r)
	if !ok {
		return
	}
	defer h.Metrics.ObserveReport("institutions", time.Now())

	stats := h.reporter().InstitutionStats(records, year)
	writeJSON(w, http.StatusOK, InstitutionReportResponse{
		Year:         year,
		AsOf:         h.today().Format(time.DateOnly),
		Totals:       report.Summarize(stats),
		Institutions: stats,
	})
}

// InstitutionCourses returns the runs one institution is credited with.
func (h *Handler) InstitutionCourses(w http.ResponseWriter, r *http.Request) {
	year, records, ok := h.loadScope(w, r)
	if !ok {
		return
	}
	name := h.Grouper.Canonicalize(chi.URLParam(r, "name"))
	rows := h.reporter().CourseRows(records, name, year)
	writeJSON(w, http.StatusOK, CourseRowsResponse{
		Institution: name,
		Year:        year,
		Courses:     toCourseRowDTOs(rows),
	})
}

// YearlyReport returns one year, or every revenue year when none is given.
func (h *Handler) YearlyReport(w http.ResponseWriter, r *http.Request) {
	year, records, ok := h.loadScope(w, r)
	if !ok {
		return
	}
	defer h.Metrics.ObserveReport("yearly", time.Now())

	rep := h.reporter()
	var years []report.YearlyStat
	if year == report.AllYears {
		years = rep.AllYearlyStats(records)
	} else {
		years = []report.YearlyStat{rep.YearlyStats(records, year)}
	}
	writeJSON(w, http.StatusOK, YearlyReportResponse{AsOf: h.today().Format(time.DateOnly), Years: years})
}

// MonthlyReport returns month buckets for a year or the whole window.
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, records, ok := h.loadScope(w, r)
	if !ok {
		return
	}
	defer h.Metrics.ObserveReport("monthly", time.Now())

	writeJSON(w, http.StatusOK, MonthlyReportResponse{
		Year:   year,
		AsOf:   h.today().Format(time.DateOnly),
		Months: h.reporter().MonthlyStats(records, year),
	})
}

// ExportReport streams the institution, monthly and yearly tables as XLSX.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	year, records, ok := h.loadScope(w, r)
	if !ok {
		return
	}
	defer h.Metrics.ObserveReport("export", time.Now())

	rep := h.reporter()
	stats := rep.InstitutionStats(records, year)
	wb := export.Workbook{
		Year:         year,
		Institutions: stats,
		Totals:       report.Summarize(stats),
		Months:       rep.MonthlyStats(records, year),
		Years:        rep.AllYearlyStats(records),
	}

	filename := "training-report-all.xlsx"
	if year != report.AllYears {
		filename = fmt.Sprintf("training-report-%d.xlsx", year)
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := export.Write(w, wb); err != nil {
		h.Logger.ErrorContext(r.Context(), "export failed", slog.Any("error", err))
	}
}

// loadScope parses ?year= and loads every stored run.
func (h *Handler) loadScope(w http.ResponseWriter, r *http.Request) (int, []course.ProcessedRecord, bool) {
	year, err := parseYear(r.URL.Query().Get("year"))
	if err != nil {
		h.fail(w, r, "Invalid year", err)
		return 0, nil, false
	}
	records, err := h.Store.List(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to load records", err)
		return 0, nil, false
	}
	return year, records, true
}

func parseYear(s string) (int, error) {
	if s == "" || strings.EqualFold(s, "all") {
		return report.AllYears, nil
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("year %q: %w", s, generic.ErrInvalidYear)
	}
	if err := report.ValidateYear(year); err != nil {
		return 0, fmt.Errorf("year %d: %w", year, err)
	}
	return year, nil
}

// =============================================================================
// DATA QUALITY HANDLERS
// =============================================================================

// HealthCheck runs the data-quality checks over stored runs.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.List(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to load records", err)
		return
	}
	writeJSON(w, http.StatusOK, h.checker().Check(records))
}

// GroupTable returns the institution grouping table in file form.
func (h *Handler) GroupTable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, factory.ToFile(h.Grouper.Table()))
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, r, "Failed to reset database", err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	h.refreshStoredGauge(r.Context())

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) refreshStoredGauge(ctx context.Context) {
	if n, err := h.Store.Count(ctx); err == nil {
		h.Metrics.StoredRecords.Set(float64(n))
	}
}

// decodeJSON decodes and validates a request body, writing a 400 on failure.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]map[string]string, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, map[string]string{"field": fe.Field(), "rule": fe.Tag()})
			}
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Validation failed",
				Code:    "VALIDATION_FAILED",
				Details: details,
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// fail maps an error to a status and writes it. Server errors are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.ErrorContext(r.Context(), message, slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, generic.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, generic.ErrUnknownColumn):
		return "missing_column"
	case errors.Is(err, generic.ErrEmptyFeed):
		return "empty"
	default:
		return "malformed"
	}
}

// sourceLabel keeps the metric label set small: file extension or "json".
func sourceLabel(source string) string {
	if i := strings.LastIndexByte(source, '.'); i >= 0 && i < len(source)-1 {
		return strings.ToLower(source[i+1:])
	}
	return "json"
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
