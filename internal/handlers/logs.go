package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lidercheck/apiserver/internal/report"
	"github.com/lidercheck/apiserver/internal/services"
	"github.com/lidercheck/apiserver/types"
)

// LogHandler provides the checklist log and weekly report endpoints.
type LogHandler struct {
	logService *services.LogService
}

func NewLogHandler(logService *services.LogService) *LogHandler {
	return &LogHandler{logService: logService}
}

// LogRouter registers checklist log routes.
func LogRouter(r chi.Router, logService *services.LogService) {
	handler := NewLogHandler(logService)

	r.Get("/", handler.ListLogs)
	r.Post("/", handler.CreateLog)
}

// ReportRouter registers the weekly report routes.
func ReportRouter(r chi.Router, logService *services.LogService) {
	handler := NewLogHandler(logService)

	r.Get("/weekly", handler.WeeklyReport)
	r.Get("/weekly/strict", handler.WeeklyReportStrict)
}

func (h *LogHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.logService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list logs")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *LogHandler) CreateLog(w http.ResponseWriter, r *http.Request) {
	var req LogCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	id, err := h.logService.Create(r.Context(), types.ChecklistLog{
		UserID:            req.UserID.String(),
		UserName:          req.UserName,
		UserRole:          req.UserRole,
		Line:              req.Line,
		Date:              req.Date,
		ItemsCount:        req.ItemsCount,
		NgCount:           req.NgCount,
		Observation:       req.Observation,
		Data:              req.Data,
		EvidenceData:      req.EvidenceData,
		Type:              req.Type,
		MaintenanceTarget: req.MaintenanceTarget,
		ItemsSnapshot:     req.ItemsSnapshot,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save log")
		return
	}

	writeJSON(w, http.StatusCreated, LogCreateResponse{Message: "saved", ID: strconv.FormatInt(id, 10)})
}

// WeeklyReport serves ?year=&week=&shift=. year defaults to the current year.
func (h *LogHandler) WeeklyReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	week, err := strconv.Atoi(strings.TrimSpace(query.Get("week")))
	if err != nil || week < 1 || week > 53 {
		writeError(w, http.StatusBadRequest, "invalid week")
		return
	}
	year := time.Now().In(h.logService.Location()).Year()
	if raw := strings.TrimSpace(query.Get("year")); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
	}

	logs, err := h.logService.WeeklyReport(r.Context(), year, week, shiftParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// WeeklyReportStrict serves ?date=&line=&shift=. date defaults to today.
func (h *LogHandler) WeeklyReportStrict(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	line := strings.TrimSpace(query.Get("line"))
	if line == "" {
		writeError(w, http.StatusBadRequest, "line is required")
		return
	}
	ref := time.Now()
	if raw := strings.TrimSpace(query.Get("date")); raw != "" {
		parsed, ok := report.ParseDate(raw, h.logService.Location())
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid date")
			return
		}
		ref = parsed
	}

	logs, err := h.logService.WeeklyReportStrict(r.Context(), ref, line, shiftParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func shiftParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("shift"))
}

type LogCreateRequest struct {
	UserID            types.FlexString `json:"userId"`
	UserName          string           `json:"userName"`
	UserRole          string           `json:"userRole"`
	Line              string           `json:"line"`
	Date              string           `json:"date"`
	ItemsCount        int              `json:"itemsCount"`
	NgCount           int              `json:"ngCount"`
	Observation       string           `json:"observation"`
	Data              any              `json:"data"`
	EvidenceData      map[string]any   `json:"evidenceData"`
	Type              types.LogType    `json:"type"`
	MaintenanceTarget string           `json:"maintenanceTarget"`
	ItemsSnapshot     []any            `json:"itemsSnapshot"`
}

type LogCreateResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}
