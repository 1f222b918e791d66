package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lidercheck/apiserver/internal/codec"
	"github.com/lidercheck/apiserver/internal/services"
	"github.com/lidercheck/apiserver/types"
)

// LineStopHandler provides the line-stop endpoints.
type LineStopHandler struct {
	lineStopService *services.LineStopService
}

func NewLineStopHandler(lineStopService *services.LineStopService) *LineStopHandler {
	return &LineStopHandler{lineStopService: lineStopService}
}

// LineStopRouter registers line-stop routes.
func LineStopRouter(r chi.Router, lineStopService *services.LineStopService) {
	handler := NewLineStopHandler(lineStopService)

	r.Get("/", handler.ListLineStops)
	r.Post("/", handler.SaveLineStop)
}

// ListLineStops returns stops shaped like log entries so clients can merge
// them into one timeline.
func (h *LineStopHandler) ListLineStops(w http.ResponseWriter, r *http.Request) {
	stops, err := h.lineStopService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list line stops")
		return
	}

	resp := make([]LineStopResponse, 0, len(stops))
	for _, stop := range stops {
		resp = append(resp, LineStopResponse{LineStop: stop, Type: types.LogTypeLineStop})
	}
	writeJSON(w, http.StatusOK, resp)
}

// SaveLineStop creates the stop or, when its id is already stored, updates
// it in place.
func (h *LineStopHandler) SaveLineStop(w http.ResponseWriter, r *http.Request) {
	var req LineStopRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	stop := types.LineStop{
		ID:       req.ID.String(),
		UserID:   req.UserID.String(),
		UserName: req.UserName,
		UserRole: req.UserRole,
		Line:     req.Line,
		Date:     req.Date,
		Status:   types.LineStopStatus(strings.TrimSpace(req.Status)),
		Data:     lineStopData(req.Data),
	}
	if req.SignedDocURL != "" {
		doc := req.SignedDocURL
		stop.SignedDocURL = &doc
	}

	saved, created, err := h.lineStopService.Upsert(r.Context(), stop)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save line stop")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, LineStopSaveResponse{Message: "saved", ID: saved.ID})
}

// lineStopData accepts the stop details either as an object or as a string
// holding JSON text.
func lineStopData(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return codec.DecodeObject(text)
	}
	return codec.DecodeObject(string(raw))
}

type LineStopRequest struct {
	ID           types.FlexString `json:"id"`
	UserID       types.FlexString `json:"userId"`
	UserName     string           `json:"userName"`
	UserRole     string           `json:"userRole"`
	Line         string           `json:"line"`
	Date         string           `json:"date"`
	Status       string           `json:"status"`
	Data         json.RawMessage  `json:"data"`
	SignedDocURL string           `json:"signedDocUrl"`
}

type LineStopResponse struct {
	types.LineStop
	Type        types.LogType `json:"type"`
	ItemsCount  int           `json:"itemsCount"`
	NgCount     int           `json:"ngCount"`
	Observation string        `json:"observation"`
}

type LineStopSaveResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}
