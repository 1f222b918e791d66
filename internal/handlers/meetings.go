package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lidercheck/apiserver/internal/services"
	"github.com/lidercheck/apiserver/types"
)

// MeetingHandler provides the meeting-minutes endpoints.
type MeetingHandler struct {
	meetingService *services.MeetingService
}

func NewMeetingHandler(meetingService *services.MeetingService) *MeetingHandler {
	return &MeetingHandler{meetingService: meetingService}
}

// MeetingRouter registers meeting routes.
func MeetingRouter(r chi.Router, meetingService *services.MeetingService) {
	handler := NewMeetingHandler(meetingService)

	r.Get("/", handler.ListMeetings)
	r.Post("/", handler.SaveMeeting)
}

func (h *MeetingHandler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.meetingService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list meetings")
		return
	}
	writeJSON(w, http.StatusOK, meetings)
}

func (h *MeetingHandler) SaveMeeting(w http.ResponseWriter, r *http.Request) {
	var req MeetingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	meeting := req.Meeting
	meeting.ID = req.ID.String()
	meeting.CreatedBy = req.CreatedBy.String()

	saved, err := h.meetingService.Save(r.Context(), meeting)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save meeting")
		return
	}
	writeJSON(w, http.StatusOK, MeetingSaveResponse{Message: "saved", ID: saved.ID})
}

// MeetingRequest accepts ids and creators sent as numbers.
type MeetingRequest struct {
	types.Meeting
	ID        types.FlexString `json:"id"`
	CreatedBy types.FlexString `json:"createdBy"`
}

type MeetingSaveResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}
