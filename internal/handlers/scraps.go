package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lidercheck/apiserver/internal/services"
	"github.com/lidercheck/apiserver/internal/store"
	"github.com/lidercheck/apiserver/types"
)

// ScrapHandler provides the scrap and material catalog endpoints.
type ScrapHandler struct {
	scrapService *services.ScrapService
}

func NewScrapHandler(scrapService *services.ScrapService) *ScrapHandler {
	return &ScrapHandler{scrapService: scrapService}
}

// ScrapRouter registers scrap routes.
func ScrapRouter(r chi.Router, scrapService *services.ScrapService) {
	handler := NewScrapHandler(scrapService)

	r.Get("/", handler.ListScraps)
	r.Post("/", handler.CreateScrap)
	r.Put("/{scrapID}", handler.PatchScrap)
}

// MaterialRouter registers material catalog routes.
func MaterialRouter(r chi.Router, scrapService *services.ScrapService) {
	handler := NewScrapHandler(scrapService)

	r.Get("/", handler.ListMaterials)
	r.Post("/bulk", handler.ImportMaterials)
}

func (h *ScrapHandler) ListScraps(w http.ResponseWriter, r *http.Request) {
	scraps, err := h.scrapService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list scraps")
		return
	}
	writeJSON(w, http.StatusOK, scraps)
}

func (h *ScrapHandler) CreateScrap(w http.ResponseWriter, r *http.Request) {
	var req ScrapRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	scrap := req.Scrap
	scrap.UserID = req.UserID.String()
	scrap.Code = req.Code.String()

	saved, err := h.scrapService.Create(r.Context(), scrap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save scrap")
		return
	}
	writeJSON(w, http.StatusCreated, ScrapSaveResponse{Message: "saved", ID: saved.ID})
}

// PatchScrap corrects the whitelisted fields of a scrap. Fields are accepted
// in camelCase or snake_case; anything else in the body is ignored.
func (h *ScrapHandler) PatchScrap(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "scrapID"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid scrap id")
		return
	}

	var req ScrapPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	applied, err := h.scrapService.Patch(r.Context(), id, req.patch())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "scrap not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update scrap")
		return
	}
	if !applied {
		writeMessage(w, "nothing to update")
		return
	}
	writeMessage(w, "updated")
}

func (h *ScrapHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.scrapService.ListMaterials(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list materials")
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

func (h *ScrapHandler) ImportMaterials(w http.ResponseWriter, r *http.Request) {
	var req MaterialsRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Materials == nil {
		writeError(w, http.StatusBadRequest, "materials array is required")
		return
	}

	materials := make([]types.Material, 0, len(req.Materials))
	for _, m := range req.Materials {
		material := m.Material
		material.Code = m.Code.String()
		materials = append(materials, material)
	}

	count, err := h.scrapService.ImportMaterials(r.Context(), materials)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "every material needs a code")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to import materials")
		return
	}
	writeJSON(w, http.StatusOK, MaterialsResponse{Success: true, Count: count})
}

// ScrapRequest accepts matriculas and material codes sent as numbers. A
// client-side id is discarded; the store assigns one.
type ScrapRequest struct {
	types.Scrap
	ID     types.FlexString `json:"id"`
	UserID types.FlexString `json:"userId"`
	Code   types.FlexString `json:"code"`
}

type ScrapSaveResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type ScrapPatchRequest struct {
	Countermeasure  *string  `json:"countermeasure"`
	Reason          *string  `json:"reason"`
	Status          *string  `json:"status"`
	LeaderName      *string  `json:"leaderName"`
	LeaderNameSnake *string  `json:"leader_name"`
	Qty             *int     `json:"qty"`
	TotalValue      *float64 `json:"totalValue"`
	TotalValueSnake *float64 `json:"total_value"`
}

func (req ScrapPatchRequest) patch() types.ScrapPatch {
	patch := types.ScrapPatch{
		Countermeasure: req.Countermeasure,
		Reason:         req.Reason,
		Status:         req.Status,
		LeaderName:     req.LeaderName,
		Qty:            req.Qty,
		TotalValue:     req.TotalValue,
	}
	if patch.LeaderName == nil {
		patch.LeaderName = req.LeaderNameSnake
	}
	if patch.TotalValue == nil {
		patch.TotalValue = req.TotalValueSnake
	}
	return patch
}

type MaterialRequest struct {
	types.Material
	Code types.FlexString `json:"code"`
}

type MaterialsRequest struct {
	Materials []MaterialRequest `json:"materials"`
}

type MaterialsResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}
