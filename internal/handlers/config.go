package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lidercheck/apiserver/internal/services"
	"github.com/lidercheck/apiserver/internal/store"
	"github.com/lidercheck/apiserver/types"
)

// ConfigHandler provides the checklist and plant configuration endpoints.
type ConfigHandler struct {
	configService *services.ConfigService
}

func NewConfigHandler(configService *services.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

// ConfigRouter registers configuration routes.
//
// Roles and lines are edited one name at a time; models and stations are
// replaced as a whole list.
func ConfigRouter(r chi.Router, configService *services.ConfigService) {
	handler := NewConfigHandler(configService)

	r.Get("/items", handler.ListItems)
	r.Post("/items", handler.ReplaceItems)

	for _, list := range []types.SettingList{types.SettingRoles, types.SettingLines} {
		r.Get("/"+string(list), handler.listSetting(list))
		r.Post("/"+string(list), handler.addSetting(list))
		r.Delete("/"+string(list)+"/{name}", handler.deleteSetting(list))
	}
	for _, list := range []types.SettingList{types.SettingModels, types.SettingStations} {
		r.Get("/"+string(list), handler.listSetting(list))
		r.Post("/"+string(list), handler.replaceSetting(list))
	}

	r.Get("/permissions", handler.ListPermissions)
	r.Post("/permissions", handler.ReplacePermissions)
}

func (h *ConfigHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.configService.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ConfigHandler) ReplaceItems(w http.ResponseWriter, r *http.Request) {
	var req ItemsRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Items == nil {
		writeError(w, http.StatusBadRequest, "invalid items format")
		return
	}

	items := make([]types.ChecklistItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, types.ChecklistItem{
			ID:       item.ID.String(),
			Category: item.Category,
			Text:     item.Text,
			Evidence: item.Evidence,
			ImageURL: item.ImageURL,
			Type:     item.Type,
		})
	}
	if err := h.configService.ReplaceItems(r.Context(), items); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save items")
		return
	}
	writeMessage(w, "saved")
}

func (h *ConfigHandler) listSetting(list types.SettingList) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := h.configService.ListSetting(r.Context(), list)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list "+string(list))
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

func (h *ConfigHandler) addSetting(list types.SettingList) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SettingRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}

		if err := h.configService.AddSetting(r.Context(), list, req.Name); err != nil {
			if errors.Is(err, services.ErrInvalidInput) {
				writeError(w, http.StatusBadRequest, "name is required")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to save "+string(list))
			return
		}
		writeMessage(w, "saved")
	}
}

// deleteSetting removes an entry by name; the positional ids served by the
// list endpoints are not accepted.
func (h *ConfigHandler) deleteSetting(list types.SettingList) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(chi.URLParam(r, "name"))
		if name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		if err := h.configService.DeleteSetting(r.Context(), list, name); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to delete "+string(list))
			return
		}
		writeMessage(w, "deleted")
	}
}

func (h *ConfigHandler) replaceSetting(list types.SettingList) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SettingListRequest
		if err := decodeJSON(w, r, &req); err != nil || req.Items == nil {
			writeError(w, http.StatusBadRequest, "invalid items format")
			return
		}

		if err := h.configService.ReplaceSetting(r.Context(), list, req.Items); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save "+string(list))
			return
		}
		writeMessage(w, "saved")
	}
}

func (h *ConfigHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.configService.ListPermissions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list permissions")
		return
	}
	writeJSON(w, http.StatusOK, perms)
}

func (h *ConfigHandler) ReplacePermissions(w http.ResponseWriter, r *http.Request) {
	var req PermissionsRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Permissions == nil {
		writeError(w, http.StatusBadRequest, "invalid permissions format")
		return
	}

	if err := h.configService.ReplacePermissions(r.Context(), req.Permissions); err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "role and module are required")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save permissions")
		return
	}
	writeMessage(w, "saved")
}

type ItemsRequest struct {
	Items []ItemRequest `json:"items"`
}

// ItemRequest is a checklist item as edited by clients. New items may carry
// a numeric client-side id, which is discarded on save.
type ItemRequest struct {
	ID       types.FlexString `json:"id"`
	Category string           `json:"category"`
	Text     string           `json:"text"`
	Evidence string           `json:"evidence"`
	ImageURL string           `json:"imageUrl"`
	Type     types.ItemType   `json:"type"`
}

type SettingRequest struct {
	Name string `json:"name"`
}

type SettingListRequest struct {
	Items []string `json:"items"`
}

type PermissionsRequest struct {
	Permissions []types.Permission `json:"permissions"`
}
