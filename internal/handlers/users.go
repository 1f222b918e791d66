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

// UserHandler provides the user administration endpoints.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers user administration routes. Listing and deleting
// require an admin; any authenticated user may update their own profile.
func UserRouter(r chi.Router, userService *services.UserService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUserHandler(userService)
	adminOnly := RequireAdmin(userService)

	r.Use(authMiddleware)
	r.With(adminOnly).Get("/", handler.ListUsers)
	r.Put("/", handler.UpdateUser)
	r.With(adminOnly).Delete("/{matricula}", handler.DeleteUser)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, UserResponse{User: user, Password: services.MaskedPassword})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UserUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	caller, ok := subjectUser(w, r, h.userService)
	if !ok {
		return
	}

	user := types.User{
		Matricula: req.Matricula.String(),
		Name:      strings.TrimSpace(req.Name),
		Role:      strings.TrimSpace(req.Role),
		Shift:     req.Shift.String(),
		Email:     strings.TrimSpace(req.Email),
		IsAdmin:   req.IsAdmin,
	}
	target := req.OriginalMatricula.String()
	if target == "" {
		target = user.Matricula
	}
	if !caller.IsAdmin {
		if target != caller.Matricula {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		user.IsAdmin = caller.IsAdmin
	}

	if err := h.userService.Update(r.Context(), target, user, req.Password); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "matricula is required")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update user")
		}
		return
	}

	writeMessage(w, "updated")
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	matricula := strings.TrimSpace(chi.URLParam(r, "matricula"))
	if matricula == "" {
		writeError(w, http.StatusBadRequest, "invalid matricula")
		return
	}

	if err := h.userService.Delete(r.Context(), matricula); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	writeMessage(w, "deleted")
}

// UserResponse is a user as listed to administrators, with the password
// masked.
type UserResponse struct {
	types.User
	Password string `json:"password"`
}

type UserUpdateRequest struct {
	Matricula         types.FlexString `json:"matricula"`
	OriginalMatricula types.FlexString `json:"originalMatricula"`
	Name              string           `json:"name"`
	Role              string           `json:"role"`
	Shift             types.FlexString `json:"shift"`
	Email             string           `json:"email"`
	Password          string           `json:"password"`
	IsAdmin           bool             `json:"isAdmin"`
}
