package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lidercheck/apiserver/internal/services"
	"github.com/lidercheck/apiserver/internal/storage"
)

const snapshotFileName = "lidercheck_backup.db"

// BackupHandler provides backup upload and database download endpoints.
type BackupHandler struct {
	backupService *services.BackupService
}

func NewBackupHandler(backupService *services.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// BackupRouter registers the client export upload route.
func BackupRouter(r chi.Router, backupService *services.BackupService) {
	handler := NewBackupHandler(backupService)

	r.Post("/save", handler.SaveBackup)
}

// AdminBackupRouter registers the database download and stored backup
// routes. Every route requires an authenticated admin.
func AdminBackupRouter(r chi.Router, backupService *services.BackupService, userService *services.UserService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewBackupHandler(backupService)

	r.Use(authMiddleware, RequireAdmin(userService))
	r.Get("/backup", handler.DownloadDatabase)
	r.Get("/backups", handler.ListBackups)
	r.Post("/backups", handler.ArchiveDatabase)
	r.Get("/backups/{name}", handler.DownloadBackup)
	r.Delete("/backups/{name}", handler.DeleteBackup)
}

func (h *BackupHandler) SaveBackup(w http.ResponseWriter, r *http.Request) {
	var req BackupSaveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	key, err := h.backupService.Save(r.Context(), req.FileName, req.FileData)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid backup payload")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save backup")
		return
	}
	writeJSON(w, http.StatusOK, BackupSaveResponse{Message: "saved", Path: key})
}

// DownloadDatabase streams a consistent copy of the live database.
func (h *BackupHandler) DownloadDatabase(w http.ResponseWriter, r *http.Request) {
	snapshot, size, err := h.backupService.Snapshot(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrSnapshotUnsupported) {
			writeError(w, http.StatusNotImplemented, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to copy database")
		return
	}
	defer snapshot.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", attachment(snapshotFileName))
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, snapshot)
}

func (h *BackupHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	objects, err := h.backupService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	if objects == nil {
		objects = []storage.Object{}
	}
	writeJSON(w, http.StatusOK, objects)
}

// ArchiveDatabase stores a copy of the live database next to the uploaded
// backups.
func (h *BackupHandler) ArchiveDatabase(w http.ResponseWriter, r *http.Request) {
	key, err := h.backupService.Archive(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrSnapshotUnsupported) {
			writeError(w, http.StatusNotImplemented, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to archive database")
		return
	}
	writeJSON(w, http.StatusCreated, BackupSaveResponse{Message: "archived", Path: key})
}

func (h *BackupHandler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := h.backupService.Open(r.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid backup name")
		case errors.Is(err, storage.ErrObjectNotFound):
			writeError(w, http.StatusNotFound, "backup not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to read backup")
		}
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", attachment(path.Base(name)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}

func (h *BackupHandler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	if err := h.backupService.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid backup name")
		case errors.Is(err, storage.ErrObjectNotFound):
			writeError(w, http.StatusNotFound, "backup not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete backup")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func attachment(fileName string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": fileName})
}

type BackupSaveRequest struct {
	FileName string `json:"fileName"`
	FileData string `json:"fileData"`
}

type BackupSaveResponse struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}
