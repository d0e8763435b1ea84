package drive

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/ingest"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/service"
)

type Handler struct {
	files         Files
	ingestService *IngestService
}

func NewHandler(files Files, ingestService *IngestService) *Handler {
	return &Handler{
		files:         files,
		ingestService: ingestService,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/drive/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/api/drive/files/download", h.DownloadFile).Methods("GET")
	router.HandleFunc("/api/drive/ingest", h.IngestFile).Methods("POST")
	router.HandleFunc("/api/drive/ingest/folder", h.IngestFolder).Methods("POST")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

// folderFrom resolves ?folderId= or ?path=, path taking precedence.
func (h *Handler) folderFrom(r *http.Request) (string, error) {
	query := r.URL.Query()
	if path := query.Get("path"); path != "" {
		return h.files.FindFolderByPath(r.Context(), path)
	}
	return query.Get("folderId"), nil
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	folderID, err := h.folderFrom(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	files, err := h.files.ListFiles(r.Context(), folderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if files == nil {
		files = []*File{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": files})
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		writeError(w, http.StatusBadRequest, "fileId parameter is required")
		return
	}

	f, err := h.files.GetFile(r.Context(), fileID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.LocalName()}))

	if err := h.files.DownloadFile(r.Context(), f, w); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) IngestFile(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	fileID := query.Get("fileId")
	if fileID == "" {
		writeError(w, http.StatusBadRequest, "fileId parameter is required")
		return
	}

	sum, err := h.ingestService.IngestFile(r.Context(), fileID, query.Get("type"))
	if err != nil {
		writeError(w, statusFor(err), "ingestion failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": sum})
}

func (h *Handler) IngestFolder(w http.ResponseWriter, r *http.Request) {
	folderID, err := h.folderFrom(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	sum, err := h.ingestService.IngestFolder(r.Context(), folderID, r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, statusFor(err), "ingestion failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": sum})
}

func statusFor(err error) int {
	var verr *service.ValidationError
	if errors.As(err, &verr) || errors.Is(err, ingest.ErrUnsupported) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
