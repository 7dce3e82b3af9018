package attachments

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"taskhub/internal/auth"
	"taskhub/internal/tasks"
)

// maxFileSize caps uploads at 10 MiB.
const maxFileSize = 10 << 20

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".png":  {},
	".jpg":  {},
	".docx": {},
	".xlsx": {},
}

type Handler struct {
	Store   Store
	Tasks   tasks.Store
	Storage *DiskStorage
	Logger  *slog.Logger
}

// ownerOf resolves the task an attachment operation targets. A missing
// task is reported before any authorization outcome.
func (h *Handler) ownerOf(w http.ResponseWriter, r *http.Request, taskID int64) (*tasks.Task, bool) {
	task, err := h.Tasks.Get(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return nil, false
		}
		h.Logger.Error("get task", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return nil, false
	}
	return task, true
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	taskID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	task, ok := h.ownerOf(w, r, taskID)
	if !ok {
		return
	}
	if d := auth.Authorize(id, task.UserID, auth.OpWrite); !d.Allow {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFileSize+4096)
	file, header, err := r.FormFile("file")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size == 0 || header.Size > maxFileSize {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	storedName := uuid.NewString() + ext
	size, err := h.Storage.Save(storedName, file)
	if err != nil {
		h.Logger.Error("save attachment", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	att := &Attachment{
		TaskID:           taskID,
		OriginalFileName: header.Filename,
		StoredName:       storedName,
		FileSize:         size,
		UploadDate:       time.Now().UTC(),
		UploaderUserID:   id.UserID,
	}
	if err := h.Store.Insert(r.Context(), att); err != nil {
		h.Logger.Error("insert attachment", "err", err)
		_ = h.Storage.Remove(storedName)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, att)
}

type listItem struct {
	ID                int64     `json:"id"`
	OriginalFileName  string    `json:"originalFileName"`
	FileSizeFormatted string    `json:"fileSizeFormatted"`
	UploadDate        time.Time `json:"uploadDate"`
	UploaderUserID    int64     `json:"uploaderUserId"`
}

func (h *Handler) ListForTask(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	taskID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	task, ok := h.ownerOf(w, r, taskID)
	if !ok {
		return
	}
	if d := auth.Authorize(id, task.UserID, auth.OpRead); !d.Allow {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	atts, err := h.Store.ListByTask(r.Context(), taskID)
	if err != nil {
		h.Logger.Error("list attachments", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	items := make([]listItem, 0, len(atts))
	for _, a := range atts {
		items = append(items, listItem{
			ID:                a.ID,
			OriginalFileName:  a.OriginalFileName,
			FileSizeFormatted: fmt.Sprintf("%.2f MB", float64(a.FileSize)/1024/1024),
			UploadDate:        a.UploadDate,
			UploaderUserID:    a.UploaderUserID,
		})
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	attID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	att, err := h.Store.Get(r.Context(), attID)
	if err != nil {
		if errors.Is(err, ErrAttachmentNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Logger.Error("get attachment", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	task, ok := h.ownerOf(w, r, att.TaskID)
	if !ok {
		return
	}
	if d := auth.Authorize(id, task.UserID, auth.OpRead); !d.Allow {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	f, err := h.Storage.Open(att.StoredName)
	if err != nil {
		if os.IsNotExist(err) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Logger.Error("open attachment", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(att.OriginalFileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(att.FileSize, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.OriginalFileName))
	_, _ = io.Copy(w, f)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	attID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	att, err := h.Store.Get(r.Context(), attID)
	if err != nil {
		if errors.Is(err, ErrAttachmentNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Logger.Error("get attachment", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	task, ok := h.ownerOf(w, r, att.TaskID)
	if !ok {
		return
	}
	if d := auth.Authorize(id, task.UserID, auth.OpDelete); !d.Allow {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	if err := h.Storage.Remove(att.StoredName); err != nil {
		h.Logger.Error("remove attachment blob", "err", err)
	}
	if err := h.Store.Delete(r.Context(), attID); err != nil && !errors.Is(err, ErrAttachmentNotFound) {
		h.Logger.Error("delete attachment", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
