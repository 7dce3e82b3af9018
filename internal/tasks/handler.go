package tasks

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"taskhub/internal/auth"
)

type Handler struct {
	Store  Store
	Logger *slog.Logger
}

type createRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	DueDate     time.Time `json:"dueDate"`
	DueTime     string    `json:"dueTime"`
}

type updateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	Status      *string    `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	DueTime     *string    `json:"dueTime"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	filter := ListFilter{}
	filter.OwnerID, filter.AllOwners = auth.ListScope(id)
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := ParseStatus(raw)
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		filter.Status = status
	}

	list, err := h.Store.List(r.Context(), filter)
	if err != nil {
		h.Logger.Error("list tasks", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Task{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.DueDate.IsZero() {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if req.DueTime == "" {
		req.DueTime = "12:00"
	}
	if !ValidDueTime(req.DueTime) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	task := &Task{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Status:      StatusTodo,
		DueDate:     req.DueDate,
		DueTime:     req.DueTime,
		UserID:      id.UserID,
	}
	if err := h.Store.Insert(r.Context(), task); err != nil {
		h.Logger.Error("insert task", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
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

	task, err := h.Store.Get(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Logger.Error("get task", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if d := auth.Authorize(id, task.UserID, auth.OpWrite); !d.Allow {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Category != nil {
		task.Category = *req.Category
	}
	if req.Status != nil {
		status, ok := ParseStatus(*req.Status)
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		task.Status = status
	}
	if req.DueDate != nil {
		task.DueDate = *req.DueDate
	}
	if req.DueTime != nil {
		if !ValidDueTime(*req.DueTime) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		task.DueTime = *req.DueTime
	}
	now := time.Now().UTC()
	task.LastModified = &now

	if err := h.Store.Update(r.Context(), task); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Logger.Error("update task", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
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

	task, err := h.Store.Get(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Logger.Error("get task", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if d := auth.Authorize(id, task.UserID, auth.OpDelete); !d.Allow {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	if err := h.Store.Delete(r.Context(), taskID); err != nil && !errors.Is(err, ErrTaskNotFound) {
		h.Logger.Error("delete task", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	filter := ListFilter{}
	filter.OwnerID, filter.AllOwners = auth.ListScope(id)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	stats, err := h.Store.Stats(r.Context(), filter, today)
	if err != nil {
		h.Logger.Error("task stats", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
