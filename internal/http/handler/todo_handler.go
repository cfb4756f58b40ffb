package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	domain "todoapi/internal/domain/model"
	"todoapi/internal/http/middleware"
	"todoapi/internal/service"
)

type TodoHandler struct {
	todos *service.TodoService
}

func NewTodoHandler(todos *service.TodoService) *TodoHandler {
	return &TodoHandler{todos: todos}
}

type CreateTodoRequest struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type UpdateTodoRequest struct {
	Completed bool `json:"completed"`
}

type SyncResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type CanAddResponse struct {
	UserID        int64 `json:"userId"`
	CanAdd        bool  `json:"canAdd"`
	MaxIncomplete int   `json:"maxIncomplete"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the domain error taxonomy onto status codes.
// Anything unrecognized is logged with context and answered opaquely.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, validationErr.Error())
		return
	}

	var limitErr *domain.LimitError
	if errors.As(err, &limitErr) {
		writeError(w, http.StatusBadRequest, limitErr.Error())
		return
	}

	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if errors.Is(err, domain.ErrFeedUnavailable) {
		middleware.LogWithContext(r.Context(), "feed failure", "error", err)
		writeError(w, http.StatusBadGateway, "todo feed unavailable")
		return
	}

	middleware.LogWithContext(r.Context(), "internal error", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func parseListParams(r *http.Request) (domain.ListParams, error) {
	q := r.URL.Query()

	params := domain.ListParams{
		Page:     1,
		PageSize: 10,
		Sort:     domain.SortID,
		Order:    domain.OrderAsc,
		Title:    q.Get("title"),
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return params, &domain.ValidationError{Field: "page", Reason: "must be an integer"}
		}

		params.Page = page
	}

	if v := q.Get("pageSize"); v != "" {
		pageSize, err := strconv.Atoi(v)
		if err != nil {
			return params, &domain.ValidationError{Field: "pageSize", Reason: "must be an integer"}
		}

		params.PageSize = pageSize
	}

	if v := q.Get("sort"); v != "" {
		params.Sort = v
	}

	if v := q.Get("order"); v != "" {
		params.Order = v
	}

	if v := q.Get("userId"); v != "" {
		userID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return params, &domain.ValidationError{Field: "userId", Reason: "must be an integer"}
		}

		params.UserID = &userID
	}

	if v := q.Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			return params, &domain.ValidationError{Field: "completed", Reason: "must be a boolean"}
		}

		params.Completed = &completed
	}

	return params, nil
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	result, err := h.todos.List(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request, id int64) {
	todo, err := h.todos.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, todo)
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	created, err := h.todos.Create(r.Context(), userID, req.Title, req.Completed)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request, id int64) {
	var req UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	updated, err := h.todos.Update(r.Context(), id, req.Completed)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.todos.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TodoHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	count, err := h.todos.Sync(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.LogWithContext(r.Context(), "synced todos", "count", count)

	writeJSON(w, http.StatusOK, SyncResponse{
		Message: "Synced " + strconv.Itoa(count) + " new todos",
		Count:   count,
	})
}

func (h *TodoHandler) CanAddIncomplete(w http.ResponseWriter, r *http.Request, userID int64) {
	canAdd, err := h.todos.CanAddIncomplete(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CanAddResponse{
		UserID:        userID,
		CanAdd:        canAdd,
		MaxIncomplete: domain.MaxIncomplete,
	})
}

// ServeSubpath dispatches everything under /todos/: the sync endpoint, the
// per-user capability check, and the id routes.
func (h *TodoHandler) ServeSubpath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/todos/")

	switch {
	case rest == "sync":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		h.Sync(w, r)

	case strings.HasPrefix(rest, "users/"):
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		if !strings.HasSuffix(rest, "/can-add-incomplete") {
			http.NotFound(w, r)
			return
		}

		trimmed := strings.TrimSuffix(strings.TrimPrefix(rest, "users/"), "/can-add-incomplete")
		if trimmed == "" || strings.Contains(trimmed, "/") {
			http.NotFound(w, r)
			return
		}

		userID, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		h.CanAddIncomplete(w, r, userID)

	default:
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid todo id")
			return
		}

		switch r.Method {
		case http.MethodGet:
			h.Get(w, r, id)
		case http.MethodPut:
			h.Update(w, r, id)
		case http.MethodDelete:
			h.Delete(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}
