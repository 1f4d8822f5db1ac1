// Package api exposes the task CRUD routes. Every route requires an
// authenticated session; all reads and writes are scoped to the owner.
package api

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/taskhub/identity/pkg/errors"
	"github.com/taskhub/identity/pkg/guard"
	"github.com/taskhub/identity/pkg/task"
)

// CreateTaskRequest is the body for POST /tasks
type CreateTaskRequest struct {
	Title string `json:"title"`
}

// UpdateTaskRequest is the body for PATCH /tasks/{id}. Absent fields are
// left unchanged.
type UpdateTaskRequest struct {
	Title *string `json:"title"`
	Done  *bool   `json:"done"`
}

// ErrorResponse is the body for every non-2xx response
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Handle serves the task routes
type Handle struct {
	taskService *task.Service
}

// NewHandle creates a new task API handler
func NewHandle(taskService *task.Service) Handle {
	return Handle{taskService: taskService}
}

// Routes mounts the task endpoints behind the session guard
func (h Handle) Routes(g *guard.Guard) chi.Router {
	r := chi.NewRouter()
	r.Use(g.Middleware)

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

// Create adds a task owned by the authenticated account
// (POST /tasks)
func (h Handle) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(w, r)
	if !ok {
		return
	}

	var data CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		respondError(w, r, errors.Wrap(err, errors.ErrCodeValidationFailed, "invalid request body"))
		return
	}

	t, err := h.taskService.Create(r.Context(), owner, data.Title)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, t)
}

// List returns the authenticated account's tasks
// (GET /tasks)
func (h Handle) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.List(r.Context(), owner)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	render.JSON(w, r, tasks)
}

// Get returns one of the authenticated account's tasks
// (GET /tasks/{id})
func (h Handle) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	t, err := h.taskService.Get(r.Context(), owner, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, t)
}

// Update patches one of the authenticated account's tasks
// (PATCH /tasks/{id})
func (h Handle) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var data UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		respondError(w, r, errors.Wrap(err, errors.ErrCodeValidationFailed, "invalid request body"))
		return
	}

	t, err := h.taskService.Update(r.Context(), owner, id, task.UpdateParams{
		Title: data.Title,
		Done:  data.Done,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, t)
}

// Delete removes one of the authenticated account's tasks
// (DELETE /tasks/{id})
func (h Handle) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), owner, id); err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func ownerFromContext(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	acct, ok := guard.AccountFromContext(r.Context())
	if !ok {
		slog.Error("Missing authenticated account in request context")
		respondError(w, r, errors.New(errors.ErrCodeTokenInvalid, "please authenticate"))
		return uuid.Nil, false
	}
	return acct.ID, true
}

func taskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, errors.NotFound("task", chi.URLParam(r, "id")))
		return uuid.Nil, false
	}
	return id, true
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{
		Code:    string(errors.GetCode(err)),
		Message: "request failed",
	}

	var coded *errors.Error
	if stderrors.As(err, &coded) {
		resp.Message = coded.Message
		resp.Details = coded.Details
	}

	render.Status(r, errors.MapErrorCodeToHTTPStatus(errors.GetCode(err)))
	render.JSON(w, r, resp)
}
