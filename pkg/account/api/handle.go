// Package api exposes the account lifecycle over HTTP.
package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/taskhub/identity/pkg/account"
	"github.com/taskhub/identity/pkg/avatar"
	"github.com/taskhub/identity/pkg/errors"
	"github.com/taskhub/identity/pkg/guard"
)

// avatarFormField is the multipart field carrying the uploaded image
const avatarFormField = "avatar"

// Handle serves the account routes
type Handle struct {
	accountService *account.Service
	avatarPipeline *avatar.Pipeline
}

// NewHandle creates a new account API handler
func NewHandle(accountService *account.Service, avatarPipeline *avatar.Pipeline) Handle {
	return Handle{
		accountService: accountService,
		avatarPipeline: avatarPipeline,
	}
}

// Routes mounts the account endpoints. Everything except registration and
// login sits behind the session guard.
func (h Handle) Routes(g *guard.Guard) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Register)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(g.Middleware)
		r.Get("/{id}/avatar", h.GetAvatar)
		r.Post("/logout", h.Logout)
		r.Post("/logoutAll", h.LogoutAll)
		r.Get("/me", h.GetMe)
		r.Patch("/me", h.UpdateMe)
		r.Delete("/me", h.DeleteMe)
		r.Post("/me/avatar", h.UploadAvatar)
		r.Delete("/me/avatar", h.DeleteAvatar)
	})

	return r
}

// Register creates a new account
// (POST /users)
func (h Handle) Register(w http.ResponseWriter, r *http.Request) {
	var data RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		badRequestBody(w, r, err)
		return
	}

	acct, token, err := h.accountService.Register(r.Context(), account.RegisterParams{
		Name:     data.Name,
		Email:    data.Email,
		Password: data.Password,
		Age:      data.Age,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, authResponse(acct, token))
}

// Login verifies credentials and opens a new session
// (POST /users/login)
func (h Handle) Login(w http.ResponseWriter, r *http.Request) {
	var data LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		badRequestBody(w, r, err)
		return
	}

	acct, token, err := h.accountService.Login(r.Context(), data.Email, data.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, authResponse(acct, token))
}

// Logout revokes the session the request authenticated with
// (POST /users/logout)
func (h Handle) Logout(w http.ResponseWriter, r *http.Request) {
	acct, token, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	if err := h.accountService.Logout(r.Context(), acct.ID, token); err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// LogoutAll revokes every session of the authenticated account
// (POST /users/logoutAll)
func (h Handle) LogoutAll(w http.ResponseWriter, r *http.Request) {
	acct, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	if err := h.accountService.LogoutAll(r.Context(), acct.ID); err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// GetMe returns the authenticated account's profile
// (GET /users/me)
func (h Handle) GetMe(w http.ResponseWriter, r *http.Request) {
	acct, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, accountResponse(acct))
}

// UpdateMe applies a partial profile update. Any key outside the allowed
// set rejects the whole patch.
// (PATCH /users/me)
func (h Handle) UpdateMe(w http.ResponseWriter, r *http.Request) {
	acct, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		badRequestBody(w, r, err)
		return
	}

	updated, err := h.accountService.UpdateProfile(r.Context(), acct.ID, patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, accountResponse(updated))
}

// DeleteMe removes the authenticated account together with every record
// it owns
// (DELETE /users/me)
func (h Handle) DeleteMe(w http.ResponseWriter, r *http.Request) {
	acct, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	if err := h.accountService.DeleteSelf(r.Context(), acct.ID); err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, accountResponse(acct))
}

// UploadAvatar normalizes and stores the uploaded image
// (POST /users/me/avatar)
func (h Handle) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	acct, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile(avatarFormField)
	if err != nil {
		respondError(w, r, errors.Wrap(err, errors.ErrCodeValidationFailed, "missing avatar upload"))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, avatar.MaxBytes+1))
	if err != nil {
		respondError(w, r, errors.Wrap(err, errors.ErrCodeInternal, "failed to read avatar upload"))
		return
	}

	normalized, err := h.avatarPipeline.Process(raw, header.Filename)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.accountService.SetAvatar(r.Context(), acct.ID, normalized); err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// DeleteAvatar clears the stored avatar
// (DELETE /users/me/avatar)
func (h Handle) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	acct, _, ok := sessionFromContext(w, r)
	if !ok {
		return
	}

	if err := h.accountService.DeleteAvatar(r.Context(), acct.ID); err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// GetAvatar serves any account's stored avatar as PNG
// (GET /users/{id}/avatar)
func (h Handle) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, errors.New(errors.ErrCodeNotFound, "account not found"))
		return
	}

	img, err := h.accountService.GetAvatar(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		slog.Error("Failed to write avatar response", "err", err)
	}
}

func accountResponse(acct account.Account) AccountResponse {
	view := acct.View()
	var resp AccountResponse
	if err := copier.Copy(&resp, &view); err != nil {
		slog.Error("Failed to map account view", "err", err)
	}
	return resp
}

func authResponse(acct account.Account, token string) AuthResponse {
	return AuthResponse{
		User:  accountResponse(acct),
		Token: token,
	}
}

// sessionFromContext pulls the guard's account and raw token out of the
// request context. A miss means a route was mounted outside the guard.
func sessionFromContext(w http.ResponseWriter, r *http.Request) (account.Account, string, bool) {
	acct, ok := guard.AccountFromContext(r.Context())
	if !ok {
		slog.Error("Missing authenticated account in request context")
		respondError(w, r, errors.New(errors.ErrCodeTokenInvalid, "please authenticate"))
		return account.Account{}, "", false
	}
	token, _ := guard.TokenFromContext(r.Context())
	return acct, token, true
}

func badRequestBody(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, errors.Wrap(err, errors.ErrCodeValidationFailed, "invalid request body"))
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
