package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/identity/pkg/account"
	"github.com/taskhub/identity/pkg/guard"
	"github.com/taskhub/identity/pkg/storage"
	"github.com/taskhub/identity/pkg/task"
	"github.com/taskhub/identity/pkg/token"
)

type testEnv struct {
	router chi.Router
	store  *storage.InMemStore
	tokens *token.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := storage.NewInMemStore()
	tokens := token.NewService("task-api-secret", "identity", "identity")

	r := chi.NewRouter()
	r.Mount("/tasks", NewHandle(task.NewService(store.Tasks())).Routes(guard.NewGuard(tokens, store.Accounts())))
	return &testEnv{router: r, store: store, tokens: tokens}
}

// newSession stores an account with one live session and returns its
// bearer token.
func (e *testEnv) newSession(t *testing.T, email string) (uuid.UUID, string) {
	t.Helper()

	acct := account.Account{
		ID:           uuid.New(),
		Name:         "Ada",
		Email:        email,
		PasswordHash: "irrelevant",
	}
	require.NoError(t, e.store.Accounts().Create(context.Background(), &acct))

	bearer, err := e.tokens.Issue(acct.ID.String())
	require.NoError(t, err)
	acct.AppendToken(bearer)
	require.NoError(t, e.store.Accounts().Update(context.Background(), &acct))
	return acct.ID, bearer
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createTask(t *testing.T, bearer, title string) task.Task {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/tasks", bearer, []byte(`{"title":"`+title+`"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created task.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created
}

func TestTaskCRUD(t *testing.T) {
	env := newTestEnv(t)
	_, bearer := env.newSession(t, "ada@example.com")

	created := env.createTask(t, bearer, "buy milk")
	assert.Equal(t, "buy milk", created.Title)
	assert.False(t, created.Done)

	t.Run("get", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/tasks/"+created.ID.String(), bearer, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got task.Task
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("list", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/tasks", bearer, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got []task.Task
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
	})

	t.Run("patch", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/tasks/"+created.ID.String(), bearer, []byte(`{"done":true}`))
		require.Equal(t, http.StatusOK, rec.Code)

		var got task.Task
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.True(t, got.Done)
		assert.Equal(t, "buy milk", got.Title)
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/tasks/"+created.ID.String(), bearer, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = env.do(t, http.MethodGet, "/tasks/"+created.ID.String(), bearer, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestTaskValidation(t *testing.T) {
	env := newTestEnv(t)
	_, bearer := env.newSession(t, "ada@example.com")

	t.Run("blank title", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/tasks", bearer, []byte(`{"title":"  "}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/tasks", bearer, []byte(`{broken`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad task id", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/tasks/not-a-uuid", bearer, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestTaskAuthorization(t *testing.T) {
	env := newTestEnv(t)
	_, owner := env.newSession(t, "ada@example.com")
	_, stranger := env.newSession(t, "eve@example.com")

	created := env.createTask(t, owner, "private work")

	t.Run("no token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/tasks", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("stranger cannot see the task", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/tasks/"+created.ID.String(), stranger, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("stranger list is empty", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/tasks", stranger, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/tasks/"+created.ID.String(), stranger, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = env.do(t, http.MethodGet, "/tasks/"+created.ID.String(), owner, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
