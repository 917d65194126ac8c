package conversations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hezi777/barber-pro/internal/conversation"
	"github.com/Hezi777/barber-pro/pkg/logging"
)

func newTestRouter(repo Repository) http.Handler {
	h := NewHandler(repo, logging.Default())
	r := chi.NewRouter()
	r.Get("/api/conversations/{phone}", h.Get)
	r.Delete("/api/conversations/{phone}", h.Reset)
	return r
}

func TestHandlerGet(t *testing.T) {
	repo := NewInMemoryRepository()
	require.NoError(t, repo.Put(context.Background(), sampleRecord()))
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/+972500000001", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		OK   bool   `json:"ok"`
		Data Record `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.True(t, body.OK)
	assert.Equal(t, conversation.StateAwaitingTime, body.Data.State)
	assert.Equal(t, "haircut", body.Data.Context.Service)
}

func TestHandlerNotFound(t *testing.T) {
	router := newTestRouter(NewInMemoryRepository())

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/conversations/+972500000009", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, method)
		assert.Contains(t, w.Body.String(), "Conversation not found.")
	}
}

func TestHandlerReset(t *testing.T) {
	repo := NewInMemoryRepository()
	require.NoError(t, repo.Put(context.Background(), sampleRecord()))
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodDelete, "/api/conversations/+972500000001", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	rec, err := repo.Get(context.Background(), testPhone)
	require.NoError(t, err)
	assert.Equal(t, conversation.StateNew, rec.State)
	assert.True(t, rec.Context.IsEmpty())
}

func TestHandlerDecodesEncodedPhone(t *testing.T) {
	repo := NewInMemoryRepository()
	require.NoError(t, repo.Put(context.Background(), sampleRecord()))
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/%2B972500000001", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
