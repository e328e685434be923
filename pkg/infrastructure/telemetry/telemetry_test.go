package telemetry

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/repositories/memory"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), false, "printcenter", nil)
	require.NoError(t, err)
	_, span := Tracer("").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_EnabledExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), true, "printcenter-test", &buf)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = Init(context.Background(), false, "", nil) })

	store := WrapStore(memory.NewStore(), "memory")
	boom := errors.New("boom")
	err = store.Update(context.Background(), func(repositories.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	router := chi.NewRouter()
	router.Use(Middleware)
	router.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/42", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, shutdown(context.Background()))
	out := buf.String()
	assert.Contains(t, out, "store.update")
	assert.Contains(t, out, "GET /healthz")
	assert.Contains(t, out, "GET /orders/{id}")
	assert.Contains(t, out, "printcenter-test")
}
