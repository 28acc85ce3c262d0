package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rushteam/bookrec/engine"
	"github.com/rushteam/bookrec/store"
)

func TestHealthHandler(t *testing.T) {
	ctx := context.Background()
	src := store.NewCatalogAdapter(store.NewMemoryStore(), "")
	if _, err := store.Seed(ctx, src, 1); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	e, err := engine.New(src, engine.DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h := healthHandler(e)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("before training: status = %d, want 503", rec.Code)
	}

	if err := e.Train(ctx); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("after training: status = %d, want 200", rec.Code)
	}
	var body struct {
		Status       string `json:"status"`
		ModelVersion int64  `json:"model_version"`
		Books        int    `json:"books"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "ok" || body.ModelVersion != 1 || body.Books != len(store.SampleBooks()) {
		t.Errorf("body = %+v", body)
	}
}
