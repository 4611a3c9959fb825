package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHealthHandler(t *testing.T) {
	up := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("dial tcp: connection refused") }

	tests := []struct {
		name       string
		checks     []HealthCheck
		wantStatus int
		wantBody   HealthResponse
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantBody:   HealthResponse{Status: "ok"},
		},
		{
			name: "all up",
			checks: []HealthCheck{
				{Name: "postgres", Critical: true, Ping: up},
				{Name: "redis", Ping: up},
			},
			wantStatus: http.StatusOK,
			wantBody:   HealthResponse{Status: "ok", Checks: map[string]string{"postgres": "up", "redis": "up"}},
		},
		{
			name: "cache down degrades",
			checks: []HealthCheck{
				{Name: "postgres", Critical: true, Ping: up},
				{Name: "redis", Ping: down},
			},
			wantStatus: http.StatusOK,
			wantBody:   HealthResponse{Status: "degraded", Checks: map[string]string{"postgres": "up", "redis": "down"}},
		},
		{
			name: "store down is unavailable",
			checks: []HealthCheck{
				{Name: "redis", Ping: down},
				{Name: "postgres", Critical: true, Ping: down},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   HealthResponse{Status: "unavailable", Checks: map[string]string{"postgres": "down", "redis": "down"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checks...)

			rec := httptest.NewRecorder()
			h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var got HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if diff := cmp.Diff(tt.wantBody, got); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
