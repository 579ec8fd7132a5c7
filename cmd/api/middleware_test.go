package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestRequireModerator(t *testing.T) {
	app := &application{logger: zap.NewNop().Sugar()}

	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})
	handler := app.RequireModerator(next)

	tests := []struct {
		name     string
		p        *principal
		wantCode int
		wantNext bool
	}{
		{"no principal", nil, http.StatusForbidden, false},
		{"plain reviewer", &principal{ID: "u1"}, http.StatusForbidden, false},
		{"moderator", &principal{ID: "u2", Role: moderatorRole}, http.StatusNoContent, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called = false
			r := httptest.NewRequest(http.MethodPut, "/v1/reviews/r1/status", nil)
			if tc.p != nil {
				r = r.WithContext(context.WithValue(r.Context(), principalCtx, tc.p))
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tc.wantCode {
				t.Fatalf("expected status %d, got %d", tc.wantCode, w.Code)
			}
			if called != tc.wantNext {
				t.Fatalf("next handler called = %v, want %v", called, tc.wantNext)
			}
		})
	}
}
