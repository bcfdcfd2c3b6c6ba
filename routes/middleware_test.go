package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireOperator(t *testing.T) {
	called := false
	handler := RequireOperator(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	t.Run("disabled when no token configured", func(t *testing.T) {
		t.Setenv("ADMIN_API_TOKEN", "")
		called = false
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodPost, "/api/matches", nil))
		if !called || rec.Code != http.StatusOK {
			t.Errorf("open mode: called=%v code=%d, want pass-through", called, rec.Code)
		}
	})

	t.Run("rejects missing bearer", func(t *testing.T) {
		t.Setenv("ADMIN_API_TOKEN", "secret")
		called = false
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodPost, "/api/matches", nil))
		if called || rec.Code != http.StatusUnauthorized {
			t.Errorf("missing token: called=%v code=%d, want 401", called, rec.Code)
		}
	})

	t.Run("rejects wrong token", func(t *testing.T) {
		t.Setenv("ADMIN_API_TOKEN", "secret")
		called = false
		req := httptest.NewRequest(http.MethodPost, "/api/matches", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		rec := httptest.NewRecorder()
		handler(rec, req)
		if called || rec.Code != http.StatusUnauthorized {
			t.Errorf("wrong token: called=%v code=%d, want 401", called, rec.Code)
		}
	})

	t.Run("accepts matching token", func(t *testing.T) {
		t.Setenv("ADMIN_API_TOKEN", "secret")
		called = false
		req := httptest.NewRequest(http.MethodPost, "/api/matches", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		handler(rec, req)
		if !called || rec.Code != http.StatusOK {
			t.Errorf("valid token: called=%v code=%d, want pass-through", called, rec.Code)
		}
	})
}
