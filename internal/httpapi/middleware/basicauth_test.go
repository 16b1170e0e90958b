package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestBasicAuth_Disabled_AllowsAllWhenUserEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	BasicAuth("", "")(okHandler()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 when disabled, got %d", rec.Code)
	}
}

func TestBasicAuth_CorrectCredentialsPass(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.SetBasicAuth("alice", "secret")
	rec := httptest.NewRecorder()
	BasicAuth("alice", "secret")(okHandler()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 for correct credentials, got %d", rec.Code)
	}
}

func TestBasicAuth_WrongPasswordRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.SetBasicAuth("alice", "wrong")
	rec := httptest.NewRecorder()
	BasicAuth("alice", "secret")(okHandler()).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 for wrong password, got %d", rec.Code)
	}
}

func TestBasicAuth_MissingHeaderRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	BasicAuth("alice", "secret")(okHandler()).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 for missing credentials, got %d", rec.Code)
	}
}
