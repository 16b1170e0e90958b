package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhook_JSONSubstitutesMsgAndSetsContentType(t *testing.T) {
	var gotBody map[string]string
	var gotContentType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(200)
	}))
	defer ts.Close()

	wh := NewWebhook(ts.URL, "", PayloadJSON, map[string]string{"text": "alert: $MSG"}, 0)
	if wh == nil {
		t.Fatal("expected webhook")
	}
	if err := wh.Send(context.Background(), "Down", "example.com"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotContentType != "application/json" {
		t.Fatalf("want json content type, got %q", gotContentType)
	}
	if gotBody["text"] != "alert: Down\nexample.com" {
		t.Fatalf("want substituted message, got %q", gotBody["text"])
	}
}

func TestWebhook_FormEncodedBody(t *testing.T) {
	var gotContentType, gotForm string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		_ = r.ParseForm()
		gotForm = r.PostForm.Get("text")
		w.WriteHeader(200)
	}))
	defer ts.Close()

	wh := NewWebhook(ts.URL, "", PayloadForm, map[string]string{"text": "$MSG"}, 0)
	if err := wh.Send(context.Background(), "Up", ""); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Fatalf("want form content type, got %q", gotContentType)
	}
	if gotForm != "Up" {
		t.Fatalf("want form value Up, got %q", gotForm)
	}
}

func TestWebhook_ParamAppendsToQueryAndEmptyBody(t *testing.T) {
	var gotQuery string
	var gotBodyLen int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("msg")
		buf := make([]byte, 1)
		n, _ := r.Body.Read(buf)
		gotBodyLen = n
		w.WriteHeader(200)
	}))
	defer ts.Close()

	wh := NewWebhook(ts.URL, "", PayloadParam, map[string]string{"msg": "$MSG"}, 0)
	if err := wh.Send(context.Background(), "Slow", ""); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotQuery != "Slow" {
		t.Fatalf("want query param Slow, got %q", gotQuery)
	}
	if gotBodyLen != 0 {
		t.Fatalf("want empty body for param payload type")
	}
}

func TestWebhook_Non2xxIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	wh := NewWebhook(ts.URL, "", PayloadJSON, nil, 0)
	if err := wh.Send(context.Background(), "X", "Y"); err == nil {
		t.Fatalf("want error on non-2xx")
	}
}

func TestWebhook_NilWhenURLEmpty(t *testing.T) {
	if NewWebhook("", "", PayloadJSON, nil, 0) != nil {
		t.Fatalf("want nil webhook for empty url")
	}
}

func TestMulti_FansOutAndReturnsFirstError(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(200)
	}))
	defer ts.Close()

	ok := NewWebhook(ts.URL, "", PayloadJSON, nil, 0)
	m := Multi{ok, nil}
	if err := m.Send(context.Background(), "T", "B"); err != nil {
		t.Fatalf("want nil error when the real webhook succeeds and the nil entry is skipped, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("want exactly one delivery, got %d", calls)
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer failing.Close()
	bad := NewWebhook(failing.URL, "", PayloadJSON, nil, 0)
	if err := (Multi{bad, ok}).Send(context.Background(), "T", "B"); err == nil {
		t.Fatalf("want the failing webhook's error returned")
	}
	if calls != 2 {
		t.Fatalf("want delivery to continue past the failing webhook, got %d", calls)
	}
}
