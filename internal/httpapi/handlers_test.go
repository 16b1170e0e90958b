package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/regionalmonitor/internal/domain"
	"github.com/hamed0406/regionalmonitor/internal/store"
)

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func testServer(t *testing.T, monitors []domain.MonitorTarget, maintenances []domain.Maintenance) (*Server, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	srv := NewServer(zap.NewNop(), st, monitors, maintenances, nil)
	return srv, st
}

func TestHandleStatus_ReportsMaintenanceOverride(t *testing.T) {
	m := domain.MonitorTarget{ID: "m1", Name: "Example", Regions: []string{"a"}, PrimaryRegion: "a"}
	maint := domain.Maintenance{Body: "upgrade", Start: time.UnixMilli(0)}
	srv, st := testServer(t, []domain.MonitorTarget{m}, []domain.Maintenance{maint})

	must(t, st.PutState(context.Background(), domain.MonitorState{MonitorID: "m1", Status: domain.StatusDown}))
	must(t, st.PutGlobalSummary(context.Background(), domain.GlobalSummary{OverallDown: 1}))

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.Router("", "", 10000, 10000).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Monitors map[string]struct {
			Status      string `json:"status"`
			Maintenance bool   `json:"maintenance"`
		} `json:"monitors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Monitors["m1"].Status != "maintenance" || !body.Monitors["m1"].Maintenance {
		t.Fatalf("want maintenance override, got %+v", body.Monitors["m1"])
	}
}

func TestHandleData_UpFieldReflectsDownStatus(t *testing.T) {
	m := domain.MonitorTarget{ID: "m1", Name: "Example", Regions: []string{"a"}, PrimaryRegion: "a"}
	srv, st := testServer(t, []domain.MonitorTarget{m}, nil)
	must(t, st.PutState(context.Background(), domain.MonitorState{MonitorID: "m1", Status: domain.StatusDown}))

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	rec := httptest.NewRecorder()
	srv.Router("", "", 10000, 10000).ServeHTTP(rec, req)

	var body struct {
		Monitors map[string]struct {
			Up      bool   `json:"up"`
			Message string `json:"message"`
		} `json:"monitors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Monitors["m1"].Up {
		t.Fatalf("want up=false for down monitor")
	}
	if body.Monitors["m1"].Message != "down" {
		t.Fatalf("want message=down, got %q", body.Monitors["m1"].Message)
	}
}

func TestHandleHistory_DefaultsToPrimaryRegion(t *testing.T) {
	m := domain.MonitorTarget{ID: "m1", Regions: []string{"a", "b"}, PrimaryRegion: "a"}
	srv, st := testServer(t, []domain.MonitorTarget{m}, nil)
	must(t, st.PutLatency(context.Background(), domain.LatencyPoint{MonitorID: "m1", Region: "a", TimestampMS: time.Now().UnixMilli(), LatencyMS: 42}))

	req := httptest.NewRequest(http.MethodGet, "/api/history/m1", nil)
	rec := httptest.NewRecorder()
	srv.Router("", "", 10000, 10000).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Region string `json:"region"`
		Data   []struct {
			Latency int64 `json:"latency"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Region != "a" {
		t.Fatalf("want default region 'a', got %q", body.Region)
	}
	if len(body.Data) != 1 || body.Data[0].Latency != 42 {
		t.Fatalf("want one point with latency 42, got %+v", body.Data)
	}
}

func TestHandleHistory_UnknownMonitorIs404(t *testing.T) {
	srv, _ := testServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/history/nope", nil)
	rec := httptest.NewRecorder()
	srv.Router("", "", 10000, 10000).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}

func TestHandleIncidents_GroupsByMonth(t *testing.T) {
	m := domain.MonitorTarget{ID: "m1", Regions: []string{"a"}, PrimaryRegion: "a"}
	srv, st := testServer(t, []domain.MonitorTarget{m}, nil)
	ts := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC).UnixMilli()
	must(t, st.PutIncident(context.Background(), domain.Incident{MonitorID: "m1", StartMS: ts}))

	req := httptest.NewRequest(http.MethodGet, "/api/incidents?monitorId=m1", nil)
	rec := httptest.NewRecorder()
	srv.Router("", "", 10000, 10000).ServeHTTP(rec, req)

	var body struct {
		ByMonth map[string][]domain.Incident `json:"byMonth"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.ByMonth["2026-03"]) != 1 {
		t.Fatalf("want one incident grouped under 2026-03, got %+v", body.ByMonth)
	}
}

func TestHandleBadge_ReflectsStatusAndCustomLabel(t *testing.T) {
	m := domain.MonitorTarget{ID: "m1", Name: "Example", Regions: []string{"a"}, PrimaryRegion: "a"}
	srv, st := testServer(t, []domain.MonitorTarget{m}, nil)
	must(t, st.PutState(context.Background(), domain.MonitorState{MonitorID: "m1", Status: domain.StatusDown}))

	req := httptest.NewRequest(http.MethodGet, "/api/badge?id=m1&label=API&down=offline&colorDown=black", nil)
	rec := httptest.NewRecorder()
	srv.Router("", "", 10000, 10000).ServeHTTP(rec, req)

	var body struct {
		Label   string `json:"label"`
		Message string `json:"message"`
		Color   string `json:"color"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Label != "API" || body.Message != "offline" || body.Color != "black" {
		t.Fatalf("unexpected badge body: %+v", body)
	}
}

func TestRouter_OptionsShortCircuits200(t *testing.T) {
	srv, _ := testServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/status", nil)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	srv.Router("", "", 10000, 10000).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 for CORS preflight, got %d", rec.Code)
	}
}

func TestRouter_BasicAuthGateRejectsWithoutCredentials(t *testing.T) {
	srv, _ := testServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.Router("user", "pass", 10000, 10000).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 when auth configured and missing, got %d", rec.Code)
	}
}
