package httpapi

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/regionalmonitor/internal/domain"
)

type historyPoint struct {
	Time    int64                `json:"time"`
	Latency int64                `json:"latency"`
	Timing  domain.TimingMetrics `json:"timing"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now()

	summary, err := s.Store.GetGlobalSummary(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "summary unavailable")
		return
	}
	if summary == nil {
		summary = &domain.GlobalSummary{}
	}

	monitors := make(map[string]any, len(s.Monitors))
	for _, m := range s.Monitors {
		state, err := s.Store.GetState(ctx, m.ID)
		if err != nil {
			s.Logger.Warn("status_get_state_error", zap.String("monitor_id", m.ID), zap.Error(err))
			continue
		}
		if state == nil {
			state = &domain.MonitorState{MonitorID: m.ID}
		}

		status := string(state.Status)
		maintenance := s.maintenanceActive(m.ID, now)
		if maintenance {
			status = "maintenance"
		}

		monitors[m.ID] = map[string]any{
			"name":           m.Name,
			"status":         status,
			"primaryRegion":  m.PrimaryRegion,
			"latency":        state.PrimaryLatencyMS,
			"timing":         state.PrimaryTiming,
			"regionStatuses": state.RegionStatuses,
			"lastCheck":      state.LastCheckMS,
			"downSince":      state.DownSinceMS,
			"slowSince":      state.SlowSinceMS,
			"maintenance":    maintenance,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"up":           summary.OverallUp,
		"down":         summary.OverallDown,
		"degraded":     summary.OverallDegraded,
		"updatedAt":    summary.LastUpdateMS,
		"maintenances": s.Maintenances,
		"monitors":     monitors,
	})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now()

	summary, err := s.Store.GetGlobalSummary(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "summary unavailable")
		return
	}
	if summary == nil {
		summary = &domain.GlobalSummary{}
	}

	monitors := make(map[string]any, len(s.Monitors))
	for _, m := range s.Monitors {
		state, err := s.Store.GetState(ctx, m.ID)
		if err != nil {
			continue
		}
		if state == nil {
			state = &domain.MonitorState{MonitorID: m.ID}
		}

		up := state.Status != domain.StatusDown
		message := "ok"
		if s.maintenanceActive(m.ID, now) {
			message = "maintenance"
		} else if state.Status == domain.StatusDown {
			message = "down"
		} else if state.Status == domain.StatusDegraded {
			message = "degraded"
		}

		monitors[m.ID] = map[string]any{
			"up":       up,
			"latency":  state.PrimaryLatencyMS,
			"location": m.PrimaryRegion,
			"message":  message,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"up":           summary.OverallUp,
		"down":         summary.OverallDown,
		"updatedAt":    summary.LastUpdateMS,
		"maintenances": s.Maintenances,
		"monitors":     monitors,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, ok := s.monitor(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown monitor")
		return
	}
	region := r.URL.Query().Get("region")
	if region == "" {
		region = m.PrimaryRegion
	}

	sinceMS := time.Now().Add(-historyWindow).UnixMilli()
	points, err := s.Store.LatencyHistory(r.Context(), id, region, sinceMS)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}

	data := toHistoryPoints(points)
	writeJSON(w, http.StatusOK, map[string]any{
		"monitorId": id,
		"region":    region,
		"data":      data,
	})
}

func (s *Server) handleHistoryAll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, ok := s.monitor(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown monitor")
		return
	}

	sinceMS := time.Now().Add(-historyWindow).UnixMilli()
	regions := make(map[string][]historyPoint, len(m.Regions))
	for _, region := range m.Regions {
		points, err := s.Store.LatencyHistory(r.Context(), id, region, sinceMS)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "history unavailable")
			return
		}
		regions[region] = toHistoryPoints(points)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"monitorId":     id,
		"primaryRegion": m.PrimaryRegion,
		"regions":       regions,
	})
}

func toHistoryPoints(points []domain.LatencyPoint) []historyPoint {
	out := make([]historyPoint, 0, len(points))
	for _, p := range points {
		out = append(out, historyPoint{Time: p.TimestampMS, Latency: p.LatencyMS, Timing: p.Timing})
	}
	return out
}

func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	monitorID := r.URL.Query().Get("monitorId")

	var incidents []domain.Incident
	if monitorID != "" {
		list, err := s.Store.ListIncidents(r.Context(), monitorID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "incidents unavailable")
			return
		}
		incidents = list
	} else {
		for _, m := range s.Monitors {
			list, err := s.Store.ListIncidents(r.Context(), m.ID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "incidents unavailable")
				return
			}
			incidents = append(incidents, list...)
		}
		sort.Slice(incidents, func(i, j int) bool { return incidents[i].StartMS > incidents[j].StartMS })
	}

	byMonth := make(map[string][]domain.Incident)
	for _, inc := range incidents {
		key := time.UnixMilli(inc.StartMS).UTC().Format("2006-01")
		byMonth[key] = append(byMonth[key], inc)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"incidents": incidents,
		"byMonth":   byMonth,
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	type safeMonitor struct {
		ID            string   `json:"id"`
		Name          string   `json:"name"`
		Method        string   `json:"method"`
		Regions       []string `json:"regions"`
		PrimaryRegion string   `json:"primaryRegion"`
		Group         string   `json:"group,omitempty"`
	}

	safe := make([]safeMonitor, 0, len(s.Monitors))
	for _, m := range s.Monitors {
		safe = append(safe, safeMonitor{
			ID:            m.ID,
			Name:          m.Name,
			Method:        string(m.Method),
			Regions:       m.Regions,
			PrimaryRegion: m.PrimaryRegion,
			Group:         m.Group,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page":         s.Page,
		"monitors":     safe,
		"maintenances": s.Maintenances,
	})
}

func (s *Server) handleBadge(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	m, ok := s.monitor(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown monitor")
		return
	}

	label := queryOr(r, "label", m.Name)
	upMsg := queryOr(r, "up", "up")
	downMsg := queryOr(r, "down", "down")
	colorUp := queryOr(r, "colorUp", "brightgreen")
	colorDown := queryOr(r, "colorDown", "red")

	state, err := s.Store.GetState(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "state unavailable")
		return
	}

	message, color := upMsg, colorUp
	if state != nil && state.Status == domain.StatusDown {
		message, color = downMsg, colorDown
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	writeJSON(w, http.StatusOK, map[string]any{
		"schemaVersion": 1,
		"label":         label,
		"message":       message,
		"color":         color,
	})
}

func queryOr(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}
