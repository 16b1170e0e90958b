package probe

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"github.com/hamed0406/regionalmonitor/internal/domain"
)

const userAgent = "regionalmonitor-probe/1.0"

// HTTPChecker executes one HTTP(S) request and reports phase-accurate
// timings, per spec §4.1. Grounded on the teacher's probe.HTTPChecker,
// widened from a single Timeout+latency measurement into the full DNS/
// connect/TLS/TTFB/download breakdown via httptrace.ClientTrace, since
// the teacher's http.Client-only approach has no way to see individual
// connection phases.
type HTTPChecker struct {
	Client *http.Client
}

// NewHTTPChecker builds a checker that never follows redirects (the
// target is explicit, per spec §4.1) and relies on the per-request
// context deadline rather than a fixed client-wide timeout, since each
// monitor may configure its own timeout_ms.
func NewHTTPChecker() *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *HTTPChecker) Check(ctx context.Context, m domain.MonitorTarget, region string) domain.CheckResult {
	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, m.Timeout())
	defer cancel()

	var (
		dnsStart, dnsDone               time.Time
		connStart, connDone             time.Time
		tlsStart, tlsDone                time.Time
		wroteReq, firstByte, bodyEnd     time.Time
		dnsErr, connErr, tlsErr, wrtErr  error
	)

	trace := &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone: func(info httptrace.DNSDoneInfo) {
			dnsDone = time.Now()
			dnsErr = info.Err
		},
		ConnectStart: func(network, addr string) {
			if connStart.IsZero() {
				connStart = time.Now()
			}
		},
		ConnectDone: func(network, addr string, err error) {
			connDone = time.Now()
			if err != nil {
				connErr = err
			}
		},
		TLSHandshakeStart: func() { tlsStart = time.Now() },
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			tlsDone = time.Now()
			if err != nil {
				tlsErr = err
			}
		},
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			wroteReq = time.Now()
			wrtErr = info.Err
		},
		GotFirstResponseByte: func() { firstByte = time.Now() },
	}
	cctx = httptrace.WithClientTrace(cctx, trace)

	method := string(m.Method)
	if method == "" {
		method = string(domain.MethodGet)
	}
	var bodyReader io.Reader
	if method == string(domain.MethodPost) || method == string(domain.MethodPut) || method == string(domain.MethodPatch) {
		bodyReader = strings.NewReader(m.Body)
	}

	req, err := http.NewRequestWithContext(cctx, method, m.Target, bodyReader)
	if err != nil {
		return failResult(m, region, start, domain.TimingMetrics{}, "Connection failed: "+err.Error())
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range m.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		if dnsErr != nil {
			timing := domain.TimingMetrics{DNSLookup: msSince(dnsStart, dnsDone)}
			timing.Total = timing.DNSLookup
			return failResult(m, region, start, timing, ErrDNSResolutionFailed)
		}
		timing := partialTiming(dnsStart, dnsDone, connStart, connDone, tlsStart, tlsDone, wroteReq, time.Time{}, time.Time{})
		timing.Total = time.Since(start).Milliseconds()
		cause := err
		if connErr != nil {
			cause = connErr
		} else if tlsErr != nil {
			cause = tlsErr
		} else if wrtErr != nil {
			cause = wrtErr
		}
		return failResult(m, region, start, timing, Classify(cause))
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	bodyEnd = time.Now()
	if readErr != nil {
		timing := partialTiming(dnsStart, dnsDone, connStart, connDone, tlsStart, tlsDone, wroteReq, firstByte, bodyEnd)
		timing.Total = time.Since(start).Milliseconds()
		return failResult(m, region, start, timing, Classify(readErr))
	}

	timing := partialTiming(dnsStart, dnsDone, connStart, connDone, tlsStart, tlsDone, wroteReq, firstByte, bodyEnd)
	timing.Total = bodyEnd.Sub(start).Milliseconds()

	if errStr := validate(resp.StatusCode, m, body); errStr != "" {
		return failResult(m, region, start, timing, errStr)
	}

	return domain.CheckResult{
		MonitorID:   m.ID,
		Region:      region,
		TimestampMS: start.UnixMilli(),
		Status:      domain.StatusUp,
		LatencyMS:   timing.Total,
		Timing:      timing,
	}
}

// validate runs the three response checks in order (§4.1) and returns
// the first failing reason, or "" if the response passes all of them.
func validate(statusCode int, m domain.MonitorTarget, body []byte) string {
	codes := m.Codes()
	ok := false
	for _, c := range codes {
		if c == statusCode {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Sprintf("HTTP %d (expected %v)", statusCode, codes)
	}
	if m.ResponseKeyword != "" && !bytes.Contains(body, []byte(m.ResponseKeyword)) {
		return "Response missing required keyword: " + m.ResponseKeyword
	}
	if m.ResponseForbiddenWord != "" && bytes.Contains(body, []byte(m.ResponseForbiddenWord)) {
		return "Response contains forbidden keyword: " + m.ResponseForbiddenWord
	}
	return ""
}

func failResult(m domain.MonitorTarget, region string, start time.Time, timing domain.TimingMetrics, reason string) domain.CheckResult {
	return domain.CheckResult{
		MonitorID:   m.ID,
		Region:      region,
		TimestampMS: start.UnixMilli(),
		Status:      domain.StatusDown,
		LatencyMS:   timing.Total,
		Timing:      timing,
		Error:       reason,
	}
}

func msSince(a, b time.Time) int64 {
	if a.IsZero() || b.IsZero() || b.Before(a) {
		return 0
	}
	return b.Sub(a).Milliseconds()
}

func partialTiming(dnsStart, dnsDone, connStart, connDone, tlsStart, tlsDone, wroteReq, firstByte, bodyEnd time.Time) domain.TimingMetrics {
	t := domain.TimingMetrics{
		DNSLookup:    msSince(dnsStart, dnsDone),
		TCPConnect:   msSince(connStart, connDone),
		TLSHandshake: msSince(tlsStart, tlsDone),
		TTFB:         msSince(wroteReq, firstByte),
	}
	if !firstByte.IsZero() && !bodyEnd.IsZero() {
		t.ContentDownload = msSince(firstByte, bodyEnd)
	}
	return t
}
