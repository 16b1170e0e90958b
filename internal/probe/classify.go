package probe

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Error categories, verbatim per spec §7. Grounded on the teacher's
// probe.CheckDNS, which classified resolver errors into a similar small
// vocabulary ("NXDOMAIN", "SERVFAIL_or_TIMEOUT", ...); widened here to
// cover the full probe path (DNS, connect, TLS, timeout, HTTP status).
const (
	ErrDNSResolutionFailed = "DNS resolution failed"
	ErrHostNotFound        = "Host not found"
	ErrConnectionRefused   = "Connection refused"
	ErrRequestTimeout      = "Request timeout"
	ErrTLSError            = "TLS/SSL error"
)

// Classify maps a transport-level error into one of the spec's error
// categories. It is used by both the HTTP and TCP checkers so the two
// share one vocabulary.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrRequestTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrRequestTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return ErrHostNotFound
		}
		if dnsErr.Timeout() {
			return ErrRequestTimeout
		}
		return ErrDNSResolutionFailed
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"):
		return ErrConnectionRefused
	case strings.Contains(msg, "no such host"):
		return ErrHostNotFound
	case strings.Contains(msg, "certificate"), strings.Contains(msg, "tls"), strings.Contains(msg, "x509"):
		return ErrTLSError
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "i/o timeout"):
		return ErrRequestTimeout
	}
	return "Connection failed: " + err.Error()
}
