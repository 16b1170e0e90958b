// Package probe executes a single check against a MonitorTarget and
// reports a phase-accurate domain.CheckResult. It never touches the
// central store; the regional probe driver (internal/probedriver) owns
// fan-out, concurrency, and persistence.
package probe

import (
	"context"

	"github.com/hamed0406/regionalmonitor/internal/domain"
)

// Checker executes one probe attempt against a monitor target.
type Checker interface {
	Check(ctx context.Context, m domain.MonitorTarget, region string) domain.CheckResult
}

// Dispatcher picks the right Checker for a monitor's method and runs it.
// Grounded on the teacher's probe.MultiChecker fan-out shape, but
// dispatching by method instead of running every checker unconditionally.
type Dispatcher struct {
	HTTP *HTTPChecker
	TCP  *TCPChecker
}

// NewDispatcher builds a Dispatcher with default-configured checkers.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{HTTP: NewHTTPChecker(), TCP: NewTCPChecker()}
}

func (d *Dispatcher) Check(ctx context.Context, m domain.MonitorTarget, region string) domain.CheckResult {
	if m.Method == domain.MethodTCPPing {
		return d.TCP.Check(ctx, m, region)
	}
	return d.HTTP.Check(ctx, m, region)
}
