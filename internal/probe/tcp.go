package probe

import (
	"context"
	"net"
	"time"

	"github.com/hamed0406/regionalmonitor/internal/domain"
)

// TCPChecker performs a connect-only probe for MethodTCPPing targets
// (spec §4.2). Grounded on the DNS-then-dial shape of the teacher's
// probe.CheckDNS + plain net.Dialer, widened to report DNS and connect
// phase timings instead of just a resolver classification string.
type TCPChecker struct {
	Resolver *net.Resolver
}

func NewTCPChecker() *TCPChecker {
	return &TCPChecker{Resolver: net.DefaultResolver}
}

func (c *TCPChecker) Check(ctx context.Context, m domain.MonitorTarget, region string) domain.CheckResult {
	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, m.Timeout())
	defer cancel()

	host, port, err := net.SplitHostPort(m.Target)
	if err != nil {
		timing := domain.TimingMetrics{}
		return failResult(m, region, start, timing, "Connection failed: "+err.Error())
	}

	dnsStart := time.Now()
	ips, err := c.Resolver.LookupIPAddr(cctx, host)
	dnsDone := time.Now()
	if err != nil || len(ips) == 0 {
		timing := domain.TimingMetrics{DNSLookup: msSince(dnsStart, dnsDone)}
		timing.Total = timing.DNSLookup
		cause := err
		if cause == nil {
			cause = &net.DNSError{Err: "no address found", Name: host, IsNotFound: true}
		}
		return failResult(m, region, start, timing, Classify(cause))
	}

	dialer := &net.Dialer{}
	connStart := time.Now()
	conn, err := dialer.DialContext(cctx, "tcp", net.JoinHostPort(ips[0].IP.String(), port))
	connDone := time.Now()
	if err != nil {
		timing := domain.TimingMetrics{DNSLookup: msSince(dnsStart, dnsDone), TCPConnect: msSince(connStart, connDone)}
		timing.Total = timing.DNSLookup + timing.TCPConnect
		return failResult(m, region, start, timing, Classify(err))
	}
	defer conn.Close()

	timing := domain.TimingMetrics{
		DNSLookup:  msSince(dnsStart, dnsDone),
		TCPConnect: msSince(connStart, connDone),
	}
	timing.Total = timing.DNSLookup + timing.TCPConnect

	return domain.CheckResult{
		MonitorID:   m.ID,
		Region:      region,
		TimestampMS: start.UnixMilli(),
		Status:      domain.StatusUp,
		LatencyMS:   timing.Total,
		Timing:      timing,
	}
}
