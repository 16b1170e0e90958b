// cmd/preflight is an environment/config sanity checker, meant to run
// before cmd/probe, cmd/aggregator, or cmd/api start — catches a
// malformed MONITORS_CONFIG or a missing table before the real process
// fails deep inside a ticker loop. Grounded on the teacher's
// cmd/preflight/main.go (fail/warn/ok helpers over os.Getenv checks).
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hamed0406/regionalmonitor/internal/config"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.FromEnv()
	if err != nil {
		fail("config: " + err.Error())
	}

	if len(cfg.Monitors) == 0 {
		warn("MONITORS_CONFIG is empty or unset; nothing will be checked.")
	} else {
		ok(fmt.Sprintf("MONITORS_CONFIG parsed %d monitor(s)", len(cfg.Monitors)))
	}
	for _, m := range cfg.Monitors {
		if m.ID == "" {
			fail("a monitor in MONITORS_CONFIG is missing an id")
		}
		if len(m.Regions) == 0 {
			fail(fmt.Sprintf("monitor %q has no regions", m.ID))
		}
		if m.PrimaryRegion == "" {
			warn(fmt.Sprintf("monitor %q has no primary_region; its status will report zero latency and /api/history without ?region= will be empty", m.ID))
		}
	}

	if cfg.Notification.Webhook != nil && cfg.Notification.Webhook.URL == "" {
		warn("NOTIFICATION_CONFIG.webhook is set but its url is empty; notifications will be dropped")
	}

	table := strings.TrimSpace(cfg.TableName)
	if table == "" {
		warn("TABLE_NAME is empty; probe/aggregator/api will fall back to an in-memory store that does not survive a restart")
	} else {
		ok("TABLE_NAME=" + table)
		if strings.TrimSpace(cfg.CentralRegion) == "" && strings.TrimSpace(os.Getenv("AWS_REGION")) == "" {
			warn("CENTRAL_REGION and AWS_REGION are both empty; relying on the AWS SDK's default region chain")
		}
	}

	if strings.TrimSpace(cfg.Region) == "" {
		warn("PROBE_REGION is empty; cmd/probe will require --region at invocation")
	} else {
		ok("PROBE_REGION=" + cfg.Region)
	}

	if cfg.PasswordProtection == "" {
		warn("PASSWORD_PROTECTION is empty; the query API will be unauthenticated")
	} else if _, _, ok2 := cfg.BasicAuthUserPass(); !ok2 {
		fail("PASSWORD_PROTECTION is set but not in \"user:pass\" form")
	} else {
		ok("PASSWORD_PROTECTION set")
	}

	ok("preflight passed")
}
