// Package store is the central keyed table described in spec §4.4: a
// composite (pk, sk) table with range queries by sk prefix under a
// fixed pk, and item-level TTL. Grounded on the teacher's
// internal/repo.TargetStore/ResultStore port pattern — an interface the
// rest of the repo depends on, with a memory-backed implementation for
// tests and a real backend (here DynamoDB, spec's textbook pk/sk/TTL
// store) behind the same port.
package store

import (
	"fmt"
	"strconv"
	"time"
)

// Time precision in keys: milliseconds since epoch, zero-padded so
// lexicographic order matches chronological order (spec §4.4).
const tsWidth = 13

// TTLs, per spec §3.
const (
	CheckTTL    = 12 * time.Hour
	LatencyTTL  = 12 * time.Hour
	IncidentTTL = 90 * 24 * time.Hour
)

func padTS(ms int64) string {
	return fmt.Sprintf("%0*d", tsWidth, ms)
}

func parseTS(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func checkPK(monitorID string) string { return "CHECK#" + monitorID }

func checkSK(timestampMS int64, region string) string {
	return padTS(timestampMS) + "#" + region
}

func latencyPK(monitorID, region string) string { return "LATENCY#" + monitorID + "#" + region }

func latencySK(timestampMS int64) string { return padTS(timestampMS) }

func statePK(monitorID string) string { return "STATE#" + monitorID }

const stateSK = "CURRENT"

const globalPK = "STATE#GLOBAL"
const globalSK = "SUMMARY"

func incidentPK(monitorID string) string { return "INCIDENT#" + monitorID }

func incidentSK(startMS int64) string { return padTS(startMS) }

func epochSeconds(t time.Time) int64 { return t.Unix() }
