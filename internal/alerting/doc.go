// Package alerting evaluates score thresholds and dispatches alerts.
//
// Each threshold runs a small state machine keyed by (metric, operator,
// value): armed, then cooling-down for the configured minutes after firing.
// Checks during cooldown are skipped, not queued. Candidates matching a
// recent alert of the same type and severity within the dedup window are
// suppressed and counted.
package alerting
