// Package store implements the key-value persistence contract.
//
// The in-memory implementation serves single-process runs and tests; the
// Redis implementation backs shared deployments. All pipeline persistence
// through this package is best-effort: failures are logged and counted,
// never surfaced to the processing stages.
package store
