package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/brandpulse/brandpulse/internal/domain"
	"github.com/brandpulse/brandpulse/internal/metrics"
)

// Key prefixes for persisted pipeline artifacts.
const (
	KeyPrefixPost      = "post:"
	KeyPrefixProcessed = "processed:"
	KeyPrefixAlert     = "alert:"
	KeyStatsLatest     = "stats:latest"
)

// DefaultTTL is how long raw posts, results, and alerts are retained.
const DefaultTTL = 24 * time.Hour

// Persister writes pipeline artifacts to the key-value store. Every write is
// best-effort: a failing store is logged and counted but never blocks or
// fails processing (fail open).
type Persister struct {
	kv  domain.KeyValue
	ttl time.Duration
}

func NewPersister(kv domain.KeyValue, ttl time.Duration) *Persister {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Persister{kv: kv, ttl: ttl}
}

// SaveProcessed persists one processed post and any alerts attached to it.
func (p *Persister) SaveProcessed(ctx context.Context, result domain.ProcessedPost) {
	p.save(ctx, KeyPrefixProcessed+result.Post.ID, result)
	for _, alert := range result.Alerts {
		p.save(ctx, KeyPrefixAlert+alert.ID, alert)
	}
}

// SavePost persists a raw post as received.
func (p *Persister) SavePost(ctx context.Context, post domain.Post) {
	p.save(ctx, KeyPrefixPost+post.ID, post)
}

// SaveStats persists the latest stats snapshot without expiry pressure; it is
// overwritten on every report.
func (p *Persister) SaveStats(ctx context.Context, snapshot any) {
	p.save(ctx, KeyStatsLatest, snapshot)
}

func (p *Persister) save(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Error("Failed to marshal for persistence", "key", key, "error", err)
		return
	}

	start := time.Now()
	err = p.kv.SetWithTTL(ctx, key, raw, p.ttl)
	metrics.StoreOpDuration.WithLabelValues("set").Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Warn("Best-effort persistence failed", "key", key, "error", err)
	}
}
