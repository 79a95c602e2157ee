package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/brandpulse/brandpulse/internal/domain"
	"github.com/brandpulse/brandpulse/internal/metrics"
)

const (
	// eqEpsilon is the tolerance for the eq operator on floats.
	eqEpsilon = 0.01

	dedupWindow   = 300 * time.Second
	dedupScanSize = 50

	historyCapacity = 1000
	metricCapacity  = 100
	spikeRecentSize = 5
)

// Handler is a custom per-type alert hook, run before channel dispatch.
// A handler error is logged, never propagated.
type Handler func(ctx context.Context, alert domain.Alert) error

// Engine evaluates thresholds against per-post scores, deduplicates within a
// rolling window, enforces per-threshold cooldowns, and dispatches fired
// alerts to the configured channels. Safe for concurrent use from batch
// workers; all mutable state sits behind one mutex.
type Engine struct {
	mu            sync.Mutex
	clock         clockwork.Clock
	thresholds    []domain.AlertThreshold
	cooldownUntil map[string]time.Time
	history       []domain.Alert
	counts        map[domain.AlertType]int
	metricHistory map[string][]float64
	handlers      map[domain.AlertType]Handler
	channels      []domain.ChannelConfig
	transports    map[domain.ChannelType]domain.Transport
}

func NewEngine(clock clockwork.Clock) *Engine {
	return &Engine{
		clock:         clock,
		cooldownUntil: make(map[string]time.Time),
		counts:        make(map[domain.AlertType]int),
		metricHistory: make(map[string][]float64),
		handlers:      make(map[domain.AlertType]Handler),
		transports:    make(map[domain.ChannelType]domain.Transport),
	}
}

// AddThreshold registers a threshold rule.
func (e *Engine) AddThreshold(t domain.AlertThreshold) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.thresholds = append(e.thresholds, t)
}

// AddChannel registers a notification channel.
func (e *Engine) AddChannel(c domain.ChannelConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.channels = append(e.channels, c)
}

// RegisterHandler installs a custom handler for one alert type. Call at
// startup, before processing begins.
func (e *Engine) RegisterHandler(t domain.AlertType, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[t] = h
}

// RegisterTransport installs the transport implementation for a channel type.
func (e *Engine) RegisterTransport(t domain.ChannelType, tr domain.Transport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transports[t] = tr
}

// thresholdKey identifies the cooldown state machine for one rule.
func thresholdKey(t domain.AlertThreshold) string {
	return t.Metric + "|" + string(t.Operator) + "|" + strconv.FormatFloat(t.Value, 'f', 6, 64)
}

// CheckThresholds evaluates every armed threshold against the post's scores
// and derived metrics, returning the alerts that fired. Fired alerts are
// recorded in the history ring and start their threshold's cooldown; the
// caller is responsible for dispatch.
func (e *Engine) CheckThresholds(post domain.Post, judgment domain.SentimentJudgment, scores domain.ScoreSet, mentions []domain.BrandMention) []domain.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	e.recordMetrics(post, scores)

	var fired []domain.Alert
	for _, t := range e.thresholds {
		key := thresholdKey(t)
		if until, cooling := e.cooldownUntil[key]; cooling && now.Before(until) {
			metrics.AlertsCooled.Inc()
			continue
		}

		value, ok := e.resolveMetric(t, scores, mentions)
		if !ok {
			continue
		}
		if !evaluate(t.Operator, value, t.Value) {
			continue
		}
		// Viral-negative is only meaningful for negative content; the generic
		// operator cannot express this cross-check.
		if t.Type == domain.AlertViralNegative && scores[domain.ScoreSentiment] >= 0 {
			continue
		}

		if e.isDuplicate(t, now) {
			metrics.AlertsSuppressed.Inc()
			continue
		}

		alert := domain.Alert{
			ID:        uuid.NewString(),
			Severity:  t.Severity,
			Type:      t.Type,
			Message:   renderMessage(t, value, post, mentions),
			Timestamp: now,
			Source:    post.Source,
			Metadata: map[string]string{
				"metric":    t.Metric,
				"value":     fmt.Sprintf("%.4f", value),
				"threshold": fmt.Sprintf("%s %.4f", t.Operator, t.Value),
				"post_id":   post.ID,
			},
		}

		e.appendHistory(alert)
		e.counts[alert.Type]++
		e.cooldownUntil[key] = now.Add(t.Cooldown())
		metrics.AlertsFired.WithLabelValues(string(alert.Type), string(alert.Severity)).Inc()
		slog.Info("Alert fired", "type", alert.Type, "severity", alert.Severity, "metric", t.Metric, "value", value)

		fired = append(fired, alert)
	}
	return fired
}

// recordMetrics feeds the rolling buffers used by spike-style derived
// metrics. Caller holds the lock.
func (e *Engine) recordMetrics(post domain.Post, scores domain.ScoreSet) {
	e.pushMetric(domain.ScoreSentiment, scores[domain.ScoreSentiment])
	volume := float64(post.Engagement.Likes + post.Engagement.Shares + post.Engagement.Comments)
	e.pushMetric("volume", volume)
}

func (e *Engine) pushMetric(name string, value float64) {
	buf := append(e.metricHistory[name], value)
	if len(buf) > metricCapacity {
		buf = buf[len(buf)-metricCapacity:]
	}
	e.metricHistory[name] = buf
}

// resolveMetric looks the metric up in scores, then falls back to derived
// metrics. Caller holds the lock.
func (e *Engine) resolveMetric(t domain.AlertThreshold, scores domain.ScoreSet, mentions []domain.BrandMention) (float64, bool) {
	if v, ok := scores[t.Metric]; ok {
		return v, true
	}
	switch t.Metric {
	case "brand_count":
		return float64(len(mentions)), true
	case "volume_change":
		return e.spike("volume"), true
	case "positive_sentiment_spike":
		return e.spike(domain.ScoreSentiment), true
	default:
		return 0, false
	}
}

// spike is max(0, mean of the last five samples minus mean of the earlier
// ones). Zero until enough history accumulates.
func (e *Engine) spike(name string) float64 {
	buf := e.metricHistory[name]
	if len(buf) <= spikeRecentSize {
		return 0
	}
	recent := buf[len(buf)-spikeRecentSize:]
	earlier := buf[:len(buf)-spikeRecentSize]
	return math.Max(0, mean(recent)-mean(earlier))
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func evaluate(op domain.Operator, value, threshold float64) bool {
	switch op {
	case domain.OpGT:
		return value > threshold
	case domain.OpLT:
		return value < threshold
	case domain.OpGTE:
		return value >= threshold
	case domain.OpLTE:
		return value <= threshold
	case domain.OpEQ:
		return math.Abs(value-threshold) <= eqEpsilon
	default:
		return false
	}
}

// isDuplicate scans the most recent history entries for an alert of the same
// (type, severity) within the dedup window. Caller holds the lock.
func (e *Engine) isDuplicate(t domain.AlertThreshold, now time.Time) bool {
	start := len(e.history) - dedupScanSize
	if start < 0 {
		start = 0
	}
	for _, existing := range e.history[start:] {
		if existing.Type == t.Type && existing.Severity == t.Severity &&
			now.Sub(existing.Timestamp) < dedupWindow {
			return true
		}
	}
	return false
}

func (e *Engine) appendHistory(alert domain.Alert) {
	e.history = append(e.history, alert)
	if len(e.history) > historyCapacity {
		e.history = e.history[len(e.history)-historyCapacity:]
	}
}

// SendAlert dispatches one alert: the custom handler for its type first, then
// every channel whose filters admit it. Each channel send is isolated; one
// failure never blocks the others, and the alert counts as fired regardless.
func (e *Engine) SendAlert(ctx context.Context, alert domain.Alert) {
	e.mu.Lock()
	handler := e.handlers[alert.Type]
	channels := make([]domain.ChannelConfig, len(e.channels))
	copy(channels, e.channels)
	transports := make(map[domain.ChannelType]domain.Transport, len(e.transports))
	for k, v := range e.transports {
		transports[k] = v
	}
	e.mu.Unlock()

	if handler != nil {
		if err := handler(ctx, alert); err != nil {
			slog.Error("Alert handler failed", "type", alert.Type, "error", err)
		}
	}

	for _, ch := range channels {
		if !ch.Accepts(alert) {
			continue
		}
		tr, ok := transports[ch.Type]
		if !ok {
			slog.Warn("No transport registered for channel", "channel", ch.Name, "channel_type", ch.Type)
			continue
		}
		if err := tr.Send(ctx, alert.Message, ch); err != nil {
			metrics.ChannelDispatchFailures.WithLabelValues(ch.Name).Inc()
			slog.Error("Channel dispatch failed", "channel", ch.Name, "alert_id", alert.ID, "error", err)
		}
	}
}

// Stats returns per-type fired counts and the current history length.
func (e *Engine) Stats() (map[domain.AlertType]int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	counts := make(map[domain.AlertType]int, len(e.counts))
	for k, v := range e.counts {
		counts[k] = v
	}
	return counts, len(e.history)
}

// History returns a copy of the most recent alerts, newest last.
func (e *Engine) History(limit int) []domain.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	if limit <= 0 || limit > len(e.history) {
		limit = len(e.history)
	}
	out := make([]domain.Alert, limit)
	copy(out, e.history[len(e.history)-limit:])
	return out
}
