package domain

import (
	"context"
	"time"
)

// Severity orders alerts for channel filtering.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank returns the ordering position of a severity, higher is more severe.
// Unknown severities rank lowest.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// AlertType is the closed set of alert categories. Handlers and message
// templates dispatch on this, registered at startup.
type AlertType string

const (
	AlertSentimentThreshold AlertType = "SENTIMENT_THRESHOLD"
	AlertNegativeSpike      AlertType = "NEGATIVE_SPIKE"
	AlertPositiveSpike      AlertType = "POSITIVE_SPIKE"
	AlertVolumeSpike        AlertType = "VOLUME_SPIKE"
	AlertViralNegative      AlertType = "VIRAL_NEGATIVE"
	AlertBrandCrisis        AlertType = "BRAND_CRISIS"
	AlertEngagementSurge    AlertType = "ENGAGEMENT_SURGE"
)

// Operator compares a metric value against a threshold value.
type Operator string

const (
	OpGT  Operator = "gt"
	OpLT  Operator = "lt"
	OpGTE Operator = "gte"
	OpLTE Operator = "lte"
	OpEQ  Operator = "eq"
)

// AlertThreshold is one configured trigger rule. Immutable during a run.
// The cooldown state machine is keyed by (Metric, Operator, Value).
type AlertThreshold struct {
	Metric             string    `yaml:"metric" json:"metric"`
	Operator           Operator  `yaml:"operator" json:"operator"`
	Value              float64   `yaml:"value" json:"value"`
	Severity           Severity  `yaml:"severity" json:"severity"`
	Type               AlertType `yaml:"type" json:"type"`
	CooldownMinutes    int       `yaml:"cooldown_minutes" json:"cooldown_minutes"`
	AggregationMinutes int       `yaml:"aggregation_window_minutes" json:"aggregation_window_minutes"`
}

// Cooldown returns the configured cooldown as a duration.
func (t AlertThreshold) Cooldown() time.Duration {
	return time.Duration(t.CooldownMinutes) * time.Minute
}

// Alert is a fired threshold. Immutable once created.
type Alert struct {
	ID           string            `json:"id"`
	Severity     Severity          `json:"severity"`
	Type         AlertType         `json:"type"`
	Message      string            `json:"message"`
	Timestamp    time.Time         `json:"timestamp"`
	Source       Source            `json:"source"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Acknowledged bool              `json:"acknowledged"`
}

// ChannelType identifies a notification transport.
type ChannelType string

const (
	ChannelWebhook     ChannelType = "webhook"
	ChannelChatWebhook ChannelType = "chat_webhook"
	ChannelEmail       ChannelType = "email"
	ChannelSMS         ChannelType = "sms"
	ChannelLog         ChannelType = "log"
)

// ChannelConfig configures one outbound notification channel. An empty Types
// list means all alert types pass the filter.
type ChannelConfig struct {
	Name        string      `yaml:"name" json:"name"`
	Type        ChannelType `yaml:"type" json:"type"`
	Enabled     bool        `yaml:"enabled" json:"enabled"`
	MinSeverity Severity    `yaml:"min_severity" json:"min_severity"`
	Types       []AlertType `yaml:"alert_types" json:"alert_types"`
	URL         string      `yaml:"url" json:"url"`
	Recipient   string      `yaml:"recipient" json:"recipient"`
}

// Accepts reports whether the channel's filters admit the alert.
func (c ChannelConfig) Accepts(a Alert) bool {
	if !c.Enabled {
		return false
	}
	if c.MinSeverity != "" && a.Severity.Rank() < c.MinSeverity.Rank() {
		return false
	}
	if len(c.Types) == 0 {
		return true
	}
	for _, t := range c.Types {
		if t == a.Type {
			return true
		}
	}
	return false
}

// Transport delivers a rendered alert message over one channel type.
// Implementations must not retain cfg past the call.
type Transport interface {
	Send(ctx context.Context, message string, cfg ChannelConfig) error
}
