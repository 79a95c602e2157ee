package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brandpulse/brandpulse/internal/domain"
)

// Reference is the startup reference data for a monitoring run: which brands to
// watch, which thresholds fire alerts, and where alerts go.
type Reference struct {
	Brands              []domain.BrandProfile    `yaml:"brands"`
	Thresholds          []domain.AlertThreshold  `yaml:"thresholds"`
	Channels            []domain.ChannelConfig   `yaml:"channels"`
	PlatformMultipliers map[domain.Source]float64 `yaml:"platform_multipliers"`
}

// LoadReference reads and validates the YAML reference file.
func LoadReference(path string) (*Reference, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference file %s: %w", path, err)
	}

	var ref Reference
	if err := yaml.Unmarshal(raw, &ref); err != nil {
		return nil, fmt.Errorf("failed to parse reference file %s: %w", path, err)
	}

	if err := validateReference(&ref); err != nil {
		return nil, err
	}

	return &ref, nil
}

var validOperators = map[domain.Operator]bool{
	domain.OpGT: true, domain.OpLT: true, domain.OpGTE: true, domain.OpLTE: true, domain.OpEQ: true,
}

var validSeverities = map[domain.Severity]bool{
	domain.SeverityInfo: true, domain.SeverityWarning: true, domain.SeverityHigh: true, domain.SeverityCritical: true,
}

var validAlertTypes = map[domain.AlertType]bool{
	domain.AlertSentimentThreshold: true,
	domain.AlertNegativeSpike:      true,
	domain.AlertPositiveSpike:      true,
	domain.AlertVolumeSpike:        true,
	domain.AlertViralNegative:      true,
	domain.AlertBrandCrisis:        true,
	domain.AlertEngagementSurge:    true,
}

var validChannelTypes = map[domain.ChannelType]bool{
	domain.ChannelWebhook:     true,
	domain.ChannelChatWebhook: true,
	domain.ChannelEmail:       true,
	domain.ChannelSMS:         true,
	domain.ChannelLog:         true,
}

func validateReference(ref *Reference) error {
	for i, b := range ref.Brands {
		if b.Name == "" {
			return fmt.Errorf("brand %d: name is required", i)
		}
		if b.MinConfidence < 0 || b.MinConfidence > 1 {
			return fmt.Errorf("brand %q: min_confidence must be in [0,1], got %v", b.Name, b.MinConfidence)
		}
	}

	for i, t := range ref.Thresholds {
		if t.Metric == "" {
			return fmt.Errorf("threshold %d: metric is required", i)
		}
		if !validOperators[t.Operator] {
			return fmt.Errorf("threshold %q: unknown operator %q", t.Metric, t.Operator)
		}
		if !validSeverities[t.Severity] {
			return fmt.Errorf("threshold %q: unknown severity %q", t.Metric, t.Severity)
		}
		if !validAlertTypes[t.Type] {
			return fmt.Errorf("threshold %q: unknown alert type %q", t.Metric, t.Type)
		}
		if t.CooldownMinutes <= 0 {
			return fmt.Errorf("threshold %q: cooldown_minutes must be positive, got %d", t.Metric, t.CooldownMinutes)
		}
	}

	for i, c := range ref.Channels {
		if c.Name == "" {
			return fmt.Errorf("channel %d: name is required", i)
		}
		if !validChannelTypes[c.Type] {
			return fmt.Errorf("channel %q: unknown channel type %q", c.Name, c.Type)
		}
		if c.MinSeverity != "" && !validSeverities[c.MinSeverity] {
			return fmt.Errorf("channel %q: unknown min_severity %q", c.Name, c.MinSeverity)
		}
		for _, at := range c.Types {
			if !validAlertTypes[at] {
				return fmt.Errorf("channel %q: unknown alert type %q", c.Name, at)
			}
		}
	}

	for source, mult := range ref.PlatformMultipliers {
		if mult <= 0 {
			return fmt.Errorf("platform multiplier for %q must be positive, got %v", source, mult)
		}
	}

	return nil
}
