package alerting

import (
	"fmt"

	"github.com/brandpulse/brandpulse/internal/domain"
)

// renderMessage builds the human-readable alert text for each alert type.
func renderMessage(t domain.AlertThreshold, value float64, post domain.Post, mentions []domain.BrandMention) string {
	brands := "no tracked brands"
	if len(mentions) > 0 {
		names := make(map[string]bool)
		brands = ""
		for _, m := range mentions {
			if names[m.Brand] {
				continue
			}
			names[m.Brand] = true
			if brands != "" {
				brands += ", "
			}
			brands += m.Brand
		}
	}

	switch t.Type {
	case domain.AlertSentimentThreshold:
		return fmt.Sprintf("Sentiment score %.2f crossed threshold %s %.2f (%s, post %s)", value, t.Operator, t.Value, brands, post.ID)
	case domain.AlertNegativeSpike:
		return fmt.Sprintf("Negative sentiment spike of %.2f detected for %s", value, brands)
	case domain.AlertPositiveSpike:
		return fmt.Sprintf("Positive sentiment spike of %.2f detected for %s", value, brands)
	case domain.AlertVolumeSpike:
		return fmt.Sprintf("Mention volume jumped by %.2f around %s", value, brands)
	case domain.AlertViralNegative:
		return fmt.Sprintf("Negative post going viral (virality %.2f) mentioning %s: %q", value, brands, truncate(post.Text, 80))
	case domain.AlertBrandCrisis:
		return fmt.Sprintf("Crisis signal for %s: %s at %.2f (threshold %s %.2f)", brands, t.Metric, value, t.Operator, t.Value)
	case domain.AlertEngagementSurge:
		return fmt.Sprintf("Engagement surge (%.2f) on post %s mentioning %s", value, post.ID, brands)
	default:
		return fmt.Sprintf("Threshold %s %s %.2f triggered with value %.2f", t.Metric, t.Operator, t.Value, value)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
