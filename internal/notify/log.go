package notify

import (
	"context"
	"log/slog"

	"github.com/brandpulse/brandpulse/internal/domain"
)

// LogTransport writes notifications to the structured log. It backs the "log"
// channel type and stands in for email and SMS delivery, which are recorded
// but not sent out-of-band.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport() *LogTransport {
	return &LogTransport{logger: slog.Default()}
}

func (t *LogTransport) Send(_ context.Context, message string, cfg domain.ChannelConfig) error {
	t.logger.Info("Alert notification",
		"channel", cfg.Name,
		"channel_type", string(cfg.Type),
		"recipient", cfg.Recipient,
		"message", message,
	)
	return nil
}
