package messaging

import (
	"context"
	"log/slog"

	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
)

// LogSender logs messages instead of sending them. Used when no provider key is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (l *LogSender) Send(ctx context.Context, recipient, message string) error {
	l.logger.Info("MOCK MESSAGE",
		"to", domain.MaskContact(recipient),
		"message_length", len(message))
	return nil
}
