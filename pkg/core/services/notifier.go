package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
	"github.com/wadjakorntonsri/campaign-links/pkg/ports"
)

const messageTemplate = `🚀 *New material available!*

📋 Open your personal link:
%s

ℹ️ *Instructions:*
• Tap the link to view the content
• The link is unique to you and trackable
• Share it only if you are allowed to

📊 Your clicks are counted towards campaign metrics`

// ComposeMessage renders the notification text for a shortened link.
func ComposeMessage(shortenedURL string) string {
	return fmt.Sprintf(messageTemplate, shortenedURL)
}

// LinkNotifier pushes personalized links through a messaging transport.
type LinkNotifier struct {
	sender ports.MessageSender
	logger *slog.Logger
}

func NewLinkNotifier(sender ports.MessageSender, logger *slog.Logger) *LinkNotifier {
	return &LinkNotifier{sender: sender, logger: logger}
}

// Notify never returns an error: users without a contact are skipped and
// transport failures are logged and reported as DeliveryFailed.
func (n *LinkNotifier) Notify(ctx context.Context, contact, shortenedURL string) domain.Delivery {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		n.logger.Info("Skipping notification, no contact", "shortened_url", shortenedURL)
		return domain.DeliverySkipped
	}

	if err := n.sender.Send(ctx, contact, ComposeMessage(shortenedURL)); err != nil {
		n.logger.Warn("Notification failed", "contact", domain.MaskContact(contact), "shortened_url", shortenedURL, "error", err)
		return domain.DeliveryFailed
	}

	n.logger.Info("Notification sent", "contact", domain.MaskContact(contact), "shortened_url", shortenedURL)
	return domain.DeliverySent
}
