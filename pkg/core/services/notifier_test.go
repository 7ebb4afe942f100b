package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
)

func TestComposeMessage(t *testing.T) {
	msg := ComposeMessage("https://go.example.com/Ab12Cd34")
	assert.Contains(t, msg, "https://go.example.com/Ab12Cd34")
	assert.Contains(t, msg, "unique to you")
}

func TestLinkNotifier(t *testing.T) {
	ctx := context.Background()
	sender := newRecordingSender()
	sender.fail["+5511999999999"] = errors.New("gateway down")
	n := NewLinkNotifier(sender, testLogger())

	tests := []struct {
		name    string
		contact string
		want    domain.Delivery
	}{
		{name: "sent", contact: "+5511900000001", want: domain.DeliverySent},
		{name: "contact is trimmed", contact: "  +5511900000002 ", want: domain.DeliverySent},
		{name: "empty contact skipped", contact: "", want: domain.DeliverySkipped},
		{name: "blank contact skipped", contact: "   ", want: domain.DeliverySkipped},
		{name: "transport failure", contact: "+5511999999999", want: domain.DeliveryFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Notify(ctx, tt.contact, "https://go.example.com/abc"))
		})
	}

	assert.Equal(t, 2, sender.count())
	assert.Equal(t, ComposeMessage("https://go.example.com/abc"), sender.sent["+5511900000002"])
}

func TestLinkNotifierMasksContactInLogs(t *testing.T) {
	var logs bytes.Buffer
	sender := newRecordingSender()
	sender.fail["+5511999999999"] = errors.New("gateway down")
	n := NewLinkNotifier(sender, slog.New(slog.NewTextHandler(&logs, nil)))

	n.Notify(context.Background(), "+5511900000001", "https://go.example.com/abc")
	n.Notify(context.Background(), "+5511999999999", "https://go.example.com/def")

	assert.NotContains(t, logs.String(), "+5511900000001")
	assert.NotContains(t, logs.String(), "+5511999999999")
	assert.Contains(t, logs.String(), "0001")
	assert.Contains(t, logs.String(), "9999")
}
