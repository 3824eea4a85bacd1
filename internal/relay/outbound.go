package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pagerbridge/internal/domain"
	"pagerbridge/internal/ids"
	"pagerbridge/internal/metrics"
	"pagerbridge/internal/pager"
)

// MediaSender re-uploads attachment URLs to a Telegram peer, reporting the
// last successfully sent message ID.
type MediaSender interface {
	SendOutbound(ctx context.Context, peerID int64, atts []domain.Attachment) (lastID int64, sent bool)
}

// TextSender is the part of the Telegram client the outbound relay needs
// for text delivery.
type TextSender interface {
	SendMessage(ctx context.Context, peerID int64, text string) (int64, error)
}

// Outbound replays pager webhook payloads onto Telegram: text first, then
// attachments in the order supplied.
type Outbound struct {
	sender TextSender
	media  MediaSender
	logger *slog.Logger

	delivered *metrics.Counter
	ignored   *metrics.Counter
}

type OutboundConfig struct {
	Sender TextSender
	Media  MediaSender
	Logger *slog.Logger
}

func NewOutbound(cfg OutboundConfig) *Outbound {
	return &Outbound{
		sender:    cfg.Sender,
		media:     cfg.Media,
		logger:    cfg.Logger,
		delivered: metrics.Collector.Counter("relay_outbound_total", "Pager payloads delivered to Telegram", ""),
		ignored:   metrics.Collector.Counter("relay_outbound_ignored_total", "Pager payloads with unrecognized event types", ""),
	}
}

// AckIgnored is the external message ID returned for event types the
// bridge does not handle. Unknown events are acknowledged, not rejected,
// for forward compatibility.
const AckIgnored = "ignored"

// Deliver validates and replays one payload. The returned string is the
// external message identifier for the delivery. A text send failure is a
// delivery error; individual attachment failures are skipped inside the
// media pipeline and never fail the call.
func (out *Outbound) Deliver(ctx context.Context, payload pager.Payload) (string, error) {
	if payload.Event != pager.EventMessageCreated {
		out.ignored.Inc()
		out.logger.Debug("ignoring pager event", "event", payload.Event)
		return AckIgnored, nil
	}

	peerID, err := ids.ParseContactID(payload.Client.ExternalID)
	if err != nil {
		return "", fmt.Errorf("client.externalId: %w", err)
	}

	var lastID int64
	sent := false

	text := strings.TrimSpace(payload.Message.Text)
	if text != "" {
		msgID, err := out.sender.SendMessage(ctx, peerID, text)
		if err != nil {
			return "", fmt.Errorf("send text to peer %d: %w", peerID, err)
		}
		lastID = msgID
		sent = true
	}

	atts := pager.AttachmentsToDomain(payload.Message.Attachments)
	if len(atts) > 0 {
		if attID, attSent := out.media.SendOutbound(ctx, peerID, atts); attSent {
			lastID = attID
			sent = true
		}
	}

	out.delivered.Inc()
	out.logger.Info("payload delivered",
		"peer_id", peerID,
		"text_len", len(text),
		"attachments", len(atts),
		"sent", sent,
	)
	return ids.MakeAckID(peerID, lastID, sent), nil
}
