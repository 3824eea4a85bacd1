// Package relay holds the bridge core: translating Telegram events into
// pager webhook payloads and pager webhook calls into Telegram sends.
package relay

import (
	"context"
	"log/slog"
	"strings"

	"pagerbridge/internal/domain"
	"pagerbridge/internal/ids"
	"pagerbridge/internal/metrics"
	"pagerbridge/internal/pager"
)

// Dispatcher delivers a canonical payload to the pager platform.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload pager.Payload) error
}

// MediaStorer re-hosts inbound Telegram media under a public URL.
type MediaStorer interface {
	StoreInbound(ctx context.Context, m *domain.Media) []domain.Attachment
}

// AvatarResolver resolves a contact's public avatar URL, "" when absent.
type AvatarResolver interface {
	Resolve(ctx context.Context, peerID int64) string
}

// Inbound relays Telegram new-message events to the pager platform.
// Delivery is fire-and-forget: one failed relay must never stop the event
// loop or block subsequent events.
type Inbound struct {
	bus        domain.EventBus
	dispatcher Dispatcher
	media      MediaStorer
	avatars    AvatarResolver
	logger     *slog.Logger

	relayed *metrics.Counter
	dropped *metrics.Counter
	failed  *metrics.Counter
}

type InboundConfig struct {
	Bus        domain.EventBus
	Dispatcher Dispatcher
	Media      MediaStorer
	Avatars    AvatarResolver
	Logger     *slog.Logger
}

func NewInbound(cfg InboundConfig) *Inbound {
	return &Inbound{
		bus:        cfg.Bus,
		dispatcher: cfg.Dispatcher,
		media:      cfg.Media,
		avatars:    cfg.Avatars,
		logger:     cfg.Logger,
		relayed:    metrics.Collector.Counter("relay_inbound_total", "Telegram events relayed to the pager platform", ""),
		dropped:    metrics.Collector.Counter("relay_inbound_dropped_total", "Telegram events dropped (non-private)", ""),
		failed:     metrics.Collector.Counter("relay_inbound_failed_total", "Telegram events whose dispatch failed", ""),
	}
}

// Run consumes the event bus until the context is done. Each event is
// handled in its own goroutine so a slow dispatch cannot delay the next
// event, and a panic in one handler is recovered at the boundary.
func (in *Inbound) Run(ctx context.Context) {
	in.logger.Info("inbound relay started")
	for {
		select {
		case <-ctx.Done():
			in.logger.Info("inbound relay stopping")
			return
		case evt, ok := <-in.bus.Subscribe():
			if !ok {
				in.logger.Info("event bus closed, inbound relay stopping")
				return
			}
			go in.handleSupervised(ctx, evt)
		}
	}
}

func (in *Inbound) handleSupervised(ctx context.Context, evt domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			in.failed.Inc()
			in.logger.Error("panic in inbound relay", "peer_id", evt.PeerID, "message_id", evt.MessageID, "panic", r)
		}
	}()
	in.HandleEvent(ctx, evt)
}

// HandleEvent relays a single event. It never returns an error: failures
// are terminal-but-local, logged and counted.
func (in *Inbound) HandleEvent(ctx context.Context, evt domain.Event) {
	// Only private 1:1 conversations cross the bridge.
	if !evt.IsPrivate {
		in.dropped.Inc()
		in.logger.Debug("dropping non-private event", "message_id", evt.MessageID)
		return
	}

	payload := in.buildPayload(ctx, evt)

	if err := in.dispatcher.Dispatch(ctx, payload); err != nil {
		in.failed.Inc()
		in.logger.Error("inbound dispatch failed",
			"peer_id", evt.PeerID,
			"message_id", evt.MessageID,
			"err", err,
		)
		return
	}

	in.relayed.Inc()
	in.logger.Info("event relayed",
		"peer_id", evt.PeerID,
		"message_id", evt.MessageID,
		"direction", string(evt.Direction()),
		"attachments", len(payload.Message.Attachments),
	)
}

// buildPayload enriches the raw event into the canonical webhook shape.
// Media and avatar enrichment are each best-effort: text must still go
// out when they fail.
func (in *Inbound) buildPayload(ctx context.Context, evt domain.Event) pager.Payload {
	attachments := in.media.StoreInbound(ctx, evt.Media)

	return pager.Payload{
		Event: pager.EventMessageCreated,
		Client: pager.PayloadClient{
			ExternalID: ids.MakeContactID(evt.PeerID),
			Name:       strings.TrimSpace(evt.Sender.DisplayName()),
			ImageURL:   in.avatars.Resolve(ctx, evt.PeerID),
		},
		Message: pager.PayloadMessage{
			ExternalID:  ids.MakeMessageID(evt.MessageID),
			Direction:   string(evt.Direction()),
			Text:        evt.Text,
			Attachments: pager.AttachmentsFromDomain(attachments),
		},
	}
}
