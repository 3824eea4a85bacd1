package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pagerbridge/internal/domain"
	"pagerbridge/internal/ids"
)

// ContactImporter is the part of the Telegram client needed to start a
// conversation from a bare phone number.
type ContactImporter interface {
	SendMessage(ctx context.Context, peerID int64, text string) (int64, error)
	ImportContact(ctx context.Context, phone string) (domain.ContactInfo, error)
}

// Bootstrap creates a contact from a phone number and sends the first
// message, establishing the external identifier mapping before any
// message has been exchanged. This is the only path that discovers a
// contact without a prior inbound event.
type Bootstrap struct {
	client   ContactImporter
	greeting func() string
	logger   *slog.Logger
}

type BootstrapConfig struct {
	Client domain.Client
	// Greeting supplies the default first-message text used when the
	// caller provides none.
	Greeting func() string
	Logger   *slog.Logger
}

func NewBootstrap(cfg BootstrapConfig) *Bootstrap {
	return &Bootstrap{
		client:   cfg.Client,
		greeting: cfg.Greeting,
		logger:   cfg.Logger,
	}
}

// BootstrapResult reports the newly established mapping.
type BootstrapResult struct {
	Phone            string
	PeerID           int64
	ClientExternalID string
	SentMessageID    int64
}

// StartChat imports the phone number as a contact and sends the first
// message. Returns ErrInvalidPhone for numbers without a leading "+" and
// ErrPhoneNotFound when the number has no discoverable Telegram account.
func (b *Bootstrap) StartChat(ctx context.Context, phone, text string) (BootstrapResult, error) {
	phone = strings.TrimSpace(phone)
	if !strings.HasPrefix(phone, "+") {
		return BootstrapResult{}, fmt.Errorf("%w: got %q", domain.ErrInvalidPhone, phone)
	}

	text = strings.TrimSpace(text)
	if text == "" && b.greeting != nil {
		text = b.greeting()
	}

	info, err := b.client.ImportContact(ctx, phone)
	if err != nil {
		return BootstrapResult{}, fmt.Errorf("import contact %s: %w", phone, err)
	}

	sentID, err := b.client.SendMessage(ctx, info.PeerID, text)
	if err != nil {
		return BootstrapResult{}, fmt.Errorf("send first message to peer %d: %w", info.PeerID, err)
	}

	b.logger.Info("chat bootstrapped", "phone", phone, "peer_id", info.PeerID, "sent_id", sentID)

	return BootstrapResult{
		Phone:            phone,
		PeerID:           info.PeerID,
		ClientExternalID: ids.MakeContactID(info.PeerID),
		SentMessageID:    sentID,
	}, nil
}
