package domain

import (
	"context"
	"net/http"
)

// Client is the Telegram-side collaborator. The bridge only ever talks to
// Telegram through this interface; the production implementation lives in
// internal/telegram.
//
// The underlying session is single-owner: exactly one bridge process may
// run against a given Telegram session at a time.
type Client interface {
	// SendMessage sends a text message to the peer and returns the new
	// message's Telegram ID.
	SendMessage(ctx context.Context, peerID int64, text string) (int64, error)
	// SendFile uploads a local file to the peer as an attachment and
	// returns the new message's Telegram ID.
	SendFile(ctx context.Context, peerID int64, path string) (int64, error)
	// DownloadMedia fetches the media payload to destPath.
	DownloadMedia(ctx context.Context, media *Media, destPath string) error
	// DownloadProfilePhoto fetches the peer's profile photo to destPath.
	// Returns ErrNoProfilePhoto when the peer has none.
	DownloadProfilePhoto(ctx context.Context, peerID int64, destPath string) error
	// ImportContact registers a phone number as a contact and resolves the
	// account behind it. Returns ErrPhoneNotFound when the number is not
	// discoverable (unregistered or privacy-hidden).
	ImportContact(ctx context.Context, phone string) (ContactInfo, error)
}

// EventBus carries new-message events from the Telegram listener to the
// inbound relay.
type EventBus interface {
	Publish(evt Event)
	Subscribe() <-chan Event
	Close()
}

// Authenticator decides whether an HTTP request from the pager platform is
// allowed. Kept as an interface so handlers can be tested without real
// credentials.
type Authenticator interface {
	Authenticate(r *http.Request) error
}
