package relay

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"pagerbridge/internal/domain"
	"pagerbridge/internal/pager"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// fakeDispatcher records dispatched payloads and can be told to fail.
type fakeDispatcher struct {
	mu       sync.Mutex
	payloads []pager.Payload
	err      error
	done     chan struct{} // optional: signalled on every dispatch
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, payload pager.Payload) error {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	if f.done != nil {
		f.done <- struct{}{}
	}
	return f.err
}

func (f *fakeDispatcher) dispatched() []pager.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pager.Payload(nil), f.payloads...)
}

// fakeMedia returns canned attachments inbound and a canned send result
// outbound.
type fakeMedia struct {
	inbound  []domain.Attachment
	outID    int64
	outSent  bool
	outCalls int
}

func (f *fakeMedia) StoreInbound(ctx context.Context, m *domain.Media) []domain.Attachment {
	if m == nil || f.inbound == nil {
		return []domain.Attachment{}
	}
	return f.inbound
}

func (f *fakeMedia) SendOutbound(ctx context.Context, peerID int64, atts []domain.Attachment) (int64, bool) {
	f.outCalls++
	return f.outID, f.outSent
}

// fakeAvatars returns a fixed URL for every peer.
type fakeAvatars struct {
	url   string
	calls int
}

func (f *fakeAvatars) Resolve(ctx context.Context, peerID int64) string {
	f.calls++
	return f.url
}

// fakeTelegram implements the client-side interfaces the relays use.
type fakeTelegram struct {
	sendErr    error
	importErr  error
	nextMsgID  int64
	sentTexts  map[int64][]string
	importInfo domain.ContactInfo
}

func newFakeTelegram() *fakeTelegram {
	return &fakeTelegram{sentTexts: make(map[int64][]string)}
}

func (f *fakeTelegram) SendMessage(ctx context.Context, peerID int64, text string) (int64, error) {
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.sentTexts[peerID] = append(f.sentTexts[peerID], text)
	f.nextMsgID++
	return f.nextMsgID, nil
}

func (f *fakeTelegram) SendFile(ctx context.Context, peerID int64, path string) (int64, error) {
	return 0, domain.ErrNotSupported
}

func (f *fakeTelegram) DownloadMedia(ctx context.Context, m *domain.Media, destPath string) error {
	return domain.ErrNotSupported
}

func (f *fakeTelegram) DownloadProfilePhoto(ctx context.Context, peerID int64, destPath string) error {
	return domain.ErrNoProfilePhoto
}

func (f *fakeTelegram) ImportContact(ctx context.Context, phone string) (domain.ContactInfo, error) {
	if f.importErr != nil {
		return domain.ContactInfo{}, f.importErr
	}
	return f.importInfo, nil
}
