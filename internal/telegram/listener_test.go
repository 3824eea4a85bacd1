package telegram

import (
	"log/slog"
	"os"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pagerbridge/internal/domain"
	"pagerbridge/internal/metrics"
)

// fakeBus records published events.
type fakeBus struct {
	events []domain.Event
}

func (b *fakeBus) Publish(evt domain.Event)       { b.events = append(b.events, evt) }
func (b *fakeBus) Subscribe() <-chan domain.Event { return nil }
func (b *fakeBus) Close()                         {}

func newTestListener(b *fakeBus) *Listener {
	return &Listener{
		bot:      &tgbotapi.BotAPI{Self: tgbotapi.User{ID: 99}},
		bus:      b,
		logger:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
		received: metrics.Collector.Counter("telegram_updates_total", "Telegram message updates received", ""),
	}
}

func TestHandleUpdate_PublishesEvent(t *testing.T) {
	bus := &fakeBus{}
	l := newTestListener(bus)

	l.handleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 17,
		Chat:      &tgbotapi.Chat{ID: 555, Type: "private"},
		From:      &tgbotapi.User{ID: 555, FirstName: "Olha", UserName: "olha_k"},
		Text:      "hi",
	}})

	if len(bus.events) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.events))
	}
	evt := bus.events[0]
	if !evt.IsPrivate || evt.PeerID != 555 || evt.MessageID != 17 || evt.Text != "hi" {
		t.Errorf("event = %+v", evt)
	}
	if evt.Outgoing {
		t.Error("message from another user must not be outgoing")
	}
	if evt.Sender == nil || evt.Sender.FirstName != "Olha" || evt.Sender.Username != "olha_k" {
		t.Errorf("sender = %+v", evt.Sender)
	}
}

func TestHandleUpdate_DropsEmptyUpdates(t *testing.T) {
	bus := &fakeBus{}
	l := newTestListener(bus)

	l.handleUpdate(tgbotapi.Update{})
	l.handleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: 555, Type: "private"},
		From:      &tgbotapi.User{ID: 555},
	}})

	if len(bus.events) != 0 {
		t.Errorf("updates without text or media must not publish, got %d events", len(bus.events))
	}
}

func TestHandleUpdate_OwnMessagesAreOutgoing(t *testing.T) {
	bus := &fakeBus{}
	l := newTestListener(bus)

	l.handleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 2,
		Chat:      &tgbotapi.Chat{ID: 555, Type: "private"},
		From:      &tgbotapi.User{ID: 99},
		Text:      "reply from this side",
	}})

	if len(bus.events) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.events))
	}
	if !bus.events[0].Outgoing {
		t.Error("message from the bot's own account must be outgoing")
	}
}

func TestHandleUpdate_PhotoWithCaption(t *testing.T) {
	bus := &fakeBus{}
	l := newTestListener(bus)

	l.handleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 3,
		Chat:      &tgbotapi.Chat{ID: 555, Type: "private"},
		From:      &tgbotapi.User{ID: 555},
		Caption:   "look",
		Photo:     []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "big"}},
	}})

	if len(bus.events) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.events))
	}
	evt := bus.events[0]
	if evt.Text != "look" {
		t.Errorf("caption should become text, got %q", evt.Text)
	}
	if evt.Media == nil || evt.Media.Kind != domain.MediaPhoto || evt.Media.FileID != "big" {
		t.Errorf("media = %+v", evt.Media)
	}
}

func TestMessageText(t *testing.T) {
	if got := messageText(&tgbotapi.Message{Text: "hi"}); got != "hi" {
		t.Errorf("text: %q", got)
	}
	if got := messageText(&tgbotapi.Message{Caption: "photo caption"}); got != "photo caption" {
		t.Errorf("caption fallback: %q", got)
	}
	if got := messageText(&tgbotapi.Message{Text: "hi", Caption: "c"}); got != "hi" {
		t.Errorf("text wins over caption: %q", got)
	}
}

func TestMediaOf(t *testing.T) {
	tests := []struct {
		name     string
		msg      *tgbotapi.Message
		wantKind domain.MediaKind
		wantID   string
	}{
		{
			name: "photo picks largest size",
			msg: &tgbotapi.Message{Photo: []tgbotapi.PhotoSize{
				{FileID: "small"}, {FileID: "big"},
			}},
			wantKind: domain.MediaPhoto,
			wantID:   "big",
		},
		{
			name:     "video",
			msg:      &tgbotapi.Message{Video: &tgbotapi.Video{FileID: "v1", FileName: "clip.mp4", MimeType: "video/mp4"}},
			wantKind: domain.MediaVideo,
			wantID:   "v1",
		},
		{
			name:     "audio",
			msg:      &tgbotapi.Message{Audio: &tgbotapi.Audio{FileID: "a1"}},
			wantKind: domain.MediaAudio,
			wantID:   "a1",
		},
		{
			name:     "voice",
			msg:      &tgbotapi.Message{Voice: &tgbotapi.Voice{FileID: "vo1", MimeType: "audio/ogg"}},
			wantKind: domain.MediaVoice,
			wantID:   "vo1",
		},
		{
			name:     "document",
			msg:      &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "d1", FileName: "report.pdf"}},
			wantKind: domain.MediaDocument,
			wantID:   "d1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mediaOf(tt.msg)
			if m == nil {
				t.Fatal("expected media")
			}
			if m.Kind != tt.wantKind || m.FileID != tt.wantID {
				t.Errorf("got %s/%s, want %s/%s", m.Kind, m.FileID, tt.wantKind, tt.wantID)
			}
		})
	}

	if m := mediaOf(&tgbotapi.Message{Text: "plain"}); m != nil {
		t.Errorf("plain text message has no media, got %+v", m)
	}
}
