package telegram

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pagerbridge/internal/domain"
	"pagerbridge/internal/metrics"
)

// Listener polls Telegram for updates and publishes new-message events on
// the bus. Group and channel traffic is published as-is; filtering by chat
// type is the relay's job.
type Listener struct {
	bot         *tgbotapi.BotAPI
	bus         domain.EventBus
	pollTimeout int
	logger      *slog.Logger
	received    *metrics.Counter
}

type ListenerConfig struct {
	Client      *BotClient
	Bus         domain.EventBus
	PollTimeout int
	Logger      *slog.Logger
}

func NewListener(cfg ListenerConfig) *Listener {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30
	}
	return &Listener{
		bot:         cfg.Client.Bot(),
		bus:         cfg.Bus,
		pollTimeout: cfg.PollTimeout,
		logger:      cfg.Logger,
		received:    metrics.Collector.Counter("telegram_updates_total", "Telegram message updates received", ""),
	}
}

// Run polls for updates until the context is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = l.pollTimeout
	updates := l.bot.GetUpdatesChan(u)

	l.logger.Info("telegram polling started", "timeout_sec", l.pollTimeout)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("telegram listener stopping")
			l.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			l.handleUpdate(update)
		}
	}
}

func (l *Listener) handleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	evt := domain.Event{
		IsPrivate: msg.Chat.IsPrivate(),
		PeerID:    msg.Chat.ID,
		MessageID: int64(msg.MessageID),
		Text:      messageText(msg),
		Media:     mediaOf(msg),
	}
	if msg.From != nil {
		evt.Outgoing = msg.From.ID == l.bot.Self.ID
		evt.Sender = &domain.Sender{
			ID:        msg.From.ID,
			FirstName: msg.From.FirstName,
			Username:  msg.From.UserName,
		}
	}
	if evt.Text == "" && evt.Media == nil {
		return
	}

	l.received.Inc()
	l.logger.Info("telegram message received",
		"peer_id", evt.PeerID,
		"message_id", evt.MessageID,
		"private", evt.IsPrivate,
		"has_media", evt.Media != nil,
	)
	l.bus.Publish(evt)
}

func messageText(msg *tgbotapi.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

func mediaOf(msg *tgbotapi.Message) *domain.Media {
	switch {
	case len(msg.Photo) > 0:
		// Sizes are ordered small to large; take the largest rendition.
		p := msg.Photo[len(msg.Photo)-1]
		return &domain.Media{Kind: domain.MediaPhoto, FileID: p.FileID, MimeType: "image/jpeg"}
	case msg.Video != nil:
		return &domain.Media{Kind: domain.MediaVideo, FileID: msg.Video.FileID, FileName: msg.Video.FileName, MimeType: msg.Video.MimeType}
	case msg.Audio != nil:
		return &domain.Media{Kind: domain.MediaAudio, FileID: msg.Audio.FileID, FileName: msg.Audio.FileName, MimeType: msg.Audio.MimeType}
	case msg.Voice != nil:
		return &domain.Media{Kind: domain.MediaVoice, FileID: msg.Voice.FileID, MimeType: msg.Voice.MimeType}
	case msg.Document != nil:
		return &domain.Media{Kind: domain.MediaDocument, FileID: msg.Document.FileID, FileName: msg.Document.FileName, MimeType: msg.Document.MimeType}
	}
	return nil
}
