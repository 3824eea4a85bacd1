package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pagerbridge/internal/domain"
)

const (
	sendMaxRetries = 3
	fetchTimeout   = 60 * time.Second
)

// BotClient implements domain.Client over the Telegram Bot API.
type BotClient struct {
	bot    *tgbotapi.BotAPI
	fetch  *http.Client
	logger *slog.Logger
}

type ClientConfig struct {
	Token  string
	Logger *slog.Logger
}

func NewBotClient(cfg ClientConfig) (*BotClient, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	cfg.Logger.Info("telegram bot connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)
	return &BotClient{
		bot:    bot,
		fetch:  &http.Client{Timeout: fetchTimeout},
		logger: cfg.Logger,
	}, nil
}

// Bot exposes the underlying API handle for the update listener.
func (c *BotClient) Bot() *tgbotapi.BotAPI { return c.bot }

func (c *BotClient) SendMessage(ctx context.Context, peerID int64, text string) (int64, error) {
	return c.send(ctx, tgbotapi.NewMessage(peerID, text))
}

func (c *BotClient) SendFile(ctx context.Context, peerID int64, path string) (int64, error) {
	return c.send(ctx, tgbotapi.NewDocument(peerID, tgbotapi.FilePath(path)))
}

// send delivers a message with backoff on Telegram rate limits.
func (c *BotClient) send(ctx context.Context, msg tgbotapi.Chattable) (int64, error) {
	var lastErr error
	for attempt := 0; attempt < sendMaxRetries; attempt++ {
		sent, err := c.bot.Send(msg)
		if err == nil {
			return int64(sent.MessageID), nil
		}
		lastErr = err

		if !strings.Contains(err.Error(), "Too Many Requests") {
			break
		}
		retryAfter := time.Duration(attempt+1) * 3 * time.Second
		c.logger.Warn("telegram rate limited, backing off",
			"retry_after", retryAfter, "attempt", attempt+1,
		)
		select {
		case <-time.After(retryAfter):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return 0, fmt.Errorf("telegram send: %w", lastErr)
}

func (c *BotClient) DownloadMedia(ctx context.Context, m *domain.Media, destPath string) error {
	return c.downloadFile(ctx, m.FileID, destPath)
}

func (c *BotClient) DownloadProfilePhoto(ctx context.Context, peerID int64, destPath string) error {
	photos, err := c.bot.GetUserProfilePhotos(tgbotapi.NewUserProfilePhotos(peerID))
	if err != nil {
		return fmt.Errorf("get profile photos: %w", err)
	}
	if photos.TotalCount == 0 || len(photos.Photos) == 0 || len(photos.Photos[0]) == 0 {
		return domain.ErrNoProfilePhoto
	}

	// Sizes are ordered small to large; take the largest rendition.
	sizes := photos.Photos[0]
	return c.downloadFile(ctx, sizes[len(sizes)-1].FileID, destPath)
}

// ImportContact requires resolving an arbitrary phone number to a Telegram
// account, which bot tokens cannot do. A user-session client is needed for
// this operation.
func (c *BotClient) ImportContact(ctx context.Context, phone string) (domain.ContactInfo, error) {
	return domain.ContactInfo{}, fmt.Errorf("contact import over bot api: %w", domain.ErrNotSupported)
}

func (c *BotClient) downloadFile(ctx context.Context, fileID, destPath string) error {
	file, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return fmt.Errorf("get file %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(c.bot.Token), nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.fetch.Do(req)
	if err != nil {
		return fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download file %s: unexpected status %d", fileID, resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	return nil
}
