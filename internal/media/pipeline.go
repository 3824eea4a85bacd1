// Package media moves attachment bytes between the two platforms: inbound
// Telegram media is downloaded, stored locally and re-exposed via a public
// URL; outbound attachment URLs are fetched and re-uploaded to Telegram.
package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"pagerbridge/internal/domain"
)

// MediaServePath is the public path prefix inbound media is served under.
const MediaServePath = "/media/"

// Recorder indexes stored media files so aged ones can be swept later.
type Recorder interface {
	Record(ctx context.Context, rec FileRecord) error
}

// Pipeline implements both directions of the media transfer.
type Pipeline struct {
	client        domain.Client
	dir           string
	publicBaseURL string
	fetchClient   *http.Client
	maxSizeBytes  int64
	recorder      Recorder
	logger        *slog.Logger
}

type PipelineConfig struct {
	Client        domain.Client
	Dir           string
	PublicBaseURL string
	FetchTimeout  time.Duration
	MaxSizeBytes  int64
	Recorder      Recorder // optional
	Logger        *slog.Logger
}

func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	if cfg.MaxSizeBytes <= 0 {
		cfg.MaxSizeBytes = 50 * 1024 * 1024
	}
	return &Pipeline{
		client:        cfg.Client,
		dir:           cfg.Dir,
		publicBaseURL: cfg.PublicBaseURL,
		fetchClient:   SharedHTTPClient(cfg.FetchTimeout),
		maxSizeBytes:  cfg.MaxSizeBytes,
		recorder:      cfg.Recorder,
		logger:        cfg.Logger,
	}, nil
}

// StoreInbound downloads the event's media to local storage and returns it
// as a one-element attachment list with a public URL. Any failure is
// logged and yields an empty list: text delivery must proceed even when
// media cannot be transferred.
func (p *Pipeline) StoreInbound(ctx context.Context, m *domain.Media) []domain.Attachment {
	if m == nil {
		return []domain.Attachment{}
	}

	name := p.uniqueName(m)
	dest := filepath.Join(p.dir, name)

	if err := p.client.DownloadMedia(ctx, m, dest); err != nil {
		p.logger.Warn("inbound media download failed", "file_id", m.FileID, "kind", m.Kind, "err", err)
		return []domain.Attachment{}
	}

	if p.recorder != nil {
		size := int64(0)
		if fi, err := os.Stat(dest); err == nil {
			size = fi.Size()
		}
		rec := FileRecord{Name: name, Kind: string(domain.AttachmentKindFor(m.Kind)), MimeType: m.MimeType, Size: size}
		if err := p.recorder.Record(ctx, rec); err != nil {
			p.logger.Warn("media index record failed", "name", name, "err", err)
		}
	}

	return []domain.Attachment{{
		Kind: domain.AttachmentKindFor(m.Kind),
		URL:  JoinPublicURL(p.publicBaseURL, MediaServePath+name),
	}}
}

// SendOutbound fetches each attachment URL and re-uploads the bytes to the
// peer. One attachment failing is logged and skipped; the rest still go
// out. Returns the Telegram ID of the last successful upload.
func (p *Pipeline) SendOutbound(ctx context.Context, peerID int64, atts []domain.Attachment) (lastID int64, sent bool) {
	for _, att := range atts {
		msgID, err := p.sendOne(ctx, peerID, att)
		if err != nil {
			p.logger.Warn("outbound attachment skipped", "peer_id", peerID, "url", att.URL, "err", err)
			continue
		}
		lastID = msgID
		sent = true
	}
	return lastID, sent
}

// sendOne transfers a single attachment: fetch to a temp file, upload,
// delete the temp file whatever the upload outcome.
func (p *Pipeline) sendOne(ctx context.Context, peerID int64, att domain.Attachment) (int64, error) {
	tmpPath, err := p.fetchToTemp(ctx, att.URL)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", att.URL, err)
	}
	defer os.Remove(tmpPath)

	msgID, err := p.client.SendFile(ctx, peerID, tmpPath)
	if err != nil {
		return 0, fmt.Errorf("upload to peer %d: %w", peerID, err)
	}
	return msgID, nil
}

func (p *Pipeline) fetchToTemp(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.fetchClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "pagerbridge-out-*"+extFromURL(rawURL))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	written, err := io.Copy(tmp, io.LimitReader(resp.Body, p.maxSizeBytes+1))
	tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if written > p.maxSizeBytes {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("attachment too large: %d bytes (max: %d)", written, p.maxSizeBytes)
	}

	return tmp.Name(), nil
}

// uniqueName builds a collision-free stored filename, keeping a usable
// extension when the source offers one.
func (p *Pipeline) uniqueName(m *domain.Media) string {
	ext := filepath.Ext(m.FileName)
	if ext == "" && m.MimeType != "" {
		if exts, err := mime.ExtensionsByType(m.MimeType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	if ext == "" {
		switch m.Kind {
		case domain.MediaPhoto:
			ext = ".jpg"
		case domain.MediaVideo:
			ext = ".mp4"
		case domain.MediaVoice:
			ext = ".ogg"
		default:
			ext = ".bin"
		}
	}
	return fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString(), ext)
}

func extFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return path.Ext(u.Path)
}
