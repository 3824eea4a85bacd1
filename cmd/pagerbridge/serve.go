package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pagerbridge/internal/avatar"
	"pagerbridge/internal/bootstrapmsg"
	"pagerbridge/internal/bus"
	"pagerbridge/internal/config"
	"pagerbridge/internal/media"
	"pagerbridge/internal/pager"
	"pagerbridge/internal/relay"
	"pagerbridge/internal/server"
	"pagerbridge/internal/telegram"

	"github.com/spf13/cobra"
)

const sweepInterval = time.Hour

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge (Telegram listener + HTTP server)",
		Long:  "Starts the Telegram update listener, the inbound relay, and the HTTP server that accepts pager webhooks. Press Ctrl+C to stop.",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.General.LogLevel),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := bus.New(100, logger)
	defer eventBus.Close()

	tgClient, err := telegram.NewBotClient(telegram.ClientConfig{
		Token:  cfg.Telegram.Token,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	store, err := media.NewStore(cfg.Media.IndexDBPath, cfg.Media.Dir, logger)
	if err != nil {
		return fmt.Errorf("media store: %w", err)
	}
	defer store.Close()
	go store.RunSweeper(ctx, sweepInterval, time.Duration(cfg.Media.RetentionDays)*24*time.Hour)

	pipeline, err := media.NewPipeline(media.PipelineConfig{
		Client:        tgClient,
		Dir:           cfg.Media.Dir,
		PublicBaseURL: cfg.Media.PublicBaseURL,
		FetchTimeout:  time.Duration(cfg.Media.FetchTimeoutSec) * time.Second,
		MaxSizeBytes:  cfg.Media.MaxSizeBytes,
		Recorder:      store,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("media pipeline: %w", err)
	}

	avatars, err := avatar.NewResolver(avatar.ResolverConfig{
		Client:        tgClient,
		Dir:           cfg.Avatar.Dir,
		PublicBaseURL: cfg.Media.PublicBaseURL,
		TTL:           time.Duration(cfg.Avatar.CacheTTLMinutes) * time.Minute,
		MaxEntries:    cfg.Avatar.CacheMaxEntries,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("avatar resolver: %w", err)
	}

	pagerClient := pager.NewClient(pager.ClientConfig{
		InboundURL: cfg.Pager.InboundURL,
		ChannelKey: cfg.Pager.ChannelKey,
		Timeout:    time.Duration(cfg.Pager.DispatchTimeoutSec) * time.Second,
		Logger:     logger,
	})

	greetings, err := bootstrapmsg.Load(cfg.Bootstrap.TemplatesPath, cfg.Bootstrap.DefaultTemplate, logger)
	if err != nil {
		return fmt.Errorf("greeting templates: %w", err)
	}

	inbound := relay.NewInbound(relay.InboundConfig{
		Bus:        eventBus,
		Dispatcher: pagerClient,
		Media:      pipeline,
		Avatars:    avatars,
		Logger:     logger,
	})
	go inbound.Run(ctx)

	listener := telegram.NewListener(telegram.ListenerConfig{
		Client:      tgClient,
		Bus:         eventBus,
		PollTimeout: cfg.Telegram.PollTimeoutSec,
		Logger:      logger,
	})
	go func() {
		if err := listener.Run(ctx); err != nil {
			logger.Error("telegram listener error", "err", err)
		}
	}()

	srv := server.New(server.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		Auth:      server.NewKeyAuthenticator(cfg.Pager.ChannelKey),
		Outbound:  relay.NewOutbound(relay.OutboundConfig{Sender: tgClient, Media: pipeline, Logger: logger}),
		Bootstrap: relay.NewBootstrap(relay.BootstrapConfig{Client: tgClient, Greeting: greetings.Default, Logger: logger}),
		MediaDir:  cfg.Media.Dir,
		AvatarDir: cfg.Avatar.Dir,
		Logger:    logger,
	})

	logger.Info("bridge started. Press Ctrl+C to stop.")
	return srv.Start(ctx)
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
