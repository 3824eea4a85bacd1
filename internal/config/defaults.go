package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Telegram: TelegramConfig{
			Token:          "${TG_BOT_TOKEN}",
			PollTimeoutSec: 30,
		},
		Pager: PagerConfig{
			InboundURL:         "https://pager.co.ua/api/webhooks/custom",
			ChannelKey:         "${PAGER_CHANNEL_KEY}",
			DispatchTimeoutSec: 20,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Media: MediaConfig{
			Dir:             "~/.pagerbridge/media",
			PublicBaseURL:   "${PUBLIC_BASE_URL}",
			FetchTimeoutSec: 30,
			MaxSizeBytes:    50 * 1024 * 1024,
			IndexDBPath:     "~/.pagerbridge/media.db",
			RetentionDays:   30,
		},
		Avatar: AvatarConfig{
			Dir:             "~/.pagerbridge/avatars",
			CacheTTLMinutes: 24 * 60,
			CacheMaxEntries: 10000,
		},
		Bootstrap: BootstrapConfig{
			DefaultTemplate: "greeting",
		},
	}
}
