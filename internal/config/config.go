package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port     int
	LogLevel string

	// UTCOffsetHours pins every displayed and logged timestamp to one civil offset.
	UTCOffsetHours    int
	CTAURL            string
	LogoPath          string
	FontPath          string
	PermissiveAnswers bool

	NarrativeProvider string
	AnthropicAPIKey   string
	AnthropicModel    string
	OpenAIAPIKey      string
	OpenAIModel       string

	DatabaseURL string
	CSVPath     string

	RedisURL   string
	SessionTTL time.Duration

	NatsURL   string
	NatsToken string

	SlackBotToken string
	SlackChannel  string
}

func Load() Config {
	return Config{
		Port:              envInt("SHINDAN_PORT", 8760),
		LogLevel:          envStr("LOG_LEVEL", "info"),
		UTCOffsetHours:    envInt("SHINDAN_UTC_OFFSET_HOURS", 9),
		CTAURL:            envStr("SHINDAN_CTA_URL", "https://victorconsulting.jp/spot-diagnosis/"),
		LogoPath:          envStr("SHINDAN_LOGO_PATH", ""),
		FontPath:          envStr("SHINDAN_FONT_PATH", ""),
		PermissiveAnswers: envBool("SHINDAN_PERMISSIVE_ANSWERS", false),
		NarrativeProvider: envStr("NARRATIVE_PROVIDER", ""),
		AnthropicAPIKey:   envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:    envStr("SHINDAN_ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		OpenAIAPIKey:      envStr("OPENAI_API_KEY", ""),
		OpenAIModel:       envStr("SHINDAN_OPENAI_MODEL", "gpt-4o-mini"),
		DatabaseURL:       envStr("DATABASE_URL", ""),
		CSVPath:           envStr("SHINDAN_CSV_PATH", "responses.csv"),
		RedisURL:          envStr("REDIS_URL", ""),
		SessionTTL:        envDuration("SHINDAN_SESSION_TTL", 24*time.Hour),
		NatsURL:           envStr("NATS_URL", ""),
		NatsToken:         envStr("NATS_TOKEN", ""),
		SlackBotToken:     envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:      envStr("SLACK_LEADS_CHANNEL", ""),
	}
}

// Location is the fixed zone for UTCOffsetHours, e.g. "UTC+9".
func (c Config) Location() *time.Location {
	name := "UTC"
	switch {
	case c.UTCOffsetHours > 0:
		name = "UTC+" + strconv.Itoa(c.UTCOffsetHours)
	case c.UTCOffsetHours < 0:
		name = "UTC" + strconv.Itoa(c.UTCOffsetHours)
	}
	return time.FixedZone(name, c.UTCOffsetHours*60*60)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
