package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"

	"github.com/istoking/illicitrp-site/pkg/utils"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"GO_ENV"`
	WebOrigins  string `mapstructure:"WEB_ORIGINS"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	DatabaseDSN string `mapstructure:"DATABASE_DSN"`

	// Redis (optional; in-memory fallback when unset)
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// Discord
	DiscordBotToken           string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordGuildID            string `mapstructure:"DISCORD_GUILD_ID"`
	DiscordChannelID          string `mapstructure:"DISCORD_CHANNEL_ID"`
	DiscordChangelogChannelID string `mapstructure:"DISCORD_CHANGELOG_CHANNEL_ID"`
	DiscordClientID           string `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret       string `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURI        string `mapstructure:"DISCORD_REDIRECT_URI"`

	// FiveM
	FivemJoinCode   string `mapstructure:"FIVEM_JOIN_CODE"`
	FivemMaxPlayers string `mapstructure:"FIVEM_MAX_PLAYERS"`

	// Changelog
	ChangelogLimit      string `mapstructure:"CHANGELOG_LIMIT"`
	ChangelogFetchLimit string `mapstructure:"CHANGELOG_FETCH_LIMIT"`
	ArchiveMonthLimit   string `mapstructure:"CHANGELOG_ARCHIVE_MONTH_LIMIT"`
	ChangelogTags       string `mapstructure:"CHANGELOG_TAGS"`
	Timezone            string `mapstructure:"TIMEZONE"`

	// Abuse controls
	RateLimit          string `mapstructure:"RL_LIMIT"`
	RateWindowSeconds  string `mapstructure:"RL_WINDOW_SECONDS"`
	IdempotencySeconds string `mapstructure:"IDEMPOTENCY_SECONDS"`

	// CAD
	RolesFile string `mapstructure:"ROLES_FILE"`
}

var AppConfig *Config

func LoadConfig() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	// Viper only unmarshals keys it has seen; bind every field explicitly
	// so plain environment variables are picked up too.
	for _, key := range []string{
		"PORT", "GO_ENV", "WEB_ORIGINS", "JWT_SECRET", "DATABASE_DSN",
		"REDIS_ADDR", "REDIS_PASSWORD",
		"DISCORD_BOT_TOKEN", "DISCORD_GUILD_ID", "DISCORD_CHANNEL_ID",
		"DISCORD_CHANGELOG_CHANNEL_ID", "DISCORD_CLIENT_ID",
		"DISCORD_CLIENT_SECRET", "DISCORD_REDIRECT_URI",
		"FIVEM_JOIN_CODE", "FIVEM_MAX_PLAYERS",
		"CHANGELOG_LIMIT", "CHANGELOG_FETCH_LIMIT",
		"CHANGELOG_ARCHIVE_MONTH_LIMIT", "CHANGELOG_TAGS", "TIMEZONE",
		"RL_LIMIT", "RL_WINDOW_SECONDS", "IDEMPOTENCY_SECONDS",
		"ROLES_FILE",
	} {
		_ = viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
}

// AllowedOrigins returns the CORS allow-list. Defaults to the production
// site origins when WEB_ORIGINS is unset.
func (c *Config) AllowedOrigins() []string {
	if strings.TrimSpace(c.WebOrigins) == "" {
		return []string{"https://illicitrp.com", "https://www.illicitrp.com"}
	}
	var out []string
	for _, o := range strings.Split(c.WebOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// JoinCode returns the FiveM join code with its documented default.
func (c *Config) JoinCode() string {
	if c.FivemJoinCode == "" {
		return "z5bz49"
	}
	return c.FivemJoinCode
}

// MaxPlayers returns the configured player cap override (0 = use the
// value reported by the listing API).
func (c *Config) MaxPlayers() int {
	return utils.ClampInt(c.FivemMaxPlayers, 0, 4096, 0)
}

// DisplayLimit is the number of changelog entries shown directly.
func (c *Config) DisplayLimit() int {
	return utils.ClampInt(c.ChangelogLimit, 1, 50, 25)
}

// FetchLimit is the number of channel messages pulled per run.
func (c *Config) FetchLimit() int {
	return utils.ClampInt(c.ChangelogFetchLimit, 1, 100, 100)
}

// MonthLimit caps how many archived entries one calendar month holds.
func (c *Config) MonthLimit() int {
	return utils.ClampInt(c.ArchiveMonthLimit, 50, 2000, 750)
}

// AllowedTags returns the slug allow-list, empty meaning "any tag".
func (c *Config) AllowedTags() []string {
	raw := strings.TrimSpace(c.ChangelogTags)
	if raw == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if slug := utils.Slugify(t); slug != "" {
			out = append(out, slug)
		}
	}
	return out
}

// Location resolves the configured time zone, defaulting to the server's
// home zone. Unloadable zones fall back to UTC rather than failing.
func (c *Config) TimezoneName() string {
	if strings.TrimSpace(c.Timezone) == "" {
		return "Pacific/Auckland"
	}
	return c.Timezone
}

func (c *Config) ApplyRateLimit() int {
	return utils.ClampInt(c.RateLimit, 1, 50, 1)
}

func (c *Config) ApplyRateWindowSeconds() int {
	return utils.ClampInt(c.RateWindowSeconds, 10, 3600, 60)
}

func (c *Config) IdempotencyWindowSeconds() int {
	return utils.ClampInt(c.IdempotencySeconds, 10, 3600, 180)
}
