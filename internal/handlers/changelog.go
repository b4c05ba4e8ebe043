package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/istoking/illicitrp-site/internal/changelog"
	"github.com/istoking/illicitrp-site/internal/config"
	"github.com/istoking/illicitrp-site/internal/services"
	"github.com/istoking/illicitrp-site/pkg/logger"
)

// Changelog reads the Discord changelog channel, parses messages into
// entries, serves the display window, and archives whatever fell out of
// it. Archive failures degrade silently; a Discord fetch failure is a
// 502 (the feed has no other source of truth).
func Changelog(cfg *config.Config, dc *services.DiscordClient, parser *changelog.Parser, archiver *changelog.Archiver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.DiscordBotToken == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Missing DISCORD_BOT_TOKEN"})
			return
		}
		if cfg.DiscordChangelogChannelID == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Missing DISCORD_CHANGELOG_CHANNEL_ID"})
			return
		}

		msgs, err := dc.ChannelMessages(c.Request.Context(), cfg.DiscordChangelogChannelID, cfg.FetchLimit())
		if err != nil {
			logger.Warn().Err(err).Msg("changelog channel fetch failed")
			c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "Discord fetch failed"})
			return
		}

		all := parser.ParseAll(msgs)
		changelog.SortEntries(all)
		displayed, overflow := changelog.Window(all, cfg.DisplayLimit())

		archive := archiver.Run(c.Request.Context(), all, displayed, overflow)
		if archive.Degraded {
			logger.Warn().Str("reason", archive.Reason).Msg("changelog archive degraded")
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":        true,
			"source":    "discord",
			"count":     len(displayed),
			"entries":   displayed,
			"archive":   archive,
			"updatedAt": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// ChangelogArchive serves one month bucket.
func ChangelogArchive(archiver *changelog.Archiver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !archiver.Enabled() {
			c.JSON(http.StatusNotImplemented, gin.H{"ok": false, "error": "Archive is disabled"})
			return
		}

		month := c.Query("month")
		if !changelog.ValidMonth(month) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Missing or invalid month. Use ?month=YYYY-MM"})
			return
		}

		entries := archiver.Month(c.Request.Context(), month)
		c.JSON(http.StatusOK, gin.H{
			"ok":        true,
			"month":     month,
			"count":     len(entries),
			"entries":   entries,
			"updatedAt": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// ChangelogArchiveIndex serves the month index summary.
func ChangelogArchiveIndex(archiver *changelog.Archiver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !archiver.Enabled() {
			c.JSON(http.StatusNotImplemented, gin.H{"ok": false, "error": "Archive is disabled"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":        true,
			"months":    archiver.Index(c.Request.Context()),
			"updatedAt": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
