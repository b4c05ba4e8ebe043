package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/istoking/illicitrp-site/internal/config"
	"github.com/istoking/illicitrp-site/internal/services"
	"github.com/istoking/illicitrp-site/pkg/logger"
)

// Status reports FiveM server status plus Discord community counts. The
// two upstream reads are independent and issued concurrently. Upstream
// failure never surfaces as a 5xx: FiveM degrades to an offline
// payload, Discord degrades to null.
func Status(cfg *config.Config, fivem *services.FivemClient, dc *services.DiscordClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		join := cfg.JoinCode()
		ctx := c.Request.Context()

		fivemCh := make(chan *services.FivemStatus, 1)
		discordCh := make(chan *services.GuildCounts, 1)

		go func() {
			status, err := fivem.Status(ctx, join)
			if err != nil {
				logger.Warn().Err(err).Msg("fivem listing fetch failed")
				status = fivem.OfflineStatus(join, err)
			}
			fivemCh <- status
		}()

		go func() {
			if cfg.DiscordBotToken == "" || cfg.DiscordGuildID == "" {
				discordCh <- nil
				return
			}
			counts, err := dc.GuildCounts(ctx, cfg.DiscordGuildID)
			if err != nil {
				logger.Warn().Err(err).Msg("discord guild counts fetch failed")
				counts = nil
			}
			discordCh <- counts
		}()

		fivemStatus := <-fivemCh
		discordCounts := <-discordCh

		c.JSON(http.StatusOK, gin.H{
			"ok":        true,
			"online":    fivemStatus.Online,
			"fivem":     fivemStatus,
			"discord":   discordCounts,
			"updatedAt": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
