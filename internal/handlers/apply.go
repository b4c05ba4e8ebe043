package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/istoking/illicitrp-site/internal/config"
	"github.com/istoking/illicitrp-site/internal/guard"
	"github.com/istoking/illicitrp-site/internal/services"
	"github.com/istoking/illicitrp-site/pkg/logger"
	"github.com/istoking/illicitrp-site/pkg/utils"
)

// Fields that never go into the relay embed.
var skippedApplyFields = map[string]bool{
	"turnstiletoken": true,
	"captcha":        true,
	"csrf":           true,
	"message":        true,
	"notes":          true,
}

const maxEmbedFields = 18

// Apply validates an application submission, runs the abuse guards, and
// relays it into the Discord channel as an embed.
func Apply(cfg *config.Config, g *guard.Guard, dc *services.DiscordClient) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, o := range cfg.AllowedOrigins() {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		// Only accept browser posts from the site.
		if !allowed[c.GetHeader("Origin")] {
			c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "Forbidden"})
			return
		}

		var body map[string]any
		if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid JSON"})
			return
		}

		appType := utils.SafeString(stringField(body, "type"), 48)
		if appType == "" {
			appType = "Application"
		}
		name := utils.SafeString(stringField(body, "name"), 128)
		discordTag := utils.SafeString(stringField(body, "discord"), 128)
		message := utils.SafeString(stringField(body, "message"), 1500)
		if message == "" {
			message = utils.SafeString(stringField(body, "notes"), 1500)
		}

		if len(name) < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Name is required"})
			return
		}
		if len(discordTag) < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Discord is required"})
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		ua := c.Request.UserAgent()
		if ua == "" {
			ua = "unknown"
		}

		// Keyed by IP + type + identity: blocks spam and repeat
		// submissions for the same user/type.
		rlKey := fmt.Sprintf("rl:%s:%s:%s", ip, strings.ToLower(appType), strings.ToLower(discordTag))
		res := g.Allow(c.Request.Context(), rlKey, cfg.ApplyRateLimit(), cfg.ApplyRateWindowSeconds())
		if !res.OK {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"ok":                false,
				"error":             "Rate limited",
				"retryAfterSeconds": res.RetryAfterSeconds,
			})
			return
		}

		// Exact-duplicate suppression: rapid double-clicks and client
		// retries report success without posting twice.
		hash := guard.PayloadHash(body)
		idemKey := fmt.Sprintf("idem:%s:%s:%s", strings.ToLower(appType), strings.ToLower(discordTag), hash)
		if !g.FirstTime(c.Request.Context(), idemKey, cfg.IdempotencyWindowSeconds()) {
			c.JSON(http.StatusOK, gin.H{"ok": true, "deduped": true})
			return
		}

		embed := buildApplyEmbed(body, appType, name, discordTag, message, ip, ua)

		if err := dc.PostEmbed(c.Request.Context(), cfg.DiscordChannelID, embed); err != nil {
			logger.Error().Err(err).Str("type", appType).Msg("application relay failed")
			c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "Failed to post to Discord"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func buildApplyEmbed(body map[string]any, appType, name, discordTag, message, ip, ua string) services.Embed {
	description := message
	if description == "" {
		description = "Application submitted via illicitrp.com"
	}

	fields := []services.EmbedField{
		{Name: "Name", Value: name, Inline: true},
		{Name: "Discord", Value: discordTag, Inline: true},
	}

	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := body[k]
		if v == nil {
			continue
		}
		key := utils.SafeString(k, 80)
		if skippedApplyFields[strings.ToLower(key)] {
			continue
		}

		var val string
		if s, ok := v.(string); ok {
			val = s
		} else if raw, err := json.Marshal(v); err == nil {
			val = string(raw)
		}
		val = utils.SafeString(val, 1000)
		if val == "" {
			val = "-"
		}

		fields = append(fields, services.EmbedField{Name: key, Value: val})
		if len(fields) >= maxEmbedFields+2 {
			break
		}
	}

	return services.Embed{
		Title:       "New " + appType,
		Description: description,
		Color:       0xdc2626,
		Fields:      fields,
		Footer:      &services.EmbedFooter{Text: fmt.Sprintf("IP: %s • UA: %s", ip, utils.TruncateString(ua, 60))},
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

func stringField(body map[string]any, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}
