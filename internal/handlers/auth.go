package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/istoking/illicitrp-site/internal/config"
	"github.com/istoking/illicitrp-site/internal/middleware"
	"github.com/istoking/illicitrp-site/internal/services"
	"github.com/istoking/illicitrp-site/pkg/logger"
)

var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/oauth2/authorize",
	TokenURL: "https://discord.com/api/v10/oauth2/token",
}

// OAuthConfig builds the Discord authorization-code flow config.
func OAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.DiscordClientID,
		ClientSecret: cfg.DiscordClientSecret,
		RedirectURL:  cfg.DiscordRedirectURI,
		Scopes:       []string{"identify"},
		Endpoint:     discordEndpoint,
	}
}

// DiscordLogin redirects the browser into the Discord consent screen.
func DiscordLogin(oauth *oauth2.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		url := oauth.AuthCodeURL("", oauth2.SetAuthURLParam("prompt", "consent"))
		c.Redirect(http.StatusFound, url)
	}
}

// DiscordCallback exchanges the code, loads the Discord identity, and
// issues the CAD session cookie.
func DiscordCallback(cfg *config.Config, oauth *oauth2.Config, dc *services.DiscordClient) gin.HandlerFunc {
	portal := cfg.AllowedOrigins()[0] + "/cad/"

	return func(c *gin.Context) {
		code := c.Query("code")
		if code == "" {
			c.String(http.StatusBadRequest, "Missing code")
			return
		}

		token, err := oauth.Exchange(c.Request.Context(), code)
		if err != nil {
			logger.Warn().Err(err).Msg("discord code exchange failed")
			c.String(http.StatusInternalServerError, "Auth failed")
			return
		}

		user, err := dc.CurrentUser(c.Request.Context(), token.AccessToken)
		if err != nil {
			logger.Warn().Err(err).Msg("discord user fetch failed")
			c.String(http.StatusInternalServerError, "Auth failed")
			return
		}

		name := user.Username
		if user.Discriminator != "" && user.Discriminator != "0" {
			name += "#" + user.Discriminator
		}
		avatar := ""
		if user.Avatar != "" {
			avatar = "https://cdn.discordapp.com/avatars/" + user.ID + "/" + user.Avatar + ".png"
		}

		session, err := middleware.SignSession(cfg.JWTSecret, user.ID, name, avatar)
		if err != nil {
			logger.Error().Err(err).Msg("session signing failed")
			c.String(http.StatusInternalServerError, "Auth failed")
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.SessionCookie, session, int(middleware.SessionTTL.Seconds()), "/", "", true, true)
		c.Redirect(http.StatusFound, portal)
	}
}

// Logout clears the session cookie.
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie(middleware.SessionCookie, "", -1, "/", "", true, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// Me returns the caller's identity and resolved permissions.
func Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		perms, _ := c.Get("perms")
		if perms == nil {
			perms = map[string]bool{}
		}
		groups, _ := c.Get("groups")
		if groups == nil {
			groups = []string{}
		}
		roleNames, _ := c.Get("roleNames")
		if roleNames == nil {
			roleNames = []string{}
		}

		c.JSON(http.StatusOK, gin.H{
			"discord_id":   c.GetString("discordId"),
			"discord_name": c.GetString("discordName"),
			"avatar":       c.GetString("avatar"),
			"groups":       groups,
			"perms":        perms,
			"role_names":   roleNames,
		})
	}
}
