package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/istoking/illicitrp-site/internal/models"
	"github.com/istoking/illicitrp-site/internal/permissions"
	"github.com/istoking/illicitrp-site/internal/services"
	"github.com/istoking/illicitrp-site/pkg/logger"
)

// SessionCookie is the CAD portal session cookie.
const SessionCookie = "irp_cad"

// SessionTTL bounds how long a signed session stays valid.
const SessionTTL = 12 * time.Hour

// SessionClaims is the JWT payload for a CAD session.
type SessionClaims struct {
	DiscordID   string `json:"discord_id"`
	DiscordName string `json:"discord_name"`
	Avatar      string `json:"avatar"`
	jwt.RegisteredClaims
}

// SignSession issues a session token for an authenticated Discord user.
func SignSession(secret, discordID, discordName, avatar string) (string, error) {
	claims := SessionClaims{
		DiscordID:   discordID,
		DiscordName: discordName,
		Avatar:      avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// AuthMiddleware decodes the session cookie when present. Invalid or
// missing cookies leave the request anonymous; RequireAuth enforces.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			c.Next()
			return
		}

		claims := &SessionClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !parsed.Valid {
			c.Next()
			return
		}

		c.Set("discordId", claims.DiscordID)
		c.Set("discordName", claims.DiscordName)
		c.Set("avatar", claims.Avatar)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("discordId") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoadPermissions resolves the caller's live guild roles and effective
// permissions on each request. A Discord failure keeps the identity but
// denies all permissions rather than failing the request.
func LoadPermissions(dc *services.DiscordClient, guildID string, resolver *permissions.Resolver, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		discordID := c.GetString("discordId")
		if discordID == "" {
			c.Next()
			return
		}

		roleIDs, err := dc.MemberRoles(c.Request.Context(), guildID, discordID)
		if err != nil {
			logger.Warn().Err(err).Str("discord_id", discordID).Msg("member role fetch failed, denying perms")
			c.Set("perms", map[string]bool{})
			c.Next()
			return
		}

		guildRoles, err := dc.GuildRoles(c.Request.Context(), guildID)
		if err != nil {
			logger.Warn().Err(err).Msg("guild role fetch failed, denying perms")
			c.Set("perms", map[string]bool{})
			c.Next()
			return
		}

		nameByID := map[string]string{}
		for _, r := range guildRoles {
			nameByID[r.ID] = r.Name
		}
		var roleNames []string
		for _, id := range roleIDs {
			if name, ok := nameByID[id]; ok {
				roleNames = append(roleNames, name)
			}
		}

		if db != nil {
			name := c.GetString("discordName")
			avatar := c.GetString("avatar")
			user := models.CADUser{
				DiscordID:   discordID,
				DiscordName: &name,
				Avatar:      &avatar,
				LastLoginAt: time.Now(),
			}
			if err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "discord_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"discord_name", "avatar", "last_login_at"}),
			}).Create(&user).Error; err != nil {
				logger.Warn().Err(err).Msg("cad user upsert failed")
			}

			var stored models.CADUser
			if err := db.First(&stored, "discord_id = ?", discordID).Error; err == nil && stored.Disabled {
				c.JSON(http.StatusForbidden, gin.H{"error": "account_disabled"})
				c.Abort()
				return
			}
		}

		perms, groups := resolver.Resolve(discordID, roleIDs, roleNames)
		c.Set("perms", perms)
		c.Set("groups", groups)
		c.Set("roleNames", roleNames)
		c.Next()
	}
}

// RequirePerm gates a route on one permission key.
func RequirePerm(permKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		perms, ok := c.Get("perms")
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "perm": permKey})
			c.Abort()
			return
		}
		m, ok := perms.(map[string]bool)
		if !ok || !m[permKey] {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "perm": permKey})
			c.Abort()
			return
		}
		c.Next()
	}
}
