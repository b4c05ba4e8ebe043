package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/istoking/illicitrp-site/internal/database"
	"github.com/istoking/illicitrp-site/internal/models"
	"github.com/istoking/illicitrp-site/internal/services"
	"github.com/istoking/illicitrp-site/pkg/utils"
)

// Admin handlers: CAD user and permission-override management. All
// gated on the ADMIN permission key by the router.

func AdminSearchUsers(c *gin.Context) {
	qtext := strings.TrimSpace(c.Query("q"))
	if qtext == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_query"})
		return
	}

	pattern := utils.SanitizeSearchQuery(qtext)
	var rows []models.CADUser
	err := database.DB.
		Where("discord_id LIKE ? OR discord_name LIKE ?", pattern, pattern).
		Order("last_login_at DESC").
		Limit(25).
		Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	services.Audit(database.DB, c.GetString("discordId"), "ADMIN_SEARCH_USERS", qtext, c.ClientIP(), gin.H{"count": len(rows)})
	c.JSON(http.StatusOK, gin.H{"results": rows})
}

func AdminListUserPerms(c *gin.Context) {
	id := c.Param("discord_id")

	var rows []models.CADPermission
	if err := database.DB.Where("discord_id = ?", id).Order("perm_key ASC").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	services.Audit(database.DB, c.GetString("discordId"), "ADMIN_VIEW_PERMS", id, c.ClientIP(), gin.H{})
	c.JSON(http.StatusOK, gin.H{"results": rows})
}

func AdminSetDisabled(c *gin.Context) {
	id := c.Param("discord_id")

	var input struct {
		Disabled bool `json:"disabled"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	if err := database.DB.Model(&models.CADUser{}).Where("discord_id = ?", id).Update("disabled", input.Disabled).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	services.Audit(database.DB, c.GetString("discordId"), "ADMIN_SET_DISABLED", id, c.ClientIP(), gin.H{"disabled": input.Disabled})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func AdminSetPerm(c *gin.Context) {
	id := c.Param("discord_id")

	var input struct {
		PermKey string `json:"perm_key"`
		Value   bool   `json:"value"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.PermKey) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}
	permKey := strings.TrimSpace(input.PermKey)

	override := models.CADPermission{
		DiscordID:          id,
		PermKey:            permKey,
		Value:              input.Value,
		GrantedByDiscordID: c.GetString("discordId"),
	}
	err := database.DB.
		Where("discord_id = ? AND perm_key = ?", id, permKey).
		Assign(map[string]any{"value": input.Value, "granted_by_discord_id": override.GrantedByDiscordID}).
		FirstOrCreate(&override).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	services.Audit(database.DB, c.GetString("discordId"), "ADMIN_SET_PERM", id, c.ClientIP(), gin.H{"perm_key": permKey, "value": input.Value})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func AdminListAudit(c *gin.Context) {
	limit := utils.ClampInt(c.DefaultQuery("limit", "50"), 1, 200, 50)

	var rows []models.AuditLog
	if err := database.DB.Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": rows})
}
