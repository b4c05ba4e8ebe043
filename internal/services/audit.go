package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/istoking/illicitrp-site/internal/models"
	"github.com/istoking/illicitrp-site/pkg/logger"
)

// Audit records one CAD operation. Failures are logged and swallowed;
// audit logging never fails the request that triggered it.
func Audit(db *gorm.DB, discordID, action, target, ip string, meta map[string]any) {
	if db == nil {
		return
	}
	if discordID == "" {
		discordID = "unknown"
	}

	var metaJSON *string
	if meta != nil {
		if raw, err := json.Marshal(meta); err == nil {
			s := string(raw)
			metaJSON = &s
		}
	}

	entry := models.AuditLog{
		DiscordID: discordID,
		Action:    action,
		Target:    target,
		Meta:      metaJSON,
		IP:        ip,
	}

	if err := db.Create(&entry).Error; err != nil {
		logger.Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}
