package models

import "time"

// CADUser is a portal account, keyed by the Discord snowflake. Rows are
// upserted on every authenticated request so names and avatars stay
// fresh.
type CADUser struct {
	DiscordID   string    `gorm:"column:discord_id;primaryKey" json:"discord_id"`
	DiscordName *string   `gorm:"column:discord_name" json:"discord_name"`
	Avatar      *string   `gorm:"column:avatar" json:"avatar"`
	Disabled    bool      `gorm:"column:disabled;default:false" json:"disabled"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	LastLoginAt time.Time `gorm:"column:last_login_at" json:"last_login_at"`
}

func (CADUser) TableName() string { return "irp_cad_users" }

// CADPermission is a per-user override on top of the role-group grants:
// value true grants the key, false revokes it.
type CADPermission struct {
	DiscordID          string    `gorm:"column:discord_id;primaryKey" json:"discord_id"`
	PermKey            string    `gorm:"column:perm_key;primaryKey" json:"perm_key"`
	Value              bool      `gorm:"column:value" json:"value"`
	GrantedByDiscordID string    `gorm:"column:granted_by_discord_id" json:"granted_by_discord_id"`
	CreatedAt          time.Time `gorm:"column:created_at" json:"created_at"`
}

func (CADPermission) TableName() string { return "irp_cad_permissions" }

// AuditLog records one CAD operation. Writes are best-effort; a failed
// audit insert never fails the request that caused it.
type AuditLog struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	DiscordID string    `gorm:"column:discord_id" json:"discord_id"`
	Action    string    `gorm:"column:action" json:"action"`
	Target    string    `gorm:"column:target" json:"target"`
	Meta      *string   `gorm:"column:meta" json:"meta"`
	IP        string    `gorm:"column:ip" json:"ip"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (AuditLog) TableName() string { return "irp_cad_audit" }
