// Package permissions resolves what a CAD user may do: static
// role-group grants from the roles config file, overridden per user by
// grant/revoke rows in the database.
package permissions

import (
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/istoking/illicitrp-site/internal/models"
)

// Permission keys used by the CAD routes.
const (
	PermAdmin          = "ADMIN"
	PermViewCitizens   = "VIEW_CITIZENS"
	PermViewVehicles   = "VIEW_VEHICLES"
	PermViewProperties = "VIEW_PROPERTIES"
	PermViewWarrants   = "VIEW_WARRANTS"
	PermViewReports    = "VIEW_REPORTS"
	PermWriteReports   = "WRITE_REPORTS"
	PermWriteBolos     = "WRITE_BOLOS"
)

// RoleMatch ties a role-group to a Discord role by id or name.
type RoleMatch struct {
	Type  string `mapstructure:"type"` // "id" or "name"
	Value string `mapstructure:"value"`
}

// PermissionDef declares one permission key and its ungranted default.
type PermissionDef struct {
	Default bool `mapstructure:"default"`
}

// GroupDef declares which Discord roles map into a group.
type GroupDef struct {
	Match []RoleMatch `mapstructure:"match"`
}

// RolesConfig is the static half of permission resolution.
type RolesConfig struct {
	Permissions map[string]PermissionDef `mapstructure:"permissions"`
	Groups      map[string]GroupDef      `mapstructure:"groups"`
	Grants      map[string][]string      `mapstructure:"grants"`
}

// LoadRoles reads the roles config file (JSON or YAML).
func LoadRoles(path string) (*RolesConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg RolesConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolver combines the static config with per-user DB overrides.
type Resolver struct {
	cfg *RolesConfig
	db  *gorm.DB
}

func NewResolver(cfg *RolesConfig, db *gorm.DB) *Resolver {
	return &Resolver{cfg: cfg, db: db}
}

// Resolve computes the effective permission map and matched groups for
// a user. Precedence: config defaults, then group grants, then per-user
// overrides (a revoke row beats a group grant).
func (r *Resolver) Resolve(discordID string, roleIDs, roleNames []string) (map[string]bool, []string) {
	perms := map[string]bool{}
	for key, def := range r.cfg.Permissions {
		perms[key] = def.Default
	}

	idSet := map[string]bool{}
	for _, id := range roleIDs {
		idSet[id] = true
	}
	nameSet := map[string]bool{}
	for _, n := range roleNames {
		nameSet[n] = true
	}

	var groups []string
	for group, def := range r.cfg.Groups {
		for _, m := range def.Match {
			if (m.Type == "id" && idSet[m.Value]) || (m.Type == "name" && nameSet[m.Value]) {
				groups = append(groups, group)
				break
			}
		}
	}

	for _, g := range groups {
		for _, p := range r.cfg.Grants[g] {
			perms[p] = true
		}
	}

	if r.db != nil {
		var overrides []models.CADPermission
		if err := r.db.Where("discord_id = ?", discordID).Find(&overrides).Error; err == nil {
			for _, o := range overrides {
				perms[o.PermKey] = o.Value
			}
		}
	}

	return perms, groups
}
