package routes

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/istoking/illicitrp-site/internal/changelog"
	"github.com/istoking/illicitrp-site/internal/config"
	"github.com/istoking/illicitrp-site/internal/guard"
	"github.com/istoking/illicitrp-site/internal/handlers"
	"github.com/istoking/illicitrp-site/internal/middleware"
	"github.com/istoking/illicitrp-site/internal/permissions"
	"github.com/istoking/illicitrp-site/internal/services"
)

// Deps carries everything the route tree needs. Built once in main; no
// lazy singletons.
type Deps struct {
	Config   *config.Config
	Discord  *services.DiscordClient
	Fivem    *services.FivemClient
	Guard    *guard.Guard
	Parser   *changelog.Parser
	Archiver *changelog.Archiver
	OAuth    *oauth2.Config
	Resolver *permissions.Resolver
	DB       *gorm.DB // nil disables the CAD surface
}

// RegisterEdgeRoutes wires the public site endpoints.
func RegisterEdgeRoutes(r *gin.Engine, d Deps) {
	r.GET("/status", handlers.Status(d.Config, d.Fivem, d.Discord))
	r.POST("/apply", handlers.Apply(d.Config, d.Guard, d.Discord))
	r.GET("/changelog", handlers.Changelog(d.Config, d.Discord, d.Parser, d.Archiver))
	r.GET("/changelog/archive", handlers.ChangelogArchive(d.Archiver))
	r.GET("/changelog/archive/index", handlers.ChangelogArchiveIndex(d.Archiver))
}

// RegisterCADRoutes wires the authenticated CAD portal API.
func RegisterCADRoutes(r *gin.Engine, d Deps) {
	auth := r.Group("/auth")
	auth.Use(middleware.AuthRateLimit())
	{
		auth.GET("/discord", handlers.DiscordLogin(d.OAuth))
		auth.GET("/discord/callback", handlers.DiscordCallback(d.Config, d.OAuth, d.Discord))
		auth.POST("/logout", handlers.Logout())
	}

	session := middleware.AuthMiddleware(d.Config.JWTSecret)
	loaded := middleware.LoadPermissions(d.Discord, d.Config.DiscordGuildID, d.Resolver, d.DB)

	me := r.Group("/me", session, middleware.RequireAuth(), loaded)
	me.GET("", handlers.Me())

	cad := r.Group("/cad", session, middleware.RequireAuth(), loaded)
	{
		cad.GET("/citizens", middleware.RequirePerm(permissions.PermViewCitizens), handlers.SearchCitizens)
		cad.GET("/citizens/:citizenid", middleware.RequirePerm(permissions.PermViewCitizens), handlers.GetCitizen)
		cad.GET("/vehicles", middleware.RequirePerm(permissions.PermViewVehicles), handlers.SearchVehicles)
		cad.GET("/properties", middleware.RequirePerm(permissions.PermViewProperties), handlers.SearchProperties)
		cad.GET("/warrants", middleware.RequirePerm(permissions.PermViewWarrants), handlers.SearchWarrants)
		cad.GET("/reports", middleware.RequirePerm(permissions.PermViewReports), handlers.SearchReports)
		cad.POST("/reports", middleware.RequirePerm(permissions.PermWriteReports), handlers.CreateReport)
		cad.GET("/bolos", middleware.RequirePerm(permissions.PermViewReports), handlers.SearchBolos)
		cad.POST("/bolos", middleware.RequirePerm(permissions.PermWriteBolos), handlers.CreateBolo)
	}

	admin := r.Group("/admin", session, middleware.RequireAuth(), loaded, middleware.RequirePerm(permissions.PermAdmin))
	{
		admin.GET("/users", handlers.AdminSearchUsers)
		admin.GET("/users/:discord_id/perms", handlers.AdminListUserPerms)
		admin.POST("/users/:discord_id/disable", handlers.AdminSetDisabled)
		admin.POST("/users/:discord_id/perm", handlers.AdminSetPerm)
		admin.GET("/audit", handlers.AdminListAudit)
	}
}
