package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/istoking/illicitrp-site/internal/changelog"
	"github.com/istoking/illicitrp-site/internal/config"
	"github.com/istoking/illicitrp-site/internal/database"
	"github.com/istoking/illicitrp-site/internal/guard"
	"github.com/istoking/illicitrp-site/internal/handlers"
	"github.com/istoking/illicitrp-site/internal/kv"
	"github.com/istoking/illicitrp-site/internal/middleware"
	"github.com/istoking/illicitrp-site/internal/permissions"
	"github.com/istoking/illicitrp-site/internal/routes"
	"github.com/istoking/illicitrp-site/internal/services"
	"github.com/istoking/illicitrp-site/pkg/logger"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	env := cfg.Env
	if env == "" {
		env = "development"
	}
	logger.Init(env)

	logger.Info().Str("environment", env).Msg("Starting IRP edge backend...")

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Key-value store: shared Redis when configured, per-instance
	// memory otherwise.
	var store kv.Store
	if cfg.RedisAddr != "" {
		redisStore, err := kv.NewRedisStore(context.Background(), cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, archive and guards fall back to memory")
		} else {
			store = redisStore
			logger.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")
		}
	}
	if store == nil {
		store = kv.NewMemoryStore()
	}

	// Game database is optional; without it the CAD surface is off but
	// the edge endpoints still serve.
	cadEnabled := false
	if cfg.DatabaseDSN != "" {
		if err := database.Connect(cfg.DatabaseDSN); err != nil {
			logger.Error().Err(err).Msg("Database connection failed, CAD routes disabled")
		} else {
			cadEnabled = true
			logger.Info().Msg("Connected to game database")
		}
	}

	loc, err := time.LoadLocation(cfg.TimezoneName())
	if err != nil {
		logger.Warn().Str("tz", cfg.TimezoneName()).Msg("Unknown time zone, using UTC")
		loc = time.UTC
	}

	discord := services.NewDiscordClient(cfg.DiscordBotToken)
	fivem := services.NewFivemClient(cfg.MaxPlayers())
	parser := changelog.NewParser(loc, cfg.DiscordGuildID, cfg.DiscordChangelogChannelID, cfg.AllowedTags())
	archiver := changelog.NewArchiver(store, cfg.DisplayLimit(), cfg.MonthLimit())
	guards := guard.New(store)

	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins()))
	r.Use(middleware.GeneralRateLimit())

	deps := routes.Deps{
		Config:   cfg,
		Discord:  discord,
		Fivem:    fivem,
		Guard:    guards,
		Parser:   parser,
		Archiver: archiver,
		OAuth:    handlers.OAuthConfig(cfg),
	}

	routes.RegisterEdgeRoutes(r, deps)

	if cadEnabled {
		rolesPath := cfg.RolesFile
		if rolesPath == "" {
			rolesPath = "config/roles.json"
		}
		rolesCfg, err := permissions.LoadRoles(rolesPath)
		if err != nil {
			logger.Error().Err(err).Str("path", rolesPath).Msg("Roles config failed to load, CAD routes disabled")
		} else {
			deps.Resolver = permissions.NewResolver(rolesCfg, database.DB)
			deps.DB = database.DB
			routes.RegisterCADRoutes(r, deps)
			logger.Info().Msg("CAD routes registered")
		}
	}

	r.GET("/health", func(c *gin.Context) {
		checks := gin.H{"kv": "ok"}
		status := "ok"

		if _, _, err := store.Get(c.Request.Context(), "health:probe"); err != nil {
			checks["kv"] = "error"
			status = "degraded"
		}
		if cadEnabled {
			checks["database"] = "ok"
			if sqlDB, err := database.DB.DB(); err != nil || sqlDB.Ping() != nil {
				checks["database"] = "error"
				status = "degraded"
			}
		} else {
			checks["database"] = "not configured"
		}

		c.JSON(http.StatusOK, gin.H{"status": status, "checks": checks})
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", port).Str("env", env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
