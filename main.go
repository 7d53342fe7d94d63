package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inkwell/api"
	"inkwell/auth"
	"inkwell/comments"
	"inkwell/config"
	"inkwell/models"
	"inkwell/posts"
	"inkwell/storage"
	"inkwell/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger := newLogger(cfg.GinMode)
	defer logger.Sync()

	store, err := storage.NewFileStore(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal("failed to open data directory", zap.String("dir", cfg.DataDir), zap.Error(err))
	}

	directory := users.NewDirectory(store, logger)
	postStore := posts.NewStore(store, logger)
	commentStore := comments.NewStore(store, logger)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, directory, logger)

	seedAdmin(cfg, directory, logger)

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}
	if cfg.CORSAllowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins()
		corsConfig.AllowCredentials = true
	}
	router.Use(cors.New(corsConfig))

	apiModule := api.NewModule(directory, postStore, commentStore, tokens, logger)
	apiModule.RegisterRoutes(router)

	router.Static("/public", "./public")

	logger.Info("blog server starting", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(mode string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if mode == gin.ReleaseMode {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	return logger
}

// seedAdmin creates the initial admin account when the user collection is
// empty and seed credentials are configured.
func seedAdmin(cfg *config.Config, directory *users.Directory, logger *zap.Logger) {
	if cfg.AdminPassword == "" || len(directory.ListAll()) > 0 {
		return
	}

	admin, err := directory.Create(cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		logger.Error("failed to seed admin user", zap.Error(err))
		return
	}
	if _, err := directory.UpdateRole(admin.ID, models.RoleAdmin); err != nil {
		logger.Error("failed to promote seeded admin", zap.Error(err))
		return
	}
	logger.Info("seeded admin user", zap.String("username", cfg.AdminUsername))
}
