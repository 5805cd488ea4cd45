package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gridbase/gridbase/internal/auth"
	"github.com/gridbase/gridbase/internal/authz"
	"github.com/gridbase/gridbase/internal/database"
	"github.com/gridbase/gridbase/internal/handlers"
	"github.com/gridbase/gridbase/internal/middleware"
	"github.com/gridbase/gridbase/internal/schema"
	"github.com/gridbase/gridbase/internal/services"
	"github.com/gridbase/gridbase/internal/store"
	"github.com/gridbase/gridbase/pkg/config"
	"github.com/gridbase/gridbase/pkg/logger"
)

// AppConfig holds the server configuration, loaded from GRIDBASE_* env vars.
type AppConfig struct {
	Server struct {
		Port       string `mapstructure:"port"`
		CORSOrigin string `mapstructure:"corsorigin"`
	} `mapstructure:"server"`
	DB   database.Config `mapstructure:"db"`
	Auth struct {
		TokenSecret string `mapstructure:"tokensecret"`
	} `mapstructure:"auth"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

func main() {
	storeKind := flag.String("store", "postgres", "Row store backend: postgres, or memory for ephemeral in-process rows (platform metadata still lives in Postgres)")
	flag.Parse()

	var cfg AppConfig
	cfg.Server.Port = "3001"
	cfg.Server.CORSOrigin = "http://localhost:5173"
	cfg.DB.Host = "localhost"
	cfg.DB.Port = 5432
	cfg.DB.User = "gridbase"
	cfg.DB.Name = "gridbase"
	cfg.DB.SSLMode = "disable"
	cfg.DB.MaxConns = 10
	cfg.DB.MigrationsPath = "./migrations"
	cfg.Log.Level = "INFO"
	if err := config.Load("GRIDBASE_", &cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Auth.TokenSecret == "" {
		log.Fatal("GRIDBASE_AUTH_TOKENSECRET is required")
	}

	logger.Init(logger.Config{Level: cfg.Log.Level, Format: "json"})

	// Initialize database
	db, err := database.NewDB(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	var rowStore store.Store
	switch *storeKind {
	case "postgres":
		rowStore = store.NewPostgresStore(db.Pool)
	case "memory":
		// Rows live in process; schemas, auth and membership stay in Postgres.
		rowStore = store.NewMemoryStore()
	default:
		log.Fatalf("Unknown store backend: %s", *storeKind)
	}

	// Initialize services
	authService := auth.NewAuth(db.Pool)
	tokenService := auth.NewTokenService(db.Pool, cfg.Auth.TokenSecret, authService)
	databaseService := services.NewDatabaseService(db.Pool)
	schemaService, err := schema.NewService(db.Pool)
	if err != nil {
		log.Fatalf("Failed to initialize schema service: %v", err)
	}
	tableService := services.NewTableService(db.Pool, schemaService, rowStore)
	rowService := services.NewRowService(rowStore, schemaService)

	enforcer, err := authz.NewEnforcer(databaseService)
	if err != nil {
		log.Fatalf("Failed to initialize enforcer: %v", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	tokenHandler := handlers.NewTokenHandler(tokenService)
	databaseHandler := handlers.NewDatabaseHandler(databaseService, enforcer)
	tableHandler := handlers.NewTableHandler(tableService, schemaService, enforcer)
	rowHandler := handlers.NewRowHandler(rowService, tableService, enforcer)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigin))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RateLimitMiddleware(600, 100))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api")

	// Auth routes
	authRoutes := api.Group("/auth")
	authRoutes.POST("/register", middleware.AuthRateLimitMiddleware(), authHandler.Register)
	authRoutes.POST("/login", middleware.AuthRateLimitMiddleware(), authHandler.Login)
	authProtected := authRoutes.Group("")
	authProtected.Use(middleware.AuthMiddleware(authService))
	authProtected.POST("/logout", authHandler.Logout)
	authProtected.GET("/me", authHandler.Me)

	// Token management routes (cookie-authenticated)
	tokenAPI := api.Group("/auth/tokens")
	tokenAPI.Use(middleware.AuthMiddleware(authService))
	tokenAPI.GET("", tokenHandler.List)
	tokenAPI.POST("", tokenHandler.Create)
	tokenAPI.DELETE("/:id", tokenHandler.Delete)

	// Database routes (protected; accept cookie or token auth)
	databasesAPI := api.Group("/databases")
	databasesAPI.Use(middleware.AuthAnyMiddleware(authService, tokenService))
	databasesAPI.GET("", databaseHandler.List)
	databasesAPI.POST("", databaseHandler.Create)
	databasesAPI.GET("/:id", databaseHandler.Get)
	databasesAPI.PUT("/:id", databaseHandler.Update)
	databasesAPI.PATCH("/:id", databaseHandler.Update)
	databasesAPI.DELETE("/:id", databaseHandler.Delete)
	databasesAPI.POST("/:id/members", databaseHandler.AddMember)

	// Table and column routes
	databasesAPI.GET("/:id/tables", tableHandler.List)
	databasesAPI.POST("/:id/tables", tableHandler.Create)
	databasesAPI.GET("/:id/tables/:tableId", tableHandler.Get)
	databasesAPI.PUT("/:id/tables/:tableId", tableHandler.Update)
	databasesAPI.PATCH("/:id/tables/:tableId", tableHandler.Update)
	databasesAPI.DELETE("/:id/tables/:tableId", tableHandler.Delete)
	databasesAPI.GET("/:id/tables/:tableId/columns", tableHandler.ListColumns)
	databasesAPI.POST("/:id/tables/:tableId/columns", tableHandler.CreateColumn)
	databasesAPI.PUT("/:id/tables/:tableId/columns/:columnId", tableHandler.UpdateColumn)
	databasesAPI.PATCH("/:id/tables/:tableId/columns/:columnId", tableHandler.UpdateColumn)
	databasesAPI.DELETE("/:id/tables/:tableId/columns/:columnId", tableHandler.DeleteColumn)

	// Row routes
	databasesAPI.GET("/:id/tables/:tableId/rows", rowHandler.List)
	databasesAPI.POST("/:id/tables/:tableId/rows", rowHandler.Create)
	databasesAPI.GET("/:id/tables/:tableId/rows/:rowId", rowHandler.Get)
	databasesAPI.PUT("/:id/tables/:tableId/rows/:rowId", rowHandler.Update)
	databasesAPI.PATCH("/:id/tables/:tableId/rows/:rowId", rowHandler.Update)
	databasesAPI.DELETE("/:id/tables/:tableId/rows/:rowId", rowHandler.Delete)

	// Start cleanup goroutine for expired sessions
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := authService.CleanupExpiredSessions(context.Background()); err != nil {
				logger.Error("failed to cleanup expired sessions", "error", err)
			}
		}
	}()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr, "store", *storeKind)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	logger.Info("server stopped")
}
