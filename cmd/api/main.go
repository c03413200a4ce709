package main

import (
	"log"

	_ "forestval/api/swagger" // swagger docs
	"forestval/internal/config"
	"forestval/internal/database"
	"forestval/internal/handler"
	"forestval/internal/logger"
	"forestval/internal/repository"
	"forestval/internal/service"
	"forestval/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Rotation Valuation API
// @version         1.0
// @description     Discounted-cash-flow valuation of forestry rotations: NPV, FPV and Land Expectation Value.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, envLoaded := config.Load()

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer logg.Sync()

	if !envLoaded {
		logg.Info("no configs/.env file found, using environment only")
	}

	db, err := database.NewConnection(cfg.DBDriver, cfg.DSN, logg)
	if err != nil {
		logg.Fatal("database connection failed", "driver", cfg.DBDriver, "error", err)
	}
	logg.Info("database connected", "driver", cfg.DBDriver)

	templates, err := service.LoadTemplates(cfg.TemplatesDir)
	if err != nil {
		logg.Fatal("failed to load prescription templates", "dir", cfg.TemplatesDir, "error", err)
	}
	logg.Info("prescription templates loaded", "count", len(templates.List()))

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logg.With("component", "websocket"))
	go wsHub.Run(make(chan struct{}))

	// Set up dependencies (Repository -> Service -> Handler)
	runRepo := repository.NewValuationRunRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	valuationService := service.NewValuationService(runRepo, auditRepo, txManager, wsHub, logg.With("component", "valuation"))
	auditService := service.NewAuditService(auditRepo)

	valuationHandler := handler.NewValuationHandler(valuationService, templates, cfg.JWTSecret)
	auditHandler := handler.NewAuditHandler(auditService, cfg.JWTSecret)

	// Set up Gin Router
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, valuationService, cfg.JWTSecret, c)
	})

	valuationHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	logg.Info("server listening", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logg.Fatal("server failed", "error", err)
	}
}
