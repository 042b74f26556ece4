package main

import (
	"log"
	"os"

	_ "wms-backend/api/swagger" // swagger docs
	"wms-backend/internal/database"
	"wms-backend/internal/handler"
	"wms-backend/internal/middleware"
	"wms-backend/internal/repository"
	"wms-backend/internal/service"
	"wms-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Warehouse Management API
// @version         1.0
// @description     Inventory ledger, inbound/outbound documents, picking, stock moves and stock taking.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "wms"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	events := service.NewStockEventPublisher(wsHub)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	stockTxRepo := repository.NewStockTransactionRepository(db)
	inboundRepo := repository.NewInboundRepository(db)
	outboundRepo := repository.NewOutboundRepository(db)
	taskRepo := repository.NewPickingTaskRepository(db)
	waveRepo := repository.NewPickingWaveRepository(db)
	moveRepo := repository.NewStockMoveRepository(db)
	takingRepo := repository.NewStockTakingRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	seqRepo := repository.NewSequenceRepository(rdb)
	goodsLookup := repository.NewGoodsLookup(db)
	warehouseLookup := repository.NewWarehouseLookup(db)
	locationLookup := repository.NewLocationLookup(db)

	ledgerService := service.NewLedgerService(ledgerRepo, stockTxRepo)
	inboundService := service.NewInboundService(inboundRepo, ledgerService, goodsLookup, warehouseLookup, locationLookup, seqRepo, auditRepo, txManager, events)
	outboundService := service.NewOutboundService(outboundRepo, taskRepo, ledgerService, goodsLookup, warehouseLookup, locationLookup, seqRepo, auditRepo, txManager, events)
	pickingService := service.NewPickingService(taskRepo, waveRepo, outboundRepo, ledgerService, seqRepo, auditRepo, txManager, events)
	moveService := service.NewStockMoveService(moveRepo, ledgerService, goodsLookup, warehouseLookup, locationLookup, seqRepo, auditRepo, txManager, events)
	takingService := service.NewStockTakingService(takingRepo, ledgerService, goodsLookup, warehouseLookup, locationLookup, seqRepo, auditRepo, txManager, events)

	// Initialize Handlers
	stockHandler := handler.NewStockHandler(ledgerService)
	inboundHandler := handler.NewInboundHandler(inboundService)
	outboundHandler := handler.NewOutboundHandler(outboundService)
	pickingHandler := handler.NewPickingHandler(pickingService)
	moveHandler := handler.NewStockMoveHandler(moveService)
	takingHandler := handler.NewStockTakingHandler(takingService)
	auditHandler := handler.NewAuditHandler(auditRepo)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for live stock events
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	stockHandler.RegisterRoutes(router.Group(""))
	inboundHandler.RegisterRoutes(router.Group(""))
	outboundHandler.RegisterRoutes(router.Group(""))
	pickingHandler.RegisterRoutes(router.Group(""))
	moveHandler.RegisterRoutes(router.Group(""))
	takingHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
