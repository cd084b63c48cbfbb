package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shailum17/BazaarBuddy-sub000/internal/config"
	"github.com/shailum17/BazaarBuddy-sub000/internal/database"
	"github.com/shailum17/BazaarBuddy-sub000/internal/handler"
	"github.com/shailum17/BazaarBuddy-sub000/internal/hub"
	"github.com/shailum17/BazaarBuddy-sub000/internal/middleware"
	"github.com/shailum17/BazaarBuddy-sub000/internal/monitor"
	"github.com/shailum17/BazaarBuddy-sub000/internal/notifier"
	"github.com/shailum17/BazaarBuddy-sub000/internal/redis"
	"github.com/shailum17/BazaarBuddy-sub000/internal/repository"
	"github.com/shailum17/BazaarBuddy-sub000/internal/service/catalog"
	"github.com/shailum17/BazaarBuddy-sub000/internal/service/order"
	"github.com/shailum17/BazaarBuddy-sub000/internal/utils"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/log"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/snowflake"
	pkgutils "github.com/shailum17/BazaarBuddy-sub000/pkg/utils"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := log.Init(log.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxAge:     cfg.Log.MaxAge,
		MaxBackups: cfg.Log.MaxBackups,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	config.WatchConfig(nil)

	if err := database.Init(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if err := redis.Init(cfg); err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer redis.Close()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	monitor.Init()

	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	idGenerator, err := snowflake.New(cfg.Marketplace.NodeID)
	if err != nil {
		log.Fatalf("Failed to create ID generator: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventHub := hub.NewHub(cfg.Hub.SendBuffer)
	if client := redis.GetClient(); client != nil {
		bridge, err := hub.NewBridge(client, cfg.Hub.BridgeChannel)
		if err != nil {
			log.Fatalf("Failed to create event bridge: %v", err)
		}
		eventHub.SetBridge(bridge)
		go bridge.Start(ctx, eventHub)
	}
	chatRelay := hub.NewChatRelay(eventHub)

	catalogService, err := catalog.NewService(productRepo, cfg.Catalog)
	if err != nil {
		log.Fatalf("Failed to create catalog service: %v", err)
	}

	multiNotifier := notifier.NewMultiNotifier(
		notifier.NewEmailNotifier(),
		notifier.NewSMSNotifier(),
	)

	orderService := order.NewService(
		order.Config{
			FreeDeliveryThreshold: cfg.Marketplace.FreeDeliveryThreshold,
			FlatDeliveryFee:       cfg.Marketplace.FlatDeliveryFee,
			EstimatedDelivery:     cfg.Marketplace.EstimatedDelivery,
			OrderNoPrefix:         cfg.Marketplace.OrderNoPrefix,
		},
		orderRepo, productRepo, userRepo,
		idGenerator, eventHub, multiNotifier,
	)

	jwtManager := utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer)

	router := setupRouter(cfg, orderService, catalogService, eventHub, chatRelay, jwtManager)

	server := &http.Server{
		Addr:           cfg.Server.GetAddr(),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.WithFields(map[string]interface{}{
			"addr": server.Addr,
			"mode": cfg.Server.Mode,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func setupRouter(
	cfg *config.Config,
	orderService order.Service,
	catalogService *catalog.Service,
	eventHub *hub.Hub,
	chatRelay *hub.ChatRelay,
	jwtManager *utils.JWTManager,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit(cfg.RateLimit))
	router.Use(monitor.HTTPMiddleware())

	router.GET("/health", healthCheck)
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, monitor.Handler())
	}

	validator := func(token string) (*middleware.UserInfo, error) {
		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.UserInfo{ID: claims.UserID, Role: claims.Role}, nil
	}

	orderHandler := handler.NewOrderHandler(orderService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	wsHandler := handler.NewWSHandler(eventHub, chatRelay, jwtManager, cfg.Hub.WriteTimeout, cfg.Hub.PingInterval)

	router.GET("/ws", wsHandler.Connect)

	api := router.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			products := v1.Group("/products")
			{
				products.GET("", catalogHandler.ListProducts)
				products.GET("/:id", catalogHandler.GetProduct)
				products.POST("", middleware.Auth(validator), catalogHandler.CreateProduct)
			}

			orders := v1.Group("/orders", middleware.Auth(validator))
			{
				orders.POST("", orderHandler.CreateOrder)
				orders.POST("/checkout", orderHandler.Checkout)
				orders.GET("", orderHandler.ListOrders)
				orders.GET("/:order_no", orderHandler.GetOrder)
				orders.PATCH("/:order_no/status", orderHandler.UpdateStatus)
				orders.POST("/:order_no/rating", orderHandler.Rate)
			}
		}
	}

	return router
}

func healthCheck(c *gin.Context) {
	if err := database.Health(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	pkgutils.SuccessResponse(c, gin.H{"status": "healthy"})
}
