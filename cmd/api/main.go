package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/holohaven-api/internal/config"
	"github.com/flicky/holohaven-api/internal/handler"
	"github.com/flicky/holohaven-api/internal/media"
	"github.com/flicky/holohaven-api/internal/middleware"
	"github.com/flicky/holohaven-api/internal/push"
	"github.com/flicky/holohaven-api/internal/realtime"
	"github.com/flicky/holohaven-api/internal/repository"
	"github.com/flicky/holohaven-api/internal/service"
	"github.com/flicky/holohaven-api/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	dbPool, err := repository.NewPool(ctx, cfg.DB.DSN(), cfg.DB.MaxConns)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := repository.Migrate(ctx, dbPool); err != nil {
		log.Error("migrate database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// Image host
	host := media.NewDisabledHost()
	if cfg.Cloudinary.Enabled() {
		host, err = media.NewCloudinaryHost(cfg.Cloudinary.Name, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, cfg.Cloudinary.Folder)
		if err != nil {
			log.Error("configure Cloudinary", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("Cloudinary not configured; image uploads will fail")
	}

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	reviewRepo := repository.NewReviewRepository(dbPool)
	promoRepo := repository.NewPromotionRepository(dbPool)
	notificationRepo := repository.NewNotificationRepository(dbPool)

	// Push delivery
	sender := push.NewExpoSender(nil)
	batchDispatcher := push.NewBatchDispatcher(sender, userRepo, cfg.Push.ChunkSize, log)

	var (
		dispatcher push.Dispatcher = batchDispatcher
		amqpConn   *amqp.Connection
		pushWorker *worker.PushWorker
	)
	if cfg.Push.Async {
		amqpConn, err = amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Error("connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer amqpConn.Close()

		amqpCh, err := amqpConn.Channel()
		if err != nil {
			log.Error("open RabbitMQ channel", "error", err)
			os.Exit(1)
		}
		defer amqpCh.Close()

		if err := worker.SetupRabbitMQ(amqpCh); err != nil {
			log.Error("setup RabbitMQ", "error", err)
			os.Exit(1)
		}
		log.Info("connected to RabbitMQ")

		dispatcher = push.NewQueueDispatcher(amqpCh, cfg.Push.ChunkSize, log)
		pushWorker = worker.NewPushWorker(amqpCh, batchDispatcher, worker.NewRedisGuard(redisClient), log)
	}

	hub := realtime.NewHub(log)

	// Services
	images := service.NewImageService(media.NewUploader(host))
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	userSvc := service.NewUserService(userRepo, reviewRepo, images)
	productSvc := service.NewProductService(productRepo, userRepo, redisClient, images, log)
	cartSvc := service.NewCartService(cartRepo, productRepo)
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, productRepo, dispatcher, hub, log)
	orderSvc := service.NewOrderService(
		orderRepo, cartRepo, productRepo, userRepo, notificationSvc,
		service.NewTransitionPolicy(cfg.Orders.StrictTransitions), log,
	)
	reviewSvc := service.NewReviewService(reviewRepo, orderRepo, productRepo, productSvc)
	promoSvc := service.NewPromotionService(promoRepo, notificationSvc, log)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	userH := handler.NewUserHandler(userSvc)
	productH := handler.NewProductHandler(productSvc)
	cartH := handler.NewCartHandler(cartSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	reviewH := handler.NewReviewHandler(reviewSvc)
	promoH := handler.NewPromotionHandler(promoSvc, images)
	notificationH := handler.NewNotificationHandler(notificationSvc, hub)
	uploadH := handler.NewUploadHandler(images)
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn)

	// Workers
	sweeper := worker.NewTokenSweeper(userRepo, cfg.Tokens.SweepInterval, cfg.Tokens.StaleAfter, log)

	// Router
	router := gin.Default()
	router.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}))

	authMW := middleware.AuthMiddleware(cfg.JWT.Secret)
	adminMW := middleware.AdminOnly(userSvc)

	router.GET("/health", healthH.Health)
	router.GET("/healthz", healthH.Liveness)
	router.GET("/readyz", healthH.Readiness)

	auth := router.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/google", authH.Google)
	auth.POST("/verify", authMW, authH.Verify)

	users := router.Group("/users", authMW)
	users.GET("/profile", userH.Profile)
	users.PUT("/profile", userH.UpdateProfile)
	users.POST("/profile-picture", userH.UploadPicture)
	users.GET("/reviews", userH.Reviews)
	users.POST("/push-token", notificationH.RegisterToken)

	products := router.Group("/products")
	products.GET("", productH.List)
	products.GET("/categories/list", productH.Categories)
	products.GET("/featured/trending", productH.Trending)
	products.GET("/:id", productH.Get)
	products.POST("", authMW, productH.Create)
	products.PUT("/:id", authMW, productH.Update)
	products.DELETE("/:id", authMW, productH.Delete)
	products.POST("/:id/images", authMW, productH.AddImage)

	cart := router.Group("/cart", authMW)
	cart.GET("", cartH.GetCart)
	cart.POST("/items", cartH.AddItem)
	cart.PATCH("/items/:productId", cartH.UpdateItem)
	cart.DELETE("/items/:productId", cartH.RemoveItem)
	cart.DELETE("", cartH.Clear)

	orders := router.Group("/orders", authMW)
	orders.POST("/checkout", orderH.Checkout)
	orders.GET("", orderH.List)
	orders.GET("/admin/all", adminMW, orderH.ListAll)
	orders.GET("/admin/export", adminMW, orderH.Export)
	orders.GET("/:id", orderH.Get)
	orders.PATCH("/:id/status", orderH.UpdateStatus)

	reviews := router.Group("/reviews")
	reviews.GET("/product/:productId", reviewH.ListByProduct)
	reviews.GET("/user/my-reviews", authMW, reviewH.ListMine)
	reviews.POST("", authMW, reviewH.Create)
	reviews.PUT("/:id", authMW, reviewH.Update)
	reviews.DELETE("/:id", authMW, reviewH.Delete)

	promotions := router.Group("/promotions")
	promotions.GET("", promoH.List)
	promotions.GET("/:id", promoH.Get)
	promotions.POST("", authMW, adminMW, promoH.Create)
	promotions.PUT("/:id", authMW, adminMW, promoH.Update)
	promotions.DELETE("/:id", authMW, adminMW, promoH.Delete)

	notifications := router.Group("/notifications", authMW)
	notifications.GET("", notificationH.List)
	notifications.GET("/ws", notificationH.Stream)
	notifications.PATCH("/:id/read", notificationH.MarkRead)
	notifications.POST("/register-token", notificationH.RegisterToken)
	notifications.POST("/send-promotion", adminMW, notificationH.SendPromotion)
	notifications.POST("/send-random-promotion", adminMW, notificationH.SendRandomPromotion)

	router.POST("/upload", authMW, uploadH.Upload)

	if pushWorker != nil {
		if err := pushWorker.Start(ctx); err != nil {
			log.Error("start push worker", "error", err)
			os.Exit(1)
		}
	}
	sweeper.Start(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	if pushWorker != nil {
		pushWorker.Stop()
	}
	sweeper.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
