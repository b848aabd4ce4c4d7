package main

import (
	"context"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rosenblum-buero/backoffice_be/internal/config"
	"github.com/rosenblum-buero/backoffice_be/internal/db"
	"github.com/rosenblum-buero/backoffice_be/internal/handlers"
	"github.com/rosenblum-buero/backoffice_be/internal/logger"
	"github.com/rosenblum-buero/backoffice_be/internal/middleware"
	"github.com/rosenblum-buero/backoffice_be/internal/models"
	"github.com/rosenblum-buero/backoffice_be/internal/realtime"
	"github.com/rosenblum-buero/backoffice_be/internal/services/mailer"
	"github.com/rosenblum-buero/backoffice_be/internal/services/reviews"
	"github.com/rosenblum-buero/backoffice_be/internal/services/storage"
	"github.com/rosenblum-buero/backoffice_be/internal/services/verification"
)

const uploadDir = "./uploads"

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.EmailVerification{},
		&models.Message{},
		&models.Order{},
		&models.File{},
		&models.RequestObject{},
		&models.RequestAnswer{},
		&models.Review{},
		&models.ReviewTranslation{},
		&models.Translation{},
	); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		zlog.Fatal("creating upload dir failed", zap.Error(err))
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zlog.Warn("redis unreachable, realtime notifications disabled", zap.Error(err))
		rdb = nil
	}

	hub := realtime.NewHub(zlog)
	go hub.Run()

	sender := mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	notifier := mailer.NewNotifier(sender, cfg.FrontendBaseURL, zlog)
	verifier := verification.NewService(gdb, notifier)

	// uploads and download links go through the same backend so every
	// stored object key stays resolvable
	var store storage.Storage
	if cfg.S3Bucket != "" {
		s3store, err := storage.New(context.Background(), cfg.S3Bucket)
		if err != nil {
			zlog.Warn("s3 storage unavailable, falling back to local disk", zap.Error(err))
		} else {
			store = s3store
		}
	}
	if store == nil {
		store = storage.NewLocal(uploadDir)
	}

	var syncer *reviews.Syncer
	if cfg.GooglePlacesAPIKey != "" && cfg.GooglePlaceID != "" {
		syncer = reviews.NewSyncer(
			gdb,
			reviews.NewPlacesClient(cfg.GooglePlacesAPIKey, cfg.GooglePlaceID),
			reviews.NewDeepLClient(cfg.DeepLAuthKey),
			cfg.GooglePlaceID,
			zlog,
		)
	}

	authH := &handlers.AuthHandler{
		DB:             gdb,
		JWTSecret:      cfg.JWTSecret,
		AccessExpires:  cfg.AccessExpires,
		RefreshExpires: cfg.RefreshExpires,
		Verifier:       verifier,
		Notifier:       notifier,
		Log:            zlog,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		AccessExpires:   cfg.AccessExpires,
		RefreshExpires:  cfg.RefreshExpires,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
		Log:             zlog,
	}
	messageH := handlers.NewMessageHandler(gdb, notifier, hub, rdb, store, zlog)
	orderH := handlers.NewOrderHandler(gdb, notifier, store, cfg.JWTSecret, zlog)
	requestH := handlers.NewRequestHandler(gdb, notifier, zlog)
	reviewH := handlers.NewReviewHandler(gdb, syncer, zlog)
	adminH := handlers.NewAdminHandler(gdb, cfg.JWTSecret, cfg.AccessExpires, cfg.RefreshExpires, zlog)
	statsH := handlers.NewStatisticsHandler(gdb, zlog)
	wsH := &handlers.WSHandler{Hub: hub, JWTSecret: cfg.JWTSecret, Log: zlog}

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Static("/uploads", uploadDir)

	api := app.Group("/api")

	// public
	user := api.Group("/user")
	user.Post("/register", authH.Register)
	user.Post("/login", authH.Login)
	user.Post("/token-refresh", authH.Refresh)
	user.Post("/email-verification", authH.VerifyEmail)
	user.Post("/resend-verification", authH.ResendVerification)
	user.Post("/password-reset-link", authH.PasswordResetLink)
	user.Post("/password-reset-confirm", authH.PasswordResetConfirm)
	user.Get("/login/google", googleH.GoogleStart)
	user.Get("/login/google/callback", googleH.GoogleCallback)
	user.Get("/reviews", reviewH.List)
	user.Post("/new-request", requestH.Create)

	api.Post("/orders", orderH.Create)

	// authenticated
	auth := middleware.BearerAuth(cfg.JWTSecret)
	user.Get("/user-data", auth, authH.UserData)
	user.Put("/update", auth, authH.UpdateProfile)
	user.Get("/messages", auth, messageH.ListMessages)
	user.Post("/send-message", auth, messageH.SendMessage)

	messages := api.Group("/messages", auth)
	messages.Post("/toggle", messageH.ToggleViewed)
	messages.Get("/", middleware.RequireStaff(), messageH.ListMessages)

	orders := api.Group("/orders", auth)
	orders.Get("/", orderH.List)
	orders.Post("/get-file-url", orderH.FileURL)
	orders.Get("/user/:id", middleware.RequireStaff(), orderH.UserOrders)
	orders.Get("/:id", orderH.Get)
	orders.Patch("/:id", middleware.RequireStaff(), orderH.Update)
	orders.Delete("/:id", middleware.RequireStaff(), orderH.Delete)
	orders.Post("/:id/toggle", middleware.RequireStaff(), orderH.Toggle)

	requests := api.Group("/requests", auth, middleware.RequireStaff())
	requests.Get("/", requestH.List)
	requests.Get("/:id", requestH.Get)
	requests.Delete("/:id", requestH.Delete)
	requests.Post("/:id/toggle", requestH.Toggle)
	requests.Get("/:id/answers", requestH.ListAnswers)
	requests.Post("/:id/answers", requestH.CreateAnswer)

	admin := api.Group("/admin-user")
	admin.Post("/login", adminH.Login)

	adminAuth := admin.Group("/", auth, middleware.RequireStaff())
	adminAuth.Get("/customers", adminH.Customers)
	adminAuth.Get("/customers/:id", adminH.Customer)
	adminAuth.Get("/search", adminH.Search)
	adminAuth.Get("/conversations", messageH.Conversations)
	adminAuth.Post("/reviews/sync", reviewH.Sync)
	adminAuth.Post("/translations", adminH.CreateTranslation)
	adminAuth.Get("/translations", adminH.Translations)
	adminAuth.Get("/translations/:id", adminH.Translation)
	adminAuth.Put("/translations/:id", adminH.UpdateTranslation)
	adminAuth.Delete("/translations/:id", adminH.DeleteTranslation)

	stats := api.Group("/statistics", auth, middleware.RequireStaff())
	stats.Get("/", statsH.Totals)
	stats.Get("/status-distribution", statsH.StatusDistribution)
	stats.Get("/ordering-dynamics", statsH.OrderingDynamics)
	stats.Get("/type-distribution", statsH.TypeDistribution)
	stats.Get("/customers-geography", statsH.CustomersGeography)
	stats.Get("/customers-growth", statsH.CustomersGrowth)
	stats.Get("/order-request-comparison", statsH.OrderRequestComparison)

	// websocket auth happens via the token query param inside the handler
	app.Get("/ws/messages", websocket.New(wsH.Handle))

	zlog.Info("listening", zap.String("port", cfg.AppPort))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
