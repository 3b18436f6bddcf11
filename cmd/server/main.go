package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hisabkitab/backend/docs"
	"github.com/hisabkitab/backend/internal/config"
	"github.com/hisabkitab/backend/internal/database"
	"github.com/hisabkitab/backend/internal/handlers"
	"github.com/hisabkitab/backend/internal/media"
	mW "github.com/hisabkitab/backend/internal/middleware"
	"github.com/hisabkitab/backend/internal/services"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title HisabKitab Backend API
// @version 1.0
// @description Digital khata API: per-customer credit/debit ledgers, reminders and timelines
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "HisabKitab Backend API"
	docs.SwaggerInfo.Description = "Digital khata API"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	mediaCfg := config.LoadMediaConfig()
	mediaStore, err := media.NewStore(mediaCfg)
	if err != nil {
		log.Fatalf("Failed to initialize media store: %v", err)
	}

	customerService := services.NewCustomerService(db)
	entryService := services.NewEntryService(db)
	messageService := services.NewMessageService(db, mediaStore)
	timelineHandler := handlers.NewTimelineHandler(services.NewTimelineService(db))
	reminderHandler := handlers.NewReminderHandler(services.NewReminderService(db, redisClient))
	voiceService := services.NewVoiceNoteService()
	defer voiceService.Close()

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// Message media
	r.Handle("/uploads/*", http.StripPrefix("/uploads/",
		mW.UploadsFileServer(mediaCfg.UploadDir)))

	// API routes (every khata operation requires an authenticated principal)
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Post("/customers", customerService.CreateCustomer)
			r.Get("/customers", customerService.ListCustomers)
			r.Get("/customers/{customerId}/entries", entryService.ListEntries)
			r.Get("/customers/{customerId}/timeline", timelineHandler.GetTimeline)

			r.Post("/entries", entryService.CreateEntry)
			r.Put("/entries/{entryId}", entryService.UpdateEntry)
			r.Delete("/entries/{entryId}", entryService.DeleteEntry)
			r.Get("/dashboard/stats", entryService.DashboardStats)

			r.Post("/messages", messageService.SendMessage)
			r.Get("/messages/{customerId}", messageService.ListMessages)
			r.Post("/messages/voice-transcribe", voiceService.TranscribeVoiceNote)

			r.Post("/reminders/qr", reminderHandler.GenerateQR)
			r.Post("/reminders/qr/scan", reminderHandler.ScanQR)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
