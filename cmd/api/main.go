package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/strove-app/strove/internal/auth"
	"github.com/strove-app/strove/internal/cache"
	"github.com/strove-app/strove/internal/config"
	"github.com/strove-app/strove/internal/database"
	"github.com/strove-app/strove/internal/handlers"
	"github.com/strove-app/strove/internal/middleware"
	"github.com/strove-app/strove/internal/notion"
	"github.com/strove-app/strove/internal/services"
	"github.com/strove-app/strove/internal/storage"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	// 1. Load Environment Variables
	cfg := config.Load()

	if cfg.LogFile != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}))
	}

	if cfg.InsecureJWTSecret() {
		log.Println("🚨 JWT_SECRET is not set. Tokens are signed with the development secret and can be forged. Set JWT_SECRET before deploying.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database Connection
	db := database.Connect(cfg.DatabaseURL)

	// 3. Optional integrations. Each one degrades to "off" when unavailable.
	var resumes services.ResumeStore
	if cfg.MinIO.Enabled() {
		bucket, err := storage.NewResumeBucket(ctx, cfg.MinIO)
		if err != nil {
			log.Printf("⚠️  MinIO unavailable, resumes will not be stored: %v", err)
		} else {
			log.Printf("✅ Storing resumes in bucket %q", cfg.MinIO.Bucket)
			resumes = bucket
		}
	}

	var counter services.StarCounter
	if cfg.Redis.Enabled() {
		sets, err := cache.NewStarSets(ctx, cfg.Redis)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, counting stars in the database: %v", err)
		} else {
			log.Println("✅ Redis star counter connected")
			defer sets.Close()
			counter = sets
		}
	}

	var exporter services.ApplicationExporter
	if cfg.Notion.Enabled() {
		client := notion.New(cfg.Notion.Token, cfg.Notion.DatabaseID)
		if err := client.Ping(ctx); err != nil {
			log.Printf("⚠️  Notion unavailable, applications will not be exported: %v", err)
		} else {
			log.Println("✅ Notion export enabled")
			exporter = client
		}
	}

	var mailbox services.Mailbox
	log.Println("Initializing Gmail Client...")
	httpClient, err := auth.GetGmailClient(ctx, afero.NewOsFs(), cfg.Mail.CredentialsFile, cfg.Mail.TokenFile)
	switch {
	case errors.Is(err, auth.ErrNoGmailCredentials):
		log.Println("⚠️  Gmail not authorized, run cmd/gmail-auth to enable the mail watcher")
	case err != nil:
		log.Printf("⚠️  Failed to load Gmail credentials: %v", err)
	default:
		gmailService, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
		if err != nil {
			log.Printf("⚠️  Failed to create Gmail Service: %v", err)
		} else {
			log.Println("✅ Gmail Service connected successfully.")
			mailbox = services.NewGmailMailbox(gmailService)
		}
	}

	// 4. Core Services
	tokens := auth.NewTokens(cfg.JWTSecret)
	llmService := services.NewLLMService(ctx, cfg.LLM)
	authService := services.NewAuthService(db, tokens)
	profileService := services.NewProfileService(db)
	postingService := services.NewPostingService(db)
	starService := services.NewStarService(db, counter)
	applicationService := services.NewApplicationService(db, resumes, exporter)
	matcherService := services.NewMatcherService(db)
	emailService := services.NewEmailService(db, llmService, mailbox, matcherService, applicationService, cfg.Mail.WatchEmail)

	go starService.StartSync(ctx, time.Minute)
	go emailService.StartWatcher(ctx, cfg.Mail.PollInterval)

	// 5. Handlers
	h := &handlers.Handlers{
		Health:       &handlers.HealthHandler{DB: db},
		Resume:       handlers.NewResumeHandler(llmService, llmService.Provider),
		Auth:         handlers.NewAuthHandler(authService),
		Profile:      handlers.NewProfileHandler(profileService),
		Posting:      handlers.NewPostingHandler(postingService, starService),
		Application:  handlers.NewApplicationHandler(applicationService),
		RequireLogin: middleware.AuthMiddleware(tokens),
	}

	// 6. Router & CORS
	r := gin.Default()
	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true // For development only
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsConfig))

	h.Register(r.Group("/api"))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	go func() {
		log.Printf("🚀 Server starting on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start:", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Shutdown failed: %v", err)
	}
}
