//	@title			Digital Wardrobe API
//	@version		1.0
//	@description	Backend for the digital wardrobe — clothing catalog with private image storage.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/digitalwardrobe/service/internal/accessory"
	"github.com/digitalwardrobe/service/internal/auth"
	"github.com/digitalwardrobe/service/internal/config"
	"github.com/digitalwardrobe/service/internal/db"
	"github.com/digitalwardrobe/service/internal/media"
	appMiddleware "github.com/digitalwardrobe/service/internal/middleware"
	"github.com/digitalwardrobe/service/internal/storage"
	"github.com/digitalwardrobe/service/internal/user"
	"github.com/digitalwardrobe/service/internal/wardrobe"
	"github.com/digitalwardrobe/service/pkg/logger"

	_ "github.com/digitalwardrobe/service/docs/swagger"
)

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)
	log := logger.Log

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	// Object storage is optional: without it the service still serves the
	// catalog, and media endpoints answer 503.
	var store storage.ObjectStore
	if cfg.StorageEnabled {
		minioStore, err := storage.NewMinioStorage(
			cfg.StorageEndpoint,
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			cfg.StorageBucket,
			cfg.StorageUseSSL,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("object storage init failed")
		}
		store = minioStore
	} else {
		log.Warn().Msg("object storage disabled; media endpoints unavailable")
	}

	// Wire dependencies: repository → service → handler
	userRepo := user.NewRepository(pool)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(userSvc, cfg)
	authHandler := auth.NewHandler(authSvc)

	wardrobeRepo := wardrobe.NewRepository(pool)
	wardrobeHandler := wardrobe.NewHandler(wardrobeRepo)

	accessoryRepo := accessory.NewRepository(pool)
	accessoryHandler := accessory.NewHandler(accessoryRepo)

	mediaSvc := media.NewService(store, cfg.Media, log)
	backfillSvc := media.NewBackfillService(wardrobeRepo, accessoryRepo, mediaSvc, log)
	adminBackfillSvc := media.NewAdminBackfillService(userRepo, backfillSvc, log)
	mediaHandler := media.NewHandler(mediaSvc, backfillSvc, adminBackfillSvc)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
		})

		// Protected user endpoints
		r.Route("/users", func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Get("/me", userHandler.GetMe)
		})

		// Protected wardrobe endpoints
		r.Route("/wardrobe/items", func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Post("/", wardrobeHandler.Create)
			r.Get("/", wardrobeHandler.List)
			r.Get("/{id}", wardrobeHandler.Get)
			r.Delete("/{id}", wardrobeHandler.Delete)
		})

		// Protected accessory endpoints
		r.Route("/accessories", func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Post("/", accessoryHandler.Create)
			r.Get("/", accessoryHandler.List)
			r.Get("/{id}", accessoryHandler.Get)
			r.Delete("/{id}", accessoryHandler.Delete)
		})

		// Protected media endpoints
		r.Route("/media", func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Post("/images", mediaHandler.Upload)
			r.Post("/images/urls", mediaHandler.ResolveURLs)
			r.Post("/images/preview-urls", mediaHandler.ResolvePreviewURLs)
			r.Post("/images/thumbnails/backfill", mediaHandler.Backfill)
			r.With(appMiddleware.RequireAdmin).Post("/images/thumbnails/backfill/admin", mediaHandler.AdminBackfill)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-quit
	log.Info().Msg("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}
