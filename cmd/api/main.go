package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/Sapuran-Berperan/fleet-portal/internal/auth"
	"github.com/Sapuran-Berperan/fleet-portal/internal/backend"
	"github.com/Sapuran-Berperan/fleet-portal/internal/config"
	"github.com/Sapuran-Berperan/fleet-portal/internal/database"
	"github.com/Sapuran-Berperan/fleet-portal/internal/handler"
	applog "github.com/Sapuran-Berperan/fleet-portal/internal/logger"
	appMiddleware "github.com/Sapuran-Berperan/fleet-portal/internal/middleware"
	"github.com/Sapuran-Berperan/fleet-portal/internal/repository"
	"github.com/Sapuran-Berperan/fleet-portal/internal/session"
)

func main() {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := applog.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := sessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize session store", zap.Error(err))
	}
	defer closeStore()

	client, err := backend.New(cfg.BackendURL, cfg.BackendTimeout, backend.WithLogger(logger))
	if err != nil {
		logger.Fatal("invalid backend url", zap.Error(err))
	}

	inspector := auth.NewTokenInspector(cfg.BackendJWTSecret, 30*time.Second)
	if !inspector.Verifies() {
		logger.Info("BACKEND_JWT_SECRET not set, token signatures are not checked")
	}

	sessions := session.NewManager(store, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	portal := handler.NewPortal(client, sessions, inspector, handler.Options{
		PageSize:       cfg.PageSize,
		UploadMaxBytes: cfg.UploadMaxBytes,
		LoginPath:      cfg.LoginPath,
	}, logger)

	go sweepScreens(ctx, portal, cfg.ScreenIdleTimeout, logger)

	// Initialize router
	r := chi.NewRouter()

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !cfg.IsProduction(),
	})

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appMiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(secureMiddleware.Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Portal routes
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RateLimitPerMin, time.Minute))
		r.Use(middleware.Timeout(cfg.BackendTimeout * 4))
		r.Mount("/portal", portal.Routes())
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", zap.Error(err))
	}
}

// sessionStore builds the configured session backend and its cleanup
func sessionStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.Store, func(), error) {
	switch cfg.SessionStore {
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("using redis session store", zap.String("addr", cfg.RedisAddr))
		return session.NewRedisStore(rdb), func() { rdb.Close() }, nil

	case config.StorePostgres:
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}

		logger.Info("running session migrations")
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}

		store := repository.NewSessionStore(db)
		go purgeSessions(ctx, store, logger)
		return store, func() { db.Close() }, nil
	}

	logger.Info("using in-memory session store")
	return session.NewMemoryStore(), func() {}, nil
}

// sweepScreens drops the screen state of sessions that went idle
func sweepScreens(ctx context.Context, portal *handler.Portal, idle time.Duration, logger *zap.Logger) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := portal.Screens().Sweep(idle); n > 0 {
				logger.Debug("dropped idle screens", zap.Int("count", n))
			}
		}
	}
}

// purgeSessions deletes expired rows from the session table
func purgeSessions(ctx context.Context, store *repository.SessionStore, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.DeleteExpired(ctx)
			if err != nil {
				logger.Warn("failed to purge expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}
