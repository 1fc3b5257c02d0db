package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/dataclient"
	"taskboard/internal/db"
	httpServer "taskboard/internal/http"
	"taskboard/internal/http/handlers"
	"taskboard/internal/http/middleware"
	"taskboard/internal/logger"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/internal/session"
	"taskboard/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	data := dataclient.New(cfg.DataAPIURL, cfg.DataAPITimeout)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), cfg.DataAPITimeout)
	if err := data.Ping(pingCtx); err != nil {
		// pages show a connection error until it comes up
		logger.Warn("data api not reachable at startup", "url", cfg.DataAPIURL, "error", err)
	}
	cancelPing()

	rdb := db.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
	}
	middleware.SetRedisClient(rdb)

	var (
		pool       *pgxpool.Pool
		auditStore service.AuditStore
	)
	if cfg.DatabaseURL != "" {
		pool = db.Connect(cfg.DatabaseURL)
		defer pool.Close()
		auditStore = repository.NewAuditRepository(pool)
	} else {
		logger.Info("DATABASE_URL not set, audit trail disabled")
	}

	sessOpts := session.Options{TTL: cfg.SessionTTL, Secure: cfg.CookieSecure}
	var sessions session.Store
	switch {
	case cfg.SessionBackend == "redis" && rdb != nil:
		sessions = session.NewRedisStore(rdb, sessOpts)
	case cfg.SessionBackend == "redis":
		logger.Fatal("redis session backend selected but redis is unavailable")
	default:
		sessions = session.NewCookieStore(cfg.SessionSecret, sessOpts)
	}

	hub := ws.NewHub()
	audit := service.NewAuditService(auditStore)
	users, tasks := data.Users(), data.Tasks()

	h := handlers.NewHandler(
		sessions,
		service.NewAuthService(users, audit, hub),
		service.NewTaskService(users, tasks, hub),
		service.NewAdminService(users, tasks, audit, hub),
		service.NewProfileService(users, tasks, audit, hub),
	)
	h.SecureCookies = cfg.CookieSecure

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	err := httpServer.RegisterRoutes(r, httpServer.Deps{
		Handler:        h,
		Health:         handlers.NewHealthHandler(data, pool, rdb, version),
		Hub:            hub,
		Sessions:       sessions,
		AllowedOrigin:  cfg.AllowedOrigin,
		AuthRateLimit:  cfg.AuthRateLimit,
		AuthRateWindow: cfg.AuthRateWindow,
		TaskRateLimit:  cfg.TaskRateLimit,
		TaskRateWindow: cfg.TaskRateWindow,
	})
	if err != nil {
		logger.Fatal("failed to load templates", "error", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "data_api", cfg.DataAPIURL, "sessions", cfg.SessionBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.Close()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
