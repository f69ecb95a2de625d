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

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/goblintable/api/rest"
	"github.com/kasuganosora/goblintable/api/rpc"
	"github.com/kasuganosora/goblintable/api/sse"
	apiws "github.com/kasuganosora/goblintable/api/ws"
	"github.com/kasuganosora/goblintable/audit"
	"github.com/kasuganosora/goblintable/cache"
	"github.com/kasuganosora/goblintable/config"
	dbadapter "github.com/kasuganosora/goblintable/db"
	"github.com/kasuganosora/goblintable/game/relay"
	"github.com/kasuganosora/goblintable/game/table"
	"github.com/kasuganosora/goblintable/goblin"
	mw "github.com/kasuganosora/goblintable/middleware"
	"github.com/kasuganosora/goblintable/model"
	"github.com/kasuganosora/goblintable/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer c.Close()
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Services ----
	tableSvc := table.NewService(db, pubsub, cfg.Table, logger)
	gen := goblin.NewGenerator(nil, goblin.WithLogger(logger))

	var hub *relay.Hub
	if cfg.Relay.Enabled {
		hub = relay.NewHub(relay.NewCacheStore(c), pubsub, logger)
		if err := hub.Start(ctx); err != nil {
			log.Fatalf("relay: %v", err)
		}
	}

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	if cfg.Table.IdleTTL > 0 {
		sched.AddTicker("idle_sweep", cfg.Table.SweepInterval, func(ctx context.Context) {
			if _, err := tableSvc.SweepIdle(ctx); err != nil {
				logger.Error("idle sweep failed", zap.Error(err))
			}
		})
	}
	if hub != nil {
		sched.AddTicker("relay_stats", time.Minute, func(ctx context.Context) {
			rooms, err := hub.RoomCount(ctx)
			if err != nil {
				logger.Warn("relay room count failed", zap.Error(err))
				return
			}
			logger.Debug("relay stats", zap.Int("clients", hub.ClientCount()), zap.Int("rooms", rooms))
		})
	}

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger, "/health"), mw.Recovery(logger))
	r.Use(mw.RateLimit(ctx, rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	r.GET("/health", apirest.Health(db))

	leaveH := apirest.NewLeaveHandler(tableSvc, logger)
	r.POST("/leave", leaveH.Leave)

	reg := rpc.NewRegistry()
	rpc.Register(reg, tableSvc, gen)
	rpcH := rpc.NewHandler(reg, auditSvc, logger)

	goblinH := apirest.NewGoblinHandler(gen)
	sseH := sse.NewHandler(pubsub, logger)

	var relayStats apirest.RelayStats
	if hub != nil {
		relayStats = hub
	}
	adminH := apirest.NewAdminHandler(tableSvc, relayStats, sched, logger)

	api := r.Group("/api")
	{
		rpcH.Register(api)

		api.GET("/goblins/random", goblinH.Random)
		api.GET("/goblins/decode", goblinH.Decode)

		api.GET("/tables/:id/events", sseH.ServeTable)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(cfg.Security.AdminIPs), apirest.AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/tables", adminH.ListTables)
		adminG.DELETE("/tables/:id", adminH.DeleteTable)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
	}

	// ---- WebSocket relay ----
	if hub != nil {
		wsRouter := apiws.NewRouter(logger)
		apiws.RegisterRelayHandlers(wsRouter, hub)
		wsH := apiws.NewHandler(hub, cfg.Security, wsRouter, logger)
		r.GET("/ws", wsH.ServeWS)
	}

	// ---- Web client static files ----
	if cfg.Server.StaticDir != "" {
		r.StaticFile("/", cfg.Server.StaticDir+"/index.html")
		// NoRoute fallback: serve built assets, else the SPA entry point.
		r.NoRoute(func(c *gin.Context) {
			path := cfg.Server.StaticDir + c.Request.URL.Path
			if _, err := os.Stat(path); err == nil {
				c.File(path)
				return
			}
			c.File(cfg.Server.StaticDir + "/index.html")
		})
		logger.Info("Serving web client", zap.String("dir", cfg.Server.StaticDir))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}
