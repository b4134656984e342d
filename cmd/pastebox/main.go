package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"pastebox/cfg"
	"pastebox/metrics"
	"pastebox/svc/api"
	"pastebox/svc/cache"
	"pastebox/svc/db"
	"pastebox/svc/svc"
	"pastebox/svc/tcp"
	"pastebox/svc/util"
)

func main() {
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		util.Fatal().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}
	if err := cfg.Validate(c); err != nil {
		util.Fatal().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}
	util.InitLog(c.LogLevel, c.Environment == "development")
	util.Info().Msg("starting pastebox")
	metrics.Init()

	store, err := db.NewStoreWithConfig(c.DatabasePath, c.DBMaxOpenConns, c.DBMaxIdleConns, c.DBQueryTimeout)
	if err != nil {
		util.Fatal().Err(err).Msg("failed to initialize database")
		os.Exit(1)
	}
	defer store.Close()
	util.Info().Str("path", c.DatabasePath).Msg("database initialized")

	var rdb *db.Redis
	if c.RedisURL != "" {
		rdb, err = db.NewRedis(c.RedisURL, c.RedisTimeout)
		if err != nil {
			if c.Environment == "production" {
				util.Fatal().Err(err).Msg("redis required in production")
				os.Exit(1)
			}
			util.Warn().Err(err).Msg("redis unavailable (dev mode)")
		} else {
			util.Info().Msg("redis connected")
		}
	}
	if rdb != nil {
		defer rdb.Close()
	}

	lruCache, err := cache.NewLRU(c.LRUCacheSize)
	if err != nil {
		util.Fatal().Err(err).Msg("failed to create LRU cache")
		os.Exit(1)
	}
	util.Info().Int("size", c.LRUCacheSize).Msg("LRU cache initialized")

	pasteSvc := svc.NewPaste(store, lruCache, rdb, c)

	tcpServer := tcp.NewServer(c, pasteSvc)
	if _, err := tcpServer.Listen(); err != nil {
		util.Fatal().Err(err).Msg("failed to bind tcp listener")
		os.Exit(1)
	}
	httpServer := api.NewServer(c, pasteSvc, store, rdb)

	quitWAL := make(chan struct{})
	go db.StartWALMaintenance(store.DB(), quitWAL)
	util.Info().Msg("WAL maintenance worker started")

	var g errgroup.Group
	g.Go(tcpServer.Serve)
	g.Go(httpServer.Start)
	util.Info().Str("tcp_addr", c.TCPAddr).Str("http_port", c.Port).Str("environment", c.Environment).Msg("servers running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	util.Info().Msg("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		util.Error().Err(err).Msg("http shutdown error")
	}
	if err := tcpServer.Shutdown(shutdownCtx); err != nil {
		util.Error().Err(err).Msg("tcp shutdown error")
	}
	close(quitWAL)
	if err := g.Wait(); err != nil {
		util.Error().Err(err).Msg("server exited with error")
	}
	util.Info().Msg("shutdown complete")
}
