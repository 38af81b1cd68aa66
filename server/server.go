package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Chordbook/cache"
	"Chordbook/config"
	"Chordbook/core/auth"
	"Chordbook/core/catalog"
	"Chordbook/core/ingest"
	"Chordbook/core/live"
	"Chordbook/db"
	"Chordbook/logger"
	"Chordbook/repository"
	"Chordbook/storage"

	"golang.org/x/sync/errgroup"
)

// NewCatalog 连接 MySQL（必需）、Redis 和 MinIO（可选）并组装服务
// 返回的 cleanup 负责关闭连接
func NewCatalog(cfg *config.Config, notifier catalog.Notifier) (*catalog.Service, func(), error) {
	if err := db.ConnectGormDB(cfg); err != nil {
		return nil, nil, err
	}
	if err := db.InitSchema(); err != nil {
		db.CloseGormDB()
		return nil, nil, err
	}

	var opts []catalog.Option
	redisUp := false
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis 不可用，乐谱读取不走缓存", logger.ErrorField(err))
	} else {
		redisUp = true
		opts = append(opts, catalog.WithCache(cache.NewScoreCache(cache.RedisClient, cfg.ScoreCacheTTL())))
	}

	if archive, err := storage.NewScoreArchive(cfg); err != nil {
		logger.Warn("MinIO 不可用，上传的乐谱不做归档", logger.ErrorField(err))
	} else {
		opts = append(opts, catalog.WithArchive(archive))
	}

	if notifier != nil {
		opts = append(opts, catalog.WithNotifier(notifier))
	}

	svc := catalog.NewService(
		repository.NewGormTrackRepository(db.GormDB),
		repository.NewGormScoreRepository(db.GormDB),
		opts...,
	)

	cleanup := func() {
		if redisUp {
			if err := cache.CloseRedis(); err != nil {
				logger.Warn("关闭 Redis 失败", logger.ErrorField(err))
			}
		}
		if err := db.CloseGormDB(); err != nil {
			logger.Warn("关闭数据库失败", logger.ErrorField(err))
		}
	}
	return svc, cleanup, nil
}

// Start 启动 HTTP 服务、WebSocket hub 和可选的投递目录监听，收到 SIGINT/SIGTERM 后优雅退出
func Start(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET 未设置，写接口将无法登录")
	}

	hub := live.NewHub()
	svc, cleanup, err := NewCatalog(cfg, hub)
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}
	defer cleanup()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL())
	handler := NewAPIHandler(svc, tokens, hub, cfg)

	// 设置服务器超时
	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      NewRouter(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.IngestDir != "" {
		watcher := ingest.NewWatcher(cfg.IngestDir, svc, 0)
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
