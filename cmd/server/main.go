package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Brownie44l1/clothing-api/internal/cache"
	"github.com/Brownie44l1/clothing-api/internal/classifier"
	"github.com/Brownie44l1/clothing-api/internal/config"
	"github.com/Brownie44l1/clothing-api/internal/handlers"
	"github.com/Brownie44l1/clothing-api/internal/imagefetch"
	"github.com/Brownie44l1/clothing-api/internal/logging"
	"github.com/Brownie44l1/clothing-api/internal/model"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("loading model", zap.String("path", cfg.ModelPath))
	modelServer, err := model.NewServer(model.Options{
		ModelPath:      cfg.ModelPath,
		MetadataPath:   cfg.MetadataPath,
		RuntimeLibPath: cfg.RuntimeLibPath,
	}, logger)
	if err != nil {
		logger.Fatal("failed to initialize model server", zap.Error(err))
	}
	defer modelServer.Close()

	fetcher := imagefetch.NewFetcher(cfg.FetchTimeout, cfg.MaxImageBytes, logger,
		imagefetch.WithTargetSize(modelServer.Metadata.ImageSize))

	var opts []classifier.Option
	if cfg.CacheEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err := cache.NewRedisCache(ctx, cfg.CacheAddr)
		cancel()
		if err != nil {
			logger.Fatal("redis connection failed", zap.String("addr", cfg.CacheAddr), zap.Error(err))
		}
		defer redisCache.Close()
		opts = append(opts, classifier.WithCache(redisCache, cfg.CacheTTL))
		logger.Info("prediction cache enabled", zap.String("addr", cfg.CacheAddr), zap.Duration("ttl", cfg.CacheTTL))
	}

	clf := classifier.New(modelServer.Metadata.Classes, fetcher, modelServer, logger, opts...)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handlers.RegisterRoutes(router, handlers.NewHandler(clf, logger))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("server starting",
		zap.String("addr", server.Addr),
		zap.Strings("classes", clf.Classes()),
		zap.Strings("endpoints", []string{"GET /health", "POST /predict"}),
	)
	if err := serveHTTPServer(server, cfg.ShutdownTimeout, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

// serveHTTPServerWithOptions serves until the server fails or a signal
// arrives, then drains in-flight requests within shutdownTimeout. A nil
// listener means ListenAndServe; a nil signalCh means SIGINT/SIGTERM.
func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	sigCh := signalCh
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigCh = ch
	}

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
