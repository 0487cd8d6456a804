// cmd/relay-server/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	commonaws "visitor-relay/internal/common/aws"
	"visitor-relay/internal/common/config"
	"visitor-relay/internal/common/dedup"
	"visitor-relay/internal/common/logger"
	"visitor-relay/internal/common/reddit"
	"visitor-relay/internal/relay/archive"
	"visitor-relay/internal/relay/compose"
	"visitor-relay/internal/relay/normalize"
	"visitor-relay/internal/relay/orchestrator"
	"visitor-relay/internal/relay/publish"
	"visitor-relay/internal/relay/registry"
	"visitor-relay/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load configuration", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting visitor relay", map[string]interface{}{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	ctx := context.Background()

	reg, err := registry.New(cfg.Locations)
	if err != nil {
		zapLog.Fatal("failed to build location registry", zap.Error(err))
	}

	normalizer, err := normalize.NewService(log)
	if err != nil {
		zapLog.Fatal("failed to build normalizer", zap.Error(err))
	}

	s3Client, err := commonaws.NewS3Client(ctx, cfg.Storage)
	if err != nil {
		zapLog.Fatal("failed to build storage client", zap.Error(err))
	}
	archiver := archive.NewService(s3Client, cfg.Photo, config.GetDuration(cfg.Storage.Timeout), log)

	board := reddit.NewClient(cfg.Board)

	notifier, err := buildNotifier(ctx, cfg.Chat)
	if err != nil {
		zapLog.Fatal("failed to build chat notifier", zap.Error(err))
	}

	publisher := publish.NewService(board, cfg.Board.Board, notifier, cfg.Chat, log)

	composer := compose.New(cfg.Templates)

	suppressor := dedup.New(cfg.Dedup, log)
	if suppressor != nil {
		if err := suppressor.Ping(ctx); err != nil {
			// Dedup is best-effort; a dead cache only means redeliveries
			// repost.
			log.Warn("dedup cache unreachable at startup", map[string]interface{}{
				"error": err.Error(),
			})
		}
		defer suppressor.Close()
	}

	orch := orchestrator.NewService(
		cfg.Provider.SharedSecret,
		reg,
		normalizer,
		archiver,
		composer,
		publisher,
		suppressor,
		log,
	)

	srv := server.New(cfg.Server, orch, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", map[string]interface{}{"signal": sig.String()})
	case err := <-errCh:
		if err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", map[string]interface{}{"error": err.Error()})
	}
}

// buildNotifier picks the configured chat transport; nil disables chat.
func buildNotifier(ctx context.Context, cfg config.ChatConfig) (publish.Notifier, error) {
	switch {
	case cfg.WebhookURL != "":
		return publish.NewSlackNotifier(cfg.WebhookURL, cfg.Timeout), nil
	case cfg.SNSTopicARN != "":
		snsClient, err := commonaws.NewSNSClient(ctx, cfg.SNSRegion)
		if err != nil {
			return nil, err
		}
		return publish.NewSNSNotifier(snsClient, cfg.SNSTopicARN), nil
	default:
		return nil, nil
	}
}
