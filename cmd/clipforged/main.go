package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"clipforge/internal/clipsynth"
	"clipforge/internal/config"
	"clipforge/internal/daemon"
	"clipforge/internal/derivedcache"
	"clipforge/internal/editor"
	"clipforge/internal/extraction"
	"clipforge/internal/jobstore"
	"clipforge/internal/logging"
	"clipforge/internal/media/ffmpeg"
	"clipforge/internal/render"
	"clipforge/internal/resourceguard"
	"clipforge/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := jobstore.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return
	}

	guard := resourceguard.New(cfg, logger)
	runner := ffmpeg.New(cfg.FFmpegBinary())
	objects := storage.NewFSClient(cfg.Paths.StorageDir, cfg.Storage.BaseURL)
	engine := render.NewEngine(cfg, guard, runner, logger)
	cache := derivedcache.New(cfg, store, logger)
	executor := extraction.NewExecutor(cfg, guard, runner, logger)
	clips := clipsynth.New(cfg, store, guard, engine, runner, objects, logger)
	edits := editor.New(cfg, store, guard, executor, objects, cache, logger)

	d, err := daemon.New(cfg, store, guard, clips, edits, cache, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("clipforged shutting down")
}
