package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"linkedin_poster/internal/config"
	"linkedin_poster/internal/content"
	"linkedin_poster/internal/logger"
	"linkedin_poster/internal/pipeline"
	"linkedin_poster/internal/publish"
	"linkedin_poster/internal/render"
	"linkedin_poster/internal/runlock"
	"linkedin_poster/internal/trends"
)

func main() {
	logger.Init()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lock := runlock.New(cfg)
	defer lock.Close()

	pipe := pipeline.New(
		lock,
		trends.NewSource(cfg),
		content.NewGenerator(cfg),
		render.NewRenderer(),
		publish.NewPublisher(cfg),
	)

	if !pipe.Run(ctx) {
		os.Exit(1)
	}
}
