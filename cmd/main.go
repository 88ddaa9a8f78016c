package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/codecompanion-backend/internal/app"
	"github.com/yungbote/codecompanion-backend/internal/platform/envutil"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
	"github.com/yungbote/codecompanion-backend/internal/platform/shutdown"
)

func main() {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	a, err := app.New(ctx, log)
	if err != nil {
		log.Error("Failed to init app", "error", err)
		log.Sync()
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Error("Server stopped with error", "error", err)
		a.Close()
		os.Exit(1)
	}
	log.Info("Server stopped")
}
