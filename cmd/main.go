package main

import (
	"context"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/zecpath/evaluation-engine/internal/app"
	"github.com/zecpath/evaluation-engine/internal/config"
	"github.com/zecpath/evaluation-engine/internal/logger"
	"github.com/zecpath/evaluation-engine/internal/metrics"
	"github.com/zecpath/evaluation-engine/internal/repositories"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer(":9091")

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	if err = dbContext.Migrate(); err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	engine, err := app.New(ctx, cfg, dbContext)
	if err != nil {
		log.Fatalf("can't assemble engine: %v", err)
	}

	<-ctx.Done()

	log.Info("Shutting down services...")
	engine.Stop()
	log.Info("Services stopped.")
}
