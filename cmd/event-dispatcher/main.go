// Command event-dispatcher runs the cooperative event poll loop (§4.5).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fireclub/vsearch/internal/config"
	"github.com/fireclub/vsearch/internal/dispatcher"
	"github.com/fireclub/vsearch/internal/eventsource"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	log := zap.Must(logConfig.Build())
	defer log.Sync()
	log = log.Named("main")

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal("loading .env", zap.Error(err))
	}
	cfg := config.LoadDispatcher()

	source := eventsource.NewRedisSource(cfg.RedisAddr, cfg.RedisDB, log)
	d := dispatcher.New(source, cfg.UpdaterBaseURL, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d.Run(ctx)
	log.Info("event dispatcher stopped")
}
