// Command search-service runs the Search HTTP surface (§4.4, §6).
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/fireclub/vsearch/internal/config"
	"github.com/fireclub/vsearch/internal/embedding"
	"github.com/fireclub/vsearch/internal/httpapi/middleware"
	httpapisearch "github.com/fireclub/vsearch/internal/httpapi/search"
	"github.com/fireclub/vsearch/internal/search"
	"github.com/fireclub/vsearch/internal/snapshot"
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
	cfg := config.LoadSearch()

	embedder := embedding.NewHTTPClient(cfg.EmbedderURL, 10*time.Second, log)
	store := snapshot.NewStore(cfg.SnapshotDir)
	svc := search.New(store, embedder, log)

	if cfg.ReloadTickerOn {
		go runReloadTicker(svc, cfg.ReloadTickerPeriod, log)
	}

	r := middleware.NewRouter(log, cfg.MaxConcurrent)
	httpapisearch.New(svc, log).Register(r)

	httpserver := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,

		MaxHeaderBytes: 1 << 15,
		ErrorLog:       zap.NewStdLog(log.Named("http").WithOptions(zap.AddCallerSkip(1))),
	}

	log.Info("running HTTP server", zap.String("addr", cfg.ListenAddr))
	if err := httpserver.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server failed", zap.Error(err))
	}
}

// runReloadTicker implements §4.4's periodic reload, healing any missed or
// failed notify calls without requiring the Updater to retry.
func runReloadTicker(svc *search.Service, period time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := svc.Reload(ctx); err != nil {
			log.Warn("periodic reload failed", zap.Error(err))
		}
		cancel()
	}
}
