// Command updater-service runs the Updater HTTP surface (§4.3, §6).
package main

import (
	"net/http"
	"time"

	"github.com/fireclub/vsearch/internal/catalog"
	"github.com/fireclub/vsearch/internal/config"
	"github.com/fireclub/vsearch/internal/embedding"
	"github.com/fireclub/vsearch/internal/httpapi/middleware"
	httpapiupdater "github.com/fireclub/vsearch/internal/httpapi/updater"
	"github.com/fireclub/vsearch/internal/indexcore"
	"github.com/fireclub/vsearch/internal/snapshot"
	"github.com/fireclub/vsearch/internal/updater"
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
	cfg := config.LoadUpdater()

	cat := catalog.NewRedisCatalog(cfg.RedisAddr, cfg.RedisDB, log)
	embedder := embedding.NewHTTPClient(cfg.EmbedderURL, 10*time.Second, log)
	core := indexcore.New(cat, embedder)
	store := snapshot.NewStore(cfg.SnapshotDir)
	notifier := updater.NewHTTPNotifier(cfg.SearchBaseURL)

	svc, err := updater.New(core, store, notifier, log)
	if err != nil {
		log.Fatal("updater service creation failed", zap.Error(err))
	}

	r := middleware.NewRouter(log, cfg.MaxConcurrent)
	httpapiupdater.New(svc, log).Register(r)

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
