// Command seed-catalog loads a JSON file of product records into the
// Redis-backed catalog (§6's "Catalog DB contract": an operator/seed tool
// is the only writer of catalog:product:<id> keys).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fireclub/vsearch/internal/catalog"
	"github.com/fireclub/vsearch/internal/domain/product"
	"github.com/fireclub/vsearch/pkg/fmtt"
	"github.com/fireclub/vsearch/pkg/jsonx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	file := flag.String("file", "", "path to a JSON array of product records")
	redisAddr := flag.String("redis-addr", "127.0.0.1:6379", "redis address")
	redisDB := flag.Int("redis-db", 0, "redis db")
	debug := flag.Bool("debug", false, "dump the full error chain on failure")
	flag.Parse()

	if *file == "" {
		fmt.Println("Usage: ./seed-catalog -file=<products.json> [-redis-addr=host:port] [-redis-db=0]")
		os.Exit(1)
	}

	log := buildLogger()
	log = log.Named("main")

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal("opening seed file", zap.Error(err))
	}
	defer f.Close()

	var products []*product.Product
	if err := jsonx.ParseJSONObject(f, &products); err != nil {
		if *debug {
			fmtt.PrintErrChain(err)
		}
		log.Fatal("parsing seed file", zap.Error(err))
	}

	cat := catalog.NewRedisCatalog(*redisAddr, *redisDB, log)

	for i, p := range products {
		if err := cat.Put(context.Background(), p); err != nil {
			if *debug {
				fmtt.PrintErrChain(err)
			}
			log.Fatal("seeding product", zap.Int64("product_id", p.ID), zap.Error(err))
		}
		log.Info("product seeded", zap.Int64("product_id", p.ID), zap.Int("loaded", i+1), zap.Int("total", len(products)))
	}
}

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.Level.SetLevel(zap.DebugLevel)
	return zap.Must(logConfig.Build())
}
