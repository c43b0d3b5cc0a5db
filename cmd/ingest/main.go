package main

import (
	"flag"
	"log"

	"rsi_bot/internal/modules/bootstrap"
	boot "rsi_bot/internal/modules/bootstrap/service"
	"rsi_bot/internal/modules/config"
	"rsi_bot/internal/modules/health"
	"rsi_bot/internal/modules/okx_client"
	"rsi_bot/internal/modules/okx_websocket"
	"rsi_bot/internal/modules/postgres"
	"rsi_bot/internal/runner"
	"rsi_bot/pkg/logger"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func main() {
	var flags boot.Flags
	flags.Register(flag.CommandLine, true)
	flag.Parse()

	if err := logger.Init("info"); err != nil {
		log.Fatal(err)
	}

	fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.InfoLogger}
		}),
		options(flags),
	).Run()
}

func options(flags boot.Flags) fx.Option {
	return fx.Options(
		config.Module(),
		bootstrap.Module("rsi_ingest", flags),
		postgres.Module(),
		health.Module(),
		okx_client.Module(),
		okx_websocket.Module(),
		runner.IngestModule(),
	)
}
