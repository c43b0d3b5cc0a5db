package bootstrap

import (
	"context"

	bootstrap "rsi_bot/internal/modules/bootstrap/service"
	"rsi_bot/internal/modules/config"
	"rsi_bot/pkg/logger"
	"rsi_bot/pkg/tracing"

	"go.uber.org/fx"
)

// Module: флаги поверх конфига, корневой context, логгер с уровнем из конфига, трейсер.
// Не fx.Module: декоратор конфига должен действовать на всё приложение.
func Module(service string, flags bootstrap.Flags) fx.Option {
	return fx.Options(
		fx.Provide(NewContext),
		fx.Decorate(flags.Apply),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			if err := logger.Init(cfg.LogLevel); err != nil {
				return err
			}
			logger.SetServiceName(service)
			tracing.SetServiceName(service)

			_, closeTracer, err := tracing.InitTracer(tracing.Config{Host: cfg.Tracing.Host, Port: cfg.Tracing.Port})
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					logger.Sync()
					return nil
				},
			})
			logger.Info("[BOOT] %s: symbol=%s store=%s", service, cfg.Symbol, cfg.Store.Driver)
			return nil
		}),
	)
}

// NewContext: контекст конструкторов (пул postgres, клиенты), живёт весь процесс.
func NewContext() context.Context {
	return context.Background()
}
