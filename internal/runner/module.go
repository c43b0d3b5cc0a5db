package runner

import (
	"context"
	"sync"

	"rsi_bot/internal/executor"
	"rsi_bot/internal/feed"
	"rsi_bot/internal/modules/config"
	"rsi_bot/internal/modules/health/service"
	okx "rsi_bot/internal/modules/okx_client/service"
	ws "rsi_bot/internal/modules/okx_websocket/service"
	"rsi_bot/internal/notify"

	"go.uber.org/fx"
)

// loop запускает fn в горутине на OnStart и дожидается её на OnStop.
func loop(lc fx.Lifecycle, state *service.State, fn func(ctx context.Context)) {
	var (
		cancel context.CancelFunc
		wg     sync.WaitGroup
	)
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			wg.Add(1)
			go func() {
				defer wg.Done()
				fn(ctx)
			}()
			state.SetReady(true)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			state.SetReady(false)
			cancel()
			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

// StrategyModule: цикл стратегии (cmd/bot).
func StrategyModule() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			func(c *okx.Client, cfg *config.Config) PriceFeed { return feed.New(c, cfg.Strategy.Bar) },
			func(cfg *config.Config, c *okx.Client) OrderExecutor { return executor.NewFromConfig(cfg, c) },
			notify.New,
			NewStrategy,
		),
		fx.Invoke(func(lc fx.Lifecycle, s *Strategy, n notify.Notifier, state *service.State) error {
			if t, ok := n.(*notify.Telegram); ok {
				t.OnStatus(s.Status)
				lc.Append(fx.Hook{
					// ctx хука живёт только на время старта
					OnStart: func(context.Context) error { return t.Start(context.Background()) },
					OnStop: func(context.Context) error {
						t.Stop()
						return nil
					},
				})
			}
			lc.Append(fx.Hook{OnStart: s.Restore})
			loop(lc, state, s.Run)
			return nil
		}),
	)
}

// IngestModule: загрузка свечей в стор (cmd/ingest).
func IngestModule() fx.Option {
	return fx.Module("ingest",
		fx.Provide(
			func(c *okx.Client) CandleSource { return c },
			func(c *ws.Client) CandleStream { return c },
			NewIngestor,
		),
		fx.Invoke(func(lc fx.Lifecycle, i *Ingestor, state *service.State) {
			loop(lc, state, i.Run)
		}),
	)
}
