package okx_websocket

import (
	"rsi_bot/internal/modules/health/service"
	ws "rsi_bot/internal/modules/okx_websocket/service"

	"go.uber.org/fx"
)

// Module поднимает WS-клиент свечей OKX; состояние соединения уходит в health.
func Module() fx.Option {
	return fx.Module("okx_websocket",
		fx.Provide(
			func(st *service.State) ws.ConnState { return st },
			ws.NewClient,
		),
	)
}
