package okx_client

import (
	"rsi_bot/internal/modules/okx_client/service"

	"go.uber.org/fx"
)

// Module: REST-клиент OKX (рынок + торговля).
func Module() fx.Option {
	return fx.Module("okx_client",
		fx.Provide(
			service.NewClient,
		),
	)
}
