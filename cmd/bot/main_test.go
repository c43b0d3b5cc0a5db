package main

import (
	"testing"

	boot "rsi_bot/internal/modules/bootstrap/service"

	"go.uber.org/fx"
)

func TestOptionsGraphResolves(t *testing.T) {
	if err := fx.ValidateApp(options(boot.Flags{}), fx.NopLogger); err != nil {
		t.Fatalf("rsi_bot graph: %v", err)
	}
}
