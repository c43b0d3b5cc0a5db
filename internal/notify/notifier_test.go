package notify

import (
	"context"
	"strings"
	"testing"

	"rsi_bot/internal/models"
	"rsi_bot/internal/modules/config"
	"rsi_bot/pkg/logger"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewFallsBackToStdout(t *testing.T) {
	logger.SetLogger(zap.NewNop())
	cfg := config.Default()
	if _, ok := New(&cfg).(*Stdout); !ok {
		t.Fatal("expected stdout notifier without telegram token")
	}
}

func TestStdoutLogs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger.SetLogger(zap.New(core))

	NewStdout().Sendf("hello %d", 42)
	if logs.FilterMessage("[NOTIFY] hello 42").Len() != 1 {
		t.Fatalf("logs = %v", logs.All())
	}
}

func TestMessages(t *testing.T) {
	msg := ExitMessage("XRP-USDT", "tp_sl", models.Fill{Price: 105, Size: 40}, models.Position{Size: 40, AvgPrice: 100})
	if !strings.Contains(msg, "PnL 200.0000") {
		t.Fatalf("exit message: %s", msg)
	}
	if msg := StatusMessage("XRP-USDT", models.Position{}, "flat"); !strings.Contains(msg, "позиции нет") {
		t.Fatalf("status message: %s", msg)
	}
	if msg := EntryMessage("XRP-USDT", "buy1", models.Fill{Price: 0.5, Size: 40}, models.Position{Size: 40, AvgPrice: 0.5}); !strings.Contains(msg, "buy1") {
		t.Fatalf("entry message: %s", msg)
	}
}

func TestTelegramNilSafe(t *testing.T) {
	var tg *Telegram
	tg.Send("x")
	tg.Stop()
	if err := tg.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
}
