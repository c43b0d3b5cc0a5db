package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersExposed(t *testing.T) {
	OrdersTotal.WithLabelValues("XRP-USDT", "buy", "ok").Inc()
	if got := testutil.ToFloat64(OrdersTotal.WithLabelValues("XRP-USDT", "buy", "ok")); got != 1 {
		t.Fatalf("orders = %v", got)
	}

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "rsi_bot_orders_total") {
		t.Fatalf("rsi_bot_orders_total not found in /metrics output")
	}
}
