package service

// Ticker: то, что нам нужно из /market/ticker.
type Ticker struct {
	InstID string
	Last   float64
	TsMs   int64
}

type tickerRow struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
	Ts     string `json:"ts"`
}

// PlaceOrderRequest: тело /trade/order. Числа строками, как требует OKX.
type PlaceOrderRequest struct {
	InstID  string `json:"instId"`
	TdMode  string `json:"tdMode"`
	Side    string `json:"side"`
	OrdType string `json:"ordType"`
	Sz      string `json:"sz"`
	ClOrdID string `json:"clOrdId,omitempty"`
}

type PlaceOrderResult struct {
	OrdID   string `json:"ordId"`
	ClOrdID string `json:"clOrdId"`
	SCode   string `json:"sCode"`
	SMsg    string `json:"sMsg"`
}

// OrderState: значения поля state у OKX.
type OrderState string

const (
	OrderLive            OrderState = "live"
	OrderPartiallyFilled OrderState = "partially_filled"
	OrderFilled          OrderState = "filled"
	OrderCanceled        OrderState = "canceled"
	OrderMmpCanceled     OrderState = "mmp_canceled"
)

// OrderDetails: состояние ордера для сверки филла.
type OrderDetails struct {
	OrdID     string
	State     OrderState
	AvgPx     float64
	AccFillSz float64
	Sz        float64
}

type orderRow struct {
	OrdID     string `json:"ordId"`
	State     string `json:"state"`
	AvgPx     string `json:"avgPx"`
	AccFillSz string `json:"accFillSz"`
	Sz        string `json:"sz"`
}
