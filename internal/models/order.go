package models

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderRef: хендл ордера, нужен только для логов и сверки филла.
type OrderRef struct {
	ID       string
	ClientID string
}

// Fill: фактическое исполнение, по нему двигаем позицию.
type Fill struct {
	Price float64
	Size  float64
}
