package executor

import (
	"errors"
	"fmt"

	"rsi_bot/internal/models"
)

// ErrOrderNotFilled: ордер отменён или не исполнился за fill_timeout.
var ErrOrderNotFilled = errors.New("order not filled")

// RemoteExecutionError: любая ошибка транспорта/биржи при выставлении ордера.
type RemoteExecutionError struct {
	Symbol string
	Side   models.Side
	Size   float64
	Err    error
}

func (e *RemoteExecutionError) Error() string {
	return fmt.Sprintf("place %s %v %s: %v", e.Side, e.Size, e.Symbol, e.Err)
}

func (e *RemoteExecutionError) Unwrap() error { return e.Err }
