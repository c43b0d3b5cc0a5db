package service

import (
	"errors"
	"fmt"
)

// APIError: ответ OKX с code != "0" или не-2xx статусом.
type APIError struct {
	HTTPStatus int
	Path       string
	Code       string
	Msg        string
	Raw        string // тело ответа для разбора sCode/sMsg
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("okx %s: http %d: %s", e.Path, e.HTTPStatus, e.Msg)
	}
	return fmt.Sprintf("okx %s: code=%s msg=%s", e.Path, e.Code, e.Msg)
}

// ErrMalformed: ответ разобрался, но данные не те, что ждём.
var ErrMalformed = errors.New("okx: malformed payload")
