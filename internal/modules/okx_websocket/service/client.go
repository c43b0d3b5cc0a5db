package service

import (
	"context"
	"time"

	"rsi_bot/internal/models"
	"rsi_bot/internal/modules/config"
	okx "rsi_bot/internal/modules/okx_client/service"
	"rsi_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

// ConnState: сюда сообщаем о подключении/обрыве (health).
type ConnState interface {
	SetWSConnected(v bool)
}

type Client struct {
	url       string
	wsDialer  *websocket.Dialer
	pingEvery time.Duration
	backoff   time.Duration
	state     ConnState
}

func NewClient(cfg *config.Config, state ConnState) *Client {
	return &Client{
		url:       cfg.OKX.WSURL,
		wsDialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		pingEvery: 20 * time.Second,
		backoff:   time.Second,
		state:     state,
	}
}

type frame struct {
	Event string `json:"event"`
	Msg   string `json:"msg"`
	Arg   struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg"`
	Data [][]string `json:"data"`
}

// StreamCandles: поток обновлений свечи по одному инструменту (канал candle<bar>).
// Отдаются и незакрытые бары: ingest делает upsert по timestamp, последняя запись побеждает.
// Переподключается сам, канал закрывается только по ctx.Done().
func (c *Client) StreamCandles(ctx context.Context, instID, bar string) (<-chan models.Candle, error) {
	okxBar, err := okx.OkxBar(bar)
	if err != nil {
		return nil, err
	}
	channel := "candle" + okxBar
	ch := make(chan models.Candle)

	go func() {
		defer close(ch)
		for {
			if err := c.session(ctx, channel, instID, ch); err != nil {
				logger.Error("[WS] %s %s: %v", channel, instID, err)
			}
			c.setConnected(false)

			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
		}
	}()
	return ch, nil
}

// session: одно подключение: subscribe, ping-горутина, read-loop до ошибки.
func (c *Client) session(ctx context.Context, channel, instID string, out chan<- models.Candle) error {
	conn, _, err := c.wsDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// закрываем соединение по ctx, чтобы разблокировать ReadMessage
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	sub := map[string]any{
		"op":   "subscribe",
		"args": []map[string]string{{"channel": channel, "instId": instID}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}
	logger.Info("[WS] subscribed %s %s", channel, instID)
	c.setConnected(true)

	// keepalive: OKX рвёт соединение через 30s тишины
	go func() {
		t := time.NewTicker(c.pingEvery)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		candles, err := decodeFrame(msg, channel)
		if err != nil {
			logger.Warn("[WS] %s", err)
			continue
		}
		for _, candle := range candles {
			select {
			case out <- candle:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (c *Client) setConnected(v bool) {
	if c.state != nil {
		c.state.SetWSConnected(v)
	}
}

// decodeFrame разбирает push-кадр; pong, события подписки и чужие каналы дают пустой результат.
func decodeFrame(msg []byte, channel string) ([]models.Candle, error) {
	if string(msg) == "pong" {
		return nil, nil
	}
	var f frame
	if err := sonic.Unmarshal(msg, &f); err != nil {
		return nil, nil
	}
	if f.Event == "error" {
		return nil, &okx.APIError{Path: "ws:" + channel, Msg: f.Msg}
	}
	if f.Arg.Channel != channel || len(f.Data) == 0 {
		return nil, nil
	}

	out := make([]models.Candle, 0, len(f.Data))
	for _, row := range f.Data {
		candle, err := okx.ParseCandleRow(f.Arg.InstID, row)
		if err != nil {
			continue
		}
		out = append(out, candle)
	}
	return out, nil
}
