package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rsi_bot/internal/modules/config"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const okxTimeLayout = "2006-01-02T15:04:05.000Z"

// Options: всё, что нужно клиенту; NewClient собирает их из конфига.
type Options struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	Passphrase string
	Simulated  bool
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
	HTTP       *http.Client
}

// Client: REST-клиент OKX v5 (market + trade).
type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	passph    string
	simulated bool
	timeout   time.Duration

	http    *http.Client
	limiter *rate.Limiter

	now func() time.Time
}

func NewClient(cfg *config.Config) *Client {
	return New(Options{
		BaseURL:    cfg.OKX.BaseURL,
		APIKey:     cfg.OKX.APIKey,
		APISecret:  cfg.OKX.APISecret,
		Passphrase: cfg.OKX.Passphrase,
		Simulated:  cfg.OKX.Simulated,
		Timeout:    cfg.OKX.RequestTimeout,
		RatePerSec: cfg.OKX.RatePerSec,
		Burst:      cfg.OKX.Burst,
	})
}

func New(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = "https://www.okx.com"
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.HTTP == nil {
		o.HTTP = &http.Client{Timeout: o.Timeout}
	}
	limit := rate.Inf
	if o.RatePerSec > 0 {
		limit = rate.Limit(o.RatePerSec)
	}
	if o.Burst <= 0 {
		o.Burst = 1
	}
	return &Client{
		baseURL:   strings.TrimRight(o.BaseURL, "/"),
		apiKey:    o.APIKey,
		apiSecret: o.APISecret,
		passph:    o.Passphrase,
		simulated: o.Simulated,
		timeout:   o.Timeout,
		http:      o.HTTP,
		limiter:   rate.NewLimiter(limit, o.Burst),
		now:       time.Now,
	}
}

// sign: base64(hmac_sha256(ts + METHOD + requestPath + body)).
func (c *Client) sign(ts, method, requestPath, body string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(ts + strings.ToUpper(method) + requestPath + body))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// request выполняет вызов и возвращает содержимое поля data.
// signed=false: публичные market-эндпоинты, заголовки авторизации не ставим.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any, signed bool) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestPath := path
	if len(query) > 0 {
		requestPath += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = sonic.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "marshal body")
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s: new request", method, path)
	}
	req.Header.Set("Content-Type", "application/json")
	if signed {
		ts := c.now().UTC().Format(okxTimeLayout)
		req.Header.Set("OK-ACCESS-KEY", c.apiKey)
		req.Header.Set("OK-ACCESS-SIGN", c.sign(ts, method, requestPath, string(payload)))
		req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
		req.Header.Set("OK-ACCESS-PASSPHRASE", c.passph)
	}
	if c.simulated {
		req.Header.Set("x-simulated-trading", "1")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s: read body", method, path)
	}
	if resp.StatusCode/100 != 2 {
		return nil, &APIError{HTTPStatus: resp.StatusCode, Path: path, Msg: truncate(string(rb), 256)}
	}

	var env envelope
	if err := sonic.Unmarshal(rb, &env); err != nil {
		return nil, errors.Wrapf(err, "%s %s: decode envelope", method, path)
	}
	if env.Code != "0" {
		return nil, &APIError{HTTPStatus: resp.StatusCode, Path: path, Code: env.Code, Msg: env.Msg, Raw: truncate(string(rb), 512)}
	}
	return env.Data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (c *Client) String() string {
	return fmt.Sprintf("okx(%s simulated=%v)", c.baseURL, c.simulated)
}
