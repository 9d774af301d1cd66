// Package huobi implements the historical and live candle sources against
// a Huobi-style market API: REST kline history plus a gzip-compressed
// WebSocket feed addressed by "market.<symbol>.kline.<period>" channels.
package huobi

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/yitech/chartfeed/adapter"
	"github.com/yitech/chartfeed/model/candle"
)

const (
	defaultBaseURL = "https://api.huobi.pro"
	defaultWSURL   = "wss://api.huobi.pro/ws"
)

// MaxKlineSize is the largest row count the history endpoint accepts.
const MaxKlineSize = 2000

// Config carries the endpoints and logger for an Adapter. Zero values
// fall back to the public API endpoints and a no-op logger.
type Config struct {
	BaseURL string
	WSURL   string
	Logger  zerolog.Logger
}

// Adapter is the Huobi market-data adapter. It satisfies both
// adapter.History and adapter.Streamer.
type Adapter struct {
	httpClient *http.Client
	baseURL    string
	wsURL      string
	log        zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg Config) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.WSURL == "" {
		cfg.WSURL = defaultWSURL
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Adapter{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.BaseURL,
		wsURL:      cfg.WSURL,
		log:        cfg.Logger.With().Str("adapter", "huobi").Logger(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Fetch requests up to size historical klines for symbol/period via the
// REST API. The result is sorted ascending by open time with duplicate
// open times collapsed; an empty result is not an error.
func (a *Adapter) Fetch(ctx context.Context, symbol, period string, size int) ([]candle.Candle, error) {
	return fetchKlines(ctx, a.httpClient, a.baseURL, a.log, symbol, period, size)
}

// Subscribe opens a WebSocket kline stream for the given channel key.
// The returned Token cancels this specific subscription.
func (a *Adapter) Subscribe(channel string, handler adapter.TickHandler) (adapter.Token, error) {
	return subscribeChannel(a.ctx, a.wsURL, a.log, channel, handler)
}

// Close cancels all active subscriptions and releases resources.
func (a *Adapter) Close() error {
	a.cancel()
	return nil
}
