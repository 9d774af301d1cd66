// Package feed bridges a paginated historical candle source and a live
// tick stream into the single resolution-aware series a charting surface
// consumes. It owns the per-chart session state and guarantees the
// surface never sees candles from a stale symbol or resolution.
package feed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yitech/chartfeed/adapter"
	"github.com/yitech/chartfeed/model/candle"
	"github.com/yitech/chartfeed/resolution"
)

// ErrClosed reports an operation on a feed after Close.
var ErrClosed = errors.New("feed: closed")

// ErrSuperseded reports a bars request whose resolution or symbol was
// switched away from while its historical fetch was in flight. The result
// carries no bars and must be discarded by the surface; a fresh request
// for the current state is already on its way.
var ErrSuperseded = errors.New("feed: bars request superseded")

// Symbol describes the charted instrument. Values are supplied externally
// and already validated; the feed never mutates them.
type Symbol struct {
	Base           string // base currency code, e.g. "btc"
	Quote          string // quote currency code, e.g. "usdt"
	Token          string // transport-level identifier, e.g. "btcusdt"
	PricePrecision int    // decimal digits of price
	ValuePrecision int    // decimal digits of volume/value
}

// DisplayName is the canonical BASE/QUOTE chart name.
func (s Symbol) DisplayName() string {
	return strings.ToUpper(s.Base) + "/" + strings.ToUpper(s.Quote)
}

// SymbolInfo is the resolveSymbol answer the charting surface expects.
type SymbolInfo struct {
	Name                 string
	FullName             string
	Description          string
	Type                 string
	Session              string
	Timezone             string
	PriceScale           int
	MinMove              int
	VolumePrecision      int
	HasIntraday          bool
	HasDaily             bool
	HasWeeklyAndMonthly  bool
	SupportedResolutions []string
}

// Configuration is the fetchConfiguration answer: the supported
// resolution keys and nothing further.
type Configuration struct {
	SupportedResolutions []string
}

// Surface is the rendering surface the feed drives. Implementations must
// not call back into the feed from these methods.
type Surface interface {
	// PushBar delivers one incremental update. A bar sharing the newest
	// bar's open time replaces it in place; a strictly later one starts
	// a new bar.
	PushBar(c candle.Candle)
	// SetResolution switches the chart to the given resolution key. The
	// chart re-invokes GetBars itself and calls done once the switch
	// has completed.
	SetResolution(key string, done func())
	// SetSymbol points the chart at a new display name at the given
	// resolution, reloading bars.
	SetSymbol(name, resolutionKey string, done func())
	// Release frees the surface's native resources. Called exactly once,
	// from Close.
	Release()
}

// BarsRequest is one GetBars invocation from the surface.
type BarsRequest struct {
	Resolution    string // client resolution key
	ViewportWidth int    // chart viewport width in pixels, caps the row count
	FirstRequest  bool   // initial history load, as opposed to backfill
}

// BarsResult is the GetBars answer. NoMoreData signals a normal terminal
// condition, never an error: the surface should stop asking for older
// history.
type BarsResult struct {
	Bars       []candle.Candle
	NoMoreData bool
}

// Config assembles a Feed.
type Config struct {
	Symbol     Symbol
	Resolution string // initial client resolution key
	History    adapter.History
	Streamer   adapter.Streamer
	Surface    Surface
	Logger     zerolog.Logger
	Mobile     bool // presentation hint only, never branches data logic
}

// Feed is the chart data-feed adapter: one instance per mounted chart.
type Feed struct {
	history adapter.History
	stream  adapter.Streamer
	surface Surface
	log     zerolog.Logger
	mobile  bool

	s session
}

// New builds a Feed for one chart instance. The initial resolution must
// exist in the registry.
func New(cfg Config) (*Feed, error) {
	res, err := resolution.Lookup(cfg.Resolution)
	if err != nil {
		return nil, err
	}
	f := &Feed{
		history: cfg.History,
		stream:  cfg.Streamer,
		surface: cfg.Surface,
		log:     cfg.Logger.With().Str("symbol", cfg.Symbol.Token).Logger(),
		mobile:  cfg.Mobile,
	}
	f.s.symbol = cfg.Symbol
	f.s.res = res
	return f, nil
}

// Mobile reports the presentation hint the surface was configured with.
func (f *Feed) Mobile() bool { return f.mobile }

// ResolveSymbol answers the surface's symbol metadata query. The
// capability flags are a fixed declaration, not derived from data.
func (f *Feed) ResolveSymbol(displayName string) (SymbolInfo, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.closed {
		return SymbolInfo{}, ErrClosed
	}
	sym := f.s.symbol
	name := sym.DisplayName()
	return SymbolInfo{
		Name:                 name,
		FullName:             name,
		Description:          displayName,
		Type:                 "stock",
		Session:              "24x7",
		Timezone:             "Asia/Shanghai",
		PriceScale:           int(math.Pow10(sym.PricePrecision)),
		MinMove:              1,
		VolumePrecision:      sym.ValuePrecision,
		HasIntraday:          true,
		HasDaily:             true,
		HasWeeklyAndMonthly:  true,
		SupportedResolutions: resolution.Keys(),
	}, nil
}

// Configuration answers the surface's configuration query.
func (f *Feed) Configuration() (Configuration, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.closed {
		return Configuration{}, ErrClosed
	}
	return Configuration{SupportedResolutions: resolution.Keys()}, nil
}

// GetBars answers the surface's history query and, on the first request,
// opens the live subscription for the current symbol and resolution.
func (f *Feed) GetBars(ctx context.Context, req BarsRequest) (BarsResult, error) {
	// The upstream source does not support paging beyond the initial
	// load; backfill requests terminate immediately.
	if !req.FirstRequest {
		f.s.mu.Lock()
		closed := f.s.closed
		f.s.mu.Unlock()
		if closed {
			return BarsResult{}, ErrClosed
		}
		return BarsResult{NoMoreData: true}, nil
	}

	res, err := resolution.Lookup(req.Resolution)
	if err != nil {
		return BarsResult{}, err
	}

	f.s.mu.Lock()
	if f.s.closed {
		f.s.mu.Unlock()
		return BarsResult{}, ErrClosed
	}
	// A resolution switch tears down the old subscription before the
	// fetch starts, so no tick for the old resolution can race the
	// fetch for the new one.
	if res.Key != f.s.res.Key {
		f.s.unsubscribeLocked()
		f.s.res = res
	}
	symbol := f.s.symbol
	f.s.mu.Unlock()

	size := req.ViewportWidth
	if size > maxFetchSize {
		size = maxFetchSize
	}
	if size < 1 {
		size = 1
	}

	bars, err := f.history.Fetch(ctx, symbol.Token, res.Period, size)
	if err != nil {
		// Availability over hard failure: a broken upstream renders as
		// "no data", never as an error surfaced to the viewer.
		f.log.Warn().Err(err).Str("period", res.Period).Msg("history fetch failed")
		return BarsResult{NoMoreData: true}, nil
	}

	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.closed {
		return BarsResult{}, ErrClosed
	}
	// A late response for an already-superseded resolution or symbol
	// must not be applied: the surface has a fresh request in flight,
	// and resubscribing the captured symbol here would resurrect a
	// channel the symbol change just tore down.
	if f.s.res.Key != res.Key || f.s.symbol.Token != symbol.Token {
		return BarsResult{}, ErrSuperseded
	}
	if len(bars) == 0 {
		return BarsResult{NoMoreData: true}, nil
	}

	channel := channelKey(symbol.Token, res.Period)
	if f.s.subCh != channel {
		tok, err := f.stream.Subscribe(channel, f.tickHandler(channel))
		if err != nil {
			f.log.Warn().Err(err).Str("channel", channel).Msg("subscribe failed")
		} else {
			f.s.replaceSubLocked(tok, channel)
		}
	}

	return BarsResult{Bars: bars}, nil
}

// tickHandler routes live ticks for channel to the surface. Ticks that
// arrive after the channel was switched away from or the feed was closed
// are dropped.
func (f *Feed) tickHandler(channel string) adapter.TickHandler {
	return func(c candle.Candle) {
		f.s.mu.Lock()
		defer f.s.mu.Unlock()
		if f.s.closed || f.s.subCh != channel {
			return
		}
		f.surface.PushBar(c)
	}
}

// HandleResolutionButton reacts to a resolution switch control. The
// actual state change happens when the surface re-invokes GetBars with
// the new key; switching to the current resolution is a no-op.
func (f *Feed) HandleResolutionButton(key string) error {
	if _, err := resolution.Lookup(key); err != nil {
		return err
	}
	f.s.mu.Lock()
	if f.s.closed {
		f.s.mu.Unlock()
		return ErrClosed
	}
	current := f.s.res.Key
	f.s.mu.Unlock()
	if key == current {
		return nil
	}
	f.surface.SetResolution(key, func() {
		f.log.Debug().Str("resolution", key).Msg("resolution switched")
	})
	return nil
}

// HandleSymbolChange tears down the live subscription, swaps the session
// symbol, and points the surface at the new display name at the current
// resolution.
func (f *Feed) HandleSymbolChange(sym Symbol) error {
	f.s.mu.Lock()
	if f.s.closed {
		f.s.mu.Unlock()
		return ErrClosed
	}
	f.s.unsubscribeLocked()
	f.s.symbol = sym
	resKey := f.s.res.Key
	f.s.mu.Unlock()

	f.surface.SetSymbol(sym.DisplayName(), resKey, func() {})
	return nil
}

// Close releases the live subscription and the surface's native
// resources. Safe to call once; later operations return ErrClosed and
// never reach the transport.
func (f *Feed) Close() error {
	f.s.mu.Lock()
	if f.s.closed {
		f.s.mu.Unlock()
		return ErrClosed
	}
	f.s.unsubscribeLocked()
	f.s.closed = true
	f.s.mu.Unlock()

	f.surface.Release()
	return nil
}

// maxFetchSize caps one historical query regardless of viewport width.
const maxFetchSize = 2000

// channelKey builds the live-feed channel identifier for a symbol token
// and server period code.
func channelKey(symbolToken, period string) string {
	return fmt.Sprintf("market.%s.kline.%s", symbolToken, period)
}
