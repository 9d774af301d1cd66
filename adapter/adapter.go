// Package adapter defines the contracts the feed orchestrator depends on:
// a historical candle source and a live tick stream. Implementations live
// in subpackages, one per upstream wire protocol.
package adapter

import (
	"context"

	"github.com/yitech/chartfeed/model/candle"
)

// TickHandler is invoked for every live candle update on a subscription.
type TickHandler func(c candle.Candle)

// Token cancels a single live subscription.
type Token interface {
	Unsubscribe()
}

// History fetches historical candles for a symbol and server period code.
// Implementations return at most size rows, sorted ascending by open time
// with duplicate open times collapsed (last row wins). An empty result is
// the normal terminal condition, not an error.
type History interface {
	Fetch(ctx context.Context, symbol, period string, size int) ([]candle.Candle, error)
}

// Streamer registers interest in a live channel key. All tick deliveries
// for that key invoke handler until the returned Token is unsubscribed;
// no deliveries may occur after Unsubscribe returns.
type Streamer interface {
	Subscribe(channel string, handler TickHandler) (Token, error)
}
