package huobi

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/yitech/chartfeed/model/candle"
)

const klinePath = "/market/history/kline"

// ErrMalformedKline reports a wire row missing a required field. Callers
// drop the single row and keep the rest of the batch.
var ErrMalformedKline = errors.New("huobi: malformed kline")

// klineRow is the wire shape shared by the REST history response and the
// WebSocket tick payload. The id field is the period bucket counted in
// seconds. Pointers distinguish absent fields from zero values.
type klineRow struct {
	ID    *int64   `json:"id"`
	Open  *float64 `json:"open"`
	High  *float64 `json:"high"`
	Low   *float64 `json:"low"`
	Close *float64 `json:"close"`
	Vol   *float64 `json:"vol"`
}

// toCandle converts a wire row to the canonical candle, promoting the
// seconds bucket to epoch milliseconds. Prices and volume are copied
// verbatim; display precision is the charting surface's concern.
func (r klineRow) toCandle() (candle.Candle, error) {
	if r.ID == nil || r.Open == nil || r.High == nil || r.Low == nil || r.Close == nil || r.Vol == nil {
		return candle.Candle{}, ErrMalformedKline
	}
	return candle.Candle{
		Time:   *r.ID * 1000,
		Open:   *r.Open,
		High:   *r.High,
		Low:    *r.Low,
		Close:  *r.Close,
		Volume: *r.Vol,
	}, nil
}

// historyResponse is the REST envelope. A non-"ok" status carries the
// error code in errCode/errMsg.
type historyResponse struct {
	Status  string     `json:"status"`
	ErrCode string     `json:"err-code"`
	ErrMsg  string     `json:"err-msg"`
	Data    []klineRow `json:"data"`
}

// fetchKlines fetches a single history page (up to MaxKlineSize rows).
// Rows that fail to normalize are dropped individually; the surviving
// rows are sorted ascending by open time and deduplicated last-wins.
func fetchKlines(ctx context.Context, client *http.Client, baseURL string, log zerolog.Logger, symbol, period string, size int) ([]candle.Candle, error) {
	if size > MaxKlineSize {
		size = MaxKlineSize
	}
	if size < 1 {
		size = 1
	}

	u, err := url.Parse(baseURL + klinePath)
	if err != nil {
		return nil, fmt.Errorf("huobi: parse url: %w", err)
	}
	q := u.Query()
	q.Set("symbol", symbol)
	q.Set("period", period)
	q.Set("size", strconv.Itoa(size))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("huobi: build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huobi: http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("huobi: unexpected status %s", resp.Status)
	}

	var body historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("huobi: decode response: %w", err)
	}
	if body.Status != "ok" {
		return nil, fmt.Errorf("huobi: api error %s: %s", body.ErrCode, body.ErrMsg)
	}

	out := make([]candle.Candle, 0, len(body.Data))
	for i, r := range body.Data {
		c, err := r.toCandle()
		if err != nil {
			log.Warn().Err(err).Int("row", i).Str("symbol", symbol).Str("period", period).
				Msg("dropping kline row")
			continue
		}
		out = append(out, c)
	}

	return sortDedup(out), nil
}

// sortDedup sorts ascending by open time and collapses duplicate open
// times, keeping the later row of each pair (last write wins). Upstream
// row order is not guaranteed.
func sortDedup(in []candle.Candle) []candle.Candle {
	slices.SortStableFunc(in, func(a, b candle.Candle) int {
		return cmp.Compare(a.Time, b.Time)
	})
	out := in[:0]
	for _, c := range in {
		if n := len(out); n > 0 && out[n-1].Time == c.Time {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}
