package candle

// Candle is one OHLCV record for a fixed time interval.
// Time is the open time of the interval in Unix milliseconds.
type Candle struct {
	Time   int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Upsert merges c into bars keyed by open time: a candle sharing the last
// bar's open time replaces it in place, a strictly later one is appended.
// Candles older than the last bar are dropped (they belong to periods the
// chart has already finalized). Returns the updated slice.
func Upsert(bars []Candle, c Candle) []Candle {
	n := len(bars)
	if n == 0 || c.Time > bars[n-1].Time {
		return append(bars, c)
	}
	if c.Time == bars[n-1].Time {
		bars[n-1] = c
	}
	return bars
}
