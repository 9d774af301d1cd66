package candle

import "testing"

func TestUpsertReplacesSameOpenTime(t *testing.T) {
	bars := []Candle{{Time: 1000, Close: 1}, {Time: 2000, Close: 2}}
	bars = Upsert(bars, Candle{Time: 2000, Close: 3})
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[1].Close != 3 {
		t.Fatalf("expected in-place update, got close %v", bars[1].Close)
	}
}

func TestUpsertAppendsLaterOpenTime(t *testing.T) {
	bars := []Candle{{Time: 1000}}
	bars = Upsert(bars, Candle{Time: 2000})
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[1].Time != 2000 {
		t.Fatalf("unexpected tail: %+v", bars[1])
	}
}

func TestUpsertDropsStaleOpenTime(t *testing.T) {
	bars := []Candle{{Time: 2000, Close: 2}}
	bars = Upsert(bars, Candle{Time: 1000, Close: 9})
	if len(bars) != 1 || bars[0].Close != 2 {
		t.Fatalf("stale candle must be dropped, got %+v", bars)
	}
}

func TestUpsertEmpty(t *testing.T) {
	bars := Upsert(nil, Candle{Time: 1000})
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}
}
