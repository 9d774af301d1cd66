// Package resolution holds the fixed table of chart resolutions: the
// client-facing key the charting surface requests, the server-side period
// code the upstream API understands, and the label shown on switch controls.
package resolution

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a resolution key outside the fixed set. This is a
// configuration fault, not a transient one: a correctly-driven charting
// surface only requests keys it was handed by Keys.
var ErrNotFound = errors.New("resolution: not found")

// Resolution maps one client key to its server period code and display label.
type Resolution struct {
	Key    string // client-facing identifier, e.g. "60"
	Period string // server period code, e.g. "60min"
	Label  string // display label, e.g. "1h"
}

// table is fixed at process start. Order matters: Keys renders switch
// controls in this order. Changing an entry is a compatibility-affecting
// configuration change.
var table = []Resolution{
	{Key: "1", Period: "1min", Label: "1m"},
	{Key: "5", Period: "5min", Label: "5m"},
	{Key: "15", Period: "15min", Label: "15m"},
	{Key: "30", Period: "30min", Label: "30m"},
	{Key: "60", Period: "60min", Label: "1h"},
	{Key: "240", Period: "4hour", Label: "4h"},
	{Key: "1440", Period: "1day", Label: "1D"},
	{Key: "10080", Period: "1week", Label: "1W"},
	{Key: "302400", Period: "1mon", Label: "1M"},
}

var byKey = func() map[string]Resolution {
	m := make(map[string]Resolution, len(table))
	for _, r := range table {
		m[r.Key] = r
	}
	return m
}()

// Lookup returns the resolution for a client key, or ErrNotFound.
func Lookup(key string) (Resolution, error) {
	r, ok := byKey[key]
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return r, nil
}

// Keys returns all client keys in table order.
func Keys() []string {
	out := make([]string, len(table))
	for i, r := range table {
		out[i] = r.Key
	}
	return out
}

// All returns the full table in order.
func All() []Resolution {
	out := make([]Resolution, len(table))
	copy(out, table)
	return out
}
