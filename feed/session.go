package feed

import (
	"sync"

	"github.com/yitech/chartfeed/adapter"
	"github.com/yitech/chartfeed/resolution"
)

// session is the mutable state of one mounted chart: current symbol,
// current resolution, and the live subscription handle. Two states:
// idle (sub == nil) and subscribed. All mutation goes through the Feed's
// sequential operations; the mutex only orders those against tick
// delivery from the transport goroutine.
type session struct {
	mu     sync.Mutex
	symbol Symbol
	res    resolution.Resolution
	sub    adapter.Token
	subCh  string
	closed bool
}

// unsubscribeLocked tears down the live subscription if one is active.
// Callers hold s.mu. Idempotent.
func (s *session) unsubscribeLocked() {
	if s.sub == nil {
		return
	}
	s.sub.Unsubscribe()
	s.sub = nil
	s.subCh = ""
}

// replaceSubLocked installs a new subscription handle. Any prior handle
// is released first: a symbol or resolution switch must pass through
// idle, never holding two live channels at once.
func (s *session) replaceSubLocked(tok adapter.Token, channel string) {
	s.unsubscribeLocked()
	s.sub = tok
	s.subCh = channel
}
