package main

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yitech/chartfeed/model/candle"
)

// chartSurface bridges feed callbacks into the bubbletea program. The
// program is attached after construction because the feed and the TUI
// model reference each other.
type chartSurface struct {
	mu sync.Mutex
	p  *tea.Program
}

func (s *chartSurface) attach(p *tea.Program) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

func (s *chartSurface) program() *tea.Program {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p
}

func (s *chartSurface) PushBar(c candle.Candle) {
	if p := s.program(); p != nil {
		p.Send(barMsg{c: c})
	}
}

func (s *chartSurface) SetResolution(key string, done func()) {
	if p := s.program(); p != nil {
		p.Send(setResolutionMsg{key: key, done: done})
	}
}

func (s *chartSurface) SetSymbol(name, resolutionKey string, done func()) {
	if p := s.program(); p != nil {
		p.Send(setSymbolMsg{name: name, key: resolutionKey, done: done})
	}
}

func (s *chartSurface) Release() {
	if p := s.program(); p != nil {
		p.Quit()
	}
}
