package main

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yitech/chartfeed/feed"
	"github.com/yitech/chartfeed/model/candle"
	"github.com/yitech/chartfeed/resolution"
)

// ── styles ────────────────────────────────────────────────────────────────────

var (
	bullStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#26a641"))
	bearStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e05c5c"))
	wickStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	axisStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#aaaaaa"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1878f3"))
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e05c5c"))
)

// ── messages ──────────────────────────────────────────────────────────────────

type barMsg struct{ c candle.Candle }

type barsLoadedMsg struct {
	key    string // resolution key the load was issued for
	result feed.BarsResult
	err    error
}

type setResolutionMsg struct {
	key  string
	done func()
}

type setSymbolMsg struct {
	name string
	key  string
	done func()
}

// ── model ─────────────────────────────────────────────────────────────────────

type model struct {
	feed       *feed.Feed
	symbolName string
	resKey     string
	viewport   int

	candles []candle.Candle
	loading bool
	noData  bool
	loadErr error
	pending func() // done callback of an in-flight resolution switch

	width  int
	height int
}

func newModel(f *feed.Feed, symbolName, resKey string, viewport int) model {
	return model{
		feed:       f,
		symbolName: symbolName,
		resKey:     resKey,
		viewport:   viewport,
		loading:    true,
	}
}

// ── Init / Update / View ──────────────────────────────────────────────────────

func (m model) Init() tea.Cmd {
	return loadBars(m.feed, m.resKey, m.viewport)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "left", "right":
			return m, switchResolution(m.feed, m.resKey, msg.String() == "right")
		}

	case setResolutionMsg:
		// The feed delegated a resolution switch back to us: adopt the
		// key and reload bars; done fires once the reload lands.
		m.resKey = msg.key
		m.pending = msg.done
		m.loading = true
		return m, loadBars(m.feed, msg.key, m.viewport)

	case setSymbolMsg:
		m.symbolName = msg.name
		m.resKey = msg.key
		m.candles = nil
		m.pending = msg.done
		m.loading = true
		return m, loadBars(m.feed, msg.key, m.viewport)

	case barsLoadedMsg:
		if msg.key != m.resKey {
			// Superseded load; a fresh one is already in flight.
			return m, nil
		}
		m.loading = false
		m.loadErr = msg.err
		if msg.err == nil {
			m.candles = msg.result.Bars
			m.noData = msg.result.NoMoreData && len(msg.result.Bars) == 0
		}
		if m.pending != nil {
			m.pending()
			m.pending = nil
		}
		return m, nil

	case barMsg:
		m.candles = candle.Upsert(m.candles, msg.c)
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	if m.width == 0 {
		return "connecting…"
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')
	b.WriteString(m.renderResolutionBar())
	b.WriteByte('\n')
	b.WriteString(m.renderChart())
	b.WriteByte('\n')
	b.WriteString(footerStyle.Render("[←/→] resolution  [q] quit"))
	return b.String()
}

// ── commands ──────────────────────────────────────────────────────────────────

// loadBars issues a first-request bar load off the Update loop.
func loadBars(f *feed.Feed, key string, viewport int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		res, err := f.GetBars(ctx, feed.BarsRequest{
			Resolution:    key,
			ViewportWidth: viewport,
			FirstRequest:  true,
		})
		return barsLoadedMsg{key: key, result: res, err: err}
	}
}

// switchResolution activates the next or previous resolution control.
func switchResolution(f *feed.Feed, current string, forward bool) tea.Cmd {
	return func() tea.Msg {
		keys := resolution.Keys()
		idx := 0
		for i, k := range keys {
			if k == current {
				idx = i
				break
			}
		}
		if forward {
			idx = (idx + 1) % len(keys)
		} else {
			idx = (idx - 1 + len(keys)) % len(keys)
		}
		f.HandleResolutionButton(keys[idx])
		return nil
	}
}

// ── header / controls ─────────────────────────────────────────────────────────

func (m model) renderHeader() string {
	res, _ := resolution.Lookup(m.resKey)
	switch {
	case m.loading:
		return headerStyle.Render(fmt.Sprintf("%s  %s  loading…", m.symbolName, res.Label))
	case m.loadErr != nil:
		return errStyle.Render(fmt.Sprintf("%s  %s  %v", m.symbolName, res.Label, m.loadErr))
	case len(m.candles) == 0:
		note := "waiting for data…"
		if m.noData {
			note = "no data"
		}
		return headerStyle.Render(fmt.Sprintf("%s  %s  %s", m.symbolName, res.Label, note))
	}
	c := m.candles[len(m.candles)-1]
	return headerStyle.Render(fmt.Sprintf(
		"%s  %s  O:%.4g  H:%.4g  L:%.4g  C:%.4g  V:%.4g  %d bars",
		m.symbolName, res.Label,
		c.Open, c.High, c.Low, c.Close, c.Volume,
		len(m.candles),
	))
}

// renderResolutionBar draws the switch controls with the current
// resolution highlighted, in registry order.
func (m model) renderResolutionBar() string {
	parts := make([]string, 0, 9)
	for _, r := range resolution.All() {
		if r.Key == m.resKey {
			parts = append(parts, activeStyle.Render(r.Label))
		} else {
			parts = append(parts, idleStyle.Render(r.Label))
		}
	}
	return strings.Join(parts, "  ")
}

// ── chart ─────────────────────────────────────────────────────────────────────

const yAxisWidth = 11 // "  12345.67 │"

func (m model) renderChart() string {
	// Reserve: header + resolution bar + x-axis line + time labels + footer.
	chartH := m.height - 5
	if chartH < 3 {
		chartH = 3
	}

	candles := m.candles
	chartW := m.width - yAxisWidth
	maxCols := chartW / 2 // each candle occupies 2 chars
	if maxCols < 1 {
		maxCols = 1
	}
	if len(candles) > maxCols {
		candles = candles[len(candles)-maxCols:]
	}
	if len(candles) == 0 {
		return ""
	}

	hi, lo := priceRange(candles)
	if hi == lo {
		hi = lo + 1
	}

	cols := len(candles) * 2
	grid := make([][]string, chartH)
	for r := range grid {
		grid[r] = make([]string, cols)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}
	for i, c := range candles {
		renderCandle(grid, c, i*2, chartH, hi, lo)
	}

	var b strings.Builder
	for row := 0; row < chartH; row++ {
		price := rowToPrice(row, chartH, hi, lo)
		b.WriteString(axisStyle.Render(fmt.Sprintf("%9.2f │", price)))
		b.WriteString(strings.Join(grid[row], ""))
		b.WriteByte('\n')
	}

	b.WriteString(axisStyle.Render(strings.Repeat("─", yAxisWidth+cols)))
	b.WriteByte('\n')

	// Time labels: one timestamp anchored every 10 candles.
	b.WriteString(strings.Repeat(" ", yAxisWidth))
	col := 0
	for i, c := range candles {
		if i%10 == 0 && col <= i*2 {
			label := time.UnixMilli(c.Time).UTC().Format("15:04")
			b.WriteString(label)
			col = i*2 + len(label)
			continue
		}
		if col <= i*2 {
			b.WriteString("  ")
			col = i*2 + 2
		}
	}

	return b.String()
}

// renderCandle paints one candle into the grid at column x (2 wide).
func renderCandle(grid [][]string, c candle.Candle, x, chartH int, hi, lo float64) {
	bullish := c.Close >= c.Open
	style := bullStyle
	if !bullish {
		style = bearStyle
	}

	fH := float64(chartH)
	bodyTop := priceToRow(math.Max(c.Open, c.Close), fH, hi, lo)
	bodyBot := priceToRow(math.Min(c.Open, c.Close), fH, hi, lo)
	wickTop := priceToRow(c.High, fH, hi, lo)
	wickBot := priceToRow(c.Low, fH, hi, lo)

	for row := 0; row < chartH; row++ {
		inBody := row >= bodyTop && row <= bodyBot
		inWick := row >= wickTop && row <= wickBot

		var left, right string
		switch {
		case inBody:
			left = style.Render("█")
			right = style.Render("█")
		case inWick:
			left = wickStyle.Render("│")
			right = " "
		default:
			left = " "
			right = " "
		}

		if x < len(grid[row]) {
			grid[row][x] = left
		}
		if x+1 < len(grid[row]) {
			grid[row][x+1] = right
		}
	}
}

// priceToRow converts a price to a grid row (0 = top = high).
func priceToRow(price, chartH float64, hi, lo float64) int {
	if hi == lo {
		return int(chartH) / 2
	}
	row := (hi - price) / (hi - lo) * (chartH - 1)
	r := int(math.Round(row))
	if r < 0 {
		r = 0
	}
	if r >= int(chartH) {
		r = int(chartH) - 1
	}
	return r
}

// rowToPrice is the inverse of priceToRow.
func rowToPrice(row, chartH int, hi, lo float64) float64 {
	if chartH <= 1 {
		return hi
	}
	return hi - float64(row)/float64(chartH-1)*(hi-lo)
}

// priceRange returns the overall high and low across the visible candles.
func priceRange(candles []candle.Candle) (hi, lo float64) {
	hi = -math.MaxFloat64
	lo = math.MaxFloat64
	for _, c := range candles {
		if c.High > hi {
			hi = c.High
		}
		if c.Low < lo {
			lo = c.Low
		}
	}
	if hi == -math.MaxFloat64 {
		hi = 0
	}
	if lo == math.MaxFloat64 {
		lo = 0
	}
	return
}
