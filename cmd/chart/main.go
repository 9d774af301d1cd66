package main

import (
	"flag"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/yitech/chartfeed/adapter/huobi"
	"github.com/yitech/chartfeed/config"
	"github.com/yitech/chartfeed/feed"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (defaults apply when empty)")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			log := zerolog.New(os.Stderr)
			log.Fatal().Err(err).Msg("load config")
		}
	}

	log := newLogger(cfg)

	market := huobi.New(huobi.Config{
		BaseURL: cfg.API.BaseURL,
		WSURL:   cfg.API.WSURL,
		Logger:  log,
	})
	defer market.Close()

	surface := &chartSurface{}
	f, err := feed.New(feed.Config{
		Symbol: feed.Symbol{
			Base:           cfg.Symbol.Base,
			Quote:          cfg.Symbol.Quote,
			Token:          cfg.Symbol.Token,
			PricePrecision: cfg.Symbol.PricePrecision,
			ValuePrecision: cfg.Symbol.ValuePrecision,
		},
		Resolution: cfg.Chart.Resolution,
		History:    market,
		Streamer:   market,
		Surface:    surface,
		Logger:     log,
		Mobile:     cfg.Chart.Mobile,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build feed")
	}

	info, err := f.ResolveSymbol(cfg.Symbol.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("resolve symbol")
	}

	p := tea.NewProgram(
		newModel(f, info.Name, cfg.Chart.Resolution, cfg.Chart.ViewportWidth),
		tea.WithAltScreen(),
	)
	surface.attach(p)

	if _, err := p.Run(); err != nil {
		log.Fatal().Err(err).Msg("tui error")
	}
	f.Close()
}

// newLogger builds the process logger. The TUI owns the terminal, so
// console logs go to stderr.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	if cfg.Log.Format == "console" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return log
}
