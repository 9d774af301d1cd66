// Command snapshot fetches one page of historical candles and writes a
// static HTML kline chart, without opening a live session.
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yitech/chartfeed/adapter/huobi"
	"github.com/yitech/chartfeed/render"
	"github.com/yitech/chartfeed/resolution"
)

func main() {
	symbol := flag.String("symbol", "btcusdt", "symbol token")
	resKey := flag.String("resolution", "60", "client resolution key")
	size := flag.Int("size", 500, "number of candles (max 2000)")
	out := flag.String("out", "kline.html", "output HTML file")
	baseURL := flag.String("base-url", "", "history API base URL (default public endpoint)")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	res, err := resolution.Lookup(*resKey)
	if err != nil {
		log.Fatal().Err(err).Msg("resolution")
	}

	market := huobi.New(huobi.Config{BaseURL: *baseURL, Logger: log})
	defer market.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	bars, err := market.Fetch(ctx, *symbol, res.Period, *size)
	if err != nil {
		log.Fatal().Err(err).Msg("fetch history")
	}
	if len(bars) == 0 {
		log.Fatal().Str("symbol", *symbol).Str("period", res.Period).Msg("no data")
	}

	file, err := os.Create(*out)
	if err != nil {
		log.Fatal().Err(err).Msg("create output")
	}
	defer file.Close()

	title := strings.ToUpper(*symbol)
	if err := render.WriteKlineHTML(file, title, res.Label, bars); err != nil {
		log.Fatal().Err(err).Msg("render")
	}
	log.Info().Int("bars", len(bars)).Str("out", *out).Msg("snapshot written")
}
