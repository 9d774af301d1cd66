// Package render writes static HTML kline charts from candle slices,
// for snapshots taken outside a live chart session.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/yitech/chartfeed/model/candle"
)

// WriteKlineHTML renders bars as an echarts candlestick page. Bars are
// expected in ascending open-time order, as the history fetcher returns
// them.
func WriteKlineHTML(w io.Writer, title, subtitle string, bars []candle.Candle) error {
	if len(bars) == 0 {
		return fmt.Errorf("render: no bars to render")
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title}),
	)

	x := make([]string, len(bars))
	y := make([]opts.KlineData, len(bars))
	for i, c := range bars {
		x[i] = time.UnixMilli(c.Time).UTC().Format("01-02 15:04")
		// echarts candlestick order: open, close, lowest, highest.
		y[i] = opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}}
	}

	kline.SetXAxis(x).AddSeries(title, y)
	return kline.Render(w)
}
