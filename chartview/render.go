package chartview

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"raccoonbt/indicator"
	"raccoonbt/ledger"
	"raccoonbt/model"
)

const timeLayout = "2006-01-02 15:04"

// echarts 는 "-" 를 빈 값으로 취급한다. NaN 은 json 인코딩이 안됨
const empty = "-"

var ErrNoCandles = errors.New("chartview: no candles to render")

// Render : 캔들 + 진입/청산 마크 + 지표 + equity curve 를 하나의 html 페이지로 그린다
func Render(w io.Writer, title string, df *model.Dataframe, l *ledger.Ledger, indicators ...indicator.ChartIndicator) error {
	if df == nil || df.Len() == 0 {
		return ErrNoCandles
	}

	page := components.NewPage()
	page.PageTitle = title

	xAxis := make([]string, df.Len())
	index := make(map[time.Time]int, df.Len())
	for i, t := range df.Time {
		xAxis[i] = t.Format(timeLayout)
		index[t] = i
	}

	kline := buildCandleChart(title, df, xAxis)
	for _, ind := range indicators {
		if ind.Overlay {
			kline.Overlap(buildIndicatorLine(ind, xAxis))
		}
	}
	if l != nil {
		kline.Overlap(buildTradeMarks(l.Trades, index, xAxis))
	}
	page.AddCharts(kline)

	for _, ind := range indicators {
		if !ind.Overlay {
			page.AddCharts(buildIndicatorLine(ind, xAxis))
		}
	}

	if l != nil && len(l.EquityCurve) > 0 {
		page.AddCharts(buildEquityChart(l.EquityCurve))
	}

	return page.Render(w)
}

func buildCandleChart(title string, df *model.Dataframe, xAxis []string) *charts.Kline {
	kValues := make([]opts.KlineData, df.Len())
	// go-echarts Kline은 [open, close, low, high] 순서
	for i := range kValues {
		kValues[i] = opts.KlineData{
			Value: [4]float64{df.Open[i], df.Close[i], df.Low[i], df.High[i]},
		}
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: df.Pair,
			Show:     opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:  "slider",
			Start: 0,
			End:   100,
		}),
	)
	kline.SetXAxis(xAxis).
		AddSeries("KLine", kValues).
		SetSeriesOptions(charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        "#ec0000",
			Color0:       "#00da3c",
			BorderColor:  "#8A0000",
			BorderColor0: "#008F28",
		}))
	return kline
}

// buildTradeMarks : 거래별 진입/청산 지점을 scatter 로 표시
func buildTradeMarks(trades []model.Trade, index map[time.Time]int, xAxis []string) *charts.Scatter {
	longEntry := blankScatter(len(xAxis))
	shortEntry := blankScatter(len(xAxis))
	exits := blankScatter(len(xAxis))

	for _, t := range trades {
		if i, ok := index[t.EntryTime]; ok {
			if t.Side == model.SideLong {
				longEntry[i].Value = t.EntryPrice
			} else {
				shortEntry[i].Value = t.EntryPrice
			}
		}
		if i, ok := index[t.ExitTime]; ok {
			exits[i].Value = t.ExitPrice
			exits[i].Name = string(t.ExitReason)
		}
	}

	scatter := charts.NewScatter()
	scatter.SetXAxis(xAxis).
		AddSeries("Long", longEntry, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#1f77b4"})).
		AddSeries("Short", shortEntry, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff7f0e"})).
		AddSeries("Exit", exits, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#333333"}))
	return scatter
}

func blankScatter(n int) []opts.ScatterData {
	data := make([]opts.ScatterData, n)
	for i := range data {
		data[i] = opts.ScatterData{Value: empty, Symbol: "triangle", SymbolSize: 12}
	}
	return data
}

func buildIndicatorLine(ind indicator.ChartIndicator, xAxis []string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: ind.GroupName,
			Show:  opts.Bool(!ind.Overlay),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
	)
	line.SetXAxis(xAxis)
	for _, m := range ind.Metrics {
		line.AddSeries(m.Name, lineData(m.Values, ind.Warmup, len(xAxis)),
			charts.WithLineStyleOpts(opts.LineStyle{Color: m.Color}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: m.Color}),
		)
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{
		Smooth:     opts.Bool(true),
		ShowSymbol: opts.Bool(false),
	}))
	return line
}

// lineData : warmup 구간과 NaN 은 빈 값으로. 지표 길이가 캔들보다 짧으면 앞을 비운다
func lineData(values model.Series[float64], warmup, n int) []opts.LineData {
	data := make([]opts.LineData, n)
	offset := n - len(values)
	for i := range data {
		j := i - offset
		if j < 0 || j < warmup || j >= len(values) || math.IsNaN(values[j]) || math.IsInf(values[j], 0) {
			data[i] = opts.LineData{Value: empty}
			continue
		}
		data[i] = opts.LineData{Value: values[j]}
	}
	return data
}

func buildEquityChart(curve []model.EquityPoint) *charts.Line {
	xAxis := make([]string, len(curve))
	values := make([]opts.LineData, len(curve))
	for i, p := range curve {
		xAxis[i] = p.Time.Format(timeLayout)
		values[i] = opts.LineData{Value: p.Equity}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Equity",
			Subtitle: fmt.Sprintf("%.2f -> %.2f", curve[0].Equity, curve[len(curve)-1].Equity),
			Show:     opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
	)
	line.SetXAxis(xAxis).
		AddSeries("Equity", values).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{
			ShowSymbol: opts.Bool(false),
		}))
	return line
}
