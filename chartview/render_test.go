package chartview

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"raccoonbt/indicator"
	"raccoonbt/ledger"
	"raccoonbt/model"
)

func sampleFrame(t *testing.T, n int) *model.Dataframe {
	t.Helper()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]model.Candle, n)
	for i := range candles {
		price := 100 + float64(i%7)
		candles[i] = model.Candle{
			Time:  start.Add(time.Duration(i) * time.Hour),
			Open:  price,
			High:  price + 1,
			Low:   price - 1,
			Close: price + 0.5,
		}
	}
	df, err := model.NewDataframe("KRW-BTC", candles)
	require.NoError(t, err)
	return df
}

func TestRender(t *testing.T) {
	df := sampleFrame(t, 30)
	l := ledger.New(1000)
	l.Trades = append(l.Trades, model.Trade{
		Side:       model.SideLong,
		EntryTime:  df.Time[5],
		EntryPrice: df.Close[5],
		ExitTime:   df.Time[12],
		ExitPrice:  df.Close[12],
		ExitReason: model.ExitReasonTakeProfit,
	})
	for i, tm := range df.Time {
		l.Mark(tm, 1000+float64(i))
	}

	sma := indicator.SMA(df.Close, 5)
	rsi := indicator.RSI(df.Close, 14)

	var buf bytes.Buffer
	err := Render(&buf, "ema_cross", df, l,
		indicator.ChartIndicator{Overlay: true, GroupName: "MA", Time: df.Time, Warmup: 5,
			Metrics: []indicator.IndicatorMetric{{Name: "SMA 5", Color: "red", Values: sma}}},
		indicator.ChartIndicator{GroupName: "RSI", Time: df.Time,
			Metrics: []indicator.IndicatorMetric{{Name: "RSI 14", Color: "purple", Values: rsi}}},
	)
	require.NoError(t, err)

	html := buf.String()
	require.Contains(t, html, "echarts")
	require.Contains(t, html, "ema_cross")
	require.Contains(t, html, "Equity")
	require.Contains(t, html, "SMA 5")
}

func TestRender_NoCandles(t *testing.T) {
	var buf bytes.Buffer
	require.ErrorIs(t, Render(&buf, "empty", nil, nil), ErrNoCandles)
	require.Zero(t, buf.Len())
}

func TestLineData(t *testing.T) {
	values := model.Series[float64]{math.NaN(), 2, 3}

	data := lineData(values, 0, 5)
	require.Len(t, data, 5)
	require.Equal(t, empty, data[0].Value)
	require.Equal(t, empty, data[1].Value)
	require.Equal(t, empty, data[2].Value)
	require.Equal(t, 2.0, data[3].Value)
	require.Equal(t, 3.0, data[4].Value)

	data = lineData(values, 2, 3)
	require.Equal(t, empty, data[1].Value)
	require.Equal(t, 3.0, data[2].Value)
}
