package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"raccoonbt/model"
)

func TestSMA(t *testing.T) {
	sma := SMA(model.Series[float64]{1, 2, 3, 4, 5}, 3)
	require.Len(t, sma, 5)
	require.True(t, math.IsNaN(sma[0]))
	require.True(t, math.IsNaN(sma[1]))
	require.InDelta(t, 2.0, sma[2], 1e-9)
	require.InDelta(t, 4.0, sma[4], 1e-9)
}

func TestEMA_SeedsWithSMA(t *testing.T) {
	ema := EMA(model.Series[float64]{1, 2, 3, 4, 5}, 3)
	require.True(t, math.IsNaN(ema[1]))
	require.InDelta(t, 2.0, ema[2], 1e-9)
	require.InDelta(t, 3.0, ema[3], 1e-9)
}

func TestMaxMin(t *testing.T) {
	values := model.Series[float64]{1, 3, 2, 5, 4}
	maxs := Max(values, 2)
	mins := Min(values, 2)
	require.True(t, math.IsNaN(maxs[0]))
	require.Equal(t, []float64{3, 3, 5, 5}, []float64(maxs[1:]))
	require.Equal(t, []float64{1, 2, 2, 4}, []float64(mins[1:]))
}

func TestShortInputIsAllNaN(t *testing.T) {
	short := model.Series[float64]{1, 2}
	for _, series := range []model.Series[float64]{SMA(short, 5), EMA(short, 5), RSI(short, 14), Max(short, 3)} {
		require.Len(t, series, 2)
		for _, v := range series {
			require.True(t, math.IsNaN(v))
		}
	}
}

func TestRSIAndATRLookback(t *testing.T) {
	n := 40
	closes := make(model.Series[float64], n)
	highs := make(model.Series[float64], n)
	lows := make(model.Series[float64], n)
	for i := 0; i < n; i++ {
		closes[i] = 100 + math.Sin(float64(i))*5
		highs[i] = closes[i] + 1
		lows[i] = closes[i] - 1
	}

	rsi := RSI(closes, 14)
	require.True(t, math.IsNaN(rsi[13]))
	require.False(t, math.IsNaN(rsi[14]))
	require.GreaterOrEqual(t, rsi[20], 0.0)
	require.LessOrEqual(t, rsi[20], 100.0)

	atr := ATR(highs, lows, closes, 14)
	require.True(t, math.IsNaN(atr[13]))
	require.Greater(t, atr[14], 0.0)

	upper, middle, lower := BollingerBands(closes, 20, 2)
	require.True(t, math.IsNaN(middle[18]))
	require.Greater(t, upper[30], middle[30])
	require.Less(t, lower[30], middle[30])

	macd, signal, _ := MACD(closes, 12, 26, 9)
	require.True(t, math.IsNaN(macd[32]))
	require.False(t, math.IsNaN(signal[33]))

	k, d := Stochastic(highs, lows, closes, 14, 3, 3)
	require.True(t, math.IsNaN(k[16]))
	require.False(t, math.IsNaN(d[17]))
}

func TestDetectMonthlyTrends(t *testing.T) {
	candles := []model.Candle{
		{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: 100},
		{Time: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), Close: 120},
		{Time: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Close: 120},
		{Time: time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), Close: 90},
		{Time: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Close: 90},
	}
	df, err := model.NewDataframe("KRW-BTC", candles)
	require.NoError(t, err)

	trends := DetectMonthlyTrends(df, 5)
	require.Equal(t, []TrendType{Sideways, Sideways, Bullish, Bullish, Bearish}, trends)
	require.Equal(t, model.Series[float64]{2, 2, 0, 0, 1}, TrendSeries(trends))
	require.Equal(t, "bearish", Bearish.String())
}
