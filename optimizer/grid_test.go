package optimizer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"raccoonbt/backtest"
	"raccoonbt/interfaces"
	"raccoonbt/model"
	"raccoonbt/strategy"
	"raccoonbt/summary"
)

func predictionFrame(t *testing.T, n int) *model.Dataframe {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]model.Candle, n)
	prev := 100.0
	for i := 0; i < n; i++ {
		c := 100 + 10*math.Sin(float64(i)/4)
		label := 0.0
		switch {
		case i%10 == 0:
			label = 1
		case i%10 == 6:
			label = -1
		}
		candles[i] = model.Candle{
			Time:     start.Add(time.Duration(i) * time.Hour),
			Open:     prev,
			High:     math.Max(prev, c) * 1.005,
			Low:      math.Min(prev, c) * 0.995,
			Close:    c,
			Volume:   1,
			Metadata: map[string]float64{"prediction": label},
		}
		prev = c
	}
	df, err := model.NewDataframe("KRW-ETH", candles)
	require.NoError(t, err)
	return df
}

func builder() (interfaces.SignalSource, error) {
	return strategy.NewPrediction("prediction"), nil
}

func TestGrid_Combinations(t *testing.T) {
	grid := Grid{StopLoss: []float64{0.01, 0.02, 0.02}, TakeProfit: []float64{0.03, 0.05}}
	base := backtest.ExitConfig{StopLossATRMultiple: 2, ATRColumn: "atr"}

	combos := grid.Combinations(base)
	require.Len(t, combos, 4)
	require.Equal(t, 0.01, combos[0].StopLossPct)
	require.Equal(t, 0.03, combos[0].TakeProfitPct)
	require.Equal(t, 0.02, combos[3].StopLossPct)
	require.Equal(t, 0.05, combos[3].TakeProfitPct)
	for _, combo := range combos {
		require.Equal(t, "atr", combo.ATRColumn)
		require.Zero(t, combo.TrailingDistancePct)
	}

	require.Len(t, Grid{}.Combinations(backtest.ExitConfig{}), 1)
}

func TestRun_DeterministicAcrossWorkers(t *testing.T) {
	df := predictionFrame(t, 200)
	base := backtest.Config{InitialCapital: 1000, FeeRate: 0.0005, Leverage: 1}
	combos := Grid{
		StopLoss:           []float64{0, 0.02},
		TakeProfit:         []float64{0, 0.04},
		TrailingActivation: []float64{0.01},
		TrailingDistance:   []float64{0, 0.01},
	}.Combinations(base.Exit)

	serial, err := Run(context.Background(), df, base, builder, combos, 1)
	require.NoError(t, err)
	parallel, err := Run(context.Background(), df, base, builder, combos, 4)
	require.NoError(t, err)

	require.Len(t, serial, len(combos))
	for i := range serial {
		require.NoError(t, serial[i].Err)
		require.Equal(t, i, parallel[i].Index)
		require.Equal(t, combos[i], parallel[i].Exit)
		require.Equal(t, serial[i].Summary, parallel[i].Summary)
	}

	best, ok := Best(parallel, ByTotalReturn)
	require.True(t, ok)
	for _, r := range parallel {
		require.LessOrEqual(t, r.Summary.TotalReturnPct, best.Summary.TotalReturnPct)
	}
}

func TestRun_Errors(t *testing.T) {
	df := predictionFrame(t, 20)
	base := backtest.Config{InitialCapital: 1000, Leverage: 1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, df, base, builder, []backtest.ExitConfig{{}, {}}, 2)
	require.ErrorIs(t, err, context.Canceled)

	failing := func() (interfaces.SignalSource, error) { return nil, errors.New("boom") }
	results, err := Run(context.Background(), df, base, failing, []backtest.ExitConfig{{}}, 2)
	require.NoError(t, err)
	require.Error(t, results[0].Err)

	_, ok := Best(results, ByProfitFactor)
	require.False(t, ok)
}

func TestMetrics(t *testing.T) {
	require.Equal(t, 10.0, ByReturnOverDrawdown(summary.Summary{TotalReturnPct: 10}))
	require.Equal(t, 2.0, ByReturnOverDrawdown(summary.Summary{TotalReturnPct: 10, MaxDrawdownPct: 5}))
}
