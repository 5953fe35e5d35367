package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"raccoonbt/interfaces"
	"raccoonbt/model"
)

func dataframe(t *testing.T, closes []float64, columns map[string][]float64) *model.Dataframe {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{
			Time:   start.Add(time.Duration(i) * 24 * time.Hour),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 100 + float64(i),
		}
	}
	df, err := model.NewDataframe("KRW-BTC", candles)
	require.NoError(t, err)
	for name, values := range columns {
		df.Metadata[name] = values
	}
	return df
}

func TestCrossEMA_OnBar(t *testing.T) {
	up := dataframe(t, []float64{1, 1, 1}, map[string][]float64{"ema8": {1, 1, 3}, "sma21": {2, 2, 2}})
	down := dataframe(t, []float64{1, 1, 1}, map[string][]float64{"ema8": {3, 3, 1}, "sma21": {2, 2, 2}})

	cross := NewCrossEMA(8, 21, false)
	require.Equal(t, []string{"ema8", "sma21"}, cross.RequiredColumns())
	require.Equal(t, model.ActionHold, cross.OnBar(up.Window(1)).Action)
	require.Equal(t, model.EnterLong("ema crossover"), cross.OnBar(up.Window(2)))
	require.Equal(t, model.ActionExit, cross.OnBar(down.Window(2)).Action)

	short := NewCrossEMA(8, 21, true)
	signal := short.OnBar(down.Window(2))
	require.True(t, signal.IsEnter())
	require.Equal(t, model.SideShort, signal.Side)
}

func TestCrossEMA_Indicators(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/6)
	}
	df := dataframe(t, closes, nil)
	cross := NewCrossEMA(0, 0, false)
	charts := cross.Indicators(df)
	require.Len(t, charts, 1)
	require.Len(t, df.Metadata["ema8"], 60)
	require.True(t, df.Ready(cross.WarmupPeriod()-1, cross.RequiredColumns()...))
	require.False(t, df.Ready(19, cross.RequiredColumns()...))

	signals := 0
	for i := cross.WarmupPeriod() - 1; i < df.Len(); i++ {
		if cross.OnBar(df.Window(i)).Action != model.ActionHold {
			signals++
		}
	}
	require.Greater(t, signals, 0)
}

func TestTurtle_OnBar(t *testing.T) {
	turtle := NewTurtle(3, 2)
	df := dataframe(t, []float64{10, 11, 12, 9}, map[string][]float64{
		"max3": {math.NaN(), math.NaN(), 12, 12},
		"low2": {math.NaN(), 10, 11, 9},
	})
	require.Equal(t, 3, turtle.WarmupPeriod())
	require.True(t, turtle.OnBar(df.Window(2)).IsEnter())
	require.True(t, turtle.OnBar(df.Window(3)).IsExit())
}

func TestRules_FirstMatchWins(t *testing.T) {
	df := dataframe(t, []float64{1, 2}, map[string][]float64{"rsi": {50, 20}})
	rules := NewRules("test", 1, "rsi").
		ExitWhen("always", func(df *model.Dataframe) bool { return df.Close.Last(0) > 100 }).
		EnterWhen(model.SideLong, "oversold", ColumnBelow("rsi", 30)).
		ExitWhen("also oversold", ColumnBelow("rsi", 40))

	require.Equal(t, model.HoldSignal(), rules.OnBar(df.Window(0)))
	require.Equal(t, model.EnterLong("oversold"), rules.OnBar(df.Window(1)))
	require.Nil(t, rules.Indicators(df))
}

func TestRSIReversion(t *testing.T) {
	// 20봉 상승, 20봉 하락을 반복하는 삼각파
	closes := make([]float64, 80)
	for i := range closes {
		leg := i % 40
		if leg >= 20 {
			leg = 40 - leg
		}
		closes[i] = 100 + float64(leg)
	}
	df := dataframe(t, closes, nil)
	source := NewRSIReversion(14, 30, 70)
	require.NotEmpty(t, source.Indicators(df))
	require.True(t, df.HasColumn("rsi14"))

	var enters, exits int
	for i := source.WarmupPeriod(); i < df.Len(); i++ {
		switch source.OnBar(df.Window(i)).Action {
		case model.ActionEnter:
			enters++
		case model.ActionExit:
			exits++
		}
	}
	require.Greater(t, enters, 0)
	require.Greater(t, exits, 0)
}

func TestPrediction_OnBar(t *testing.T) {
	df := dataframe(t, []float64{1, 1, 1, 1}, map[string][]float64{
		"prediction": {1, -1, 0, 1},
		"confidence": {0.9, 0.9, 0.9, 0.2},
	})

	p := NewPrediction("")
	require.Equal(t, []string{"prediction"}, p.RequiredColumns())
	require.Equal(t, model.ActionEnter, p.OnBar(df.Window(0)).Action)
	require.Equal(t, model.ActionExit, p.OnBar(df.Window(1)).Action)
	require.Equal(t, model.ActionHold, p.OnBar(df.Window(2)).Action)

	p.AllowShort = true
	p.ConfidenceColumn = "confidence"
	p.MinConfidence = 0.5
	require.Equal(t, model.SideShort, p.OnBar(df.Window(1)).Side)
	require.Equal(t, model.ActionHold, p.OnBar(df.Window(3)).Action)
}

type fixedRandom struct {
	values []float64
	next   int
}

func (f *fixedRandom) Float64() float64 {
	v := f.values[f.next%len(f.values)]
	f.next++
	return v
}

func TestProbabilityGate(t *testing.T) {
	df := dataframe(t, []float64{1, 1, 1}, map[string][]float64{"prediction": {1, 1, -1}})
	random := &fixedRandom{values: []float64{0.1, 0.9}}
	gate := NewProbabilityGate(NewPrediction("prediction"), 0.5, random)

	require.True(t, gate.OnBar(df.Window(0)).IsEnter())
	require.Equal(t, model.ActionHold, gate.OnBar(df.Window(1)).Action)
	// 청산 시그널은 난수를 소비하지 않는다
	require.True(t, gate.OnBar(df.Window(2)).IsExit())
	require.Equal(t, 2, random.next)
	require.Nil(t, gate.Indicators(df))
}

func TestNewSeededRandom(t *testing.T) {
	a, b := NewSeededRandom(7), NewSeededRandom(7)
	for i := 0; i < 20; i++ {
		v := a.Float64()
		require.Equal(t, v, b.Float64())
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
	require.NotEqual(t, NewSeededRandom(1).Float64(), NewSeededRandom(2).Float64())

	first := []float64{a.Float64(), a.Float64(), a.Float64()}
	a.Reset()
	fresh := NewSeededRandom(7)
	for range first {
		require.Equal(t, fresh.Float64(), a.Float64())
	}
}

func TestProbabilityGate_Reset(t *testing.T) {
	df := dataframe(t, []float64{1, 1, 1, 1}, map[string][]float64{"prediction": {1, 1, 1, 1}})
	gate := NewProbabilityGate(NewPrediction("prediction"), 0.5, NewSeededRandom(3))

	pass := func() []bool {
		out := make([]bool, df.Len())
		for i := range out {
			out[i] = gate.OnBar(df.Window(i)).IsEnter()
		}
		return out
	}
	first := pass()
	gate.Reset()
	require.Equal(t, first, pass())
}

func TestBuild(t *testing.T) {
	for _, name := range []string{"ema_cross", "turtle", "trend_regime", "rsi_reversion", "prediction"} {
		source, err := Build(Params{Name: name})
		require.NoError(t, err, name)
		require.NotEmpty(t, source.Name())
	}

	source, err := Build(Params{Name: "turtle", Probability: 0.3, Seed: 1})
	require.NoError(t, err)
	_, gated := source.(*ProbabilityGate)
	require.True(t, gated)
	_, provides := source.(interfaces.IndicatorProvider)
	require.True(t, provides)

	_, err = Build(Params{Name: "martingale"})
	require.Error(t, err)
}

func TestTrendRegime(t *testing.T) {
	closes := make([]float64, 150)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.3 + 8*math.Sin(float64(i)/5)
	}
	df := dataframe(t, closes, nil)
	regime := NewTrendRegime(0)
	require.Len(t, regime.Indicators(df), 4)
	for _, column := range regime.RequiredColumns() {
		require.Len(t, df.Metadata[column], df.Len(), column)
	}

	for i := regime.WarmupPeriod() - 1; i < df.Len(); i++ {
		if df.Ready(i, regime.RequiredColumns()...) {
			regime.OnBar(df.Window(i))
		}
	}

	sideways := dataframe(t, []float64{100, 100, 95}, map[string][]float64{
		colTrend: {2, 2, 2},
		colRSI:   {50, 50, 25},
		colBBUp:  {110, 110, 110},
		colBBLow: {90, 90, 90},
	})
	require.True(t, regime.OnBar(sideways).IsEnter())

	sideways.Metadata[colRSI][2] = 75
	sideways.Close[2] = 108
	require.True(t, regime.OnBar(sideways).IsExit())
}
