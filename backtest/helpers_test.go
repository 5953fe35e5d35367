package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"raccoonbt/model"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// ohlc : open, high, low, close
type ohlc [4]float64

func flat(closes ...float64) []ohlc {
	rows := make([]ohlc, len(closes))
	for i, c := range closes {
		rows[i] = ohlc{c, c, c, c}
	}
	return rows
}

func frame(t *testing.T, rows []ohlc, columns map[string][]float64) *model.Dataframe {
	t.Helper()
	candles := make([]model.Candle, len(rows))
	for i, r := range rows {
		candles[i] = model.Candle{
			Time:   t0.Add(time.Duration(i) * time.Hour),
			Open:   r[0],
			High:   r[1],
			Low:    r[2],
			Close:  r[3],
			Volume: 1,
		}
	}
	df, err := model.NewDataframe("KRW-BTC", candles)
	require.NoError(t, err)
	for name, values := range columns {
		require.Len(t, values, len(rows))
		df.Metadata[name] = values
	}
	return df
}

// scripted : 봉 인덱스별로 미리 정해둔 시그널을 돌려주는 테스트용 전략
type scripted struct {
	warmup  int
	columns []string
	signals map[int]model.Signal
	calls   []int
}

func (s *scripted) Name() string              { return "scripted" }
func (s *scripted) WarmupPeriod() int         { return s.warmup }
func (s *scripted) RequiredColumns() []string { return s.columns }

func (s *scripted) OnBar(df *model.Dataframe) model.Signal {
	i := df.Len() - 1
	s.calls = append(s.calls, i)
	if signal, ok := s.signals[i]; ok {
		return signal
	}
	return model.HoldSignal()
}

func zeroFee(capital float64) Config {
	return Config{InitialCapital: capital, FeeRate: 0, Leverage: 1}
}

func netSum(trades []model.Trade) float64 {
	var sum float64
	for _, trade := range trades {
		sum += trade.NetPnl
	}
	return sum
}

// zigzag : 추세와 진동이 섞인 결정적 가격열
func zigzag(n int) []ohlc {
	rows := make([]ohlc, n)
	prev := 100.0
	for i := 0; i < n; i++ {
		c := 100 + 0.1*float64(i) + 8*math.Sin(float64(i)/5) + 3*math.Sin(float64(i)*1.7)
		high := math.Max(prev, c) * 1.01
		low := math.Min(prev, c) * 0.99
		rows[i] = ohlc{prev, high, low, c}
		prev = c
	}
	return rows
}
