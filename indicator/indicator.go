package indicator

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"

	"raccoonbt/model"
)

type MetricStyle string

const (
	StyleBar       = "bar"
	StyleScatter   = "scatter"
	StyleLine      = "line"
	StyleHistogram = "histogram"
)

type IndicatorMetric struct {
	Name   string
	Color  string
	Style  MetricStyle // default: line
	Values model.Series[float64]
}

// ChartIndicator : 차트에 같이 그릴 지표 묶음. Overlay 면 캔들 위에 겹쳐 그린다
type ChartIndicator struct {
	Time      []time.Time
	Metrics   []IndicatorMetric
	Overlay   bool
	GroupName string
	Warmup    int
}

// talib 은 lookback 구간을 0 으로 채우기 때문에 NaN 으로 바꿔서 warmup 스킵이 동작하게 한다
func nanPrefix(values []float64, lookback int) model.Series[float64] {
	for i := 0; i < lookback && i < len(values); i++ {
		values[i] = math.NaN()
	}
	return values
}

func allNaN(n int) model.Series[float64] {
	return nanPrefix(make([]float64, n), n)
}

func SMA(input model.Series[float64], period int) model.Series[float64] {
	if period < 1 || len(input) < period {
		return allNaN(len(input))
	}
	return nanPrefix(talib.Sma(input, period), period-1)
}

func EMA(input model.Series[float64], period int) model.Series[float64] {
	if period < 1 || len(input) < period {
		return allNaN(len(input))
	}
	return nanPrefix(talib.Ema(input, period), period-1)
}

func RSI(input model.Series[float64], period int) model.Series[float64] {
	if period < 2 || len(input) <= period {
		return allNaN(len(input))
	}
	return nanPrefix(talib.Rsi(input, period), period)
}

func ATR(high, low, close model.Series[float64], period int) model.Series[float64] {
	if period < 1 || len(close) <= period {
		return allNaN(len(close))
	}
	return nanPrefix(talib.Atr(high, low, close, period), period)
}

// BollingerBands returns upper, middle and lower bands
func BollingerBands(input model.Series[float64], period int, deviation float64) (model.Series[float64], model.Series[float64], model.Series[float64]) {
	if period < 2 || len(input) < period {
		return allNaN(len(input)), allNaN(len(input)), allNaN(len(input))
	}
	upper, middle, lower := talib.BBands(input, period, deviation, deviation, talib.SMA)
	return nanPrefix(upper, period-1), nanPrefix(middle, period-1), nanPrefix(lower, period-1)
}

// MACD returns macd, signal and histogram
func MACD(input model.Series[float64], fast, slow, signal int) (model.Series[float64], model.Series[float64], model.Series[float64]) {
	lookback := slow - 1 + signal - 1
	if fast < 2 || slow <= fast || signal < 1 || len(input) <= lookback {
		return allNaN(len(input)), allNaN(len(input)), allNaN(len(input))
	}
	macd, macdSignal, hist := talib.Macd(input, fast, slow, signal)
	return nanPrefix(macd, lookback), nanPrefix(macdSignal, lookback), nanPrefix(hist, lookback)
}

// Stochastic returns slow %K and %D
func Stochastic(high, low, close model.Series[float64], fastK, slowK, slowD int) (model.Series[float64], model.Series[float64]) {
	lookback := fastK - 1 + slowK - 1 + slowD - 1
	if fastK < 1 || slowK < 1 || slowD < 1 || len(close) <= lookback {
		return allNaN(len(close)), allNaN(len(close))
	}
	k, d := talib.Stoch(high, low, close, fastK, slowK, talib.SMA, slowD, talib.SMA)
	return nanPrefix(k, lookback), nanPrefix(d, lookback)
}

func Max(input model.Series[float64], period int) model.Series[float64] {
	if period < 2 || len(input) < period {
		return allNaN(len(input))
	}
	return nanPrefix(talib.Max(input, period), period-1)
}

func Min(input model.Series[float64], period int) model.Series[float64] {
	if period < 2 || len(input) < period {
		return allNaN(len(input))
	}
	return nanPrefix(talib.Min(input, period), period-1)
}
