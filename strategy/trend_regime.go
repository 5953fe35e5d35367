package strategy

import (
	"raccoonbt/indicator"
	"raccoonbt/model"
)

const (
	colTrend      = "trend"
	colShortMA    = "shortMA"
	colLongMA     = "longMA"
	colRSI        = "rsi"
	colBBMid      = "bb_mid"
	colBBUp       = "bb_up"
	colBBLow      = "bb_low"
	colMACD       = "macd"
	colMACDSignal = "macdSignal"
	colMACDHist   = "macdHist"
	colStochK     = "stochK"
	colStochD     = "stochD"
)

// TrendRegime : 직전 달의 추세(상승/하락/횡보)에 따라 매매 규칙을 바꾸는 전략
// 상승장은 MA 골든크로스, 하락장은 MACD/스토캐스틱 확인, 횡보장은 볼린저+RSI 역추세
type TrendRegime struct {
	// 월 수익률(%) 기준. 이상이면 상승장, -값 이하면 하락장
	TrendThreshold float64
	ShortPeriod    int
	LongPeriod     int
}

func NewTrendRegime(threshold float64) *TrendRegime {
	if threshold <= 0 {
		threshold = 10.0
	}
	return &TrendRegime{TrendThreshold: threshold, ShortPeriod: 10, LongPeriod: 30}
}

func (s *TrendRegime) Name() string {
	return "trend_regime"
}

// WarmupPeriod : 월별 추세 분석 등 지표 계산에 필요한 최소 봉 수
func (s *TrendRegime) WarmupPeriod() int {
	return 60
}

func (s *TrendRegime) RequiredColumns() []string {
	return []string{
		colTrend, colShortMA, colLongMA, colRSI, colBBMid, colBBUp, colBBLow,
		colMACD, colMACDSignal, colStochK, colStochD,
	}
}

func (s *TrendRegime) Indicators(df *model.Dataframe) []indicator.ChartIndicator {
	if df.Len() == 0 {
		return nil
	}

	df.Metadata[colTrend] = indicator.TrendSeries(indicator.DetectMonthlyTrends(df, s.TrendThreshold))
	df.Metadata[colShortMA] = indicator.EMA(df.Close, s.ShortPeriod)
	df.Metadata[colLongMA] = indicator.EMA(df.Close, s.LongPeriod)
	df.Metadata[colRSI] = indicator.RSI(df.Close, 14)
	df.Metadata[colBBUp], df.Metadata[colBBMid], df.Metadata[colBBLow] =
		indicator.BollingerBands(df.Close, 20, 2.0)
	df.Metadata[colMACD], df.Metadata[colMACDSignal], df.Metadata[colMACDHist] =
		indicator.MACD(df.Close, 12, 26, 9)
	df.Metadata[colStochK], df.Metadata[colStochD] =
		indicator.Stochastic(df.High, df.Low, df.Close, 14, 3, 3)

	return []indicator.ChartIndicator{
		{
			Time: df.Time,
			Metrics: []indicator.IndicatorMetric{
				{Name: "shortMA", Color: "red", Style: indicator.StyleLine, Values: df.Metadata[colShortMA]},
				{Name: "longMA", Color: "blue", Style: indicator.StyleLine, Values: df.Metadata[colLongMA]},
			},
			Overlay:   true,
			GroupName: "EMA",
			Warmup:    s.WarmupPeriod(),
		},
		{
			Time: df.Time,
			Metrics: []indicator.IndicatorMetric{
				{Name: "BB Upper", Color: "gray", Style: indicator.StyleLine, Values: df.Metadata[colBBUp]},
				{Name: "BB Mid", Color: "gray", Style: indicator.StyleLine, Values: df.Metadata[colBBMid]},
				{Name: "BB Lower", Color: "gray", Style: indicator.StyleLine, Values: df.Metadata[colBBLow]},
			},
			Overlay:   true,
			GroupName: "Bollinger",
			Warmup:    s.WarmupPeriod(),
		},
		{
			Time: df.Time,
			Metrics: []indicator.IndicatorMetric{
				{Name: "MACD", Color: "blue", Style: indicator.StyleLine, Values: df.Metadata[colMACD]},
				{Name: "MACD Signal", Color: "red", Style: indicator.StyleLine, Values: df.Metadata[colMACDSignal]},
				{Name: "MACD Hist", Color: "green", Style: indicator.StyleHistogram, Values: df.Metadata[colMACDHist]},
			},
			GroupName: "MACD",
			Warmup:    s.WarmupPeriod(),
		},
		{
			Time: df.Time,
			Metrics: []indicator.IndicatorMetric{
				{Name: "RSI", Color: "purple", Style: indicator.StyleLine, Values: df.Metadata[colRSI]},
			},
			GroupName: "RSI",
			Warmup:    s.WarmupPeriod(),
		},
	}
}

// OnBar : 매수/매도 조건이 동시에 맞으면 판단을 보류한다
func (s *TrendRegime) OnBar(df *model.Dataframe) model.Signal {
	i := df.Len() - 1
	if i < 2 {
		return model.HoldSignal()
	}

	var shouldBuy, shouldSell bool
	switch indicator.TrendType(int(df.Metadata[colTrend][i])) {
	case indicator.Bullish:
		shouldBuy, shouldSell = s.bullish(df, i)
	case indicator.Bearish:
		shouldBuy, shouldSell = s.bearish(df, i)
	default:
		shouldBuy, shouldSell = s.sideways(df, i)
	}

	switch {
	case shouldBuy && shouldSell:
		return model.HoldSignal()
	case shouldBuy:
		return model.EnterLong("trend regime buy")
	case shouldSell:
		return model.ExitSignal("trend regime sell")
	}
	return model.HoldSignal()
}

// 상승장: 골든크로스 + 양봉 + 거래량 증가, 또는 저점 상승 중 양봉
func (s *TrendRegime) bullish(df *model.Dataframe, i int) (bool, bool) {
	shortMA, longMA, rsi := df.Metadata[colShortMA], df.Metadata[colLongMA], df.Metadata[colRSI]
	bullCandle := df.Close[i] > df.Open[i]

	buy := (isGoldenCross(shortMA, longMA, i) && rsi[i] < 70 && bullCandle && isIncreasingVolume(df.Volume, i)) ||
		(isIncreasingLow(df.Low, i) && bullCandle && rsi[i] < 70)
	sell := isDeathCross(shortMA, longMA, i) || rsi[i] > 70 ||
		(isDecreasingHigh(df.High, i) && df.Close[i] < df.Open[i] && rsi[i] > 30)
	return buy, sell
}

// 하락장: 매도 조건을 넓게, 매수는 여러 지표가 동시에 확인될 때만
func (s *TrendRegime) bearish(df *model.Dataframe, i int) (bool, bool) {
	shortMA, longMA, rsi := df.Metadata[colShortMA], df.Metadata[colLongMA], df.Metadata[colRSI]
	macd, macdSig := df.Metadata[colMACD], df.Metadata[colMACDSignal]
	stochK, stochD := df.Metadata[colStochK], df.Metadata[colStochD]
	closePrice := df.Close[i]

	sell := isDeathCross(shortMA, longMA, i) ||
		rsi[i] > 70 ||
		closePrice >= df.Metadata[colBBUp][i] ||
		macd[i] < macdSig[i] ||
		isDeathCross(stochK, stochD, i) ||
		(isDecreasingHigh(df.High, i) && closePrice < df.Open[i] && rsi[i] > 30)

	buy := (isGoldenCross(shortMA, longMA, i) &&
		rsi[i] < 70 &&
		closePrice <= df.Metadata[colBBLow][i] &&
		isGoldenCross(macd, macdSig, i) &&
		isGoldenCross(stochK, stochD, i)) ||
		(isIncreasingLow(df.Low, i) && closePrice > df.Open[i] && rsi[i] < 70)
	return buy, sell
}

// 박스권: 밴드 하단 절반 + RSI 과매도면 매수, 상단 절반 + 과매수면 매도
func (s *TrendRegime) sideways(df *model.Dataframe, i int) (bool, bool) {
	rsi := df.Metadata[colRSI][i]
	upper, lower := df.Metadata[colBBUp][i], df.Metadata[colBBLow][i]
	half := (upper - lower) / 2
	closePrice := df.Close[i]

	return rsi < 30 && closePrice <= lower+half, rsi > 70 && closePrice >= upper-half
}

func isGoldenCross(short, long []float64, idx int) bool {
	return idx >= 1 && short[idx] > long[idx] && short[idx-1] <= long[idx-1]
}

func isDeathCross(short, long []float64, idx int) bool {
	return idx >= 1 && short[idx] < long[idx] && short[idx-1] >= long[idx-1]
}

func isIncreasingVolume(vol []float64, idx int) bool {
	return idx >= 1 && vol[idx] > vol[idx-1]
}

func isIncreasingLow(low []float64, idx int) bool {
	return idx >= 2 && low[idx-2] < low[idx-1] && low[idx-1] < low[idx]
}

func isDecreasingHigh(high []float64, idx int) bool {
	return idx >= 2 && high[idx-2] > high[idx-1] && high[idx-1] > high[idx]
}
