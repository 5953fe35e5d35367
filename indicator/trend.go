package indicator

import (
	"math"

	"raccoonbt/model"
)

type TrendType int

const (
	Bullish TrendType = iota
	Bearish
	Sideways
)

func (t TrendType) String() string {
	switch t {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	default:
		return "sideways"
	}
}

// DetectMonthlyTrends : 각 봉에 직전 월(이미 끝난 달)의 추세를 붙인다.
// 첫 달은 비교할 이전 달이 없으므로 Sideways.
// 한 달 수익률이 threshold(%) 이상이면 Bullish, -threshold 이하면 Bearish
func DetectMonthlyTrends(df *model.Dataframe, threshold float64) []TrendType {
	n := df.Len()
	if n == 0 {
		return nil
	}

	trends := make([]TrendType, n)
	previous := Sideways
	monthStart := 0
	for i := 0; i < n; i++ {
		if i > 0 && df.Time[i].Format("2006-01") != df.Time[i-1].Format("2006-01") {
			previous = classify(df.Close[monthStart], df.Close[i-1], threshold)
			monthStart = i
		}
		trends[i] = previous
	}
	return trends
}

func classify(startPrice, endPrice, threshold float64) TrendType {
	if math.Abs(startPrice) < 1e-8 {
		return Sideways
	}
	returnRate := (endPrice - startPrice) / startPrice * 100.0
	switch {
	case returnRate >= threshold:
		return Bullish
	case returnRate <= -threshold:
		return Bearish
	default:
		return Sideways
	}
}

// TrendSeries : Metadata 컬럼으로 넣을 수 있게 float 로 변환
func TrendSeries(trends []TrendType) model.Series[float64] {
	series := make(model.Series[float64], len(trends))
	for i, t := range trends {
		series[i] = float64(t)
	}
	return series
}
