package model

import "time"

// Candle : 하나의 OHLCV 봉. 백테스트에서는 Bar 와 같은 의미로 사용
type Candle struct {
	Pair   string    `json:"pair,omitempty"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	Close  float64   `json:"close"`
	Low    float64   `json:"low"`
	High   float64   `json:"high"`
	Volume float64   `json:"volume"`

	// Aditional collums from CSV inputs (precomputed indicators, model labels)
	Metadata map[string]float64 `json:"metadata,omitempty"`
}

// EquityPoint : equity curve 의 한 점
type EquityPoint struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}

// ToHeikinAshi : prev 는 직전 Heikin-Ashi 봉. 첫 봉이면 nil
func (c Candle) ToHeikinAshi(prev *Candle) Candle {
	ha := c
	ha.Close = (c.Open + c.High + c.Low + c.Close) / 4
	if prev == nil {
		ha.Open = (c.Open + c.Close) / 2
	} else {
		ha.Open = (prev.Open + prev.Close) / 2
	}
	ha.High = max(c.High, ha.Open, ha.Close)
	ha.Low = min(c.Low, ha.Open, ha.Close)
	return ha
}
