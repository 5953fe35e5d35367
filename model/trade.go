package model

import "time"

type ExitReason string

const (
	ExitReasonSignal       ExitReason = "SignalExit"
	ExitReasonStopLoss     ExitReason = "StopLoss"
	ExitReasonTakeProfit   ExitReason = "TakeProfit"
	ExitReasonTrailingStop ExitReason = "TrailingStop"
	ExitReasonEndOfSeries  ExitReason = "EndOfSeriesLiquidation"
)

// Trade : 청산 완료된 한 번의 왕복 거래. 한 번 기록되면 수정하지 않는다
type Trade struct {
	EntryTime  time.Time  `json:"entry_time"`
	ExitTime   time.Time  `json:"exit_time"`
	Side       Side       `json:"side"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Quantity   float64    `json:"quantity"`
	GrossPnl   float64    `json:"gross_pnl"`
	EntryFee   float64    `json:"entry_fee"`
	ExitFee    float64    `json:"exit_fee"`
	Fee        float64    `json:"fee"`
	NetPnl     float64    `json:"net_pnl"`
	ReturnPct  float64    `json:"return_pct"`
	ExitReason ExitReason `json:"exit_reason"`

	EntryReason string `json:"entry_reason,omitempty"`
	// 보유 기간 중 최고/최저가 (trailing stop 검증용)
	HighestSinceEntry float64 `json:"highest_since_entry"`
	LowestSinceEntry  float64 `json:"lowest_since_entry"`
}

func (t Trade) Duration() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

func (t Trade) IsWin() bool {
	return t.NetPnl > 0
}
