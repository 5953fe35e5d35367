package model

import (
	"math"
	"time"
)

// Position : 전략 인스턴스 하나가 들고 있는 단일 포지션. flat 상태는 nil 로 표현
type Position struct {
	Side       Side      `json:"side"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
	EntryTime  time.Time `json:"entry_time"`
	EntryIndex int       `json:"entry_index"`

	// 진입 수수료(이미 실현손익에서 차감됨)와 증거금
	EntryFee float64 `json:"entry_fee"`
	Margin   float64 `json:"margin"`

	HighestSinceEntry float64 `json:"highest_since_entry"`
	LowestSinceEntry  float64 `json:"lowest_since_entry"`
	TrailArmed        bool    `json:"trail_armed"`

	// 진입 시점에 고정되는 손절/익절 가격. 0 이면 비활성
	StopPrice   float64 `json:"stop_price,omitempty"`
	TargetPrice float64 `json:"target_price,omitempty"`
}

// Direction : long = +1, short = -1
func (p *Position) Direction() float64 {
	if p.Side == SideShort {
		return -1
	}
	return 1
}

// Observe : 진입 이후 최고가/최저가 갱신. 최고가는 내려가지 않고 최저가는 올라가지 않는다
func (p *Position) Observe(bar Candle) {
	p.HighestSinceEntry = math.Max(p.HighestSinceEntry, bar.High)
	p.LowestSinceEntry = math.Min(p.LowestSinceEntry, bar.Low)
}

// Gross : price 에 청산했을 때의 수수료 제외 손익
func (p *Position) Gross(price float64) float64 {
	return (price - p.EntryPrice) * p.Quantity * p.Direction()
}

// Unrealized is the mark-to-market PnL at price
func (p *Position) Unrealized(price float64) float64 {
	return p.Gross(price)
}

// BestPrice : 포지션에 유리한 방향의 극값 (long=최고가, short=최저가)
func (p *Position) BestPrice() float64 {
	if p.Side == SideShort {
		return p.LowestSinceEntry
	}
	return p.HighestSinceEntry
}
