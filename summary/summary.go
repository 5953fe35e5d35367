package summary

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"raccoonbt/ledger"
	"raccoonbt/model"
	"raccoonbt/utils/json"
)

// 손실 거래가 없을 때의 profit factor 상한
const MaxProfitFactor = 999

type Summary struct {
	Name string `json:"name"`

	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate_pct"`

	InitialCapital float64 `json:"initial_capital"`
	FinalCapital   float64 `json:"final_capital"`
	TotalReturnPct float64 `json:"total_return_pct"`
	NetPnl         float64 `json:"net_pnl"`
	GrossPnl       float64 `json:"gross_pnl"`
	Fees           float64 `json:"fees"`
	ProfitFactor   float64 `json:"profit_factor"`
	AvgNetPnl      float64 `json:"avg_net_pnl"`
	BestTrade      float64 `json:"best_trade"`
	WorstTrade     float64 `json:"worst_trade"`

	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`

	ExitReasons map[model.ExitReason]int `json:"exit_reasons"`
	AvgHolding  time.Duration            `json:"avg_holding_ns"`
	// 전체 구간 중 포지션을 들고 있던 시간 비율 (0~1)
	Exposure float64 `json:"exposure"`
}

func Summarize(name string, l *ledger.Ledger) Summary {
	trades := l.Trades
	s := Summary{
		Name:           name,
		Trades:         len(trades),
		InitialCapital: l.InitialCapital,
		FinalCapital:   l.FinalCapital(),
		ExitReasons:    make(map[model.ExitReason]int),
	}
	if l.InitialCapital > 0 {
		s.TotalReturnPct = (s.FinalCapital - l.InitialCapital) / l.InitialCapital * 100
	}

	winners, losers := lo.FilterReject(trades, func(t model.Trade, _ int) bool { return t.IsWin() })
	s.Wins, s.Losses = len(winners), len(losers)

	s.NetPnl = lo.SumBy(trades, func(t model.Trade) float64 { return t.NetPnl })
	s.GrossPnl = lo.SumBy(trades, func(t model.Trade) float64 { return t.GrossPnl })
	s.Fees = lo.SumBy(trades, func(t model.Trade) float64 { return t.Fee })

	for reason, group := range lo.GroupBy(trades, func(t model.Trade) model.ExitReason { return t.ExitReason }) {
		s.ExitReasons[reason] = len(group)
	}

	if len(trades) > 0 {
		s.WinRate = float64(s.Wins) / float64(len(trades)) * 100
		s.AvgNetPnl = s.NetPnl / float64(len(trades))
		s.BestTrade = lo.MaxBy(trades, func(a, b model.Trade) bool { return a.NetPnl > b.NetPnl }).NetPnl
		s.WorstTrade = lo.MinBy(trades, func(a, b model.Trade) bool { return a.NetPnl < b.NetPnl }).NetPnl

		held := lo.SumBy(trades, func(t model.Trade) time.Duration { return t.Duration() })
		s.AvgHolding = held / time.Duration(len(trades))
		if len(l.EquityCurve) > 1 {
			window := l.EquityCurve[len(l.EquityCurve)-1].Time.Sub(l.EquityCurve[0].Time)
			if window > 0 {
				s.Exposure = math.Min(1, float64(held)/float64(window))
			}
		}
	}

	grossWin := lo.SumBy(winners, func(t model.Trade) float64 { return t.NetPnl })
	grossLoss := -lo.SumBy(losers, func(t model.Trade) float64 { return t.NetPnl })
	switch {
	case grossLoss > 0:
		s.ProfitFactor = grossWin / grossLoss
	case grossWin > 0:
		s.ProfitFactor = MaxProfitFactor
	}

	s.MaxDrawdown, s.MaxDrawdownPct = MaxDrawdown(l.EquityCurve)
	return s
}

// MaxDrawdown : equity curve 의 최대 고점 대비 하락폭 (금액, %)
func MaxDrawdown(curve []model.EquityPoint) (float64, float64) {
	if len(curve) == 0 {
		return 0, 0
	}
	peak := curve[0].Equity
	var mdd, mddPct float64
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		drawdown := peak - p.Equity
		if drawdown > mdd {
			mdd = drawdown
		}
		if peak > 0 {
			mddPct = math.Max(mddPct, drawdown/peak*100)
		}
	}
	return mdd, mddPct
}

func WriteJSON(w io.Writer, summaries []Summary) error {
	return json.WriteIndent(w, summaries)
}

// Text : 텔레그램/로그용 요약 문자열
func (s Summary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", s.Name)
	fmt.Fprintf(&b, "거래 %d회 (승 %d / 패 %d, 승률 %.2f%%)\n", s.Trades, s.Wins, s.Losses, s.WinRate)
	fmt.Fprintf(&b, "자본 %.2f -> %.2f (%.2f%%)\n", s.InitialCapital, s.FinalCapital, s.TotalReturnPct)
	fmt.Fprintf(&b, "순손익 %.2f, 수수료 %.2f, PF %.2f\n", s.NetPnl, s.Fees, s.ProfitFactor)
	fmt.Fprintf(&b, "MDD %.2f (%.2f%%)", s.MaxDrawdown, s.MaxDrawdownPct)

	reasons := lo.Keys(s.ExitReasons)
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	for _, reason := range reasons {
		fmt.Fprintf(&b, "\n- %s: %d", reason, s.ExitReasons[reason])
	}
	return b.String()
}
