package ledger

import (
	"fmt"
	"math"
	"time"

	"raccoonbt/model"
	"raccoonbt/utils/json"
)

// ReconcileTolerance : equity 검산 허용 상대오차
const ReconcileTolerance = 1e-6

// Ledger : 전략 인스턴스 하나의 현금, 실현손익, 거래내역, equity curve
type Ledger struct {
	InitialCapital float64             `json:"initial_capital"`
	Cash           float64             `json:"cash"`
	RealizedPnl    float64             `json:"realized_pnl"`
	Trades         []model.Trade       `json:"trades"`
	EquityCurve    []model.EquityPoint `json:"equity_curve"`
}

func New(initialCapital float64) *Ledger {
	return &Ledger{
		InitialCapital: initialCapital,
		Cash:           initialCapital,
		Trades:         make([]model.Trade, 0),
		EquityCurve:    make([]model.EquityPoint, 0),
	}
}

// Open : 포지션 진입. 현금 전액이 증거금+진입수수료로 빠지고, 진입수수료는 즉시 실현손익에 반영
func (l *Ledger) Open(pos *model.Position) {
	l.Cash -= pos.Margin + pos.EntryFee
	if math.Abs(l.Cash) < 1e-9 {
		l.Cash = 0
	}
	l.RealizedPnl -= pos.EntryFee
}

// Close : 포지션 청산 후 거래를 기록한다. net = gross - entryFee - exitFee
func (l *Ledger) Close(pos *model.Position, exitTime time.Time, exitPrice float64,
	reason model.ExitReason, feeRate float64) model.Trade {

	gross := pos.Gross(exitPrice)
	exitFee := exitPrice * pos.Quantity * feeRate
	net := gross - pos.EntryFee - exitFee

	l.Cash += pos.Margin + gross - exitFee
	l.RealizedPnl += gross - exitFee

	trade := model.Trade{
		EntryTime:         pos.EntryTime,
		ExitTime:          exitTime,
		Side:              pos.Side,
		EntryPrice:        pos.EntryPrice,
		ExitPrice:         exitPrice,
		Quantity:          pos.Quantity,
		GrossPnl:          gross,
		EntryFee:          pos.EntryFee,
		ExitFee:           exitFee,
		Fee:               pos.EntryFee + exitFee,
		NetPnl:            net,
		ExitReason:        reason,
		HighestSinceEntry: pos.HighestSinceEntry,
		LowestSinceEntry:  pos.LowestSinceEntry,
	}
	if cost := pos.Margin + pos.EntryFee; cost > 0 {
		trade.ReturnPct = net / cost * 100
	}
	l.Trades = append(l.Trades, trade)
	return trade
}

// Equity : cash + 증거금 + 미실현손익. flat 이면 cash
func (l *Ledger) Equity(pos *model.Position, price float64) float64 {
	if pos == nil {
		return l.Cash
	}
	return l.Cash + pos.Margin + pos.Unrealized(price)
}

// Reconcile : equity 가 initial + realized + unrealized 와 일치하는지 검사
func (l *Ledger) Reconcile(pos *model.Position, price float64) error {
	equity := l.Equity(pos, price)
	expected := l.InitialCapital + l.RealizedPnl
	if pos != nil {
		expected += pos.Unrealized(price)
	}
	scale := math.Max(1, math.Abs(expected))
	if math.Abs(equity-expected) > ReconcileTolerance*scale {
		return fmt.Errorf("ledger out of balance: equity %.8f, expected %.8f", equity, expected)
	}
	return nil
}

func (l *Ledger) Mark(t time.Time, equity float64) {
	l.EquityCurve = append(l.EquityCurve, model.EquityPoint{Time: t, Equity: equity})
}

// FinalCapital : 마지막 청산 이후의 현금
func (l *Ledger) FinalCapital() float64 {
	return l.Cash
}

func (l *Ledger) NetPnl() float64 {
	return l.FinalCapital() - l.InitialCapital
}

func (l *Ledger) Snapshot() ([]byte, error) {
	return json.SerializeBody(l)
}

func Restore(snapshot []byte) (*Ledger, error) {
	l, err := json.DeserializeBody[Ledger](snapshot)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
