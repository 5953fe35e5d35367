package backtest

import (
	"fmt"
	"math"

	"github.com/StudioSol/set"

	"raccoonbt/interfaces"
	"raccoonbt/ledger"
	"raccoonbt/model"
	rlog "raccoonbt/utils/log"
)

// Engine : 전략 인스턴스 하나에 대한 봉 단위 시뮬레이션.
// Run 마다 Position/Ledger 를 새로 만들고 상태 있는 전략은 Reset 하기 때문에 같은 Engine 을 여러 번 돌려도 결과가 같다
type Engine struct {
	cfg    Config
	source interfaces.SignalSource
	exits  *ExitPolicy
}

func New(cfg Config, source interfaces.SignalSource) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, &InvalidConfigError{Field: "source", Value: nil, Reason: "signal source is required"}
	}
	return &Engine{
		cfg:    cfg,
		source: source,
		exits:  NewExitPolicy(cfg.Exit),
	}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) Source() interfaces.SignalSource {
	return e.source
}

// WarmupPeriod : 설정값과 전략 lookback 중 큰 값
func (e *Engine) WarmupPeriod() int {
	return max(e.cfg.WarmupBars, e.source.WarmupPeriod())
}

// RequiredColumns : 전략 + ATR 손절에 필요한 컬럼. 중복 없이 등록 순서 유지
func (e *Engine) RequiredColumns() []string {
	columns := set.NewLinkedHashSetString()
	columns.Add(e.source.RequiredColumns()...)
	if e.cfg.Exit.StopLossATRMultiple > 0 {
		columns.Add(e.cfg.Exit.ATRColumn)
	}
	result := make([]string, 0)
	for column := range columns.Iter() {
		result = append(result, column)
	}
	return result
}

// start : warmup 이후 모든 필수 컬럼이 정의된 첫 봉
func (e *Engine) start(df *model.Dataframe, required []string) (int, error) {
	warmup := e.WarmupPeriod()
	if df.Len() < warmup || df.Len() == 0 {
		return 0, &InsufficientDataError{Required: max(warmup, 1), Available: df.Len()}
	}
	for _, column := range required {
		if !df.HasColumn(column) {
			return 0, &InsufficientDataError{Required: warmup, Available: df.Len(), Column: column}
		}
	}
	for i := max(warmup-1, 0); i < df.Len(); i++ {
		if df.Ready(i, required...) {
			return i, nil
		}
	}
	column := ""
	if len(required) > 0 {
		column = required[0]
	}
	return 0, &InsufficientDataError{Required: warmup, Available: df.Len(), Column: column}
}

func bar(df *model.Dataframe, i int) model.Candle {
	return model.Candle{
		Pair:   df.Pair,
		Time:   df.Time[i],
		Open:   df.Open[i],
		High:   df.High[i],
		Low:    df.Low[i],
		Close:  df.Close[i],
		Volume: df.Volume[i],
	}
}

// Run : df 전체를 한 번 시뮬레이션하고 최종 Ledger 를 돌려준다. 에러가 나면 Ledger 는 nil
func (e *Engine) Run(df *model.Dataframe) (*ledger.Ledger, error) {
	if df == nil {
		return nil, &InsufficientDataError{Required: max(e.WarmupPeriod(), 1)}
	}
	if err := df.Validate(); err != nil {
		if df.Len() == 0 {
			return nil, &InsufficientDataError{Required: max(e.WarmupPeriod(), 1)}
		}
		return nil, fmt.Errorf("invalid price series: %w", err)
	}

	required := e.RequiredColumns()
	first, err := e.start(df, required)
	if err != nil {
		return nil, err
	}

	if r, ok := e.source.(interfaces.Resetter); ok {
		r.Reset()
	}

	var atr model.Series[float64]
	if e.cfg.Exit.StopLossATRMultiple > 0 {
		atr = df.Metadata[e.cfg.Exit.ATRColumn]
	}

	l := ledger.New(e.cfg.InitialCapital)
	var pos *model.Position

	for i := first; i < df.Len(); i++ {
		current := bar(df, i)

		signal := model.HoldSignal()
		if df.Ready(i, required...) {
			signal = e.source.OnBar(df.Window(i))
		}

		if pos != nil {
			pos.Observe(current)
			if reason, price, ok := e.exits.Evaluate(pos, current, signal); ok {
				trade := l.Close(pos, current.Time, price, reason, e.cfg.FeeRate)
				rlog.Debugf("[%s] exit %s %s @ %.4f net=%.4f", e.source.Name(), trade.Side, reason, price, trade.NetPnl)
				pos = nil
			}
		}

		if pos == nil && signal.IsEnter() {
			pos = e.open(l, df, i, current, signal, atr)
		}

		equity := l.Equity(pos, current.Close)
		l.Mark(current.Time, equity)
		if err := l.Reconcile(pos, current.Close); err != nil {
			return nil, fmt.Errorf("bar %d (%s): %w", i, current.Time, err)
		}
	}

	if pos != nil {
		last := bar(df, df.Len()-1)
		l.Close(pos, last.Time, last.Close, model.ExitReasonEndOfSeries, e.cfg.FeeRate)
		l.EquityCurve[len(l.EquityCurve)-1].Equity = l.FinalCapital()
		if err := l.Reconcile(nil, last.Close); err != nil {
			return nil, err
		}
	}

	rlog.Debugf("[%s] backtest done: trades=%d final=%.4f", e.source.Name(), len(l.Trades), l.FinalCapital())
	return l, nil
}

func (e *Engine) open(l *ledger.Ledger, df *model.Dataframe, i int, current model.Candle,
	signal model.Signal, atr model.Series[float64]) *model.Position {

	if signal.Side != model.SideLong && signal.Side != model.SideShort {
		rlog.Warnf("[%s] enter signal without side at bar %d, ignored", e.source.Name(), i)
		return nil
	}

	sizing, ok := Size(l.Cash, current.Close, e.cfg.Leverage, e.cfg.FeeRate, e.cfg.MinQuantity)
	if !ok {
		rlog.Debugf("[%s] skip entry at bar %d: cash=%.8f price=%.4f min_qty=%.8f",
			e.source.Name(), i, l.Cash, current.Close, e.cfg.MinQuantity)
		return nil
	}

	pos := &model.Position{
		Side:              signal.Side,
		EntryPrice:        current.Close,
		Quantity:          sizing.Quantity,
		EntryTime:         current.Time,
		EntryIndex:        i,
		EntryFee:          sizing.Fee,
		Margin:            sizing.Margin,
		HighestSinceEntry: current.Close,
		LowestSinceEntry:  current.Close,
	}
	atrValue := math.NaN()
	if atr != nil {
		atrValue = atr[i]
	}
	e.exits.Levels(pos, atrValue)
	l.Open(pos)
	rlog.Debugf("[%s] enter %s @ %.4f qty=%.8f (%s)", e.source.Name(), pos.Side, pos.EntryPrice, pos.Quantity, signal.Reason)
	return pos
}
