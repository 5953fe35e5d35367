package strategy

import (
	"fmt"

	"raccoonbt/indicator"
	"raccoonbt/model"
)

// CrossEMA : 빠른 EMA 가 느린 SMA 를 상향 돌파하면 매수, 하향 돌파하면 청산(또는 숏)
type CrossEMA struct {
	Fast       int
	Slow       int
	AllowShort bool
}

func NewCrossEMA(fast, slow int, allowShort bool) *CrossEMA {
	if fast <= 0 {
		fast = 8
	}
	if slow <= fast {
		slow = 21
	}
	return &CrossEMA{Fast: fast, Slow: slow, AllowShort: allowShort}
}

func (e CrossEMA) fastKey() string { return fmt.Sprintf("ema%d", e.Fast) }
func (e CrossEMA) slowKey() string { return fmt.Sprintf("sma%d", e.Slow) }

func (e CrossEMA) Name() string {
	return fmt.Sprintf("ema_cross_%d_%d", e.Fast, e.Slow)
}

func (e CrossEMA) WarmupPeriod() int {
	return e.Slow + 1
}

func (e CrossEMA) RequiredColumns() []string {
	return []string{e.fastKey(), e.slowKey()}
}

func (e CrossEMA) Indicators(df *model.Dataframe) []indicator.ChartIndicator {
	df.Metadata[e.fastKey()] = indicator.EMA(df.Close, e.Fast)
	df.Metadata[e.slowKey()] = indicator.SMA(df.Close, e.Slow)

	return []indicator.ChartIndicator{
		{
			Overlay:   true,
			GroupName: "MA's",
			Time:      df.Time,
			Warmup:    e.WarmupPeriod(),
			Metrics: []indicator.IndicatorMetric{
				{
					Values: df.Metadata[e.fastKey()],
					Name:   fmt.Sprintf("EMA %d", e.Fast),
					Color:  "red",
					Style:  indicator.StyleLine,
				},
				{
					Values: df.Metadata[e.slowKey()],
					Name:   fmt.Sprintf("SMA %d", e.Slow),
					Color:  "blue",
					Style:  indicator.StyleLine,
				},
			},
		},
	}
}

func (e CrossEMA) OnBar(df *model.Dataframe) model.Signal {
	fast := df.Metadata[e.fastKey()]
	slow := df.Metadata[e.slowKey()]

	if fast.Crossover(slow) { // trade signal (EMA > SMA)
		return model.EnterLong("ema crossover")
	}

	if fast.Crossunder(slow) { // trade signal (EMA < SMA)
		if e.AllowShort {
			return model.EnterShort("ema crossunder")
		}
		return model.ExitSignal("ema crossunder")
	}
	return model.HoldSignal()
}
