package strategy

import (
	"fmt"

	"raccoonbt/indicator"
	"raccoonbt/model"
)

// https://www.investopedia.com/articles/trading/08/turtle-trading.asp
type Turtle struct {
	Breakout int
	Exit     int
}

func NewTurtle(breakout, exit int) *Turtle {
	if breakout < 2 {
		breakout = 40
	}
	if exit < 2 {
		exit = 20
	}
	return &Turtle{Breakout: breakout, Exit: exit}
}

func (e Turtle) highKey() string { return fmt.Sprintf("max%d", e.Breakout) }
func (e Turtle) lowKey() string  { return fmt.Sprintf("low%d", e.Exit) }

func (e Turtle) Name() string {
	return fmt.Sprintf("turtle_%d_%d", e.Breakout, e.Exit)
}

func (e Turtle) WarmupPeriod() int {
	return max(e.Breakout, e.Exit)
}

func (e Turtle) RequiredColumns() []string {
	return []string{e.highKey(), e.lowKey()}
}

func (e Turtle) Indicators(df *model.Dataframe) []indicator.ChartIndicator {
	df.Metadata[e.highKey()] = indicator.Max(df.Close, e.Breakout)
	df.Metadata[e.lowKey()] = indicator.Min(df.Close, e.Exit)

	return nil
}

func (e Turtle) OnBar(df *model.Dataframe) model.Signal {
	closePrice := df.Close.Last(0)
	highest := df.Metadata[e.highKey()].Last(0)
	lowest := df.Metadata[e.lowKey()].Last(0)

	// 포지션이 있으면 엔진이 같은 방향 진입을 무시한다
	if closePrice >= highest {
		return model.EnterLong(fmt.Sprintf("%d bar breakout", e.Breakout))
	}

	if closePrice <= lowest {
		return model.ExitSignal(fmt.Sprintf("%d bar low", e.Exit))
	}
	return model.HoldSignal()
}
