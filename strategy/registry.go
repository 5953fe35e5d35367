package strategy

import (
	"fmt"

	"raccoonbt/indicator"
	"raccoonbt/interfaces"
	"raccoonbt/model"
)

// Params : 설정 파일에서 넘어오는 전략 파라미터. 전략마다 쓰는 필드만 읽는다
type Params struct {
	Name string

	Fast       int
	Slow       int
	Breakout   int
	ExitPeriod int
	AllowShort bool

	TrendThreshold float64

	RSIPeriod  int
	Oversold   float64
	Overbought float64

	LabelColumn      string
	ConfidenceColumn string
	MinConfidence    float64

	// 0 < Probability < 1 이면 ProbabilityGate 로 감싼다
	Probability float64
	Seed        uint64
}

func Build(p Params) (interfaces.SignalSource, error) {
	var source interfaces.SignalSource
	switch p.Name {
	case "ema_cross":
		source = NewCrossEMA(p.Fast, p.Slow, p.AllowShort)
	case "turtle":
		source = NewTurtle(p.Breakout, p.ExitPeriod)
	case "trend_regime":
		source = NewTrendRegime(p.TrendThreshold)
	case "rsi_reversion":
		source = NewRSIReversion(p.RSIPeriod, p.Oversold, p.Overbought)
	case "prediction":
		prediction := NewPrediction(p.LabelColumn)
		prediction.ConfidenceColumn = p.ConfidenceColumn
		prediction.MinConfidence = p.MinConfidence
		prediction.AllowShort = p.AllowShort
		source = prediction
	default:
		return nil, fmt.Errorf("unknown strategy: %q", p.Name)
	}

	if p.Probability > 0 && p.Probability < 1 {
		source = NewProbabilityGate(source, p.Probability, NewSeededRandom(p.Seed))
	}
	return source, nil
}

// NewRSIReversion : RSI 과매도 진입, 과매수 청산 규칙
func NewRSIReversion(period int, oversold, overbought float64) *Rules {
	if period < 2 {
		period = 14
	}
	if oversold <= 0 {
		oversold = 30
	}
	if overbought <= oversold {
		overbought = 70
	}
	column := fmt.Sprintf("rsi%d", period)

	return NewRules("rsi_reversion", period+1, column).
		WithIndicators(func(df *model.Dataframe) []indicator.ChartIndicator {
			df.Metadata[column] = indicator.RSI(df.Close, period)
			return []indicator.ChartIndicator{{
				Time:      df.Time,
				GroupName: "RSI",
				Warmup:    period,
				Metrics: []indicator.IndicatorMetric{
					{Name: column, Color: "purple", Style: indicator.StyleLine, Values: df.Metadata[column]},
				},
			}}
		}).
		EnterWhen(model.SideLong, "rsi oversold", ColumnBelow(column, oversold)).
		ExitWhen("rsi overbought", ColumnAbove(column, overbought))
}
