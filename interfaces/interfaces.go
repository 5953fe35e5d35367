package interfaces

import (
	"context"
	"time"

	"raccoonbt/indicator"
	"raccoonbt/model"
)

type DataFeeder interface {
	LastQuote(ctx context.Context, pair string) (float64, error)
	CandlesByPeriod(ctx context.Context, pair, period string, start, end time.Time) ([]model.Candle, error)
}

type Notifier interface {
	SendNotification(message string) error
}

// SignalSource : 봉마다 Hold/Enter/Exit 를 결정하는 전략. 룰 기반이든 모델 예측이든 같은 계약을 따른다
type SignalSource interface {
	Name() string
	// WarmupPeriod is the number of bars needed before the first signal can be produced.
	WarmupPeriod() int
	// RequiredColumns are the indicator columns that must be defined (non-NaN) for a bar to be decided.
	RequiredColumns() []string
	// OnBar receives the window ending at the bar being decided. It must not look past the last row.
	OnBar(df *model.Dataframe) model.Signal
}

// IndicatorProvider : 실행 전에 필요한 지표 컬럼을 df.Metadata 에 채워넣는 전략
type IndicatorProvider interface {
	// Indicators fills df.Metadata and returns what should be drawn on the chart.
	Indicators(df *model.Dataframe) []indicator.ChartIndicator
}

type RandomSource interface {
	Float64() float64
}

// Resetter : 실행 사이에 상태를 들고 있는 전략/난수원. 엔진이 Run 시작 시 호출한다
type Resetter interface {
	Reset()
}
