package backtest

import "fmt"

// InvalidConfigError : 설정값이 허용 범위를 벗어남. 엔진 생성 시점에만 발생
type InvalidConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config %s=%v: %s", e.Field, e.Value, e.Reason)
}

// InsufficientDataError : warmup 에 필요한 봉 수가 부족하거나 필요한 지표 컬럼이 없음
type InsufficientDataError struct {
	Required  int
	Available int
	Column    string
}

func (e *InsufficientDataError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("insufficient data: column %q is missing or never defined", e.Column)
	}
	return fmt.Sprintf("insufficient data: need %d bars, have %d", e.Required, e.Available)
}
