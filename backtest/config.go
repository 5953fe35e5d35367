package backtest

const (
	MaxFeeRate  = 0.1
	MinLeverage = 1.0
	MaxLeverage = 125.0
)

// ExitConfig : 손절/익절/트레일링 기준. 모든 비율은 소수(0.05 = 5%)이고 0 이면 해당 룰은 꺼진다
type ExitConfig struct {
	StopLossPct   float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	TakeProfitPct float64 `json:"take_profit_pct" yaml:"take_profit_pct"`

	// 수익률이 TrailingActivationPct 이상이 되면 arm, 이후 극값 대비 TrailingDistancePct 되돌리면 청산
	TrailingActivationPct float64 `json:"trailing_activation_pct" yaml:"trailing_activation_pct"`
	TrailingDistancePct   float64 `json:"trailing_distance_pct" yaml:"trailing_distance_pct"`

	// 진입봉 ATR * multiple 만큼 떨어진 곳에 손절. StopLossPct 와 같이 쓰면 더 가까운 쪽
	StopLossATRMultiple float64 `json:"stop_loss_atr_multiple" yaml:"stop_loss_atr_multiple"`
	ATRColumn           string  `json:"atr_column,omitempty" yaml:"atr_column"`
}

func (c ExitConfig) TrailingEnabled() bool {
	return c.TrailingDistancePct > 0
}

type Config struct {
	InitialCapital float64    `json:"initial_capital"`
	FeeRate        float64    `json:"fee_rate"`
	Leverage       float64    `json:"leverage"`
	MinQuantity    float64    `json:"min_quantity"`
	WarmupBars     int        `json:"warmup_bars"`
	Exit           ExitConfig `json:"exit"`
}

func DefaultConfig() Config {
	return Config{
		InitialCapital: 1_000_000,
		FeeRate:        0.0005,
		Leverage:       1,
	}
}

func (c Config) Validate() error {
	if !(c.InitialCapital > 0) {
		return &InvalidConfigError{Field: "initial_capital", Value: c.InitialCapital, Reason: "must be > 0"}
	}
	if !(c.FeeRate >= 0 && c.FeeRate <= MaxFeeRate) {
		return &InvalidConfigError{Field: "fee_rate", Value: c.FeeRate, Reason: "must be within [0, 0.1]"}
	}
	if !(c.Leverage >= MinLeverage && c.Leverage <= MaxLeverage) {
		return &InvalidConfigError{Field: "leverage", Value: c.Leverage, Reason: "must be within [1, 125]"}
	}
	if !(c.MinQuantity >= 0) {
		return &InvalidConfigError{Field: "min_quantity", Value: c.MinQuantity, Reason: "must be >= 0"}
	}
	if c.WarmupBars < 0 {
		return &InvalidConfigError{Field: "warmup_bars", Value: c.WarmupBars, Reason: "must be >= 0"}
	}
	return c.Exit.Validate()
}

func (c ExitConfig) Validate() error {
	pcts := []struct {
		field string
		value float64
	}{
		{"stop_loss_pct", c.StopLossPct},
		{"take_profit_pct", c.TakeProfitPct},
		{"trailing_activation_pct", c.TrailingActivationPct},
		{"trailing_distance_pct", c.TrailingDistancePct},
	}
	for _, p := range pcts {
		if !(p.value >= 0 && p.value < 1) {
			return &InvalidConfigError{Field: p.field, Value: p.value, Reason: "must be within [0, 1)"}
		}
	}
	if !(c.StopLossATRMultiple >= 0) {
		return &InvalidConfigError{Field: "stop_loss_atr_multiple", Value: c.StopLossATRMultiple, Reason: "must be >= 0"}
	}
	if c.StopLossATRMultiple > 0 && c.ATRColumn == "" {
		return &InvalidConfigError{Field: "atr_column", Value: c.ATRColumn, Reason: "required when stop_loss_atr_multiple is set"}
	}
	return nil
}
