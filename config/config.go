package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"raccoonbt/backtest"
	"raccoonbt/optimizer"
	"raccoonbt/strategy"
	"raccoonbt/summary"
	"raccoonbt/utils/pointer"
	"raccoonbt/utils/tools"
)

const (
	SourceUpbit = "upbit"
	SourceCSV   = "csv"

	EnvTelegramToken  = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID = "TELEGRAM_CHAT_ID"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04", "2006-01-02"}

type DataConfig struct {
	Source     string `yaml:"source" validate:"required,oneof=upbit csv"`
	Pair       string `yaml:"pair" validate:"required"`
	Timeframe  string `yaml:"timeframe" validate:"required"`
	Start      string `yaml:"start" validate:"required_if=Source upbit"`
	End        string `yaml:"end" validate:"required_if=Source upbit"`
	CSVPath    string `yaml:"csv_path" validate:"required_if=Source csv"`
	HeikinAshi bool   `yaml:"heikin_ashi"`
}

type BacktestConfig struct {
	InitialCapital float64 `yaml:"initial_capital" validate:"gt=0"`
	FeeRate        float64 `yaml:"fee_rate" validate:"gte=0,lte=0.1"`
	Leverage       float64 `yaml:"leverage" validate:"gte=1,lte=125"`
	MinQuantity    float64 `yaml:"min_quantity" validate:"gte=0"`
	WarmupBars     int     `yaml:"warmup_bars" validate:"gte=0"`
	// Exit.ATRColumn 이 비어있지 않고 데이터에 없으면 이 기간으로 ATR 을 계산해 채운다
	ATRPeriod int                 `yaml:"atr_period" validate:"gte=0"`
	Exit      backtest.ExitConfig `yaml:"exit"`
}

type StrategyConfig struct {
	Name string `yaml:"name" validate:"required,oneof=ema_cross turtle trend_regime rsi_reversion prediction"`

	Fast       int  `yaml:"fast" validate:"gte=0"`
	Slow       int  `yaml:"slow" validate:"gte=0"`
	Breakout   int  `yaml:"breakout" validate:"gte=0"`
	ExitPeriod int  `yaml:"exit_period" validate:"gte=0"`
	AllowShort bool `yaml:"allow_short"`

	TrendThreshold float64 `yaml:"trend_threshold" validate:"gte=0"`

	RSIPeriod  int     `yaml:"rsi_period" validate:"gte=0"`
	Oversold   float64 `yaml:"oversold" validate:"gte=0,lte=100"`
	Overbought float64 `yaml:"overbought" validate:"gte=0,lte=100"`

	LabelColumn      string  `yaml:"label_column"`
	ConfidenceColumn string  `yaml:"confidence_column"`
	MinConfidence    float64 `yaml:"min_confidence" validate:"gte=0,lte=1"`

	Probability float64 `yaml:"probability" validate:"gte=0,lte=1"`
	Seed        uint64  `yaml:"seed"`
}

type SlotConfig struct {
	Name     string         `yaml:"name" validate:"required"`
	Weight   float64        `yaml:"weight" validate:"gt=0"`
	Strategy StrategyConfig `yaml:"strategy"`
	// 슬롯별 청산 설정. 없으면 backtest.exit 를 쓴다
	Exit *backtest.ExitConfig `yaml:"exit"`
}

type GridConfig struct {
	optimizer.Grid `yaml:",inline"`

	// 그리드 탐색할 슬롯 이름. 비어있으면 첫 슬롯
	Slot       string `yaml:"slot"`
	Workers    int    `yaml:"workers" validate:"gte=0"`
	MetricName string `yaml:"metric" validate:"omitempty,oneof=total_return profit_factor return_over_drawdown"`
}

type OutputConfig struct {
	SummaryPath string `yaml:"summary_path"`
	ChartPath   string `yaml:"chart_path"`
	GridPath    string `yaml:"grid_path"`
	// 차트에 그릴 최근 봉 수. 0 이면 전체
	ChartBars int `yaml:"chart_bars" validate:"gte=0"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"-"`
	ChatID  string `yaml:"-"`
}

type Config struct {
	LogLevel string         `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn warning error"`
	Data     DataConfig     `yaml:"data"`
	Backtest BacktestConfig `yaml:"backtest"`
	Slots    []SlotConfig   `yaml:"slots" validate:"required,min=1,unique=Name,dive"`
	Grid     *GridConfig    `yaml:"grid"`
	Output   OutputConfig   `yaml:"output"`
	Telegram TelegramConfig `yaml:"telegram"`
}

func Default() Config {
	defaults := backtest.DefaultConfig()
	return Config{
		LogLevel: "info",
		Backtest: BacktestConfig{
			InitialCapital: defaults.InitialCapital,
			FeeRate:        defaults.FeeRate,
			Leverage:       defaults.Leverage,
			ATRPeriod:      14,
		},
		Output: OutputConfig{
			SummaryPath: "summary.json",
			ChartPath:   "chart.html",
			GridPath:    "grid.json",
		},
	}
}

// LoadFromFile : YAML 파일을 읽어 기본값 위에 덮어쓰고 검증한다. 텔레그램 키는 환경변수에서
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("설정 파일 읽기 실패: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Telegram.Token = os.Getenv(EnvTelegramToken)
	cfg.Telegram.ChatID = os.Getenv(EnvTelegramChatID)
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("설정 파일 파싱 실패: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			messages := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
				return fmt.Sprintf("%s: failed '%s' (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
			})
			return fmt.Errorf("invalid config: %s", strings.Join(messages, "; "))
		}
		return err
	}

	if _, err := tools.ParseTimeframeToDuration(c.Data.Timeframe); err != nil {
		return fmt.Errorf("data.timeframe: %w", err)
	}
	if c.Data.Source == SourceUpbit {
		if _, err := tools.MapPeriodToCandleEndpoint(c.Data.Timeframe); err != nil {
			return fmt.Errorf("data.timeframe: %w", err)
		}
	}
	if _, _, err := c.Period(); err != nil {
		return err
	}
	if c.Grid != nil {
		if _, err := c.GridSlot(); err != nil {
			return err
		}
	}

	// 엔진 설정 범위 검사는 backtest 쪽 규칙을 그대로 쓴다
	for _, slot := range c.Slots {
		if err := c.ToBacktestConfig(slot).Validate(); err != nil {
			return fmt.Errorf("slot %s: %w", slot.Name, err)
		}
	}
	return nil
}

// Period : upbit 조회 구간 [start, end)
func (c *Config) Period() (time.Time, time.Time, error) {
	if c.Data.Source != SourceUpbit {
		return time.Time{}, time.Time{}, nil
	}
	start, err := parseDate(c.Data.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("data.start: %w", err)
	}
	end, err := parseDate(c.Data.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("data.end: %w", err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("data.end must be after data.start (%s >= %s)", c.Data.Start, c.Data.End)
	}
	return start, end, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date %q", raw)
}

func (c *Config) GridSlot() (SlotConfig, error) {
	if c.Grid == nil || c.Grid.Slot == "" {
		return c.Slots[0], nil
	}
	slot, ok := lo.Find(c.Slots, func(s SlotConfig) bool { return s.Name == c.Grid.Slot })
	if !ok {
		return SlotConfig{}, fmt.Errorf("grid.slot %q is not a configured slot", c.Grid.Slot)
	}
	return slot, nil
}

func (c *Config) ToBacktestConfig(slot SlotConfig) backtest.Config {
	return backtest.Config{
		InitialCapital: c.Backtest.InitialCapital,
		FeeRate:        c.Backtest.FeeRate,
		Leverage:       c.Backtest.Leverage,
		MinQuantity:    c.Backtest.MinQuantity,
		WarmupBars:     c.Backtest.WarmupBars,
		Exit:           pointer.NotNull(slot.Exit, c.Backtest.Exit),
	}
}

func (s StrategyConfig) ToParams() strategy.Params {
	return strategy.Params{
		Name:             s.Name,
		Fast:             s.Fast,
		Slow:             s.Slow,
		Breakout:         s.Breakout,
		ExitPeriod:       s.ExitPeriod,
		AllowShort:       s.AllowShort,
		TrendThreshold:   s.TrendThreshold,
		RSIPeriod:        s.RSIPeriod,
		Oversold:         s.Oversold,
		Overbought:       s.Overbought,
		LabelColumn:      s.LabelColumn,
		ConfidenceColumn: s.ConfidenceColumn,
		MinConfidence:    s.MinConfidence,
		Probability:      s.Probability,
		Seed:             s.Seed,
	}
}

// Metric : 그리드 결과 정렬 기준. 기본은 총 수익률
func (g *GridConfig) Metric() func(summary.Summary) float64 {
	switch g.MetricName {
	case "profit_factor":
		return optimizer.ByProfitFactor
	case "return_over_drawdown":
		return optimizer.ByReturnOverDrawdown
	default:
		return optimizer.ByTotalReturn
	}
}
