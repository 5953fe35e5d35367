package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"raccoonbt/backtest"
	"raccoonbt/chartview"
	"raccoonbt/config"
	"raccoonbt/exchange"
	"raccoonbt/feed"
	"raccoonbt/indicator"
	"raccoonbt/interfaces"
	"raccoonbt/model"
	"raccoonbt/notification"
	"raccoonbt/optimizer"
	"raccoonbt/strategy"
	"raccoonbt/summary"
	"raccoonbt/utils/json"
	rlog "raccoonbt/utils/log"
)

type slotSetup struct {
	slot   backtest.Slot
	charts []indicator.ChartIndicator
}

// run : 데이터 로드 -> 지표 계산 -> 슬롯 실행 -> (그리드) -> 결과 저장 -> 알림
// feeder 가 nil 이면 업비트 시세 API 를 쓴다
func run(ctx context.Context, cfg *config.Config, feeder interfaces.DataFeeder) error {
	setups := make([]slotSetup, 0, len(cfg.Slots))
	warmup := cfg.Backtest.WarmupBars
	for _, sc := range cfg.Slots {
		source, err := strategy.Build(sc.Strategy.ToParams())
		if err != nil {
			return fmt.Errorf("slot %s: %w", sc.Name, err)
		}
		warmup = max(warmup, source.WarmupPeriod())
		setups = append(setups, slotSetup{slot: backtest.Slot{
			Name:   sc.Name,
			Weight: sc.Weight,
			Source: source,
			Config: cfg.ToBacktestConfig(sc),
		}})
	}

	df, err := loadDataframe(ctx, cfg, feeder, warmup)
	if err != nil {
		return err
	}
	rlog.Infof("[SETUP] %s %s: %d candles (%s ~ %s)", cfg.Data.Pair, cfg.Data.Timeframe, df.Len(),
		df.Time[0].Format("2006-01-02 15:04"), df.Time[df.Len()-1].Format("2006-01-02 15:04"))

	slots := make([]backtest.Slot, len(setups))
	for i := range setups {
		if provider, ok := setups[i].slot.Source.(interfaces.IndicatorProvider); ok {
			setups[i].charts = provider.Indicators(df)
		}
		prepareATR(df, setups[i].slot.Config.Exit, cfg.Backtest.ATRPeriod)
		slots[i] = setups[i].slot
	}

	allocation, err := backtest.RunSlots(df, cfg.Backtest.InitialCapital, slots)
	if err != nil {
		return err
	}

	summaries := make([]summary.Summary, len(allocation.Results))
	for i, result := range allocation.Results {
		summaries[i] = summary.Summarize(result.Name, result.Ledger)
		rlog.Infof("\n%s", summaries[i].Text())
	}
	if err := writeFile(cfg.Output.SummaryPath, func(f *os.File) error {
		return summary.WriteJSON(f, summaries)
	}); err != nil {
		return err
	}

	chartDF := df
	if cfg.Output.ChartBars > 0 {
		sampled := df.Sample(cfg.Output.ChartBars)
		chartDF = &sampled
	}
	for i, result := range allocation.Results {
		path := chartPath(cfg.Output.ChartPath, result.Name, len(allocation.Results))
		if err := writeFile(path, func(f *os.File) error {
			return chartview.Render(f, result.Name, chartDF, result.Ledger, setups[i].charts...)
		}); err != nil {
			return err
		}
	}

	if cfg.Grid != nil {
		if err := runGrid(ctx, cfg, df); err != nil {
			return err
		}
	}

	notify(cfg, summaries)
	return nil
}

func loadDataframe(ctx context.Context, cfg *config.Config, feeder interfaces.DataFeeder, warmup int) (*model.Dataframe, error) {
	if cfg.Data.Source == config.SourceCSV {
		return readCSVFrame(cfg.Data.CSVPath, cfg.Data.Pair, cfg.Data.HeikinAshi)
	}

	if feeder == nil {
		opts := make([]exchange.UpbitOption, 0)
		if cfg.Data.HeikinAshi {
			opts = append(opts, exchange.WithUpbitHeikinAshiCandle())
		}
		feeder = exchange.NewUpbit(opts...)
	}
	start, end, err := cfg.Period()
	if err != nil {
		return nil, err
	}

	loader := feed.NewLoader(feeder)
	loader.Subscribe(cfg.Data.Pair, cfg.Data.Timeframe, warmup)
	if err := loader.Load(ctx, start, end); err != nil {
		return nil, err
	}
	return loader.Dataframe(cfg.Data.Pair, cfg.Data.Timeframe)
}

func readCSVFrame(path, pair string, heikinAshi bool) (*model.Dataframe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv 열기 실패: %w", err)
	}
	defer f.Close()

	candles, err := feed.ReadCSV(f, pair)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if heikinAshi {
		var prev *model.Candle
		for i := range candles {
			ha := candles[i].ToHeikinAshi(prev)
			prev = &ha
			candles[i] = ha
		}
	}
	return model.NewDataframe(pair, candles)
}

// prepareATR : ATR 손절을 쓰는데 컬럼이 없으면 계산해서 넣는다
func prepareATR(df *model.Dataframe, exit backtest.ExitConfig, period int) {
	if exit.ATRColumn == "" || df.HasColumn(exit.ATRColumn) || period < 1 {
		return
	}
	df.Metadata[exit.ATRColumn] = indicator.ATR(df.High, df.Low, df.Close, period)
	rlog.Debugf("[SETUP] computed %s with period %d", exit.ATRColumn, period)
}

func runGrid(ctx context.Context, cfg *config.Config, df *model.Dataframe) error {
	slot, err := cfg.GridSlot()
	if err != nil {
		return err
	}
	base := cfg.ToBacktestConfig(slot)
	combos := cfg.Grid.Combinations(base.Exit)
	rlog.Infof("[GRID] slot %s: %d combinations, %d workers", slot.Name, len(combos), cfg.Grid.Workers)

	build := func() (interfaces.SignalSource, error) {
		return strategy.Build(slot.Strategy.ToParams())
	}
	results, err := optimizer.Run(ctx, df, base, build, combos, cfg.Grid.Workers)
	if err != nil {
		return fmt.Errorf("grid: %w", err)
	}

	if best, ok := optimizer.Best(results, cfg.Grid.Metric()); ok {
		rlog.Infof("[GRID] best #%d sl=%.4f tp=%.4f trail=%.4f/%.4f return=%.2f%% pf=%.2f mdd=%.2f%%",
			best.Index, best.Exit.StopLossPct, best.Exit.TakeProfitPct,
			best.Exit.TrailingActivationPct, best.Exit.TrailingDistancePct,
			best.Summary.TotalReturnPct, best.Summary.ProfitFactor, best.Summary.MaxDrawdownPct)
	} else {
		rlog.Warnf("[GRID] every combination failed")
	}

	return writeFile(cfg.Output.GridPath, func(f *os.File) error {
		return json.WriteIndent(f, results)
	})
}

func notify(cfg *config.Config, summaries []summary.Summary) {
	if !cfg.Telegram.Enabled {
		return
	}
	notifier, err := notification.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		rlog.Errorf("텔레그램 설정 오류: %v", err)
		return
	}
	title := fmt.Sprintf("%s %s", cfg.Data.Pair, cfg.Data.Timeframe)
	if err := notifier.SendNotification(notification.SummaryMessage(title, summaries)); err != nil {
		rlog.Errorf("텔레그램 알림 전송 실패: %v", err)
	}
}

// chartPath : 슬롯이 여러 개면 chart.html -> chart_<slot>.html
func chartPath(base, slot string, slots int) string {
	if slots == 1 {
		return base
	}
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s_%s%s", strings.TrimSuffix(base, ext), slot, ext)
}

func writeFile(path string, write func(f *os.File) error) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
