package optimizer

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"

	"raccoonbt/backtest"
	"raccoonbt/interfaces"
	"raccoonbt/model"
	"raccoonbt/summary"
	rlog "raccoonbt/utils/log"
)

// Grid : 청산 파라미터 후보값. 비어있는 축은 0(비활성) 하나로 취급
type Grid struct {
	StopLoss           []float64 `yaml:"stop_loss"`
	TakeProfit         []float64 `yaml:"take_profit"`
	TrailingActivation []float64 `yaml:"trailing_activation"`
	TrailingDistance   []float64 `yaml:"trailing_distance"`
}

func axis(values []float64) []float64 {
	if len(values) == 0 {
		return []float64{0}
	}
	return lo.Uniq(values)
}

// Combinations : base 의 ATR 설정은 유지하고 비율 파라미터만 바꾼 조합 목록
func (g Grid) Combinations(base backtest.ExitConfig) []backtest.ExitConfig {
	combos := make([]backtest.ExitConfig, 0)
	for _, sl := range axis(g.StopLoss) {
		for _, tp := range axis(g.TakeProfit) {
			for _, activation := range axis(g.TrailingActivation) {
				for _, distance := range axis(g.TrailingDistance) {
					exit := base
					exit.StopLossPct = sl
					exit.TakeProfitPct = tp
					exit.TrailingActivationPct = activation
					exit.TrailingDistancePct = distance
					combos = append(combos, exit)
				}
			}
		}
	}
	return combos
}

// Builder : 실행마다 새 SignalSource 를 만든다 (ProbabilityGate 처럼 상태가 있는 전략 때문)
type Builder func() (interfaces.SignalSource, error)

type Result struct {
	Index   int                 `json:"index"`
	Exit    backtest.ExitConfig `json:"exit"`
	Summary summary.Summary     `json:"summary"`
	Err     error               `json:"-"`
}

// Run : 조합마다 독립된 엔진을 workers 개 고루틴으로 실행. df 는 읽기 전용으로 공유된다
// 결과는 combos 순서 그대로 돌려준다
func Run(ctx context.Context, df *model.Dataframe, base backtest.Config, build Builder,
	combos []backtest.ExitConfig, workers int) ([]Result, error) {

	if workers < 1 {
		workers = 1
	}
	results := make([]Result, len(combos))
	jobs := make(chan int)

	wg := new(sync.WaitGroup)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				results[index] = runOne(df, base, build, index, combos[index])
			}
		}()
	}

	var err error
dispatch:
	for index := range combos {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		case jobs <- index:
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	failed := lo.CountBy(results, func(r Result) bool { return r.Err != nil })
	if failed > 0 {
		rlog.Warnf("grid search: %d of %d runs failed", failed, len(results))
	}
	return results, nil
}

func runOne(df *model.Dataframe, base backtest.Config, build Builder, index int, exit backtest.ExitConfig) Result {
	result := Result{Index: index, Exit: exit}
	source, err := build()
	if err != nil {
		result.Err = err
		return result
	}
	cfg := base
	cfg.Exit = exit
	engine, err := backtest.New(cfg, source)
	if err != nil {
		result.Err = err
		return result
	}
	l, err := engine.Run(df)
	if err != nil {
		result.Err = err
		return result
	}
	result.Summary = summary.Summarize(fmt.Sprintf("%s#%d", source.Name(), index), l)
	return result
}

// Best : metric 이 가장 큰 성공 결과. 동점이면 앞쪽 조합
func Best(results []Result, metric func(summary.Summary) float64) (Result, bool) {
	ok := lo.Filter(results, func(r Result, _ int) bool { return r.Err == nil })
	if len(ok) == 0 {
		return Result{}, false
	}
	return lo.MaxBy(ok, func(a, b Result) bool {
		return metric(a.Summary) > metric(b.Summary)
	}), true
}

func ByTotalReturn(s summary.Summary) float64 { return s.TotalReturnPct }
func ByProfitFactor(s summary.Summary) float64 { return s.ProfitFactor }

// ByReturnOverDrawdown : 수익률 / MDD%. MDD 가 0 이면 수익률 그대로
func ByReturnOverDrawdown(s summary.Summary) float64 {
	if s.MaxDrawdownPct == 0 {
		return s.TotalReturnPct
	}
	return s.TotalReturnPct / s.MaxDrawdownPct
}
