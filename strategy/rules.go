package strategy

import (
	"github.com/samber/lo"

	"raccoonbt/indicator"
	"raccoonbt/model"
)

type Condition func(df *model.Dataframe) bool

type Rule struct {
	Condition Condition
	Action    model.Action
	Side      model.Side
	Reason    string
}

// Rules : 조건 목록을 등록 순서대로 검사해서 처음 맞는 규칙의 시그널을 낸다
type Rules struct {
	name    string
	warmup  int
	columns []string
	rules   []Rule
	prepare func(df *model.Dataframe) []indicator.ChartIndicator
}

func NewRules(name string, warmup int, columns ...string) *Rules {
	return &Rules{name: name, warmup: warmup, columns: columns}
}

func (r *Rules) EnterWhen(side model.Side, reason string, condition Condition) *Rules {
	r.rules = append(r.rules, Rule{Condition: condition, Action: model.ActionEnter, Side: side, Reason: reason})
	return r
}

func (r *Rules) ExitWhen(reason string, condition Condition) *Rules {
	r.rules = append(r.rules, Rule{Condition: condition, Action: model.ActionExit, Reason: reason})
	return r
}

// WithIndicators : 실행 전에 필요한 컬럼을 채우는 함수 등록
func (r *Rules) WithIndicators(prepare func(df *model.Dataframe) []indicator.ChartIndicator) *Rules {
	r.prepare = prepare
	return r
}

func (r *Rules) Indicators(df *model.Dataframe) []indicator.ChartIndicator {
	if r.prepare == nil {
		return nil
	}
	return r.prepare(df)
}

func (r *Rules) Name() string              { return r.name }
func (r *Rules) WarmupPeriod() int         { return r.warmup }
func (r *Rules) RequiredColumns() []string { return r.columns }

func (r *Rules) OnBar(df *model.Dataframe) model.Signal {
	rule, found := lo.Find(r.rules, func(rule Rule) bool {
		return rule.Condition(df)
	})
	if !found {
		return model.HoldSignal()
	}
	return model.Signal{Action: rule.Action, Side: rule.Side, Reason: rule.Reason}
}

// ColumnAbove : 컬럼의 현재 값이 threshold 보다 크면 참
func ColumnAbove(column string, threshold float64) Condition {
	return func(df *model.Dataframe) bool {
		return df.Metadata[column].Last(0) > threshold
	}
}

func ColumnBelow(column string, threshold float64) Condition {
	return func(df *model.Dataframe) bool {
		return df.Metadata[column].Last(0) < threshold
	}
}

func CrossOver(column, reference string) Condition {
	return func(df *model.Dataframe) bool {
		return df.Metadata[column].Crossover(df.Metadata[reference])
	}
}

func CrossUnder(column, reference string) Condition {
	return func(df *model.Dataframe) bool {
		return df.Metadata[column].Crossunder(df.Metadata[reference])
	}
}
