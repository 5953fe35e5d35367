package strategy

import (
	"fmt"
	"math/rand/v2"

	"raccoonbt/indicator"
	"raccoonbt/interfaces"
	"raccoonbt/model"
)

// SeededRandom : 같은 seed 면 같은 난수열을 내는 RandomSource. Reset 하면 처음부터 다시
type SeededRandom struct {
	*rand.Rand
	pcg  *rand.PCG
	seed uint64
}

func NewSeededRandom(seed uint64) *SeededRandom {
	pcg := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &SeededRandom{Rand: rand.New(pcg), pcg: pcg, seed: seed}
}

func (r *SeededRandom) Reset() {
	r.pcg.Seed(r.seed, r.seed^0x9e3779b97f4a7c15)
}

// ProbabilityGate : 진입 시그널을 probability 확률로만 통과시켜 거래 빈도를 줄인다
// Exit/Hold 는 그대로 통과
type ProbabilityGate struct {
	inner       interfaces.SignalSource
	probability float64
	random      interfaces.RandomSource
}

func NewProbabilityGate(inner interfaces.SignalSource, probability float64, random interfaces.RandomSource) *ProbabilityGate {
	return &ProbabilityGate{inner: inner, probability: probability, random: random}
}

func (g *ProbabilityGate) Name() string {
	return fmt.Sprintf("%s(p=%.2f)", g.inner.Name(), g.probability)
}

func (g *ProbabilityGate) WarmupPeriod() int {
	return g.inner.WarmupPeriod()
}

func (g *ProbabilityGate) RequiredColumns() []string {
	return g.inner.RequiredColumns()
}

func (g *ProbabilityGate) Indicators(df *model.Dataframe) []indicator.ChartIndicator {
	if provider, ok := g.inner.(interfaces.IndicatorProvider); ok {
		return provider.Indicators(df)
	}
	return nil
}

// Reset : 난수열과 내부 전략 상태를 처음으로 되돌린다. 엔진이 Run 시작마다 호출
func (g *ProbabilityGate) Reset() {
	if r, ok := g.random.(interfaces.Resetter); ok {
		r.Reset()
	}
	if r, ok := g.inner.(interfaces.Resetter); ok {
		r.Reset()
	}
}

func (g *ProbabilityGate) OnBar(df *model.Dataframe) model.Signal {
	signal := g.inner.OnBar(df)
	if !signal.IsEnter() {
		return signal
	}
	if g.random.Float64() < g.probability {
		return signal
	}
	return model.HoldSignal()
}
