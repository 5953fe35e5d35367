package backtest

import (
	"fmt"

	"github.com/samber/lo"

	"raccoonbt/interfaces"
	"raccoonbt/ledger"
	"raccoonbt/model"
	rlog "raccoonbt/utils/log"
)

// Slot : 독립된 자본을 배분받아 돌아가는 전략 인스턴스 하나
type Slot struct {
	Name   string
	Weight float64
	Source interfaces.SignalSource
	// InitialCapital 은 배분 금액으로 덮어쓴다
	Config Config
}

type SlotResult struct {
	Name    string
	Capital float64
	Ledger  *ledger.Ledger
}

type Allocation struct {
	TotalCapital float64
	Results      []SlotResult
}

func (a *Allocation) FinalCapital() float64 {
	return lo.SumBy(a.Results, func(r SlotResult) float64 {
		return r.Ledger.FinalCapital()
	})
}

// RunSlots : total 을 weight 비율로 나눠 슬롯마다 독립 엔진으로 실행. 슬롯 사이에 공유 상태는 없다
func RunSlots(df *model.Dataframe, total float64, slots []Slot) (*Allocation, error) {
	if !(total > 0) {
		return nil, &InvalidConfigError{Field: "total_capital", Value: total, Reason: "must be > 0"}
	}
	if len(slots) == 0 {
		return nil, &InvalidConfigError{Field: "slots", Value: 0, Reason: "at least one slot is required"}
	}
	for _, slot := range slots {
		if !(slot.Weight > 0) {
			return nil, &InvalidConfigError{Field: "weight", Value: slot.Weight, Reason: fmt.Sprintf("slot %s weight must be > 0", slot.Name)}
		}
	}
	weightSum := lo.SumBy(slots, func(s Slot) float64 { return s.Weight })

	engines := make([]*Engine, len(slots))
	for i, slot := range slots {
		cfg := slot.Config
		cfg.InitialCapital = total * slot.Weight / weightSum
		engine, err := New(cfg, slot.Source)
		if err != nil {
			return nil, fmt.Errorf("slot %s: %w", slot.Name, err)
		}
		engines[i] = engine
	}

	allocation := &Allocation{TotalCapital: total, Results: make([]SlotResult, 0, len(slots))}
	for i, engine := range engines {
		l, err := engine.Run(df)
		if err != nil {
			return nil, fmt.Errorf("slot %s: %w", slots[i].Name, err)
		}
		allocation.Results = append(allocation.Results, SlotResult{
			Name:    slots[i].Name,
			Capital: engine.Config().InitialCapital,
			Ledger:  l,
		})
		rlog.Infof("slot %s: capital=%.2f final=%.2f trades=%d", slots[i].Name, engine.Config().InitialCapital, l.FinalCapital(), len(l.Trades))
	}
	return allocation, nil
}
