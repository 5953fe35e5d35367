package backtest

import (
	"math"

	"raccoonbt/model"
	rlog "raccoonbt/utils/log"
)

// ExitPolicy : 열린 포지션에 대해 봉마다 청산 여부를 판단
// 평가 순서는 TakeProfit -> StopLoss -> TrailingStop -> SignalExit 이고 한 봉에 하나만 발생한다
type ExitPolicy struct {
	cfg ExitConfig
}

func NewExitPolicy(cfg ExitConfig) *ExitPolicy {
	return &ExitPolicy{cfg: cfg}
}

// Levels : 진입 시점에 손절/익절 가격을 고정한다. atr 이 NaN 이거나 0 이면 ATR 손절은 무시
func (p *ExitPolicy) Levels(pos *model.Position, atr float64) {
	dir := pos.Direction()
	if p.cfg.TakeProfitPct > 0 {
		pos.TargetPrice = pos.EntryPrice * (1 + dir*p.cfg.TakeProfitPct)
	}

	var distance float64
	if p.cfg.StopLossPct > 0 {
		distance = pos.EntryPrice * p.cfg.StopLossPct
	}
	if p.cfg.StopLossATRMultiple > 0 && !math.IsNaN(atr) && atr > 0 {
		atrDistance := atr * p.cfg.StopLossATRMultiple
		if distance == 0 || atrDistance < distance {
			distance = atrDistance
		}
	}
	if distance <= 0 {
		return
	}
	// 롱에서 손절폭이 진입가 이상이면 가격이 0 이하로 갈 수 없으니 손절이 없는 것과 같다
	if pos.Side == model.SideLong && distance >= pos.EntryPrice {
		rlog.Debugf("stop distance %.4f >= entry %.4f, stop loss disabled for this position", distance, pos.EntryPrice)
		return
	}
	pos.StopPrice = pos.EntryPrice - dir*distance
}

// Evaluate : bar 의 고가/저가로 레벨 돌파를 판단한다. 익절/트레일링은 레벨 가격, 시그널 청산은 종가에 체결
// 손절은 시가가 이미 레벨을 넘어 갭이 생긴 경우 시가에 체결
// pos 의 극값은 호출 전에 이번 봉으로 갱신되어 있어야 한다
func (p *ExitPolicy) Evaluate(pos *model.Position, bar model.Candle, signal model.Signal) (model.ExitReason, float64, bool) {
	long := pos.Side == model.SideLong

	if pos.TargetPrice > 0 {
		if long && bar.High >= pos.TargetPrice {
			return model.ExitReasonTakeProfit, pos.TargetPrice, true
		}
		if !long && bar.Low <= pos.TargetPrice {
			return model.ExitReasonTakeProfit, pos.TargetPrice, true
		}
	}

	if pos.StopPrice > 0 {
		if long && bar.Low <= pos.StopPrice {
			return model.ExitReasonStopLoss, stopFill(long, pos.StopPrice, bar.Open), true
		}
		if !long && bar.High >= pos.StopPrice {
			return model.ExitReasonStopLoss, stopFill(long, pos.StopPrice, bar.Open), true
		}
	}

	if p.cfg.TrailingEnabled() {
		if !pos.TrailArmed && p.gain(pos) >= p.cfg.TrailingActivationPct {
			pos.TrailArmed = true
		}
		if pos.TrailArmed {
			level := p.TrailingLevel(pos)
			if long && bar.Low <= level {
				return model.ExitReasonTrailingStop, level, true
			}
			if !long && bar.High >= level {
				return model.ExitReasonTrailingStop, level, true
			}
		}
	}

	if signal.IsExit() || (signal.IsEnter() && signal.Side != pos.Side) {
		return model.ExitReasonSignal, bar.Close, true
	}
	return "", 0, false
}

// stopFill : 갭으로 레벨을 건너뛴 봉은 레벨 가격이 존재하지 않으므로 시가에 체결
func stopFill(long bool, level, open float64) float64 {
	if open <= 0 {
		return level
	}
	if long {
		return math.Min(level, open)
	}
	return math.Max(level, open)
}

// TrailingLevel : 극값에서 distance 만큼 되돌린 가격
func (p *ExitPolicy) TrailingLevel(pos *model.Position) float64 {
	if pos.Side == model.SideShort {
		return pos.LowestSinceEntry * (1 + p.cfg.TrailingDistancePct)
	}
	return pos.HighestSinceEntry * (1 - p.cfg.TrailingDistancePct)
}

// 진입가 대비 극값 기준 최대 수익률
func (p *ExitPolicy) gain(pos *model.Position) float64 {
	return (pos.BestPrice() - pos.EntryPrice) / pos.EntryPrice * pos.Direction()
}
