package backtest

// Sizing : 진입 수량 계산 결과
type Sizing struct {
	Notional float64
	Fee      float64
	Quantity float64
	Margin   float64
}

// Size : 가용 현금 전액을 레버리지만큼 진입. 수량이 0 이하이거나 최소수량 미만이면 ok=false
// 수수료가 현금을 넘는 경우(고배율 + 고수수료)도 진입하지 않는다
func Size(cash, price, leverage, feeRate, minQuantity float64) (Sizing, bool) {
	if cash <= 0 || price <= 0 {
		return Sizing{}, false
	}
	notional := cash * leverage
	fee := notional * feeRate
	if fee >= cash {
		return Sizing{}, false
	}
	qty := (notional - fee) / price
	if qty <= 0 || qty < minQuantity {
		return Sizing{}, false
	}
	return Sizing{
		Notional: notional,
		Fee:      fee,
		Quantity: qty,
		Margin:   cash - fee,
	}, true
}
