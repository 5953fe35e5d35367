package backtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"raccoonbt/model"
)

func TestRunSlots(t *testing.T) {
	df := frame(t, flat(100, 110, 120, 90), nil)
	slots := []Slot{
		{Name: "long", Weight: 1, Config: zeroFee(1), Source: &scripted{signals: map[int]model.Signal{0: model.EnterLong("")}}},
		{Name: "short", Weight: 3, Config: zeroFee(1), Source: &scripted{signals: map[int]model.Signal{1: model.EnterShort("")}}},
	}

	allocation, err := RunSlots(df, 1000, slots)
	require.NoError(t, err)
	require.Len(t, allocation.Results, 2)
	require.InDelta(t, 250.0, allocation.Results[0].Capital, 1e-9)
	require.InDelta(t, 750.0, allocation.Results[1].Capital, 1e-9)

	// long: 100 -> 90, short: 110 -> 90
	require.InDelta(t, 225.0, allocation.Results[0].Ledger.FinalCapital(), 1e-9)
	require.InDelta(t, 750.0+750.0/110*20, allocation.Results[1].Ledger.FinalCapital(), 1e-9)

	var pnl float64
	for _, result := range allocation.Results {
		pnl += netSum(result.Ledger.Trades)
	}
	require.InDelta(t, 1000+pnl, allocation.FinalCapital(), 1e-9)
}

func TestRunSlots_Invalid(t *testing.T) {
	df := frame(t, flat(100, 110), nil)
	var cfgErr *InvalidConfigError

	_, err := RunSlots(df, 1000, []Slot{{Name: "a", Weight: 0, Config: zeroFee(1), Source: &scripted{}}})
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "weight", cfgErr.Field)

	_, err = RunSlots(df, 0, []Slot{{Name: "a", Weight: 1, Config: zeroFee(1), Source: &scripted{}}})
	require.ErrorAs(t, err, &cfgErr)

	_, err = RunSlots(df, 1000, nil)
	require.ErrorAs(t, err, &cfgErr)

	_, err = RunSlots(df, 1000, []Slot{{Name: "a", Weight: 1, Config: Config{FeeRate: 1, Leverage: 1}, Source: &scripted{}}})
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "fee_rate", cfgErr.Field)
}
