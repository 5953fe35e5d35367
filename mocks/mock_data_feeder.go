package mocks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"raccoonbt/model"
)

var ErrNoQuote = errors.New("mock: no quote")

// MockDataFeeder 는 interfaces.DataFeeder 를 가짜로 흉내내는 구조체입니다.
// - Candles 에 (pair_period) 키로 캔들을 넣어두면 기간으로 잘라서 돌려줌
// - 호출 기록(Requests)으로 요청 구간을 검증할 수 있음
type MockDataFeeder struct {
	mu       sync.Mutex
	Candles  map[string][]model.Candle
	Quotes   map[string]float64
	Err      error
	Requests []Request
}

type Request struct {
	Pair   string
	Period string
	Start  time.Time
	End    time.Time
}

func NewMockDataFeeder() *MockDataFeeder {
	return &MockDataFeeder{
		Candles: make(map[string][]model.Candle),
		Quotes:  make(map[string]float64),
	}
}

func (m *MockDataFeeder) Put(pair, period string, candles []model.Candle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Candles[fmt.Sprintf("%s_%s", pair, period)] = candles
}

func (m *MockDataFeeder) CandlesByPeriod(ctx context.Context, pair, period string, start, end time.Time) ([]model.Candle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, Request{Pair: pair, Period: period, Start: start, End: end})
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]model.Candle, 0)
	for _, c := range m.Candles[fmt.Sprintf("%s_%s", pair, period)] {
		if !c.Time.Before(start) && c.Time.Before(end) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *MockDataFeeder) LastQuote(ctx context.Context, pair string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if quote, ok := m.Quotes[pair]; ok {
		return quote, nil
	}
	return 0, ErrNoQuote
}
