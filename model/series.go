package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/constraints"
)

// Series is a time series of values
type Series[T constraints.Ordered] []T

// Values returns the values of the series
func (s Series[T]) Values() []T {
	return s
}

// Length returns the number of values in the series
func (s Series[T]) Length() int {
	return len(s)
}

// Last returns the last value of the series given a past index position
func (s Series[T]) Last(position int) T {
	return s[len(s)-1-position]
}

// LastValues returns the last values of the series given a size
func (s Series[T]) LastValues(size int) []T {
	if l := len(s); l > size {
		return s[l-size:]
	}
	return s
}

// Crossover returns true if the last value of the series is greater than the last value of the reference series
func (s Series[T]) Crossover(ref Series[T]) bool {
	if len(s) < 2 || len(ref) < 2 {
		return false
	}
	return s.Last(0) > ref.Last(0) && s.Last(1) <= ref.Last(1)
}

// Crossunder returns true if the last value of the series is less than the last value of the reference series
func (s Series[T]) Crossunder(ref Series[T]) bool {
	if len(s) < 2 || len(ref) < 2 {
		return false
	}
	return s.Last(0) <= ref.Last(0) && s.Last(1) > ref.Last(1)
}

// Cross returns true if the last value of the series is greater than the last value of the
// reference series or less than the last value of the reference series
func (s Series[T]) Cross(ref Series[T]) bool {
	return s.Crossover(ref) || s.Crossunder(ref)
}

// NumDecPlaces returns the number of decimal places of a float64
func NumDecPlaces(v float64) int64 {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	i := strings.IndexByte(s, '.')
	if i > -1 {
		return int64(len(s) - i - 1)
	}
	return 0
}

// Dataframe : 백테스트 입력 시계열(PriceSeries). OHLCV + 지표 컬럼(Metadata)
// 엔진은 읽기만 하므로 여러 백테스트가 동시에 공유해도 된다
type Dataframe struct {
	Pair string

	Close  Series[float64]
	Open   Series[float64]
	High   Series[float64]
	Low    Series[float64]
	Volume Series[float64]

	Time       []time.Time
	LastUpdate time.Time

	// Custom user metadata
	Metadata map[string]Series[float64]
}

func NewDataframe(pair string, candles []Candle) (*Dataframe, error) {
	df := &Dataframe{
		Pair:     pair,
		Metadata: make(map[string]Series[float64]),
	}
	for _, c := range candles {
		if err := df.AppendCandle(c); err != nil {
			return nil, err
		}
	}
	return df, nil
}

// AppendCandle : 같은 시각의 봉은 마지막 행을 덮어쓰고, 과거 시각의 봉은 거부한다
func (df *Dataframe) AppendCandle(candle Candle) error {
	if df.Metadata == nil {
		df.Metadata = make(map[string]Series[float64])
	}
	n := len(df.Time)
	if n > 0 && candle.Time.Before(df.Time[n-1]) {
		return fmt.Errorf("late candle for %s: %s before %s", df.Pair, candle.Time, df.Time[n-1])
	}

	if n > 0 && candle.Time.Equal(df.Time[n-1]) {
		last := n - 1
		df.Close[last] = candle.Close
		df.Open[last] = candle.Open
		df.High[last] = candle.High
		df.Low[last] = candle.Low
		df.Volume[last] = candle.Volume
		for k, v := range candle.Metadata {
			if col, ok := df.Metadata[k]; ok && len(col) == n {
				col[last] = v
			}
		}
		return nil
	}

	df.Close = append(df.Close, candle.Close)
	df.Open = append(df.Open, candle.Open)
	df.High = append(df.High, candle.High)
	df.Low = append(df.Low, candle.Low)
	df.Volume = append(df.Volume, candle.Volume)
	df.Time = append(df.Time, candle.Time)
	df.LastUpdate = candle.Time

	// 중간에 새로 생긴 컬럼은 앞쪽을 NaN 으로 채워 길이를 맞춘다
	for k, v := range candle.Metadata {
		col := df.Metadata[k]
		for len(col) < n {
			col = append(col, math.NaN())
		}
		df.Metadata[k] = append(col, v)
	}
	for k, col := range df.Metadata {
		if len(col) == n {
			df.Metadata[k] = append(col, math.NaN())
		}
	}
	return nil
}

func (df *Dataframe) Len() int {
	return len(df.Time)
}

// Candle returns row i as a Candle (metadata included)
func (df *Dataframe) Candle(i int) Candle {
	c := Candle{
		Pair:   df.Pair,
		Time:   df.Time[i],
		Open:   df.Open[i],
		High:   df.High[i],
		Low:    df.Low[i],
		Close:  df.Close[i],
		Volume: df.Volume[i],
	}
	if len(df.Metadata) > 0 {
		c.Metadata = make(map[string]float64, len(df.Metadata))
		for k, col := range df.Metadata {
			if i < len(col) {
				c.Metadata[k] = col[i]
			}
		}
	}
	return c
}

// Validate : 비어있지 않고, 시간 오름차순 + 중복 없음, 모든 컬럼 길이 일치
func (df *Dataframe) Validate() error {
	n := len(df.Time)
	if n == 0 {
		return fmt.Errorf("dataframe %s is empty", df.Pair)
	}
	if len(df.Close) != n || len(df.Open) != n || len(df.High) != n || len(df.Low) != n || len(df.Volume) != n {
		return fmt.Errorf("dataframe %s has ragged OHLCV columns", df.Pair)
	}
	for i := 1; i < n; i++ {
		if !df.Time[i].After(df.Time[i-1]) {
			return fmt.Errorf("dataframe %s not strictly ascending at row %d (%s)", df.Pair, i, df.Time[i])
		}
	}
	for k, col := range df.Metadata {
		if len(col) != n {
			return fmt.Errorf("dataframe %s column %q has %d rows, want %d", df.Pair, k, len(col), n)
		}
	}
	return nil
}

// HasColumn reports whether an indicator column exists
func (df *Dataframe) HasColumn(name string) bool {
	_, ok := df.Metadata[name]
	return ok
}

// Ready : row i 에서 주어진 컬럼이 모두 존재하고 NaN 이 아닌지
func (df *Dataframe) Ready(i int, columns ...string) bool {
	for _, name := range columns {
		col, ok := df.Metadata[name]
		if !ok || i >= len(col) || math.IsNaN(col[i]) {
			return false
		}
	}
	return true
}

// Window : [0, end] 구간의 읽기 전용 뷰. backing array 를 공유하므로 수정 금지
func (df *Dataframe) Window(end int) *Dataframe {
	size := end + 1
	w := &Dataframe{
		Pair:     df.Pair,
		Close:    df.Close[:size:size],
		Open:     df.Open[:size:size],
		High:     df.High[:size:size],
		Low:      df.Low[:size:size],
		Volume:   df.Volume[:size:size],
		Time:     df.Time[:size:size],
		Metadata: make(map[string]Series[float64], len(df.Metadata)),
	}
	w.LastUpdate = w.Time[end]
	for key, col := range df.Metadata {
		if len(col) >= size {
			w.Metadata[key] = col[:size:size]
		}
	}
	return w
}

func (df Dataframe) Sample(positions int) Dataframe {
	size := len(df.Time)
	start := size - positions
	if start <= 0 {
		return df
	}

	sample := Dataframe{
		Pair:       df.Pair,
		Close:      df.Close.LastValues(positions),
		Open:       df.Open.LastValues(positions),
		High:       df.High.LastValues(positions),
		Low:        df.Low.LastValues(positions),
		Volume:     df.Volume.LastValues(positions),
		Time:       df.Time[start:],
		LastUpdate: df.LastUpdate,
		Metadata:   make(map[string]Series[float64]),
	}

	for key := range df.Metadata {
		sample.Metadata[key] = df.Metadata[key].LastValues(positions)
	}

	return sample
}
