package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"raccoonbt/model"
)

var requiredCSVColumns = []string{"time", "open", "high", "low", "close", "volume"}

var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ReadCSV : time,open,high,low,close,volume[,extra...] 형식의 CSV 를 읽는다.
// 추가 숫자 컬럼(prediction 같은 외부 모델 라벨)은 Candle.Metadata 로 들어가고, 빈 칸은 NaN
func ReadCSV(r io.Reader, pair string) ([]model.Candle, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv: missing header")
		}
		return nil, fmt.Errorf("csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredCSVColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("csv: missing column %q", name)
		}
	}
	extras := make([]string, 0)
	for _, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if !lo.Contains(requiredCSVColumns, key) {
			extras = append(extras, key)
		}
	}

	candles := make([]model.Candle, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}

		t, err := parseCSVTime(record[index["time"]])
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		values := make(map[string]float64, len(requiredCSVColumns)-1)
		for _, name := range requiredCSVColumns[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[index[name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d column %s: %w", line, name, err)
			}
			values[name] = v
		}

		candle := model.Candle{
			Pair:   pair,
			Time:   t,
			Open:   values["open"],
			High:   values["high"],
			Low:    values["low"],
			Close:  values["close"],
			Volume: values["volume"],
		}
		if len(extras) > 0 {
			candle.Metadata = make(map[string]float64, len(extras))
			for _, name := range extras {
				raw := strings.TrimSpace(record[index[name]])
				if raw == "" {
					candle.Metadata[name] = math.NaN()
					continue
				}
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, fmt.Errorf("csv line %d column %s: %w", line, name, err)
				}
				candle.Metadata[name] = v
			}
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// 숫자만 있으면 unix seconds(13자리면 milliseconds)로 본다
func parseCSVTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if len(raw) >= 13 {
			return time.UnixMilli(unix).UTC(), nil
		}
		return time.Unix(unix, 0).UTC(), nil
	}
	for _, layout := range csvTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", raw)
}
