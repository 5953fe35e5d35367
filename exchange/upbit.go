package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"raccoonbt/model"
	"raccoonbt/utils/log"
	"raccoonbt/utils/resty"
	"raccoonbt/utils/tools"
)

const (
	upbitBaseREST = "https://api.upbit.com"
	// 업비트 캔들 API 한 번에 받을 수 있는 최대 개수
	upbitCandleLimit = 200
	upbitTimeLayout  = "2006-01-02T15:04:05"
)

var ErrEmptyResponse = errors.New("upbit: empty response")

// Upbit : 업비트 시세(Quotation) REST 클라이언트. 인증이 필요 없는 캔들/현재가만 사용
type Upbit struct {
	resty     resty.RestyClient
	baseURL   string
	pageDelay time.Duration

	// HeikinAshi, MetadataFetchers
	HeikinAshi       bool
	MetadataFetchers []MetadataFetchers
}

// MetadataFetchers : 캔들마다 추가 컬럼(이름, 값)을 붙인다. 외부 모델 예측값 등
type MetadataFetchers func(pair string, t time.Time) (string, float64)
type UpbitOption func(*Upbit)

func WithUpbitHeikinAshiCandle() UpbitOption {
	return func(u *Upbit) {
		u.HeikinAshi = true
	}
}

func WithMetadataFetcher(fetcher MetadataFetchers) UpbitOption {
	return func(u *Upbit) {
		u.MetadataFetchers = append(u.MetadataFetchers, fetcher)
	}
}

func WithUpbitRestyClient(client resty.RestyClient) UpbitOption {
	return func(u *Upbit) {
		u.resty = client
	}
}

// WithUpbitPageDelay : 페이지 요청 사이 대기. 시세 API 는 초당 10회 제한
func WithUpbitPageDelay(delay time.Duration) UpbitOption {
	return func(u *Upbit) {
		u.pageDelay = delay
	}
}

func NewUpbit(opts ...UpbitOption) *Upbit {
	up := &Upbit{
		baseURL:   upbitBaseREST,
		pageDelay: 110 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(up)
	}
	if up.resty == nil {
		up.resty = resty.NewDefaultRestyClientWithTRetryCount(false, 3, 10*time.Second)
	}
	log.Info("[SETUP] Using Upbit quotation API")
	return up
}

func (u *Upbit) LastQuote(ctx context.Context, pair string) (float64, error) {
	// GET /v1/ticker?markets=KRW-BTC
	body, err := u.requestUpbitGET(ctx, "/v1/ticker", []resty.QueryParam{
		{Key: "markets", Value: strings.ToUpper(pair)},
	})
	if err != nil {
		return 0, err
	}
	var res []model.UpbitTickerResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return 0, fmt.Errorf("ticker parse: %w", err)
	}
	if len(res) < 1 {
		return 0, fmt.Errorf("no ticker data for %s: %w", pair, ErrEmptyResponse)
	}
	return res[0].TradePrice, nil
}

// CandlesByPeriod : [start, end) 구간 캔들을 200개씩 과거 방향으로 페이징해서 받는다.
// 업비트는 최신순으로 주기 때문에 마지막에 오름차순으로 정렬한다
func (u *Upbit) CandlesByPeriod(ctx context.Context, pair, period string, start, end time.Time) ([]model.Candle, error) {
	endpoint, err := tools.MapPeriodToCandleEndpoint(period)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, fmt.Errorf("invalid period: start %s must be before end %s", start, end)
	}
	pair = strings.ToUpper(pair)

	byTime := make(map[time.Time]model.Candle)
	cursor := end.UTC()
	for cursor.After(start) {
		page, err := u.candlePage(ctx, endpoint, pair, cursor)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		oldest := cursor
		for _, c := range page {
			if c.Time.Before(oldest) {
				oldest = c.Time
			}
			if c.Time.Before(start) || !c.Time.Before(end) {
				continue
			}
			byTime[c.Time] = c
		}
		if !oldest.Before(cursor) || len(page) < upbitCandleLimit {
			break
		}
		cursor = oldest

		if u.pageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(u.pageDelay):
			}
		}
	}

	candles := make([]model.Candle, 0, len(byTime))
	for _, c := range byTime {
		candles = append(candles, c)
	}
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	if u.HeikinAshi {
		var prev *model.Candle
		for i := range candles {
			candles[i] = candles[i].ToHeikinAshi(prev)
			prev = &candles[i]
		}
	}
	for i := range candles {
		for _, fetcher := range u.MetadataFetchers {
			key, value := fetcher(pair, candles[i].Time)
			if candles[i].Metadata == nil {
				candles[i].Metadata = make(map[string]float64)
			}
			candles[i].Metadata[key] = value
		}
	}

	log.Debugf("[UPBIT] %s %s: %d candles between %s and %s", pair, period, len(candles), start, end)
	return candles, nil
}

func (u *Upbit) candlePage(ctx context.Context, endpoint, pair string, to time.Time) ([]model.Candle, error) {
	body, err := u.requestUpbitGET(ctx, "/v1/candles/"+endpoint, []resty.QueryParam{
		{Key: "market", Value: pair},
		{Key: "to", Value: to.UTC().Format(upbitTimeLayout) + "Z"},
		{Key: "count", Value: upbitCandleLimit},
	})
	if err != nil {
		return nil, err
	}

	var res []model.UpbitCandleResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("candle parse: %w", err)
	}

	candles := make([]model.Candle, 0, len(res))
	for _, r := range res {
		t, err := time.ParseInLocation(upbitTimeLayout, r.CandleDateTimeUtc, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("candle time %q: %w", r.CandleDateTimeUtc, err)
		}
		candles = append(candles, model.Candle{
			Pair:   pair,
			Time:   t,
			Open:   r.OpeningPrice,
			High:   r.HighPrice,
			Low:    r.LowPrice,
			Close:  r.TradePrice,
			Volume: r.CandleAccTradeVolume,
		})
	}
	return candles, nil
}

func (u *Upbit) requestUpbitGET(ctx context.Context, path string, params []resty.QueryParam) ([]byte, error) {
	resp, err := u.resty.
		MakeRequest(ctx, nil, nil).
		Get(u.baseURL+path, params...)

	if err != nil {
		return nil, fmt.Errorf("API 호출 실패: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API 응답 오류: %d, %s", resp.StatusCode(), resp.String())
	}

	return resp.Body(), nil
}
