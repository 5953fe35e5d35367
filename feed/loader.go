package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/StudioSol/set"

	"raccoonbt/interfaces"
	"raccoonbt/model"
	"raccoonbt/utils/log"
	"raccoonbt/utils/tools"
)

var ErrUnknownKey = errors.New("feed: unknown pair/timeframe")

// Loader : (pair, timeframe) 별 과거 캔들을 받아 Dataframe 으로 만든다
// 전체적인 흐름 : New -> Subscribe -> Load -> Dataframe
type Loader struct {
	feeder  interfaces.DataFeeder
	Feeds   *set.LinkedHashSetString // (pair_timeframe) 세트, 등록 순서 유지
	warmups map[string]int

	mu     sync.Mutex
	frames map[string]*model.Dataframe
}

func NewLoader(feeder interfaces.DataFeeder) *Loader {
	return &Loader{
		feeder:  feeder,
		Feeds:   set.NewLinkedHashSetString(),
		warmups: make(map[string]int),
		frames:  make(map[string]*model.Dataframe),
	}
}

// Subscribe : 같은 키를 여러 전략이 등록하면 가장 긴 warmup 을 쓴다
func (l *Loader) Subscribe(pair, timeframe string, warmup int) {
	key := l.makeFeedKey(pair, timeframe)
	l.Feeds.Add(key)
	l.warmups[key] = max(l.warmups[key], warmup)
}

// Load : 등록된 키마다 고루틴으로 [start - warmup, end) 구간을 받는다
func (l *Loader) Load(ctx context.Context, start, end time.Time) error {
	wg := new(sync.WaitGroup)
	errs := make(chan error, len(l.warmups))

	for key := range l.Feeds.Iter() {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()

			pair, timeframe := l.getPairPeriodFromKey(key)
			from, err := tools.WarmupStart(start, timeframe, l.warmups[key])
			if err != nil {
				errs <- fmt.Errorf("%s: %w", key, err)
				return
			}

			candles, err := l.feeder.CandlesByPeriod(ctx, pair, timeframe, from, end)
			if err != nil {
				log.Errorf("[FEED] failed to load %s: %v", key, err)
				errs <- fmt.Errorf("%s: %w", key, err)
				return
			}
			df, err := model.NewDataframe(pair, candles)
			if err != nil {
				errs <- fmt.Errorf("%s: %w", key, err)
				return
			}

			l.mu.Lock()
			l.frames[key] = df
			l.mu.Unlock()
			log.Infof("[SETUP] loaded %d candles for %s (warmup %d)", df.Len(), key, l.warmups[key])
		}(key)
	}
	wg.Wait()
	close(errs)

	var all []error
	for err := range errs {
		all = append(all, err)
	}
	return errors.Join(all...)
}

func (l *Loader) Dataframe(pair, timeframe string) (*model.Dataframe, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	df, ok := l.frames[l.makeFeedKey(pair, timeframe)]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", pair, timeframe, ErrUnknownKey)
	}
	return df, nil
}

// feedKey : (pair, period) => "pair_period"
func (l *Loader) makeFeedKey(pair, period string) string {
	return fmt.Sprintf("%s_%s", strings.ToUpper(pair), period)
}

// pairPeriodFromKey : "pair_period" => (pair, period)
func (l *Loader) getPairPeriodFromKey(key string) (string, string) {
	parts := strings.Split(key, "_")
	return parts[0], parts[1]
}
