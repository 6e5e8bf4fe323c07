package service

import (
	"context"
	"errors"
	"time"

	"gstbilling/internal/dto"
	"gstbilling/internal/invoice"
	"gstbilling/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const wordsCachePrefix = "words:"

// ErrInvalidAmount is returned for amounts that are not a number or fall
// outside invoice.InRange.
var ErrInvalidAmount = errors.New("Invalid amount")

// WordsService converts amounts to Indian-numbering words. It is the words
// converter handed to every invoice editor, and backs the public
// number-to-words endpoint.
type WordsService interface {
	invoice.WordsConverter
	Convert(ctx context.Context, amount string) (*dto.WordsResponse, error)
}

type wordsService struct {
	backend invoice.WordsConverter
	rdb     *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewWordsService wraps backend with a Redis cache. rdb may be nil.
func NewWordsService(backend invoice.WordsConverter, rdb *redis.Client, ttl time.Duration, m *metrics.Metrics) WordsService {
	return &wordsService{backend: backend, rdb: rdb, ttl: ttl, metrics: m}
}

func (s *wordsService) AmountInWords(ctx context.Context, amount decimal.Decimal) (string, error) {
	if !invoice.InRange(amount) {
		return "", ErrInvalidAmount
	}
	start := time.Now()
	key := wordsCachePrefix + amount.StringFixed(2)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			s.metrics.ObserveWords(metrics.WordsResultCacheHit, time.Since(start))
			return cached, nil
		} else if !errors.Is(err, redis.Nil) {
			log.Debug().Err(err).Str("key", key).Msg("words: cache read failed")
		}
	}

	words, err := s.backend.AmountInWords(ctx, amount.Round(2))
	if err != nil {
		s.metrics.ObserveWords(metrics.WordsResultError, time.Since(start))
		return "", err
	}
	s.metrics.ObserveWords(metrics.WordsResultOK, time.Since(start))

	// Populate cache, best effort
	if s.rdb != nil {
		_ = s.rdb.Set(context.Background(), key, words, s.ttl).Err()
	}
	return words, nil
}

func (s *wordsService) Convert(ctx context.Context, amount string) (*dto.WordsResponse, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil || !invoice.InRange(d) {
		return nil, ErrInvalidAmount
	}
	words, err := s.AmountInWords(ctx, d)
	if err != nil {
		return nil, err
	}
	return &dto.WordsResponse{Amount: d.StringFixed(2), Words: words}, nil
}
