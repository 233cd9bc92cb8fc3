package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Impersonality/daily-stock-analysis/pkg/models"
	"github.com/Impersonality/daily-stock-analysis/pkg/store"
)

const (
	// ReviewRetentionDays is how many days of review history survive a
	// reload, compared at day granularity.
	ReviewRetentionDays = 7

	// DefaultReviewListLimit caps ListReviews when no limit is given.
	DefaultReviewListLimit = 7
)

// NewReviewTable builds the record table backing a MarketService: 7-day
// retention at day granularity, eviction applied only at load time so the
// history stays visible for the lifetime of a process run.
func NewReviewTable(file *store.FileStore[models.ReportRecord], logger store.Logger) *store.Table[models.ReportRecord] {
	return store.NewTable(file, store.TableConfig[models.ReportRecord]{
		IsValid: func(rec models.ReportRecord, now time.Time) bool {
			return store.WithinDays(rec.Date, now, ReviewRetentionDays)
		},
		SortKey:     func(rec models.ReportRecord) string { return rec.Date },
		EvictOnList: false,
	}, logger)
}

// MarketService caches one market review per calendar day. Generation runs
// synchronously on the calling goroutine on a cache miss; a failed generation
// is cached too, so repeated calls on the same day do not retry until a
// forced refresh.
type MarketService struct {
	reviews  *store.Table[models.ReportRecord]
	reporter MarketReporter
	logger   Logger
}

// NewMarketService loads persisted review history (applying eviction) before
// serving any requests.
func NewMarketService(
	reviews *store.Table[models.ReportRecord],
	reporter MarketReporter,
	logger Logger,
) *MarketService {
	reviews.Load()
	logger.Infof("market service loaded %d persisted reviews", reviews.Len())
	return &MarketService{
		reviews:  reviews,
		reporter: reporter,
		logger:   logger,
	}
}

// GetTodayReview returns today's review, generating and caching it on a miss
// or when forceRefresh is set. The caller blocks for the full generation.
func (s *MarketService) GetTodayReview(forceRefresh bool) models.ReportRecord {
	today := time.Now().Format(models.DateLayout)

	if !forceRefresh {
		if rec, ok := s.reviews.Get(today); ok {
			s.logger.Infof("using cached review for %s", today)
			return rec
		}
	}

	rec := s.generate(today)
	s.reviews.Put(today, rec)
	return rec
}

// ListReviews returns up to limit reviews, newest date first. limit <= 0
// means DefaultReviewListLimit.
func (s *MarketService) ListReviews(limit int) []models.ReportRecord {
	if limit <= 0 {
		limit = DefaultReviewListLimit
	}
	return s.reviews.List(limit)
}

// GetReviewByDate returns the cached review for a calendar date, if any.
func (s *MarketService) GetReviewByDate(date string) (models.ReportRecord, bool) {
	return s.reviews.Get(date)
}

// generate runs overview -> news -> synthesis and always returns a record:
// collaborator failures become an error-shaped record, never a propagated
// error.
func (s *MarketService) generate(today string) (rec models.ReportRecord) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("review generation for %s panicked: %v", today, r)
			rec = s.errorRecord(today, fmt.Sprintf("review generation panic: %v", r))
		}
	}()

	s.logger.Infof("generating market review for %s", today)
	ctx := context.Background()

	overview, err := s.reporter.MarketOverview(ctx)
	if err != nil {
		s.logger.Errorf("market overview failed: %v", err)
		return s.errorRecord(today, err.Error())
	}
	news, err := s.reporter.SearchMarketNews(ctx)
	if err != nil {
		s.logger.Errorf("market news search failed: %v", err)
		return s.errorRecord(today, err.Error())
	}
	report, err := s.reporter.GenerateReview(ctx, overview, news)
	if err != nil {
		s.logger.Errorf("review synthesis failed: %v", err)
		return s.errorRecord(today, err.Error())
	}

	s.logger.Infof("market review for %s generated", today)
	return models.ReportRecord{
		Date:        today,
		Report:      report,
		GeneratedAt: models.FormatTimestamp(time.Now()),
		Overview:    overview,
	}
}

func (s *MarketService) errorRecord(today, msg string) models.ReportRecord {
	return models.ReportRecord{
		Date:        today,
		GeneratedAt: models.FormatTimestamp(time.Now()),
		Error:       msg,
	}
}
