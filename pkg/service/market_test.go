package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Impersonality/daily-stock-analysis/pkg/models"
	"github.com/Impersonality/daily-stock-analysis/pkg/service"
	"github.com/Impersonality/daily-stock-analysis/pkg/store"
)

// fakeReporter implements service.MarketReporter, counting overview calls as
// a proxy for how many generations ran.
type fakeReporter struct {
	calls       int64
	overviewErr error
	reviewErr   error
}

func (f *fakeReporter) MarketOverview(ctx context.Context) (*models.MarketOverview, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.overviewErr != nil {
		return nil, f.overviewErr
	}
	return &models.MarketOverview{
		Indices:     []models.IndexQuote{{Name: "SSE Composite", Code: "000001", Current: 3245.1, ChangePct: 0.4}},
		UpCount:     2870,
		DownCount:   1954,
		FlatCount:   210,
		TotalAmount: 9.2e11,
		TopSectors:  []string{"semiconductors"},
	}, nil
}

func (f *fakeReporter) SearchMarketNews(ctx context.Context) (string, error) {
	return "markets were calm", nil
}

func (f *fakeReporter) GenerateReview(ctx context.Context, overview *models.MarketOverview, news string) (string, error) {
	if f.reviewErr != nil {
		return "", f.reviewErr
	}
	return "a quiet session with mild gains", nil
}

func (f *fakeReporter) generations() int64 {
	return atomic.LoadInt64(&f.calls)
}

func newMarketService(t *testing.T, reporter service.MarketReporter) (*service.MarketService, *store.FileStore[models.ReportRecord]) {
	t.Helper()
	fs := store.NewFileStore[models.ReportRecord](filepath.Join(t.TempDir(), "market_reviews.json"))
	return service.NewMarketService(service.NewReviewTable(fs, testLogger{}), reporter, testLogger{}), fs
}

func TestGetTodayReview_GeneratesAndCaches(t *testing.T) {
	reporter := &fakeReporter{}
	svc, fs := newMarketService(t, reporter)

	rec := svc.GetTodayReview(false)
	assert.Equal(t, time.Now().Format(models.DateLayout), rec.Date)
	assert.Equal(t, "a quiet session with mild gains", rec.Report)
	require.NotNil(t, rec.Overview)
	assert.Equal(t, 2870, rec.Overview.UpCount)
	assert.Empty(t, rec.Error)

	// Second call the same day returns the cached record untouched.
	again := svc.GetTodayReview(false)
	assert.Equal(t, rec.GeneratedAt, again.GeneratedAt)
	assert.Equal(t, int64(1), reporter.generations())

	// And it is persisted.
	persisted, err := fs.Load()
	require.NoError(t, err)
	assert.Contains(t, persisted, rec.Date)
}

func TestGetTodayReview_ForceRefreshRegenerates(t *testing.T) {
	reporter := &fakeReporter{}
	svc, _ := newMarketService(t, reporter)

	svc.GetTodayReview(false)
	svc.GetTodayReview(true)
	assert.Equal(t, int64(2), reporter.generations())
}

func TestGetTodayReview_FailureIsCachedToo(t *testing.T) {
	reporter := &fakeReporter{overviewErr: errors.New("quote feed unreachable")}
	svc, fs := newMarketService(t, reporter)

	rec := svc.GetTodayReview(false)
	assert.Equal(t, "quote feed unreachable", rec.Error)
	assert.Empty(t, rec.Report)
	assert.Nil(t, rec.Overview)
	assert.NotEmpty(t, rec.GeneratedAt)

	// The error record satisfies later calls; no retry without a refresh.
	again := svc.GetTodayReview(false)
	assert.Equal(t, rec.GeneratedAt, again.GeneratedAt)
	assert.Equal(t, int64(1), reporter.generations())

	persisted, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, "quote feed unreachable", persisted[rec.Date].Error)
}

func TestGetTodayReview_SynthesisFailure(t *testing.T) {
	reporter := &fakeReporter{reviewErr: errors.New("llm quota exhausted")}
	svc, _ := newMarketService(t, reporter)

	rec := svc.GetTodayReview(false)
	assert.Equal(t, "llm quota exhausted", rec.Error)
	assert.Empty(t, rec.Report)
}

func TestGetTodayReview_RefreshReplacesErrorRecord(t *testing.T) {
	reporter := &fakeReporter{overviewErr: errors.New("quote feed unreachable")}
	svc, _ := newMarketService(t, reporter)

	rec := svc.GetTodayReview(false)
	require.NotEmpty(t, rec.Error)

	reporter.overviewErr = nil
	rec = svc.GetTodayReview(true)
	assert.Empty(t, rec.Error)
	assert.Equal(t, "a quiet session with mild gains", rec.Report)
}

func TestListReviews_NewestDateFirst(t *testing.T) {
	fs := store.NewFileStore[models.ReportRecord](filepath.Join(t.TempDir(), "market_reviews.json"))
	today := time.Now()
	history := map[string]models.ReportRecord{}
	for i := 0; i < 3; i++ {
		date := today.AddDate(0, 0, -i).Format(models.DateLayout)
		history[date] = models.ReportRecord{
			Date:        date,
			Report:      "review for " + date,
			GeneratedAt: models.FormatTimestamp(today.AddDate(0, 0, -i)),
		}
	}
	require.NoError(t, fs.Save(history))

	svc := service.NewMarketService(service.NewReviewTable(fs, testLogger{}), &fakeReporter{}, testLogger{})

	records := svc.ListReviews(2)
	require.Len(t, records, 2)
	assert.Equal(t, today.Format(models.DateLayout), records[0].Date)
	assert.Equal(t, today.AddDate(0, 0, -1).Format(models.DateLayout), records[1].Date)
}

func TestMarketService_DropsOldReviewsAtLoad(t *testing.T) {
	fs := store.NewFileStore[models.ReportRecord](filepath.Join(t.TempDir(), "market_reviews.json"))
	now := time.Now()
	fresh := now.Format(models.DateLayout)
	ancient := now.AddDate(0, 0, -10).Format(models.DateLayout)
	require.NoError(t, fs.Save(map[string]models.ReportRecord{
		fresh:   {Date: fresh, Report: "recent", GeneratedAt: models.FormatTimestamp(now)},
		ancient: {Date: ancient, Report: "old", GeneratedAt: models.FormatTimestamp(now.AddDate(0, 0, -10))},
	}))

	svc := service.NewMarketService(service.NewReviewTable(fs, testLogger{}), &fakeReporter{}, testLogger{})

	_, ok := svc.GetReviewByDate(ancient)
	assert.False(t, ok)
	_, ok = svc.GetReviewByDate(fresh)
	assert.True(t, ok)
}

func TestGetReviewByDate_Unknown(t *testing.T) {
	svc, _ := newMarketService(t, &fakeReporter{})
	_, ok := svc.GetReviewByDate("1999-12-31")
	assert.False(t, ok)
}
