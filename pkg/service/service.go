// Package service contains the two operational services of the application:
// asynchronous single-stock analysis jobs and the cached daily market review.
// The actual analysis and report generation are external collaborators
// reached through the interfaces declared here.
package service

import (
	"context"

	"github.com/Impersonality/daily-stock-analysis/pkg/models"
)

// Logger defines the logging interface for the services.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// StockAnalyzer runs the full analysis pipeline for one stock code. A nil
// result with a nil error means the pipeline produced nothing for the code.
type StockAnalyzer interface {
	AnalyzeStock(ctx context.Context, code string, notify bool) (*models.AnalysisResult, error)
}

// MarketReporter exposes the three composable steps a daily review is built
// from: fetch the market overview, search market news, synthesize the review
// text from both.
type MarketReporter interface {
	MarketOverview(ctx context.Context) (*models.MarketOverview, error)
	SearchMarketNews(ctx context.Context) (string, error)
	GenerateReview(ctx context.Context, overview *models.MarketOverview, news string) (string, error)
}

// SubmitReceipt is returned to the caller of SubmitAnalysis. A submission
// always appears to succeed; failures surface later through task status.
type SubmitReceipt struct {
	Accepted bool   `json:"accepted"`
	TaskID   string `json:"task_id"`
	Code     string `json:"code"`
}
