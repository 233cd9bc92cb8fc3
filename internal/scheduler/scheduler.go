// Package scheduler pre-warms the daily market review on a cron schedule so
// the first reader of the day does not pay the generation latency.
package scheduler

import (
	"github.com/robfig/cron/v3"

	"github.com/Impersonality/daily-stock-analysis/pkg/service"
)

type Scheduler struct {
	cron   *cron.Cron
	logger service.Logger
}

// New registers a forced review refresh at the given cron spec
// (e.g. "0 16 * * 1-5").
func New(spec string, market *service.MarketService, logger service.Logger) (*Scheduler, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		rec := market.GetTodayReview(true)
		if rec.Error != "" {
			logger.Errorf("scheduled review refresh failed: %s", rec.Error)
			return
		}
		logger.Infof("scheduled review refresh completed for %s", rec.Date)
	})
	if err != nil {
		return nil, err
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Infof("review scheduler started")
}

// Stop stops scheduling; an in-flight refresh runs to completion.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
