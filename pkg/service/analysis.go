package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Impersonality/daily-stock-analysis/pkg/models"
	"github.com/Impersonality/daily-stock-analysis/pkg/store"
)

const (
	// TaskRetention is how long finished and running task records stay
	// visible before age-based eviction drops them.
	TaskRetention = 72 * time.Hour

	// DefaultTaskListLimit caps ListTasks when the caller passes no limit.
	DefaultTaskListLimit = 100

	emptyResultError = "analysis returned no result"
)

// NewTaskTable builds the record table backing an AnalysisService: 72h
// retention at sub-second granularity, eviction applied on every list.
func NewTaskTable(file *store.FileStore[models.TaskRecord], logger store.Logger) *store.Table[models.TaskRecord] {
	return store.NewTable(file, store.TableConfig[models.TaskRecord]{
		IsValid: func(rec models.TaskRecord, now time.Time) bool {
			return store.WithinWindow(rec.StartTime, now, TaskRetention)
		},
		SortKey:     func(rec models.TaskRecord) string { return rec.StartTime },
		EvictOnList: true,
	}, logger)
}

// AnalysisService owns the task record table and the worker pool that runs
// submitted analyses. Collaborator failures never escape a worker; they are
// folded into the task record and discovered by polling.
type AnalysisService struct {
	tasks    *store.Table[models.TaskRecord]
	pool     *WorkerPool
	analyzer StockAnalyzer
	logger   Logger
}

// NewAnalysisService loads persisted task state (applying eviction) before
// the service accepts any submissions.
func NewAnalysisService(
	tasks *store.Table[models.TaskRecord],
	pool *WorkerPool,
	analyzer StockAnalyzer,
	logger Logger,
) *AnalysisService {
	tasks.Load()
	logger.Infof("analysis service loaded %d persisted tasks", tasks.Len())
	return &AnalysisService{
		tasks:    tasks,
		pool:     pool,
		analyzer: analyzer,
		logger:   logger,
	}
}

// SubmitAnalysis records a running task and enqueues the analysis without
// blocking on it. The returned receipt always reports accepted; the outcome
// is discoverable only through GetTaskStatus.
func (s *AnalysisService) SubmitAnalysis(code string) SubmitReceipt {
	now := time.Now()
	taskID := newTaskID(code, now)

	s.tasks.Put(taskID, models.TaskRecord{
		TaskID:    taskID,
		Code:      code,
		Status:    models.RunningTaskStatus,
		StartTime: models.FormatTimestamp(now),
	})
	s.pool.Submit(func() {
		s.runAnalysis(taskID, code)
	})

	s.logger.Infof("submitted analysis for %s, task_id=%s", code, taskID)
	return SubmitReceipt{Accepted: true, TaskID: taskID, Code: code}
}

// GetTaskStatus returns the task record for taskID, if one is live.
func (s *AnalysisService) GetTaskStatus(taskID string) (models.TaskRecord, bool) {
	return s.tasks.Get(taskID)
}

// DeleteTask removes the bookkeeping record for taskID. It has no effect on
// an in-flight execution; an unknown id returns false without error.
func (s *AnalysisService) DeleteTask(taskID string) bool {
	deleted := s.tasks.Delete(taskID)
	if deleted {
		s.logger.Infof("deleted task %s", taskID)
	}
	return deleted
}

// ListTasks returns up to limit recent tasks, newest first, with expired
// entries evicted. limit <= 0 means DefaultTaskListLimit.
func (s *AnalysisService) ListTasks(limit int) []models.TaskRecord {
	if limit <= 0 {
		limit = DefaultTaskListLimit
	}
	return s.tasks.List(limit)
}

// runAnalysis executes one task on a pool worker and writes exactly one
// terminal status back through the table.
func (s *AnalysisService) runAnalysis(taskID, code string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("analysis for %s panicked: %v", code, r)
			s.finishTask(taskID, func(rec *models.TaskRecord) {
				rec.Status = models.FailedTaskStatus
				rec.Error = fmt.Sprintf("analysis panic: %v", r)
			})
		}
	}()

	s.logger.Infof("starting analysis for %s", code)
	result, err := s.analyzer.AnalyzeStock(context.Background(), code, true)

	switch {
	case err != nil:
		s.logger.Errorf("analysis for %s failed: %v", code, err)
		s.finishTask(taskID, func(rec *models.TaskRecord) {
			rec.Status = models.FailedTaskStatus
			rec.Error = err.Error()
		})
	case result == nil:
		s.logger.Warnf("analysis for %s returned no result", code)
		s.finishTask(taskID, func(rec *models.TaskRecord) {
			rec.Status = models.FailedTaskStatus
			rec.Error = emptyResultError
		})
	default:
		s.logger.Infof("analysis for %s completed: %s", code, result.OperationAdvice)
		s.finishTask(taskID, func(rec *models.TaskRecord) {
			rec.Status = models.CompletedTaskStatus
			rec.Result = result
		})
	}
}

// finishTask applies a terminal mutation to the task record and persists it.
// The mutation runs under the table lock, so a record deleted while the
// analysis ran stays deleted and the outcome is dropped.
func (s *AnalysisService) finishTask(taskID string, mutate func(*models.TaskRecord)) {
	endTime := models.FormatTimestamp(time.Now())
	updated := s.tasks.Update(taskID, func(rec *models.TaskRecord) {
		mutate(rec)
		rec.EndTime = endTime
	})
	if !updated {
		s.logger.Warnf("task %s deleted before completion, dropping outcome", taskID)
	}
}

// newTaskID combines the stock code with a microsecond timestamp and a short
// random suffix. The timestamp keeps ids human-orderable; the suffix guards
// against collisions under bursts of submissions for the same code.
func newTaskID(code string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%06d_%s",
		code,
		now.Format("20060102_150405"),
		now.Nanosecond()/1000,
		uuid.NewString()[:8],
	)
}
