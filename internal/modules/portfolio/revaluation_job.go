package portfolio

import (
	"context"
	"time"
)

// RevaluationJob periodically refreshes current_value on all positions.
// Registered with the cron scheduler; schedule comes from configuration.
type RevaluationJob struct {
	service *PortfolioService
	timeout time.Duration
}

// NewRevaluationJob creates a revaluation job
func NewRevaluationJob(service *PortfolioService) *RevaluationJob {
	return &RevaluationJob{
		service: service,
		timeout: 2 * time.Minute,
	}
}

// Name returns the job name for scheduler logging
func (j *RevaluationJob) Name() string {
	return "position_revaluation"
}

// Run executes one revaluation sweep
func (j *RevaluationJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	return j.service.RevalueAll(ctx)
}
