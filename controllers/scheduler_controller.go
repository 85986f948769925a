package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/busticket/busticket_backend/scheduler"
)

// JobRunner is satisfied by *scheduler.Scheduler.
type JobRunner interface {
	RunNow(ctx context.Context, job scheduler.Job) (scheduler.RunStats, error)
	Jobs() []scheduler.Job
	IsRunning() bool
}

type SchedulerController struct {
	runner JobRunner
	logger zerolog.Logger
}

func NewSchedulerController(runner JobRunner, logger zerolog.Logger) *SchedulerController {
	return &SchedulerController{runner: runner, logger: logger}
}

func (sc *SchedulerController) Status(c echo.Context) error {
	return ok(c, "Scheduler status", map[string]interface{}{
		"running": sc.runner.IsRunning(),
		"jobs":    sc.runner.Jobs(),
	})
}

// RunJob triggers a job immediately and waits for it to finish.
func (sc *SchedulerController) RunJob(c echo.Context) error {
	job := scheduler.Job(c.Param("job"))
	stats, err := sc.runner.RunNow(c.Request().Context(), job)
	if errors.Is(err, scheduler.ErrUnknownJob) {
		return fail(c, http.StatusNotFound, err.Error())
	}
	if err != nil {
		sc.logger.Error().Err(err).Str("job", string(job)).Msg("manual job run failed")
		return fail(c, http.StatusInternalServerError, "Job run failed")
	}
	return ok(c, "Job finished", stats)
}
