// Package schedule runs the background fleet tasks (owner auto-greet,
// periodic session restart) on cron expressions.
package schedule

import (
	"context"
	"time"

	"github.com/adhocore/gronx"

	"github.com/tinyland-inc/botfleet/pkg/logger"
)

// Task is one cron-driven job. An invalid expression is reported once at
// registration; an empty one is ignored.
type Task struct {
	Name string
	Expr string
	Run  func(ctx context.Context)
}

type Scheduler struct {
	gron  *gronx.Gronx
	tasks []Task
}

func New() *Scheduler {
	return &Scheduler{gron: gronx.New()}
}

// Add registers a task. Tasks with an empty expression are dropped
// silently; malformed expressions are dropped with a warning.
func (s *Scheduler) Add(task Task) {
	if task.Expr == "" {
		return
	}
	if !s.gron.IsValid(task.Expr) {
		logger.WarnCF("schedule", "Invalid cron expression, task disabled", map[string]any{
			"task": task.Name,
			"expr": task.Expr,
		})
		return
	}
	s.tasks = append(s.tasks, task)
}

// Len reports how many tasks are active.
func (s *Scheduler) Len() int {
	return len(s.tasks)
}

// Run ticks once a minute and fires every task whose expression is due.
// Tasks run inline; they are expected to be quick or to spawn their own
// goroutines.
func (s *Scheduler) Run(ctx context.Context) {
	if len(s.tasks) == 0 {
		return
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	for _, task := range s.tasks {
		due, err := s.gron.IsDue(task.Expr, now)
		if err != nil {
			logger.WarnCF("schedule", "Cron check failed", map[string]any{
				"task":  task.Name,
				"error": err.Error(),
			})
			continue
		}
		if !due {
			continue
		}
		logger.InfoCF("schedule", "Running task", map[string]any{"task": task.Name})
		task.Run(ctx)
	}
}
