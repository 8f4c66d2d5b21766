package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdd(t *testing.T) {
	s := New()

	s.Add(Task{Name: "greet", Expr: "0 8 * * *", Run: func(context.Context) {}})
	s.Add(Task{Name: "restart", Expr: "*/5 * * * *", Run: func(context.Context) {}})
	assert.Equal(t, 2, s.Len())

	s.Add(Task{Name: "disabled", Expr: "", Run: func(context.Context) {}})
	assert.Equal(t, 2, s.Len(), "empty expression is ignored")

	s.Add(Task{Name: "broken", Expr: "not a cron", Run: func(context.Context) {}})
	assert.Equal(t, 2, s.Len(), "malformed expression is dropped")
}

func TestTick(t *testing.T) {
	s := New()

	var everyMinute, atFourAM int
	s.Add(Task{Name: "every-minute", Expr: "* * * * *", Run: func(context.Context) { everyMinute++ }})
	s.Add(Task{Name: "four-am", Expr: "0 4 * * *", Run: func(context.Context) { atFourAM++ }})

	noon := time.Date(2026, 8, 28, 12, 30, 0, 0, time.UTC)
	s.tick(context.Background(), noon)
	assert.Equal(t, 1, everyMinute)
	assert.Zero(t, atFourAM)

	fourAM := time.Date(2026, 8, 28, 4, 0, 0, 0, time.UTC)
	s.tick(context.Background(), fourAM)
	assert.Equal(t, 2, everyMinute)
	assert.Equal(t, 1, atFourAM)
}

func TestRun_NoTasksReturnsImmediately(t *testing.T) {
	done := make(chan struct{})
	go func() {
		New().Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return at once with no tasks")
	}
}
