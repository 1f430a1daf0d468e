package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcJob struct {
	name string
	run  func(ctx context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Description() string           { return "test job " + j.name }
func (j funcJob) Run(ctx context.Context) error { return j.run(ctx) }

func TestParseCron_Next(t *testing.T) {
	almaty := time.FixedZone("Asia/Almaty", 5*60*60)
	at := func(y int, m time.Month, d, h, min int) time.Time {
		return time.Date(y, m, d, h, min, 0, 0, almaty)
	}

	tests := []struct {
		name string
		expr string
		from time.Time
		want time.Time
	}{
		{"nightly after midnight", "15 0 * * *", at(2026, 3, 2, 10, 0), at(2026, 3, 3, 0, 15)},
		{"strictly after the match", "30 8 * * *", at(2026, 3, 2, 8, 30), at(2026, 3, 3, 8, 30)},
		{"working hours skip the weekend", "*/15 9-17 * * 1-5", at(2026, 3, 6, 17, 50), at(2026, 3, 9, 9, 0)},
		{"list of minutes", "0,20,40 * * * *", at(2026, 3, 2, 10, 21), at(2026, 3, 2, 10, 40)},
		{"day fields are ORed", "0 12 1 * 1", at(2026, 3, 2, 13, 0), at(2026, 3, 9, 12, 0)},
		{"month rollover", "0 0 1 * *", at(2026, 12, 15, 0, 0), at(2027, 1, 1, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCron(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Next(tt.from))
			assert.Equal(t, tt.expr, c.String())
		})
	}
}

func TestParseCron_Invalid(t *testing.T) {
	for _, expr := range []string{
		"* * *",
		"61 * * * *",
		"5-1 * * * *",
		"*/0 * * * *",
		"a * * * *",
		"0 0 32 * *",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseCron(expr)
			assert.Error(t, err)
		})
	}
	assert.Panics(t, func() { MustParseCron("bad") })
}

func TestEvery(t *testing.T) {
	from := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	e := Every(10 * time.Minute)
	assert.Equal(t, from.Add(10*time.Minute), e.Next(from))
	assert.Equal(t, "@every 10m0s", e.String())
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	var runs atomic.Int32
	s := New(Config{TickInterval: 5 * time.Millisecond})
	require.NoError(t, s.Register(funcJob{name: "count", run: func(context.Context) error {
		runs.Add(1)
		return nil
	}}, Every(20*time.Millisecond)))

	err := s.Register(funcJob{name: "count"}, Every(time.Second))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "count", jobs[0].Name)
	assert.Equal(t, "@every 20ms", jobs[0].Schedule)
	assert.GreaterOrEqual(t, jobs[0].RunCount, int64(2))
	assert.Zero(t, jobs[0].FailCount)
}

func TestScheduler_NoOverlap(t *testing.T) {
	var runs atomic.Int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})

	s := New(Config{TickInterval: 2 * time.Millisecond})
	require.NoError(t, s.Register(funcJob{name: "slow", run: func(ctx context.Context) error {
		runs.Add(1)
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}}, Every(time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	<-started
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, int32(1), runs.Load())
	assert.True(t, s.Jobs()[0].Running)
	assert.ErrorIs(t, s.RunNow(context.Background(), "slow"), ErrJobRunning)

	close(release)
	require.NoError(t, s.Stop())
}

func TestScheduler_RunNow(t *testing.T) {
	boom := errors.New("boom")
	s := New(Config{})
	require.NoError(t, s.Register(funcJob{name: "fails", run: func(context.Context) error { return boom }}, Every(time.Hour)))
	require.NoError(t, s.Register(funcJob{name: "panics", run: func(context.Context) error { panic("kaput") }}, Every(time.Hour)))

	assert.ErrorIs(t, s.RunNow(context.Background(), "fails"), boom)
	err := s.RunNow(context.Background(), "panics")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.ErrorIs(t, s.RunNow(context.Background(), "missing"), ErrJobNotFound)

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "fails", jobs[0].Name)
	assert.Equal(t, int64(1), jobs[0].FailCount)
	assert.Equal(t, "boom", jobs[0].LastError)
	assert.False(t, jobs[0].Running)
}
