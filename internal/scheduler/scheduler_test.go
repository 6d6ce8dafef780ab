package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubJob counts runs and returns a fixed error
type stubJob struct {
	name string
	err  error
	runs atomic.Int64
	ran  chan struct{}
}

func newStubJob(name string, err error) *stubJob {
	return &stubJob{name: name, err: err, ran: make(chan struct{}, 16)}
}

func (j *stubJob) Name() string { return j.name }

func (j *stubJob) Run() error {
	j.runs.Add(1)
	select {
	case j.ran <- struct{}{}:
	default:
	}
	return j.err
}

func TestAddJobInvalidSchedule(t *testing.T) {
	sched := New(nil, zerolog.Nop())

	err := sched.AddJob("not a schedule", newStubJob("broken", nil))
	assert.Error(t, err)
}

func TestSchedulerRunsScheduledJob(t *testing.T) {
	sched := New(nil, zerolog.Nop())
	job := newStubJob("ticker", nil)

	require.NoError(t, sched.AddJob("@every 50ms", job))
	sched.Start()
	defer sched.Stop()

	select {
	case <-job.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run within 2s")
	}
	assert.GreaterOrEqual(t, job.runs.Load(), int64(1))
}

func TestRunNowRecordsOutcome(t *testing.T) {
	rec := newTestRecorder(t)
	sched := New(rec, zerolog.Nop())

	require.NoError(t, sched.RunNow(newStubJob("good", nil)))
	assert.Error(t, sched.RunNow(newStubJob("bad", errors.New("boom"))))

	good, err := rec.RecentRuns("good", 0)
	require.NoError(t, err)
	require.Len(t, good, 1)
	assert.Equal(t, "ok", good[0].Outcome)

	bad, err := rec.RecentRuns("bad", 0)
	require.NoError(t, err)
	require.Len(t, bad, 1)
	assert.Equal(t, "error", bad[0].Outcome)
	assert.Equal(t, "boom", bad[0].Error)
}

func TestRunNowWithoutRecorder(t *testing.T) {
	sched := New(nil, zerolog.Nop())
	job := newStubJob("solo", nil)

	require.NoError(t, sched.RunNow(job))
	assert.Equal(t, int64(1), job.runs.Load())
}
