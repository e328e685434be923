package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/application/services"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/config"
	fixtures "github.com/vsinha/printcenter/pkg/infrastructure/testing"
)

type fakeRecorder struct {
	mu   sync.Mutex
	runs map[string]int
	errs int
}

func (r *fakeRecorder) RecordJob(job string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runs == nil {
		r.runs = make(map[string]int)
	}
	r.runs[job]++
	if err != nil {
		r.errs++
	}
}

func (r *fakeRecorder) count(job string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[job]
}

type runnerFunc func(ctx context.Context, name string) (*dto.JobResult, error)

func (f runnerFunc) Run(ctx context.Context, name string) (*dto.JobResult, error) {
	return f(ctx, name)
}

func TestJobs_Intervals(t *testing.T) {
	jobs := Jobs(config.JobsConfig{
		ConfirmationInterval: 15 * time.Minute,
		DeliveryInterval:     30 * time.Minute,
		OverdueInterval:      24 * time.Hour,
		LowStockInterval:     time.Hour,
		BookingInterval:      5 * time.Minute,
	})
	require.Len(t, jobs, 6)

	byName := make(map[string]time.Duration)
	for _, j := range jobs {
		byName[j.Name] = j.Interval
	}
	assert.Equal(t, 15*time.Minute, byName[services.JobConfirmationDeadlines])
	assert.Equal(t, 15*time.Minute, byName[services.JobExpiredConfirmations])
	assert.Equal(t, 30*time.Minute, byName[services.JobReadyForDelivery])
	assert.Equal(t, 24*time.Hour, byName[services.JobOverdueOrders])
	assert.Equal(t, time.Hour, byName[services.JobLowStock])
	assert.Equal(t, 5*time.Minute, byName[services.JobOverdueBookings])
	assert.Equal(t, services.JobOverdueBookings, jobs[0].Name)
}

func TestScheduler_RunOnceAgainstFixture(t *testing.T) {
	f, err := fixtures.NewFixture()
	require.NoError(t, err)
	svc, err := services.New(services.Options{
		Store:  f.Store,
		Clock:  func() time.Time { return fixtures.FixedNow },
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)

	// drain the coated stock below its minimum
	require.NoError(t, f.Store.Update(context.Background(), func(tx repositories.Tx) error {
		item, err := tx.InventoryItems().Get(f.CoatedPaper.ID)
		if err != nil {
			return err
		}
		item.CurrentQuantity = 10
		return tx.InventoryItems().Put(item)
	}))

	rec := &fakeRecorder{}
	s := NewScheduler(svc.Maintenance, Jobs(config.JobsConfig{}), rec, zerolog.Nop())

	results, err := s.RunOnce(context.Background(), services.JobLowStock)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Processed)
	assert.Equal(t, 1, rec.count(services.JobLowStock))

	results, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 6)

	results, err = s.RunOnce(context.Background(), "nope", services.JobOverdueOrders)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.Len(t, results, 1)
	assert.Equal(t, 1, rec.errs)
}

func TestScheduler_StartTicksUntilCancelled(t *testing.T) {
	rec := &fakeRecorder{}
	runner := runnerFunc(func(_ context.Context, name string) (*dto.JobResult, error) {
		if name == "broken" {
			return nil, errors.New("boom")
		}
		return &dto.JobResult{Job: name}, nil
	})
	s := NewScheduler(runner, []Job{
		{Name: "fast", Interval: 5 * time.Millisecond},
		{Name: "broken", Interval: 5 * time.Millisecond},
		{Name: "off"},
	}, rec, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	assert.Eventually(t, func() bool {
		return rec.count("fast") >= 2 && rec.count("broken") >= 2
	}, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Zero(t, rec.count("off"))
}
