package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/eshikshan/internal/service"

	"github.com/stretchr/testify/assert"
)

type purgeRecorder struct {
	service.NotificationService

	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (p *purgeRecorder) PurgeRead(ctx context.Context, before time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoffs = append(p.cutoffs, before)
	if p.err != nil {
		return 0, p.err
	}
	return 3, nil
}

func (p *purgeRecorder) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cutoffs)
}

func TestRetentionWorker_PurgeUsesCutoff(t *testing.T) {
	recorder := &purgeRecorder{}
	w := NewNotificationRetentionWorker(recorder, 30*24*time.Hour, time.Hour)
	fixed := time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	assert.Equal(t, int64(3), w.purge(context.Background()))
	assert.Equal(t, []time.Time{time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}, recorder.cutoffs)
}

func TestRetentionWorker_PurgeErrorIsLogged(t *testing.T) {
	recorder := &purgeRecorder{err: errors.New("db down")}
	w := NewNotificationRetentionWorker(recorder, time.Hour, time.Hour)

	assert.Zero(t, w.purge(context.Background()))
}

func TestRetentionWorker_StartStopsWithContext(t *testing.T) {
	recorder := &purgeRecorder{}
	w := NewNotificationRetentionWorker(recorder, time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return recorder.calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
