package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingProcessor struct {
	calls   atomic.Int64
	pending atomic.Int64
	fail    bool
}

func (p *countingProcessor) ProcessBatch(_ context.Context, limit int) (int, error) {
	p.calls.Add(1)
	if p.fail {
		return 0, errors.New("database unavailable")
	}
	for {
		left := p.pending.Load()
		n := int64(limit)
		if left < n {
			n = left
		}
		if p.pending.CompareAndSwap(left, left-n) {
			return int(n), nil
		}
	}
}

func TestOutboxWorkerDrainsPending(t *testing.T) {
	processor := &countingProcessor{}
	processor.pending.Store(25)
	w := NewOutboxWorker(processor, zap.NewNop(), 10, 5*time.Millisecond, 3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return processor.pending.Load() == 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestOutboxWorkerSurvivesErrors(t *testing.T) {
	processor := &countingProcessor{fail: true}
	w := NewOutboxWorker(processor, zap.NewNop(), 10, 2*time.Millisecond, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	w.Run(ctx)

	assert.Greater(t, processor.calls.Load(), int64(1))
}

func TestNewOutboxWorkerDefaults(t *testing.T) {
	w := NewOutboxWorker(&countingProcessor{}, zap.NewNop(), 50, 0, 0)
	assert.Equal(t, 1, w.workers)
	assert.Equal(t, time.Second, w.interval)
}
