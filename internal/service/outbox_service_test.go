package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-workflow/internal/domain"
	"github.com/spec-kit/ticket-workflow/internal/events"
	"github.com/spec-kit/ticket-workflow/internal/repository"
	apperrors "github.com/spec-kit/ticket-workflow/pkg/util"
)

func (h *harness) enqueue(t *testing.T, userID string, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	err := h.store.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		for i := 0; i < n; i++ {
			created, err := h.outbox.Enqueue(ctx, repos, userID, events.EventTicketCreated, map[string]any{"seq": i})
			if err != nil {
				return err
			}
			ids = append(ids, created.ID)
			h.clock.Advance(time.Millisecond)
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

func (h *harness) notification(t *testing.T, id string) *domain.Notification {
	t.Helper()
	n, err := h.store.Repos().Notifications.GetByID(context.Background(), id)
	require.NoError(t, err)
	return n
}

func TestProcessBatchDeliversOldestFirst(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ids := h.enqueue(t, "agent-a", 3)

	var delivered []string
	h.dispatcher.SubscribeAll(func(_ context.Context, e events.Event) error {
		delivered = append(delivered, e.ID)
		return nil
	})

	sent, err := h.outbox.ProcessBatch(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, ids[:2], delivered)

	sent, err = h.outbox.ProcessBatch(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	sent, err = h.outbox.ProcessBatch(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, sent)

	n := h.notification(t, ids[0])
	assert.Equal(t, domain.NotificationStatusSent, n.Status)
	require.NotNil(t, n.SentAt)
	assert.Empty(t, n.LastError)
}

func TestProcessBatchWithoutHandlersMarksSent(t *testing.T) {
	h := newHarness(t)
	ids := h.enqueue(t, "agent-a", 1)

	sent, err := h.outbox.ProcessBatch(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, domain.NotificationStatusSent, h.notification(t, ids[0]).Status)
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ids := h.enqueue(t, "agent-a", 3)
	broken := ids[1]
	healthy := false
	h.dispatcher.SubscribeAll(func(_ context.Context, e events.Event) error {
		if e.ID == broken && !healthy {
			return errors.New("mailbox full")
		}
		return nil
	})

	now := h.clock.Now()
	sent, err := h.outbox.ProcessBatch(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	n := h.notification(t, broken)
	assert.Equal(t, domain.NotificationStatusFailed, n.Status)
	assert.Equal(t, 1, n.Attempts)
	assert.Equal(t, "mailbox full", n.LastError)
	require.NotNil(t, n.NextAttemptAt)
	assert.Equal(t, now.Add(30*time.Second), *n.NextAttemptAt)

	sent, err = h.outbox.ProcessBatch(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, sent, "backoff has not elapsed")

	healthy = true
	h.clock.Advance(31 * time.Second)
	sent, err = h.outbox.ProcessBatch(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	n = h.notification(t, broken)
	assert.Equal(t, domain.NotificationStatusSent, n.Status)
	assert.Empty(t, n.LastError)
	assert.Equal(t, 1, n.Attempts)

	snap := h.metrics.Snapshot()
	assert.Equal(t, int64(3), snap.OutboxSent)
	assert.Equal(t, int64(1), snap.OutboxFailed)
}

func TestProcessBatchGivesUpAfterMaxAttempts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ids := h.enqueue(t, "agent-a", 1)
	h.dispatcher.SubscribeAll(func(context.Context, events.Event) error {
		return errors.New("unreachable")
	})

	for i := 0; i < 5; i++ {
		_, err := h.outbox.ProcessBatch(ctx, 10)
		require.NoError(t, err)
		h.clock.Advance(time.Hour)
	}

	n := h.notification(t, ids[0])
	assert.Equal(t, domain.NotificationStatusFailed, n.Status)
	assert.Equal(t, 3, n.Attempts)
	assert.Nil(t, n.NextAttemptAt)
}

func TestConcurrentWorkersDeliverEachRecordOnce(t *testing.T) {
	h := newHarness(t)
	const batch = 10
	ids := h.enqueue(t, "agent-a", 2*batch)

	var (
		mu     sync.Mutex
		counts = make(map[string]int)
	)
	h.dispatcher.SubscribeAll(func(_ context.Context, e events.Event) error {
		mu.Lock()
		counts[e.ID]++
		mu.Unlock()
		time.Sleep(time.Millisecond)
		return nil
	})

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		sent  [2]int
		errs  [2]error
	)
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			<-start
			sent[w], errs[w] = h.outbox.ProcessBatch(context.Background(), batch)
		}(w)
	}
	close(start)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, len(ids), sent[0]+sent[1])
	for _, id := range ids {
		assert.Equal(t, 1, counts[id], "notification %s", id)
		assert.Equal(t, domain.NotificationStatusSent, h.notification(t, id).Status)
	}
}

func TestAcknowledgeIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "client-1", domain.RoleClient)
	other := h.user(t, "agent-a", domain.RoleAgent)
	ids := h.enqueue(t, owner.ID, 1)

	_, err := h.outbox.Acknowledge(ctx, ids[0], other)
	requireCode(t, err, apperrors.CodePermissionDenied)
	assert.Nil(t, h.notification(t, ids[0]).ReadAt)

	first, err := h.outbox.Acknowledge(ctx, ids[0], owner)
	require.NoError(t, err)
	require.NotNil(t, first.ReadAt)

	h.clock.Advance(time.Hour)
	second, err := h.outbox.Acknowledge(ctx, ids[0], owner)
	require.NoError(t, err)
	assert.Equal(t, *first.ReadAt, *second.ReadAt)

	_, err = h.outbox.Acknowledge(ctx, ids[0], other)
	requireCode(t, err, apperrors.CodePermissionDenied)
	assert.Equal(t, *first.ReadAt, *h.notification(t, ids[0]).ReadAt)

	_, err = h.outbox.Acknowledge(ctx, "missing", owner)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestListForRecipientShowsOnlyOwnNotifications(t *testing.T) {
	h := newHarness(t)
	mine := h.user(t, "client-1", domain.RoleClient)
	h.enqueue(t, mine.ID, 2)
	h.enqueue(t, "agent-a", 3)

	rows, err := h.outbox.ListForRecipient(context.Background(), mine, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, n := range rows {
		assert.Equal(t, mine.ID, n.ToUserID)
	}
	assert.True(t, rows[0].CreatedAt.After(rows[1].CreatedAt), "newest first")
}

func TestRetryPolicyNextAttempt(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, Base: 30 * time.Second, Max: 2 * time.Minute}
	now := epoch

	for attempts, want := range map[int]time.Duration{
		1: 30 * time.Second,
		2: time.Minute,
		3: 2 * time.Minute,
		4: 2 * time.Minute,
	} {
		next := policy.NextAttempt(now, attempts)
		require.NotNil(t, next, fmt.Sprint(attempts))
		assert.Equal(t, now.Add(want), *next, fmt.Sprint(attempts))
	}
	assert.Nil(t, policy.NextAttempt(now, 5))
	assert.NotNil(t, RetryPolicy{Base: time.Second}.NextAttempt(now, 100), "no max attempts means retry forever")
}
