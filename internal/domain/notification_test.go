package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNotificationDeliverable(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	pending := &Notification{Status: NotificationStatusPending}
	assert.True(t, pending.Deliverable(now, 5))

	sent := &Notification{Status: NotificationStatusSent}
	assert.False(t, sent.Deliverable(now, 5))

	backingOff := &Notification{Status: NotificationStatusFailed, Attempts: 1, NextAttemptAt: timePtr(now.Add(time.Minute))}
	assert.False(t, backingOff.Deliverable(now, 5))
	assert.True(t, backingOff.Deliverable(now.Add(time.Minute), 5))

	exhausted := &Notification{Status: NotificationStatusFailed, Attempts: 5}
	assert.False(t, exhausted.Deliverable(now, 5))
}
