package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDueAt(t *testing.T) {
	created := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := map[TicketPriority]time.Duration{
		TicketPriorityUrgent: 15 * time.Minute,
		TicketPriorityHigh:   2 * time.Hour,
		TicketPriorityMedium: 8 * time.Hour,
		TicketPriorityLow:    24 * time.Hour,
	}
	for priority, offset := range cases {
		due := DueAt(priority, created)
		require.NotNil(t, due, priority)
		assert.Equal(t, created.Add(offset), *due, priority)
	}
}

func TestDueAtUnknownPriority(t *testing.T) {
	assert.Nil(t, DueAt(TicketPriority("someday"), time.Now()))
}
