package observability

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/tickets", http.MethodPost, http.StatusCreated, time.Millisecond)
	m.RecordRequest("/api/tickets", http.MethodPost, http.StatusCreated, time.Millisecond)
	m.RecordError("/api/tickets/:id/claim", http.MethodPost, "CONFLICT")
	m.RecordOperation("claim_ticket", "ok")
	m.RecordOutboxBatch(3, 1)
	m.RecordOutboxBatch(0, 0)
	m.RecordSLABreach()

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/api/tickets|POST|201"])
	assert.Equal(t, int64(1), snap.Errors["/api/tickets/:id/claim|POST|CONFLICT"])
	assert.Equal(t, int64(1), snap.Operations["claim_ticket|ok"])
	assert.Equal(t, int64(3), snap.OutboxSent)
	assert.Equal(t, int64(1), snap.OutboxFailed)
	assert.Equal(t, int64(2), snap.OutboxBatches)
	assert.Equal(t, int64(1), snap.SLABreaches)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordOperation("x", "y")
	m.RecordOutboxBatch(1, 1)
	assert.Equal(t, Snapshot{}, m.Snapshot())
}
