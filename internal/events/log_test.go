package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestNewestFirst(t *testing.T) {
	l := NewLog(10)
	l.Now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	l.Append(ProjectCreated, "P1", "P1", "jane", nil)
	l.Append(RunTriggered, "P1", "RES-1", "jane", Payload{"environment": "UAT"})

	got := l.Latest(0)
	require.Len(t, got, 2)
	assert.Equal(t, RunTriggered, got[0].Type)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, "2025-01-01T00:00:00Z", got[0].TS)
	assert.Equal(t, ProjectCreated, got[1].Type)

	assert.Len(t, l.Latest(1), 1)
}

func TestCapacityDropsOldest(t *testing.T) {
	l := NewLog(3)
	for i := 0; i < 5; i++ {
		l.Append(RunCompleted, "P1", "", "", nil)
	}
	got := l.Latest(0)
	require.Len(t, got, 3)
	assert.Equal(t, int64(5), got[0].ID)
	assert.Equal(t, int64(3), got[2].ID)
}
