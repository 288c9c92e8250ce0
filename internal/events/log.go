package events

import (
	"sync"
	"time"

	"qadash/internal/domain"
)

const (
	ProjectCreated = "project.created"
	ProjectUpdated = "project.updated"
	RunTriggered   = "run.triggered"
	RunCompleted   = "run.completed"
	UserLogin      = "user.login"
	UserLogout     = "user.logout"
)

type Payload map[string]any

// Log is an in-memory ring of activity events. Older events are dropped once
// capacity is reached.
type Log struct {
	mu       sync.Mutex
	Now      func() time.Time
	capacity int
	nextID   int64
	events   []domain.Event
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = 1
	}
	return &Log{Now: time.Now, capacity: capacity}
}

func (l *Log) Append(evtType, projectID, entityID, actorID string, payload Payload) domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	l.nextID++
	evt := domain.Event{
		ID:        l.nextID,
		TS:        now().UTC().Format(time.RFC3339),
		Type:      evtType,
		ProjectID: projectID,
		EntityID:  entityID,
		ActorID:   actorID,
		Payload:   payload,
	}
	if len(l.events) == l.capacity {
		copy(l.events, l.events[1:])
		l.events = l.events[:len(l.events)-1]
	}
	l.events = append(l.events, evt)
	return evt
}

// Latest returns up to n events, newest first. n <= 0 returns all.
func (l *Log) Latest(n int) []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.events) {
		n = len(l.events)
	}
	res := make([]domain.Event, 0, n)
	for i := len(l.events) - 1; i >= 0 && len(res) < n; i-- {
		res = append(res, l.events[i])
	}
	return res
}
