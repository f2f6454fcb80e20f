package memory

import (
	"context"
	"sync"

	"quiz-client/internal/app"
)

// SubmissionLog is an in-memory app.SubmissionLog, newest entries last.
type SubmissionLog struct {
	mu      sync.RWMutex
	nextID  int64
	records []app.SubmissionRecord
}

func NewSubmissionLog() *SubmissionLog {
	return &SubmissionLog{}
}

func (l *SubmissionLog) Record(_ context.Context, record app.SubmissionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	record.ID = l.nextID
	l.records = append(l.records, record)
	return nil
}

// Recent returns up to limit records, newest first.
func (l *SubmissionLog) Recent(_ context.Context, limit int) ([]app.SubmissionRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]app.SubmissionRecord, 0, limit)
	for i := len(l.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.records[i])
	}
	return out, nil
}
