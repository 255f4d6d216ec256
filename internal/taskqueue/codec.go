package taskqueue

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrEmptyPayload is returned when decoding an empty byte slice.
var ErrEmptyPayload = errors.New("empty task payload")

// wireTask is the serialized form of a Task. Result channels never leave
// the process.
type wireTask struct {
	ID         string
	Type       TaskType
	Events     []any
	EnqueuedAt time.Time
}

// EncodeTask serializes t using encoding/gob. Concrete event types must be
// registered with gob.Register first.
func EncodeTask(t Task) ([]byte, error) {
	var buf bytes.Buffer
	w := wireTask{ID: t.ID, Type: t.Type, Events: t.Events, EnqueuedAt: t.EnqueuedAt}
	if err := gob.NewEncoder(&buf).Encode(&w); err != nil {
		return nil, fmt.Errorf("encode task %s: %w", t.ID, err)
	}
	return buf.Bytes(), nil
}

// DecodeTask is the inverse of EncodeTask.
func DecodeTask(data []byte) (*Task, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	var w wireTask
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &Task{ID: w.ID, Type: w.Type, Events: w.Events, EnqueuedAt: w.EnqueuedAt}, nil
}

// Replies remembers the Result channels of tasks sent through a queue that
// serializes them, so that a task dequeued by the process that enqueued it
// can still reply. The zero value is ready to use.
type Replies struct {
	mu sync.Mutex
	m  map[string]chan<- Result
}

// Track remembers t.Result, if any.
func (r *Replies) Track(t Task) {
	if t.Result == nil || t.ID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m == nil {
		r.m = make(map[string]chan<- Result)
	}
	r.m[t.ID] = t.Result
}

// Forget drops the channel tracked for id, e.g. when enqueueing failed.
func (r *Replies) Forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
}

// Attach restores the Result channel of a decoded task.
func (r *Replies) Attach(t *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.m[t.ID]; ok {
		t.Result = ch
		delete(r.m, t.ID)
	}
}
