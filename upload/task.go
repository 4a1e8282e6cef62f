package upload

import "sync"

// State describes where an upload task is in its lifecycle.
type State string

const (
	StatePending   State = "pending"
	StateInFlight  State = "in-flight"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Terminal reports whether the state will not transition further.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Task tracks the transfer of a single pending file within one batch.
// Progress is monotonically non-decreasing while in flight, snaps to 100
// only on confirmed success, and freezes at its last value on failure.
// Exactly one Task exists per pending file per batch; a re-submitted file
// gets a brand-new Task.
type Task struct {
	fileID string
	name   string

	mu       sync.Mutex
	state    State
	progress int
	url      string
	err      error
}

func newTask(fileID, name string) *Task {
	return &Task{
		fileID: fileID,
		name:   name,
		state:  StatePending,
	}
}

// FileID returns the ID of the pending file this task belongs to.
func (t *Task) FileID() string { return t.fileID }

// Name returns the original filename, for display purposes.
func (t *Task) Name() string { return t.name }

// State returns the current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Progress returns the current progress percentage (0-100).
func (t *Task) Progress() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// URL returns the durable URL once the task has succeeded.
func (t *Task) URL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.url
}

// Err returns the failure reason once the task has failed.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// SetProgress advances the in-flight progress. Values below the current
// progress are ignored, values of 100 or more are clamped to 99: only a
// confirmed success may report completion. Calls on a task that is not in
// flight are no-ops.
func (t *Task) SetProgress(p int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateInFlight {
		return
	}
	if p >= 100 {
		p = 99
	}
	if p > t.progress {
		t.progress = p
	}
}

func (t *Task) start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StatePending {
		t.state = StateInFlight
	}
}

func (t *Task) succeed(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateSucceeded
	t.progress = 100
	t.url = url
}

func (t *Task) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateFailed
	t.err = err
}
