package upload

import "time"

// ProgressSource drives the visible progress of one in-flight transfer.
// The orchestrator starts one source per task and closes done when the
// transfer settles. Implementations must never report completion on their
// own: Task.SetProgress clamps below 100 and the orchestrator snaps to 100
// only on confirmed success.
type ProgressSource interface {
	Run(t *Task, done <-chan struct{})
}

// SyntheticProgress approximates progress with a timed increment for
// transfer collaborators that report no granular progress of their own.
// The curve approaches Ceiling and stays there until the transfer settles.
type SyntheticProgress struct {
	// Interval between increments. Defaults to 150ms.
	Interval time.Duration

	// Step is the increment per tick. Defaults to 7.
	Step int

	// Ceiling is the highest value the synthetic curve may reach.
	// Defaults to 95.
	Ceiling int
}

// Run implements ProgressSource.
func (s SyntheticProgress) Run(t *Task, done <-chan struct{}) {
	interval := s.Interval
	if interval <= 0 {
		interval = 150 * time.Millisecond
	}
	step := s.Step
	if step <= 0 {
		step = 7
	}
	ceiling := s.Ceiling
	if ceiling <= 0 || ceiling > 99 {
		ceiling = 95
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	current := 0
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if current < ceiling {
				current += step
				if current > ceiling {
					current = ceiling
				}
				t.SetProgress(current)
			}
		}
	}
}

// StaticProgress reports one fixed value and then idles until the transfer
// settles. Useful for deterministic tests and for hosts that render only
// an indeterminate spinner.
type StaticProgress struct {
	Value int
}

// Run implements ProgressSource.
func (s StaticProgress) Run(t *Task, done <-chan struct{}) {
	t.SetProgress(s.Value)
	<-done
}
