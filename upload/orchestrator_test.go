package upload_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/mediakit/transfer"
	"github.com/rise-and-shine/mediakit/upload"
	"github.com/rise-and-shine/mediakit/validate"
)

// fakeTransferrer settles each file after its configured delay, failing the
// ones listed in fails. Settlement order is recorded to prove that result
// order does not depend on it.
type fakeTransferrer struct {
	delays map[string]time.Duration
	fails  map[string]error

	mu      sync.Mutex
	settled []string
}

func (f *fakeTransferrer) Transfer(ctx context.Context, name string, content io.Reader) (string, error) {
	if _, err := io.ReadAll(content); err != nil {
		return "", err
	}

	if delay := f.delays[name]; delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	} else if ctx.Err() != nil {
		return "", ctx.Err()
	}

	f.mu.Lock()
	f.settled = append(f.settled, name)
	f.mu.Unlock()

	if err := f.fails[name]; err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + name, nil
}

func (f *fakeTransferrer) settledOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.settled...)
}

// recordingNotifier captures notices for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []string
}

func (n *recordingNotifier) Notify(kind upload.NoticeKind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, fmt.Sprintf("%s: %s", kind, message))
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.notices...)
}

func pendingFile(id, name string) *upload.PendingFile {
	return &upload.PendingFile{
		ID:   id,
		Name: name,
		Kind: validate.KindImage,
		Size: 1024,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("content of " + name)), nil
		},
	}
}

func newOrchestrator(t *testing.T, tr transfer.Transferrer, notifier upload.Notifier) *upload.Orchestrator {
	t.Helper()

	o, err := upload.New(upload.Config{
		Transferrer: tr,
		Progress:    upload.StaticProgress{Value: 42},
		Notifier:    notifier,
	})
	require.NoError(t, err)
	return o
}

func TestNew_RequiresTransferrer(t *testing.T) {
	_, err := upload.New(upload.Config{})
	assert.Error(t, err)
}

func TestSubmitBatch_ResultsFollowSubmissionOrder(t *testing.T) {
	tr := &fakeTransferrer{delays: map[string]time.Duration{
		"a.jpg": 60 * time.Millisecond,
		"b.jpg": 90 * time.Millisecond,
		"c.jpg": 10 * time.Millisecond,
	}}
	o := newOrchestrator(t, tr, nil)

	batch := o.SubmitBatch(t.Context(), []*upload.PendingFile{
		pendingFile("1", "a.jpg"),
		pendingFile("2", "b.jpg"),
		pendingFile("3", "c.jpg"),
	})

	// Transfers settled out of submission order...
	assert.Equal(t, []string{"c.jpg", "a.jpg", "b.jpg"}, tr.settledOrder())

	// ...but the result order is the submission order.
	require.Len(t, batch.Results, 3)
	assert.Equal(t, "a.jpg", batch.Results[0].Name)
	assert.Equal(t, "b.jpg", batch.Results[1].Name)
	assert.Equal(t, "c.jpg", batch.Results[2].Name)

	assert.Equal(t, 3, batch.Succeeded)
	assert.Equal(t, 0, batch.Failed)
	for _, r := range batch.Results {
		assert.True(t, r.Succeeded())
		assert.NotEmpty(t, r.URL)
	}
}

func TestSubmitBatch_FailureIsolation(t *testing.T) {
	tr := &fakeTransferrer{
		fails: map[string]error{"b.jpg": errors.New("storage unavailable")},
	}
	o := newOrchestrator(t, tr, nil)

	files := []*upload.PendingFile{
		pendingFile("1", "a.jpg"),
		pendingFile("2", "b.jpg"),
		pendingFile("3", "c.jpg"),
	}
	batch := o.SubmitBatch(t.Context(), files)

	assert.Equal(t, 2, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)

	assert.True(t, batch.Results[0].Succeeded())
	assert.True(t, batch.Results[2].Succeeded())

	failed := batch.Results[1]
	require.Error(t, failed.Err)
	assert.True(t, errx.IsCodeIn(failed.Err, upload.CodeTransferFailed))
	assert.Contains(t, failed.Err.Error(), "storage unavailable")
	assert.Empty(t, failed.URL)

	// Only the successful results appear in Successes, in order.
	successes := batch.Successes()
	require.Len(t, successes, 2)
	assert.Equal(t, "a.jpg", successes[0].Name)
	assert.Equal(t, "c.jpg", successes[1].Name)
}

func TestSubmitBatch_TaskStatesAndProgress(t *testing.T) {
	tr := &fakeTransferrer{
		delays: map[string]time.Duration{"a.jpg": 20 * time.Millisecond, "b.jpg": 20 * time.Millisecond},
		fails:  map[string]error{"b.jpg": errors.New("boom")},
	}
	o := newOrchestrator(t, tr, nil)

	o.SubmitBatch(t.Context(), []*upload.PendingFile{
		pendingFile("ok", "a.jpg"),
		pendingFile("bad", "b.jpg"),
	})

	okTask, found := o.Task("ok")
	require.True(t, found)
	assert.Equal(t, upload.StateSucceeded, okTask.State())
	assert.Equal(t, 100, okTask.Progress())

	badTask, found := o.Task("bad")
	require.True(t, found)
	assert.Equal(t, upload.StateFailed, badTask.State())
	assert.Less(t, badTask.Progress(), 100)
	assert.Error(t, badTask.Err())
}

func TestSubmitBatch_UnreadableSourceFailsOnlyThatFile(t *testing.T) {
	tr := &fakeTransferrer{}
	o := newOrchestrator(t, tr, nil)

	broken := pendingFile("1", "broken.jpg")
	broken.Open = func() (io.ReadCloser, error) { return nil, errors.New("gone") }

	batch := o.SubmitBatch(t.Context(), []*upload.PendingFile{
		broken,
		pendingFile("2", "fine.jpg"),
	})

	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	assert.True(t, errx.IsCodeIn(batch.Results[0].Err, upload.CodeSourceUnreadable))
	assert.True(t, batch.Results[1].Succeeded())
}

func TestSubmitBatch_AggregateNotice(t *testing.T) {
	notifier := &recordingNotifier{}
	tr := &fakeTransferrer{
		fails: map[string]error{"b.jpg": errors.New("boom")},
	}
	o := newOrchestrator(t, tr, notifier)

	o.SubmitBatch(t.Context(), []*upload.PendingFile{
		pendingFile("1", "a.jpg"),
		pendingFile("2", "b.jpg"),
		pendingFile("3", "c.jpg"),
	})

	notices := notifier.all()
	assert.Contains(t, notices, "error: 2 of 3 files uploaded; 1 failed")
}

func TestSubmitBatch_AllSucceededNotice(t *testing.T) {
	notifier := &recordingNotifier{}
	o := newOrchestrator(t, &fakeTransferrer{}, notifier)

	o.SubmitBatch(t.Context(), []*upload.PendingFile{
		pendingFile("1", "a.jpg"),
		pendingFile("2", "b.jpg"),
	})

	assert.Contains(t, notifier.all(), "success: 2 of 2 files uploaded")
}

func TestSubmitBatch_CancelledContextSettlesAllAsFailures(t *testing.T) {
	tr := &fakeTransferrer{delays: map[string]time.Duration{
		"a.jpg": time.Second,
		"b.jpg": time.Second,
	}}
	o := newOrchestrator(t, tr, nil)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	start := time.Now()
	batch := o.SubmitBatch(ctx, []*upload.PendingFile{
		pendingFile("1", "a.jpg"),
		pendingFile("2", "b.jpg"),
	})

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 0, batch.Succeeded)
	assert.Equal(t, 2, batch.Failed)
	for _, r := range batch.Results {
		require.Error(t, r.Err)
		assert.Contains(t, r.Err.Error(), context.Canceled.Error())
	}
}

func TestSubmitBatch_EmptyBatch(t *testing.T) {
	notifier := &recordingNotifier{}
	o := newOrchestrator(t, &fakeTransferrer{}, notifier)

	batch := o.SubmitBatch(t.Context(), nil)

	assert.Empty(t, batch.Results)
	assert.Empty(t, notifier.all())
}
