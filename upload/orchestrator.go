// Package upload implements the concurrent upload orchestrator.
//
// A batch of pending files is fanned out to one transfer goroutine per file
// against a transfer.Transferrer. Each file owns its own Task, so a failure
// in one transfer never cancels, delays, or corrupts another. The batch
// result is reported only after every transfer reached a terminal state,
// and always in submission order regardless of completion order.
package upload

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/mediakit/logger"
	"github.com/rise-and-shine/mediakit/transfer"
	"github.com/rise-and-shine/mediakit/validate"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "mediakit.upload"

// PendingFile is a locally-selected, validated file awaiting upload.
// It is never the same object as a committed media item: commit is a
// one-way conversion performed by the session after the batch settles.
type PendingFile struct {
	// ID is assigned at intake time and stays stable for the lifetime
	// of the pending entry.
	ID string

	// Name is the original filename.
	Name string

	// Kind is the validated media kind.
	Kind validate.Kind

	// Document marks PDF content for distinct rendering downstream.
	Document bool

	// Size is the declared byte size.
	Size int64

	// Open yields a fresh reader over the source bytes. It is called
	// once per transfer attempt.
	Open func() (io.ReadCloser, error)
}

// FileResult is the terminal outcome of one file's transfer.
type FileResult struct {
	FileID   string
	Name     string
	Kind     validate.Kind
	Document bool

	// URL is the durable locator, non-empty exactly when Err is nil.
	URL string

	// Err is the failure reason, nil on success.
	Err error
}

// Succeeded reports whether the transfer settled successfully.
func (r FileResult) Succeeded() bool { return r.Err == nil }

// BatchResult aggregates the outcome of one submitted batch.
// Results holds one entry per submitted file, in submission order.
type BatchResult struct {
	Results   []FileResult
	Succeeded int
	Failed    int
}

// Successes returns the successful results in submission order.
func (b *BatchResult) Successes() []FileResult {
	return lo.Filter(b.Results, func(r FileResult, _ int) bool { return r.Succeeded() })
}

// Config holds the orchestrator dependencies.
type Config struct {
	// Transferrer performs the actual per-file uploads. Required.
	Transferrer transfer.Transferrer

	// Progress drives in-flight progress values.
	// Defaults to SyntheticProgress{}.
	Progress ProgressSource

	// Notifier receives per-file failure and batch summary notices.
	// Defaults to NopNotifier{}.
	Notifier Notifier

	// Logger defaults to a no-op logger.
	Logger logger.Logger
}

func applyDefaults(cfg *Config) {
	if cfg.Progress == nil {
		cfg.Progress = SyntheticProgress{}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
}

// Orchestrator drives concurrent per-file uploads with per-file progress,
// failure isolation and deterministic result ordering.
type Orchestrator struct {
	cfg    Config
	log    logger.Logger
	tracer trace.Tracer

	mu    sync.Mutex
	tasks map[string]*Task
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Transferrer == nil {
		return nil, errx.New("transferrer is required", errx.WithType(errx.T_Internal))
	}
	applyDefaults(&cfg)

	return &Orchestrator{
		cfg:    cfg,
		log:    cfg.Logger.Named("upload"),
		tracer: otel.Tracer(tracerName),
	}, nil
}

// SubmitBatch transfers all files concurrently and blocks until every one
// of them reached a terminal state. The returned results follow submission
// order, never completion order. Cancelling ctx makes the remaining
// transfers settle as failures; partial results of an aborted batch are
// reported but it is the caller's decision to discard them.
func (o *Orchestrator) SubmitBatch(ctx context.Context, files []*PendingFile) *BatchResult {
	results := make([]FileResult, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		task := o.register(f)

		wg.Add(1)
		go func(slot int, f *PendingFile, t *Task) {
			defer wg.Done()
			// Each goroutine writes only its own slot.
			results[slot] = o.transferOne(ctx, f, t)
		}(i, f, task)
	}
	wg.Wait()

	succeeded := lo.CountBy(results, func(r FileResult) bool { return r.Succeeded() })
	batch := &BatchResult{
		Results:   results,
		Succeeded: succeeded,
		Failed:    len(results) - succeeded,
	}

	o.notifySummary(batch)

	return batch
}

// Task returns the task for a file in the current or a previous batch.
func (o *Orchestrator) Task(fileID string) (*Task, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	t, ok := o.tasks[fileID]
	return t, ok
}

func (o *Orchestrator) register(f *PendingFile) *Task {
	t := newTask(f.ID, f.Name)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.tasks == nil {
		o.tasks = make(map[string]*Task)
	}
	// A re-submitted file arrives with a fresh ID, so stale failure
	// state from an earlier batch is never mutated in place.
	o.tasks[f.ID] = t
	return t
}

func (o *Orchestrator) transferOne(ctx context.Context, f *PendingFile, t *Task) FileResult {
	ctx, span := o.tracer.Start(ctx, "upload.transfer", trace.WithAttributes(
		attribute.String("file.id", f.ID),
		attribute.String("file.name", f.Name),
		attribute.String("file.kind", string(f.Kind)),
		attribute.Int64("file.size", f.Size),
	))
	defer span.End()

	result := FileResult{
		FileID:   f.ID,
		Name:     f.Name,
		Kind:     f.Kind,
		Document: f.Document,
	}

	t.start()

	done := make(chan struct{})
	go o.cfg.Progress.Run(t, done)
	defer close(done)

	url, err := o.attempt(ctx, f)
	if err != nil {
		t.fail(err)
		span.SetStatus(otelcodes.Error, err.Error())
		span.RecordError(err)

		o.log.With("file", f.Name, "file_id", f.ID, "error", err).Warn("transfer failed")
		o.cfg.Notifier.Notify(NoticeError, fmt.Sprintf("failed to upload %s: %s", f.Name, err.Error()))

		result.Err = err
		return result
	}

	t.succeed(url)
	span.SetStatus(otelcodes.Ok, "")

	o.log.With("file", f.Name, "file_id", f.ID, "url", url).Debug("transfer succeeded")

	result.URL = url
	return result
}

func (o *Orchestrator) attempt(ctx context.Context, f *PendingFile) (string, error) {
	source, err := f.Open()
	if err != nil {
		return "", errx.Wrap(err, errx.WithCode(CodeSourceUnreadable))
	}
	defer func() { _ = source.Close() }()

	url, err := o.cfg.Transferrer.Transfer(ctx, f.Name, source)
	if err != nil {
		return "", errx.Wrap(err, errx.WithCode(CodeTransferFailed))
	}
	if url == "" {
		return "", errx.New(
			"transfer returned an empty url",
			errx.WithCode(CodeTransferFailed),
			errx.WithDetails(errx.D{"file": f.Name}),
		)
	}
	return url, nil
}

func (o *Orchestrator) notifySummary(batch *BatchResult) {
	total := len(batch.Results)
	if total == 0 {
		return
	}

	if batch.Failed > 0 {
		o.cfg.Notifier.Notify(NoticeError, fmt.Sprintf(
			"%d of %d files uploaded; %d failed", batch.Succeeded, total, batch.Failed,
		))
		return
	}
	o.cfg.Notifier.Notify(NoticeSuccess, fmt.Sprintf("%d of %d files uploaded", batch.Succeeded, total))
}
