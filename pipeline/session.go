// Package pipeline ties the media intake components into one editing
// session: files come in through the validation gate, get local previews,
// upload concurrently through the orchestrator, and successful uploads are
// committed into the ordered media collection the host renders and submits.
//
// A session owns in-memory state for the duration of one editing session;
// nothing is persisted across restarts.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/google/uuid"
	"github.com/rise-and-shine/mediakit/collection"
	"github.com/rise-and-shine/mediakit/logger"
	"github.com/rise-and-shine/mediakit/preview"
	"github.com/rise-and-shine/mediakit/transfer"
	"github.com/rise-and-shine/mediakit/upload"
	"github.com/rise-and-shine/mediakit/validate"
	"github.com/samber/lo"
)

// FileInput describes one user-selected file offered to the session.
type FileInput struct {
	// Name is the original filename.
	Name string

	// Size is the declared byte size.
	Size int64

	// MIME is the declared content type.
	MIME string

	// Open yields a fresh reader over the file's bytes. It is called
	// once to render the preview and once per upload.
	Open func() (io.ReadCloser, error)
}

// Rejection reports why one file from an AddFiles batch was not admitted.
type Rejection struct {
	Name   string
	Reason error
}

// PendingInfo is the host-facing view of a pending file.
type PendingInfo struct {
	ID          string
	Name        string
	Kind        validate.Kind
	Document    bool
	PreviewPath string
}

// Deps holds the collaborators a session is constructed with.
type Deps struct {
	// Transferrer uploads individual files. Required.
	Transferrer transfer.Transferrer

	// Notifier receives user-facing notices. Defaults to NopNotifier.
	Notifier upload.Notifier

	// Progress drives in-flight progress values.
	// Defaults to upload.SyntheticProgress{}.
	Progress upload.ProgressSource

	// Logger defaults to a no-op logger.
	Logger logger.Logger
}

type pendingEntry struct {
	file      *upload.PendingFile
	preview   *preview.Handle
	open      func() (io.ReadCloser, error)
	submitted bool
}

// Session is the single logical owner of one editing session's media state.
type Session struct {
	gate     *validate.Gate
	previews *preview.Manager
	orch     *upload.Orchestrator
	store    *collection.Store
	notifier upload.Notifier
	log      logger.Logger

	mu       sync.Mutex
	pending  []*pendingEntry
	inFlight int
	closed   bool
}

// NewSession creates a session with the given intake rules and
// collaborators. Zero config fields receive their documented defaults.
func NewSession(cfg validate.Config, deps Deps) (*Session, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, errx.Wrap(err)
	}
	if err := validateStruct(&cfg); err != nil {
		return nil, err
	}

	if deps.Notifier == nil {
		deps.Notifier = upload.NopNotifier{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	orch, err := upload.New(upload.Config{
		Transferrer: deps.Transferrer,
		Progress:    deps.Progress,
		Notifier:    deps.Notifier,
		Logger:      deps.Logger,
	})
	if err != nil {
		return nil, errx.Wrap(err)
	}

	previews, err := preview.NewManager(deps.Logger)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &Session{
		gate:     validate.NewGate(cfg),
		previews: previews,
		orch:     orch,
		store:    collection.New(),
		notifier: deps.Notifier,
		log:      deps.Logger.Named("pipeline"),
	}, nil
}

// AddFiles runs the intake path for a newly selected batch: the count
// check first (rejecting the whole batch as one unit when it would exceed
// the maximum), then per-file validation. Accepted files become pending
// entries with a preview each; rejected files are reported individually
// and do not affect their accepted siblings.
func (s *Session) AddFiles(inputs []FileInput) ([]PendingInfo, []Rejection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, nil, s.closedError()
	}

	existing := s.store.Len() + len(s.pending)
	if err := s.gate.CheckCount(existing, len(inputs)); err != nil {
		s.notifier.Notify(upload.NoticeError, err.Error())
		return nil, nil, err
	}

	var (
		accepted []PendingInfo
		rejected []Rejection
	)

	for _, in := range inputs {
		entry, err := s.admit(in)
		if err != nil {
			s.notifier.Notify(upload.NoticeError, err.Error())
			rejected = append(rejected, Rejection{Name: in.Name, Reason: err})
			continue
		}

		s.pending = append(s.pending, entry)
		accepted = append(accepted, pendingInfo(entry))
	}

	return accepted, rejected, nil
}

// admit validates one candidate and builds its pending entry.
func (s *Session) admit(in FileInput) (*pendingEntry, error) {
	candidate := validate.Candidate{Name: in.Name, Size: in.Size, MIME: in.MIME}

	kind, err := s.gate.Validate(candidate)
	if err != nil {
		return nil, err
	}

	source, err := in.Open()
	if err != nil {
		return nil, errx.Wrap(err)
	}
	defer func() { _ = source.Close() }()

	handle, err := s.previews.Acquire(in.Name, source)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &pendingEntry{
		file: &upload.PendingFile{
			ID:       uuid.New().String(),
			Name:     in.Name,
			Kind:     kind,
			Document: validate.IsDocument(candidate),
			Size:     in.Size,
			Open:     in.Open,
		},
		preview: handle,
		open:    in.Open,
	}, nil
}

// Upload submits every not-yet-submitted pending file as one batch and
// blocks until all transfers settle. Successful files are committed into
// the collection in submission order and their previews released; failed
// files are consumed too (re-adding them creates a fresh pending entry and
// task). When ctx is cancelled before completion the whole batch result is
// discarded and nothing is committed.
func (s *Session) Upload(ctx context.Context) (*upload.BatchResult, error) {
	entries, err := s.takeBatch()
	if err != nil {
		return nil, err
	}

	files := lo.Map(entries, func(e *pendingEntry, _ int) *upload.PendingFile { return e.file })

	batch := s.orch.SubmitBatch(ctx, files)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--

	// The batch consumes its entries on every path out: commit, failure,
	// or abort. Entries leave the pending list before the commit below so
	// the committed+pending count never overshoots.
	for _, e := range entries {
		s.previews.Release(e.preview)
	}
	s.dropEntries(entries)

	if ctx.Err() != nil {
		s.log.With("files", len(files)).Warn("upload batch aborted; discarding results")
		return batch, errx.New(
			"upload batch aborted",
			errx.WithCode(CodeBatchAborted),
			errx.WithDetails(errx.D{"files": fmt.Sprint(len(files))}),
		)
	}

	items := lo.Map(batch.Successes(), func(r upload.FileResult, _ int) collection.Item {
		return collection.Item{
			ID:       r.FileID,
			URL:      r.URL,
			Kind:     r.Kind,
			Document: r.Document,
		}
	})

	if err := s.store.Append(items...); err != nil {
		return batch, errx.Wrap(err)
	}

	return batch, nil
}

// takeBatch marks all unsubmitted pending entries as submitted and returns
// them in intake order.
func (s *Session) takeBatch() ([]*pendingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, s.closedError()
	}

	entries := lo.Filter(s.pending, func(e *pendingEntry, _ int) bool { return !e.submitted })
	if len(entries) == 0 {
		return nil, errx.New("no pending files to upload", errx.WithCode(CodeNothingPending))
	}

	for _, e := range entries {
		e.submitted = true
	}
	s.inFlight++

	return entries, nil
}

// dropEntries removes the given entries from the pending list.
// Callers hold s.mu.
func (s *Session) dropEntries(entries []*pendingEntry) {
	drop := lo.SliceToMap(entries, func(e *pendingEntry) (string, struct{}) {
		return e.file.ID, struct{}{}
	})
	s.pending = lo.Filter(s.pending, func(e *pendingEntry, _ int) bool {
		_, gone := drop[e.file.ID]
		return !gone
	})
}

// RemovePending discards a not-yet-submitted pending file and releases its
// preview.
func (s *Session) RemovePending(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.closedError()
	}

	for _, e := range s.pending {
		if e.file.ID != id || e.submitted {
			continue
		}
		s.previews.Release(e.preview)
		s.dropEntries([]*pendingEntry{e})
		return nil
	}

	return errx.New(
		"pending file not found",
		errx.WithCode(CodePendingNotFound),
		errx.WithDetails(errx.D{"id": id}),
	)
}

// Remove deletes the committed item at index. It applies immediately,
// independent of any upload activity.
func (s *Session) Remove(index int) error {
	return s.store.Remove(index)
}

// Reorder moves the committed item at from to position to. It applies
// immediately, independent of any upload activity; a batch that commits
// later appends to the order as it is at commit time.
func (s *Session) Reorder(from, to int) error {
	return s.store.Reorder(from, to)
}

// Resync replaces the collection from an authoritative external source.
// It is refused while a batch is in flight so an in-progress commit cannot
// be clobbered, and it compares item identities (not lengths) so that a
// same-length, different-content state is still applied.
func (s *Session) Resync(items []collection.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.closedError()
	}
	if s.inFlight > 0 {
		return errx.New(
			"resync refused while uploads are in flight",
			errx.WithCode(CodeUploadInFlight),
			errx.WithType(errx.T_Conflict),
		)
	}

	incoming := lo.Map(items, func(it collection.Item, _ int) string { return it.ID })
	if slices.Equal(s.store.IDs(), incoming) {
		return nil
	}

	return errx.Wrap(s.store.Hydrate(items))
}

// Media returns the current ordered list of committed items.
func (s *Session) Media() []collection.Item {
	return s.store.Snapshot()
}

// Subscribe registers an observer for every collection mutation. The
// observer receives the full ordered list, never a diff.
func (s *Session) Subscribe(fn collection.Observer) {
	s.store.Subscribe(fn)
}

// Pending returns the host-facing view of the current pending files,
// submitted ones included.
func (s *Session) Pending() []PendingInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.pending, func(e *pendingEntry, _ int) PendingInfo { return pendingInfo(e) })
}

// Progress returns the upload task for a pending file, if one exists.
func (s *Session) Progress(fileID string) (*upload.Task, bool) {
	return s.orch.Task(fileID)
}

// Close tears the session down, releasing every outstanding preview.
// In-flight transfers are allowed to finish in the background; their
// results are discarded by the aborted-batch path.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.pending = nil

	return errx.Wrap(s.previews.Close())
}

func (s *Session) closedError() error {
	return errx.New("session is closed", errx.WithCode(CodeSessionClosed))
}

func pendingInfo(e *pendingEntry) PendingInfo {
	return PendingInfo{
		ID:          e.file.ID,
		Name:        e.file.Name,
		Kind:        e.file.Kind,
		Document:    e.file.Document,
		PreviewPath: e.preview.Path(),
	}
}
