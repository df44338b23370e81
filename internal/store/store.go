// Package store owns the canonical onboarding progress. It loads local
// progress synchronously, hydrates once from the remote API, resolves
// conflicts by last-write-wins on updatedAt, persists every change locally
// and debounces outbound saves.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/marcus/onboard/internal/checklist"
	"github.com/marcus/onboard/internal/db"
	"github.com/marcus/onboard/internal/models"
)

// Local storage keys, one per concern
const (
	KeyUserName     = "userName"
	KeyAccountItems = "accounts-registration-checklist"
	KeyDevRead      = "dev-guide-read"
	KeyToolsRead    = "tools-guide-read"
	KeyWorkflowRead = "workflow-guide-read"
	KeySyncMeta     = "onboarding-progress-meta"
)

var allKeys = []string{KeyUserName, KeyAccountItems, KeyDevRead, KeyToolsRead, KeyWorkflowRead, KeySyncMeta}

const (
	defaultDebounce = 600 * time.Millisecond
	defaultTimeout  = 5 * time.Second
)

var (
	ErrClosed      = errors.New("store closed")
	ErrInvalidName = errors.New("name must be 1-20 characters")
	ErrUnknownItem = errors.New("unknown checklist item")
	ErrLocked      = errors.New("checklist item is locked")
	ErrUnknownFlag = errors.New("unknown read flag")
	ErrOffline     = errors.New("offline")
	ErrNoRemote    = errors.New("remote sync disabled")
	ErrNotHydrated = errors.New("hydration not finished")
	ErrNoProgress  = errors.New("no local progress to push")
)

// Local is the durable key/value collaborator.
type Local interface {
	db.Reader
	db.Writer
}

// Remote is the progress API collaborator.
type Remote interface {
	FetchProgress(ctx context.Context) (*models.Snapshot, error)
	SaveProgress(ctx context.Context, snap *models.Snapshot) error
	ShouldAttemptSync() bool
}

// Options tunes a Store. Zero values select defaults.
type Options struct {
	Debounce    time.Duration
	Timeout     time.Duration
	Platform    models.Platform
	PushOnStart bool
	Now         func() time.Time
}

// Phase is the hydration lifecycle stage.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseLocalLoaded
	PhaseHydrating
	PhaseHydrated
)

func (p Phase) String() string {
	switch p {
	case PhaseLocalLoaded:
		return "local-loaded"
	case PhaseHydrating:
		return "hydrating"
	case PhaseHydrated:
		return "hydrated"
	}
	return "uninitialized"
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Status describes sync health.
type Status struct {
	Phase       Phase            `json:"phase"`
	UpdatedAt   models.Timestamp `json:"updatedAt"`
	Pending     bool             `json:"pending"`
	Saves       int              `json:"saves"`
	LastSavedAt time.Time        `json:"lastSavedAt,omitzero"`
	LastError   string           `json:"lastError,omitempty"`
	RemoteState string           `json:"remote"`
}

// Store is safe for concurrent use. Timer callbacks and network completions
// run on their own goroutines; mu serializes every state access.
type Store struct {
	local  Local
	remote Remote
	opts   Options

	mu           sync.Mutex
	state        models.State
	phase        Phase
	skipNextSave bool
	timer        *time.Timer
	gen          uint64
	pending      bool
	saves        int
	lastSavedAt  time.Time
	lastErr      error
	remoteState  string
	closed       bool
	subs         map[int]func(models.State)
	nextSub      int

	// saveMu keeps saves sequential so an older snapshot never lands last.
	saveMu sync.Mutex

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	hydrated  chan struct{}
	wg        sync.WaitGroup
}

// New builds a store and synchronously loads local progress. remote may be
// nil for local-only operation.
func New(local Local, remote Remote, opts Options) *Store {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Platform == "" {
		opts.Platform = models.PlatformPC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		local:       local,
		remote:      remote,
		opts:        opts,
		ctx:         ctx,
		cancel:      cancel,
		hydrated:    make(chan struct{}),
		subs:        make(map[int]func(models.State)),
		remoteState: "unknown",
	}
	s.state = loadLocal(local)
	s.phase = PhaseLocalLoaded
	return s
}

// loadLocal reads every persisted concern and normalizes it against the
// catalog. Missing or corrupt keys fall back to defaults.
func loadLocal(r db.Reader) models.State {
	snap := models.Snapshot{}
	snap.UserName, _ = db.Read[string](r, KeyUserName)
	snap.AccountItems, _ = db.Read[[]models.Item](r, KeyAccountItems)
	snap.DevReadMap, _ = db.Read[models.ReadMap](r, KeyDevRead)

	tools, _ := db.Read[bool](r, KeyToolsRead)
	workflow, _ := db.Read[bool](r, KeyWorkflowRead)
	snap.ToolsRead, snap.WorkflowRead = &tools, &workflow

	if meta, ok := db.Read[models.SyncMeta](r, KeySyncMeta); ok && meta.UpdatedAt > 0 {
		snap.UpdatedAt = models.Timestamp(meta.UpdatedAt)
	}
	return checklist.NormalizeSnapshot(snap)
}

// Start dispatches the one hydration fetch. Later calls do nothing.
func (s *Store) Start() {
	s.startOnce.Do(func() {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.phase = PhaseHydrating
		if s.remote == nil {
			s.remoteState = "disabled"
			s.finishHydrationLocked(nil)
			subs, st := s.subscribersLocked()
			s.mu.Unlock()
			publish(subs, st)
			return
		}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.hydrate()
	})
}

func (s *Store) hydrate() {
	defer s.wg.Done()

	var (
		snap *models.Snapshot
		err  error
	)
	online := s.remote.ShouldAttemptSync()
	if online {
		ctx, cancel := s.requestContext(context.Background())
		snap, err = s.remote.FetchProgress(ctx)
		cancel()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	switch {
	case !online:
		s.remoteState = "offline"
		slog.Debug("store: hydrate skipped, offline")
	case err != nil:
		s.lastErr = err
		s.remoteState = "error"
		slog.Debug("store: hydrate", "err", err)
	default:
		s.remoteState = "ok"
	}
	if err != nil || !online {
		snap = nil
	}
	s.finishHydrationLocked(snap)
	if online && err == nil {
		s.catchUpLocked(snap)
	}
	subs, st := s.subscribersLocked()
	s.mu.Unlock()
	publish(subs, st)
}

// finishHydrationLocked applies snap when it is strictly newer than local
// and opens the hydration gate. A nil snap leaves local state alone.
func (s *Store) finishHydrationLocked(snap *models.Snapshot) {
	applied := false
	if snap != nil && snap.UpdatedAt > s.state.UpdatedAt {
		s.state = checklist.ApplyRemoteSnapshot(s.state, *snap)
		s.skipNextSave = true
		applied = true
		slog.Debug("store: applied remote", "updatedAt", int64(snap.UpdatedAt))
	}
	s.phase = PhaseHydrated
	close(s.hydrated)
	if applied {
		s.changedLocked(allKeys)
	}
}

// catchUpLocked schedules a push when local progress is strictly newer than
// what the server returned.
func (s *Store) catchUpLocked(remote *models.Snapshot) {
	if !s.opts.PushOnStart || s.state.UpdatedAt.IsZero() {
		return
	}
	if remote != nil && remote.UpdatedAt >= s.state.UpdatedAt {
		return
	}
	slog.Debug("store: local newer than remote, scheduling push")
	s.armLocked()
}

// changedLocked is the reaction to any state change: persist locally, then
// stamp and schedule a save once hydrated. A change caused by applying a
// remote snapshot consumes the skip flag instead.
func (s *Store) changedLocked(keys []string) {
	s.persistLocked(keys)
	if s.phase != PhaseHydrated {
		return
	}
	if s.skipNextSave {
		s.skipNextSave = false
		s.persistLocked([]string{KeySyncMeta})
		return
	}
	now := models.TimestampOf(s.opts.Now())
	if now < s.state.UpdatedAt {
		now = s.state.UpdatedAt
	}
	s.state.UpdatedAt = now
	s.persistLocked([]string{KeySyncMeta})
	s.armLocked()
}

func (s *Store) persistLocked(keys []string) {
	for _, key := range keys {
		switch key {
		case KeyUserName:
			db.Write(s.local, key, s.state.UserName)
		case KeyAccountItems:
			db.Write(s.local, key, s.state.AccountItems)
		case KeyDevRead:
			db.Write(s.local, key, s.state.DevReadMap)
		case KeyToolsRead:
			db.Write(s.local, key, s.state.GuideReadMap[checklist.GuideTools])
		case KeyWorkflowRead:
			db.Write(s.local, key, s.state.GuideReadMap[checklist.GuideWorkflow])
		case KeySyncMeta:
			db.Write(s.local, key, models.SyncMeta{UpdatedAt: int64(s.state.UpdatedAt)})
		}
	}
}

// armLocked replaces any pending save timer with a fresh one.
func (s *Store) armLocked() {
	if s.remote == nil || s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.pending = true
	s.timer = time.AfterFunc(s.opts.Debounce, func() { s.fire(gen) })
}

// fire runs when a debounce timer elapses. A timer superseded by a newer
// one, or by Flush, finds gen changed and does nothing.
func (s *Store) fire(gen uint64) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snap, err := s.takePending(gen)
	if err != nil {
		return
	}
	_ = s.save(context.Background(), snap)
}

var errNothingPending = errors.New("nothing pending")

// takePending claims the pending save. gen 0 claims whatever is pending.
func (s *Store) takePending(gen uint64) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.Snapshot{}, ErrClosed
	}
	if !s.pending || (gen != 0 && gen != s.gen) {
		return models.Snapshot{}, errNothingPending
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
	s.gen++
	if !s.remote.ShouldAttemptSync() {
		s.remoteState = "offline"
		slog.Debug("store: save skipped, offline")
		return models.Snapshot{}, ErrOffline
	}
	s.wg.Add(1)
	return s.state.Snapshot(), nil
}

func (s *Store) save(parent context.Context, snap models.Snapshot) error {
	defer s.wg.Done()

	ctx, cancel := s.requestContext(parent)
	err := s.remote.SaveProgress(ctx, &snap)
	cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return err
	}
	if err != nil {
		s.lastErr = err
		s.remoteState = "error"
		slog.Debug("store: save", "err", err)
	} else {
		s.saves++
		s.lastSavedAt = s.opts.Now()
		s.lastErr = nil
		s.remoteState = "ok"
	}
	s.mu.Unlock()
	return err
}

// requestContext bounds a remote call by the request timeout and cancels it
// when the store closes.
func (s *Store) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, s.opts.Timeout)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// WaitHydrated blocks until hydration finishes or ctx is done.
func (s *Store) WaitHydrated(ctx context.Context) error {
	select {
	case <-s.hydrated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush sends a pending save immediately instead of waiting for the
// debounce timer. It returns nil when nothing is pending.
func (s *Store) Flush(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snap, err := s.takePending(0)
	if errors.Is(err, errNothingPending) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.save(ctx, snap)
}

// Push sends the current snapshot right away, regardless of whether a save
// is pending. Only valid once hydrated. A state that was never stamped is
// not sent.
func (s *Store) Push(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.remote == nil:
		s.mu.Unlock()
		return ErrNoRemote
	case s.phase != PhaseHydrated:
		s.mu.Unlock()
		return ErrNotHydrated
	case s.state.UpdatedAt.IsZero():
		s.mu.Unlock()
		return ErrNoProgress
	}
	s.pending = true
	s.mu.Unlock()
	return s.Flush(ctx)
}

// Close cancels the hydration fetch, any pending debounce timer and any
// in-flight save, then waits for them to return. Nothing mutates state
// after Close.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
	s.gen++
	s.subs = nil
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// update applies fn under the lock. fn returns the storage keys it changed;
// none means no-op.
func (s *Store) update(fn func(st *models.State) ([]string, error)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	keys, err := fn(&s.state)
	if err != nil || len(keys) == 0 {
		s.mu.Unlock()
		return err
	}
	s.changedLocked(keys)
	subs, st := s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, st)
	return nil
}

// SetUserName validates and stores a display name.
func (s *Store) SetUserName(name string) error {
	v, ok := checklist.ValidateUserName(name)
	if !ok {
		return ErrInvalidName
	}
	return s.update(func(st *models.State) ([]string, error) {
		if st.UserName == v {
			return nil, nil
		}
		st.UserName = v
		return []string{KeyUserName}, nil
	})
}

// ToggleChecklistItem flips done on an account item and returns the result.
// Locked items are left untouched.
func (s *Store) ToggleChecklistItem(id string) (models.Item, error) {
	var out models.Item
	err := s.update(func(st *models.State) ([]string, error) {
		for i := range st.AccountItems {
			it := &st.AccountItems[i]
			if it.ID != id {
				continue
			}
			if it.Locked {
				out = *it
				return nil, ErrLocked
			}
			it.Done = !it.Done
			out = *it
			return []string{KeyAccountItems}, nil
		}
		return nil, ErrUnknownItem
	})
	return out, err
}

// SetReadFlag sets a dev guide flag (e.g. "pc_env") or a guide flag
// ("tools", "workflow"). Unknown keys are rejected.
func (s *Store) SetReadFlag(key string, value bool) error {
	return s.update(func(st *models.State) ([]string, error) {
		switch {
		case checklist.IsDevReadKey(key):
			if st.DevReadMap[key] == value {
				return nil, nil
			}
			st.DevReadMap = st.DevReadMap.Clone()
			st.DevReadMap[key] = value
			return []string{KeyDevRead}, nil
		case checklist.IsGuideReadKey(key):
			if st.GuideReadMap[key] == value {
				return nil, nil
			}
			st.GuideReadMap = st.GuideReadMap.Clone()
			st.GuideReadMap[key] = value
			if key == checklist.GuideTools {
				return []string{KeyToolsRead}, nil
			}
			return []string{KeyWorkflowRead}, nil
		}
		return nil, ErrUnknownFlag
	})
}

// Reset returns all progress to catalog defaults. Once hydrated the reset
// is stamped and pushed like any other change.
func (s *Store) Reset() error {
	return s.update(func(st *models.State) ([]string, error) {
		updatedAt := st.UpdatedAt
		*st = checklist.DefaultState()
		st.UpdatedAt = updatedAt
		return allKeys, nil
	})
}

// Subscribe registers fn to receive a copy of the state after every
// change. fn runs outside the store lock. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(models.State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) subscribersLocked() ([]func(models.State), models.State) {
	if len(s.subs) == 0 {
		return nil, models.State{}
	}
	fns := make([]func(models.State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns, s.state.Clone()
}

func publish(fns []func(models.State), st models.State) {
	for _, fn := range fns {
		fn(st.Clone())
	}
}

// State returns a copy of the current state.
func (s *Store) State() models.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Platform returns the platform the dev section is built for.
func (s *Store) Platform() models.Platform {
	return s.opts.Platform
}

// Sections builds the display sections for the current state.
func (s *Store) Sections() []models.Section {
	st := s.State()
	return checklist.BuildSections(st.AccountItems, st.DevReadMap, st.GuideReadMap, s.opts.Platform)
}

// NextAction returns the highest priority open item, or nil when done.
func (s *Store) NextAction() *models.NextAction {
	return checklist.PickNextAction(s.Sections())
}

// Status reports hydration and sync health.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Phase:       s.phase,
		UpdatedAt:   s.state.UpdatedAt,
		Pending:     s.pending,
		Saves:       s.saves,
		LastSavedAt: s.lastSavedAt,
		RemoteState: s.remoteState,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
