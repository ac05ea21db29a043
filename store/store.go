package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	scalexone "github.com/creastat/scalexone"
	"github.com/creastat/scalexone/logger"
	"github.com/creastat/scalexone/persist"
)

// snapshotVersion is bumped whenever the persisted layout changes
// incompatibly; older or newer snapshots are discarded on rehydration.
const snapshotVersion = 1

type snapshot struct {
	Version int   `json:"version"`
	State   State `json:"state"`
}

// Store is the persisted client store. The zero value is not usable; create
// one with New and pass it to the components that read or mutate it.
type Store struct {
	storage  persist.Storage
	key      string
	log      *logger.Logger
	now      func() time.Time
	limit    int
	defaults func() State

	hydrateMu sync.Mutex

	mu       sync.RWMutex
	state    State
	hydrated bool
	seq      uint64

	// writeMu serializes storage writes; written is the seq of the last
	// snapshot handed to storage.
	writeMu sync.Mutex
	written uint64

	subMu     sync.Mutex
	subs      map[int]func(State)
	nextSubID int
}

// New creates a store holding the default state. It is not hydrated until
// Rehydrate returns.
func New(storage persist.Storage, opts ...Option) *Store {
	cfg := &storeConfig{
		key:          DefaultKey,
		now:          time.Now,
		historyLimit: scalexone.DefaultHistoryLimit,
		defaults:     DefaultState,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Store{
		storage:  storage,
		key:      cfg.key,
		log:      logger.OrNop(cfg.log).With("component", "store", "key", cfg.key),
		now:      cfg.now,
		limit:    cfg.historyLimit,
		defaults: cfg.defaults,
		state:    cfg.defaults().normalize(),
		subs:     make(map[int]func(State)),
	}
}

// Get returns a snapshot of the current state. It never blocks on I/O.
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Hydrated reports whether Rehydrate has completed.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// Rehydrate loads the last snapshot from storage and marks the store
// hydrated. Unavailable, missing or corrupt snapshots yield the default
// state; that is logged and never returned as an error. Once hydrated,
// further calls are no-ops. The only error is a context that is already
// done, in which case the store stays unhydrated and the call may be retried.
func (s *Store) Rehydrate(ctx context.Context) error {
	s.hydrateMu.Lock()
	defer s.hydrateMu.Unlock()

	if s.Hydrated() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	state := s.load(ctx)

	s.mu.Lock()
	s.state = state
	s.hydrated = true
	s.mu.Unlock()

	s.log.Debug("store hydrated", "modules", len(state.Modules), "messages", len(state.Conversation))
	s.notify(state)
	return nil
}

// load reads and decodes the snapshot, falling back to defaults.
func (s *Store) load(ctx context.Context) State {
	raw, ok, err := s.storage.ReadString(ctx, s.key)
	if err != nil {
		s.log.Warn("local storage unavailable, using defaults", "error", err)
		return s.defaults().normalize()
	}
	if !ok {
		return s.defaults().normalize()
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.log.Warn("corrupt snapshot, using defaults", "error", err)
		return s.defaults().normalize()
	}
	if snap.Version != snapshotVersion {
		s.log.Warn("snapshot version mismatch, using defaults", "version", snap.Version)
		return s.defaults().normalize()
	}
	return snap.State.normalize()
}

// mutate applies fn to a copy of the state, commits it and re-serializes the
// whole snapshot. The storage write happens outside mu so readers never wait
// on I/O. A persistence failure is returned but the in-memory change stands.
func (s *Store) mutate(ctx context.Context, op string, fn func(*State)) (State, error) {
	s.mu.Lock()
	if !s.hydrated {
		s.mu.Unlock()
		return State{}, scalexone.ErrNotHydrated
	}

	next := s.state.clone()
	fn(&next)
	s.state = next
	s.seq++
	seq := s.seq
	committed := next.clone()
	s.mu.Unlock()

	s.notify(committed)

	if err := s.persist(ctx, seq, next); err != nil {
		s.log.Warn("failed to persist snapshot", "op", op, "error", err)
		return committed, fmt.Errorf("failed to persist %s: %w", op, err)
	}
	return committed, nil
}

// persist writes state unless a newer snapshot already reached storage.
func (s *Store) persist(ctx context.Context, seq uint64, state State) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if seq <= s.written {
		return nil
	}
	b, err := json.Marshal(snapshot{Version: snapshotVersion, State: state})
	if err != nil {
		return err
	}
	if err := s.storage.WriteString(ctx, s.key, string(b)); err != nil {
		return err
	}
	s.written = seq
	return nil
}

// UpdateProfile shallow-merges patch into the profile slice.
func (s *Store) UpdateProfile(ctx context.Context, patch ProfilePatch) error {
	_, err := s.mutate(ctx, "profile", func(st *State) {
		st.Profile = patch.apply(st.Profile)
	})
	return err
}

// ClearProfile drops the signed-in identity.
func (s *Store) ClearProfile(ctx context.Context) error {
	_, err := s.mutate(ctx, "profile", func(st *State) {
		st.Profile = scalexone.Identity{}
	})
	return err
}

// AppendMessage appends a message to the conversation log, trimming the
// oldest messages beyond the history limit.
func (s *Store) AppendMessage(ctx context.Context, sender scalexone.Sender, text string) (scalexone.Message, error) {
	var msg scalexone.Message
	_, err := s.mutate(ctx, "conversation", func(st *State) {
		st.Conversation = scalexone.AppendMessage(st.Conversation, sender, text, s.now())
		msg = st.Conversation[len(st.Conversation)-1]
		st.Conversation = scalexone.TruncateHistory(st.Conversation, s.limit)
	})
	return msg, err
}

// ClearConversation empties the conversation log.
func (s *Store) ClearConversation(ctx context.Context) error {
	_, err := s.mutate(ctx, "conversation", func(st *State) {
		st.Conversation = []scalexone.Message{}
	})
	return err
}

// AddXP adds XP with a single-step level rollover.
func (s *Store) AddXP(ctx context.Context, amount int) (scalexone.Gamification, error) {
	st, err := s.mutate(ctx, "gamification", func(st *State) {
		st.Gamification = st.Gamification.AddXP(amount)
	})
	return st.Gamification, err
}

// AddCoins adjusts the coin balance.
func (s *Store) AddCoins(ctx context.Context, amount int) (scalexone.Gamification, error) {
	st, err := s.mutate(ctx, "gamification", func(st *State) {
		st.Gamification = st.Gamification.AddCoins(amount)
	})
	return st.Gamification, err
}

// UpsertModule registers or replaces a module; its state is re-derived from
// its progress.
func (s *Store) UpsertModule(ctx context.Context, key string, m scalexone.ModuleProgress) error {
	_, err := s.mutate(ctx, "modules", func(st *State) {
		st.Modules[key] = m.WithProgress(m.ProgressPercent)
	})
	return err
}

// SetModuleProgress sets a module's progress, registering unknown modules
// under their key.
func (s *Store) SetModuleProgress(ctx context.Context, key string, progress int) (scalexone.ModuleProgress, error) {
	st, err := s.mutate(ctx, "modules", func(st *State) {
		m, ok := st.Modules[key]
		if !ok {
			m = scalexone.ModuleProgress{FriendlyName: key}
		}
		st.Modules[key] = m.WithProgress(progress)
	})
	return st.Modules[key], err
}

// ResetModules puts every module back to zero progress.
func (s *Store) ResetModules(ctx context.Context) error {
	_, err := s.mutate(ctx, "modules", func(st *State) {
		for key, m := range st.Modules {
			st.Modules[key] = m.WithProgress(0)
		}
	})
	return err
}

// SetKnowledge replaces the knowledge slice.
func (s *Store) SetKnowledge(ctx context.Context, snippets []scalexone.KnowledgeSnippet) error {
	_, err := s.mutate(ctx, "knowledge", func(st *State) {
		st.Knowledge = append([]scalexone.KnowledgeSnippet{}, snippets...)
	})
	return err
}

// Reset restores the default state, e.g. on sign-out.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.mutate(ctx, "reset", func(st *State) {
		*st = s.defaults().normalize()
	})
	return err
}

// Subscribe registers fn to receive every committed state. The returned
// function unregisters it.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(state State) {
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(state.clone())
	}
}
