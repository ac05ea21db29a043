package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	scalexone "github.com/creastat/scalexone"
	"github.com/creastat/scalexone/logger"
	"github.com/creastat/scalexone/persist/drivers"
)

// MockStorage lets tests inject storage failures.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) ReadString(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockStorage) WriteString(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockStorage) Remove(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockStorage) Close() error {
	return m.Called().Error(0)
}

func hydratedStore(t *testing.T, opts ...Option) (*Store, *drivers.MemoryStorage) {
	t.Helper()
	mem := drivers.NewMemoryStorage()
	s := New(mem, opts...)
	require.NoError(t, s.Rehydrate(context.Background()))
	return s, mem
}

func TestGetBeforeHydrationReturnsDefaults(t *testing.T) {
	s := New(drivers.NewMemoryStorage())

	assert.False(t, s.Hydrated())
	st := s.Get()
	assert.Equal(t, 1, st.Gamification.Level)
	assert.True(t, st.Profile.Empty())
	assert.NotNil(t, st.Modules)
}

func TestMutationBeforeHydrationIsRejected(t *testing.T) {
	ctx := context.Background()
	mem := drivers.NewMemoryStorage()
	require.NoError(t, mem.WriteString(ctx, DefaultKey, `{"version":1,"state":{"gamification":{"level":4,"xp":10,"coins":3}}}`))
	s := New(mem)

	_, err := s.AddXP(ctx, 50)
	assert.ErrorIs(t, err, scalexone.ErrNotHydrated)

	raw, _, _ := mem.ReadString(ctx, DefaultKey)
	assert.Contains(t, raw, `"level":4`, "persisted snapshot untouched")
}

func TestRehydrateRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 4, 12, 30, 0, 0, time.UTC)

	s1, mem := hydratedStore(t, WithClock(func() time.Time { return now }))
	require.NoError(t, s1.UpdateProfile(ctx, ProfilePatch{DisplayName: String("Ada"), TenantID: String("c0ffee")}))
	_, err := s1.AppendMessage(ctx, scalexone.SenderUser, "how do I add a channel?")
	require.NoError(t, err)
	_, err = s1.SetModuleProgress(ctx, "onboarding", 40)
	require.NoError(t, err)
	_, err = s1.AddXP(ctx, 300)
	require.NoError(t, err)

	s2 := New(mem)
	require.NoError(t, s2.Rehydrate(ctx))
	st := s2.Get()

	assert.Equal(t, "Ada", st.Profile.DisplayName)
	assert.Equal(t, "c0ffee", st.Profile.TenantID)
	require.Len(t, st.Conversation, 1)
	assert.True(t, now.Equal(st.Conversation[0].Timestamp))
	assert.Equal(t, scalexone.ModuleActive, st.Modules["onboarding"].State)
	assert.Equal(t, 300, st.Gamification.XP)
}

func TestRehydrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := drivers.NewMemoryStorage()
	require.NoError(t, mem.WriteString(ctx, DefaultKey, `{"version":1,"state":{"profile":{"display_name":"Grace"},"gamification":{"level":2,"xp":5}}}`))

	s := New(mem)
	require.NoError(t, s.Rehydrate(ctx))
	first := s.Get()

	// A later change to storage must not leak in through a second call.
	require.NoError(t, mem.WriteString(ctx, DefaultKey, `{"version":1,"state":{"profile":{"display_name":"Other"}}}`))
	require.NoError(t, s.Rehydrate(ctx))

	assert.True(t, s.Hydrated())
	assert.Equal(t, first, s.Get())
}

func TestRehydrateCorruptSnapshotFailsOpen(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	mem := drivers.NewMemoryStorage()
	require.NoError(t, mem.WriteString(ctx, DefaultKey, `{"version":1,"state":{"profile":`))

	s := New(mem, WithLogger(logger.FromZap(zap.New(core))))
	require.NotPanics(t, func() {
		require.NoError(t, s.Rehydrate(ctx))
	})

	assert.True(t, s.Hydrated())
	assert.Equal(t, DefaultState().normalize(), s.Get())
	assert.Equal(t, 1, logs.FilterMessage("corrupt snapshot, using defaults").Len())
}

func TestRehydrateVersionMismatchFailsOpen(t *testing.T) {
	ctx := context.Background()
	mem := drivers.NewMemoryStorage()
	require.NoError(t, mem.WriteString(ctx, DefaultKey, `{"version":99,"state":{"gamification":{"level":7}}}`))

	s := New(mem)
	require.NoError(t, s.Rehydrate(ctx))
	assert.Equal(t, 1, s.Get().Gamification.Level)
}

func TestRehydrateStorageUnavailableFailsOpen(t *testing.T) {
	ctx := context.Background()
	ms := new(MockStorage)
	ms.On("ReadString", mock.Anything, DefaultKey).Return("", false, errors.New("quota exceeded"))

	s := New(ms)
	require.NoError(t, s.Rehydrate(ctx))

	assert.True(t, s.Hydrated())
	assert.Equal(t, DefaultState().normalize(), s.Get())
	ms.AssertExpectations(t)
}

func TestRehydrateCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(drivers.NewMemoryStorage())
	assert.ErrorIs(t, s.Rehydrate(ctx), context.Canceled)
	assert.False(t, s.Hydrated())

	require.NoError(t, s.Rehydrate(context.Background()))
	assert.True(t, s.Hydrated())
}

func TestPersistFailureKeepsInMemoryChange(t *testing.T) {
	ctx := context.Background()
	ms := new(MockStorage)
	ms.On("ReadString", mock.Anything, DefaultKey).Return("", false, nil)
	ms.On("WriteString", mock.Anything, DefaultKey, mock.Anything).Return(errors.New("disk full"))

	s := New(ms)
	require.NoError(t, s.Rehydrate(ctx))

	g, err := s.AddCoins(ctx, 25)
	assert.Error(t, err)
	assert.Equal(t, 25, g.Coins)
	assert.Equal(t, 25, s.Get().Gamification.Coins)
}

func TestEveryMutationReserializes(t *testing.T) {
	ctx := context.Background()
	s, mem := hydratedStore(t)

	_, err := s.AddXP(ctx, 1200)
	require.NoError(t, err)

	raw, ok, err := mem.ReadString(ctx, DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)

	var snap snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	assert.Equal(t, snapshotVersion, snap.Version)
	assert.Equal(t, 2, snap.State.Gamification.Level)
	assert.Equal(t, 200, snap.State.Gamification.XP)
}

func TestUpdateProfileShallowMerge(t *testing.T) {
	ctx := context.Background()
	s, _ := hydratedStore(t)
	admin := scalexone.RoleAdmin

	require.NoError(t, s.UpdateProfile(ctx, ProfilePatch{DisplayName: String("Ada"), Email: String("ada@example.com")}))
	require.NoError(t, s.UpdateProfile(ctx, ProfilePatch{Role: &admin}))

	p := s.Get().Profile
	assert.Equal(t, "Ada", p.DisplayName)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, scalexone.RoleAdmin, p.Role)

	require.NoError(t, s.ClearProfile(ctx))
	assert.True(t, s.Get().Profile.Empty())
}

func TestConversationHistoryLimit(t *testing.T) {
	ctx := context.Background()
	s, _ := hydratedStore(t, WithHistoryLimit(3))

	for _, text := range []string{"one", "two", "three", "four"} {
		_, err := s.AppendMessage(ctx, scalexone.SenderUser, text)
		require.NoError(t, err)
	}
	msg, err := s.AppendMessage(ctx, scalexone.SenderAssistant, "five")
	require.NoError(t, err)
	assert.Equal(t, "five", msg.Text)

	conv := s.Get().Conversation
	require.Len(t, conv, 3)
	assert.Equal(t, "three", conv[0].Text)

	require.NoError(t, s.ClearConversation(ctx))
	assert.Empty(t, s.Get().Conversation)
}

func TestModules(t *testing.T) {
	ctx := context.Background()
	s, _ := hydratedStore(t)

	require.NoError(t, s.UpsertModule(ctx, "courses", scalexone.ModuleProgress{FriendlyName: "Courses", ProgressPercent: 100}))
	m, err := s.SetModuleProgress(ctx, "launchpad", 10)
	require.NoError(t, err)
	assert.Equal(t, "launchpad", m.FriendlyName)
	assert.Equal(t, scalexone.ModuleActive, m.State)

	assert.Equal(t, scalexone.ModuleCompleted, s.Get().Modules["courses"].State)

	require.NoError(t, s.ResetModules(ctx))
	for key, m := range s.Get().Modules {
		assert.Equal(t, 0, m.ProgressPercent, key)
		assert.Equal(t, scalexone.ModulePending, m.State, key)
	}
	assert.Equal(t, "Courses", s.Get().Modules["courses"].FriendlyName)
}

func TestGetReturnsIsolatedCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := hydratedStore(t)
	_, err := s.SetModuleProgress(ctx, "a", 50)
	require.NoError(t, err)
	require.NoError(t, s.SetKnowledge(ctx, []scalexone.KnowledgeSnippet{{ID: "k1", Metadata: map[string]any{"lang": "en"}}}))

	st := s.Get()
	st.Modules["a"] = scalexone.ModuleProgress{}
	st.Knowledge[0].Metadata["lang"] = "de"

	assert.Equal(t, 50, s.Get().Modules["a"].ProgressPercent)
	assert.Equal(t, "en", s.Get().Knowledge[0].Metadata["lang"])
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s, _ := hydratedStore(t)

	var seen []int
	unsubscribe := s.Subscribe(func(st State) {
		seen = append(seen, st.Gamification.Coins)
	})

	_, err := s.AddCoins(ctx, 5)
	require.NoError(t, err)
	_, err = s.AddCoins(ctx, 5)
	require.NoError(t, err)
	unsubscribe()
	_, err = s.AddCoins(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, []int{5, 10}, seen)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s, _ := hydratedStore(t)
	require.NoError(t, s.UpdateProfile(ctx, ProfilePatch{DisplayName: String("Ada")}))
	_, err := s.AddXP(ctx, 400)
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))
	assert.Equal(t, DefaultState().normalize(), s.Get())
}

// gatedStorage holds every write until release is closed.
type gatedStorage struct {
	*drivers.MemoryStorage
	writing chan struct{}
	release chan struct{}
}

func (g *gatedStorage) WriteString(ctx context.Context, key, value string) error {
	g.writing <- struct{}{}
	<-g.release
	return g.MemoryStorage.WriteString(ctx, key, value)
}

func TestReadsDoNotWaitOnPendingWrite(t *testing.T) {
	ctx := context.Background()
	gs := &gatedStorage{
		MemoryStorage: drivers.NewMemoryStorage(),
		writing:       make(chan struct{}, 1),
		release:       make(chan struct{}),
	}
	s := New(gs)
	require.NoError(t, s.Rehydrate(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := s.AddXP(ctx, 300)
		done <- err
	}()

	select {
	case <-gs.writing:
	case <-time.After(time.Second):
		t.Fatal("write never started")
	}

	got := make(chan State, 1)
	go func() {
		got <- s.Get()
	}()
	select {
	case st := <-got:
		assert.Equal(t, 300, st.Gamification.XP)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Get waited on the storage write")
	}
	assert.True(t, s.Hydrated())

	close(gs.release)
	require.NoError(t, <-done)

	raw, ok, err := gs.ReadString(ctx, DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"xp":300`)
}

func TestConcurrentMutationsPersistLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	s, mem := hydratedStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddCoins(ctx, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	raw, ok, err := mem.ReadString(ctx, DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)

	var snap snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	assert.Equal(t, 20, snap.State.Gamification.Coins)
	assert.Equal(t, 20, s.Get().Gamification.Coins)
}
