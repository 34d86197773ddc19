package account

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pyro1121/omg-portal/internal/models"
	"github.com/pyro1121/omg-portal/internal/session"
	"github.com/pyro1121/omg-portal/internal/upstream"
)

// MockAPI реализует интерфейс account.AccountAPI.
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) AccountSnapshot(ctx context.Context, token string) (*models.AccountSnapshot, error) {
	args := m.Called(ctx, token)
	var snap *models.AccountSnapshot
	if v := args.Get(0); v != nil {
		snap = v.(*models.AccountSnapshot)
	}
	return snap, args.Error(1)
}

func (m *MockAPI) Sessions(ctx context.Context, token string) ([]models.SessionInfo, error) {
	args := m.Called(ctx, token)
	var sessions []models.SessionInfo
	if v := args.Get(0); v != nil {
		sessions = v.([]models.SessionInfo)
	}
	return sessions, args.Error(1)
}

func (m *MockAPI) AuditLog(ctx context.Context, token string) ([]models.AuditEntry, error) {
	args := m.Called(ctx, token)
	var entries []models.AuditEntry
	if v := args.Get(0); v != nil {
		entries = v.([]models.AuditEntry)
	}
	return entries, args.Error(1)
}

func (m *MockAPI) TeamData(ctx context.Context, token string) (*models.TeamData, error) {
	args := m.Called(ctx, token)
	var team *models.TeamData
	if v := args.Get(0); v != nil {
		team = v.(*models.TeamData)
	}
	return team, args.Error(1)
}

// MockGuard реализует интерфейс account.AuthGuard.
type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) HandleUpstreamError(ctx context.Context, err error) error {
	m.Called(ctx, err)
	return err
}

func testSnapshot(tier models.Tier) *models.AccountSnapshot {
	return &models.AccountSnapshot{
		User:    models.User{ID: "u1", Email: "user@example.com", Name: "User"},
		License: models.License{Key: "omg_k1", Tier: tier, Status: "active", MaxSeats: 5, UsedSeats: 2},
		Usage:   models.UsageStats{TotalCommands: 420, Achievements: []string{"first-install"}},
		Machines: []models.Machine{
			{ID: "m1", Hostname: "devbox", OS: "linux", Active: true},
		},
	}
}

func newTestService(t *testing.T, api *MockAPI, guard *MockGuard) (*Service, *session.MemoryStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := session.NewMemory()
	require.NoError(t, store.Set(context.Background(), "tok_abc"))
	return New(logger, api, store, guard), store
}

func TestLoadSnapshot_Success(t *testing.T) {
	api := new(MockAPI)
	api.On("AccountSnapshot", mock.Anything, "tok_abc").Return(testSnapshot(models.TierPro), nil)
	svc, _ := newTestService(t, api, new(MockGuard))

	require.NoError(t, svc.LoadSnapshot(context.Background()))

	snap, ok := svc.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "omg_k1", snap.License.Key)
	assert.Equal(t, models.TierPro, snap.License.Tier)
}

func TestLoadSnapshot_Idempotent(t *testing.T) {
	api := new(MockAPI)
	api.On("AccountSnapshot", mock.Anything, "tok_abc").Return(testSnapshot(models.TierPro), nil)
	svc, _ := newTestService(t, api, new(MockGuard))

	require.NoError(t, svc.LoadSnapshot(context.Background()))
	first, _ := svc.Snapshot()
	require.NoError(t, svc.LoadSnapshot(context.Background()))
	second, _ := svc.Snapshot()

	assert.Equal(t, first, second)
}

func TestLoadSnapshot_NotAuthenticated(t *testing.T) {
	api := new(MockAPI)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := New(logger, api, session.NewMemory(), new(MockGuard))

	err := svc.LoadSnapshot(context.Background())

	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
	api.AssertNotCalled(t, "AccountSnapshot", mock.Anything, mock.Anything)
}

func TestLoadSnapshot_FailureRetainsPriorState(t *testing.T) {
	api := new(MockAPI)
	api.On("AccountSnapshot", mock.Anything, "tok_abc").Return(testSnapshot(models.TierPro), nil).Once()
	api.On("AccountSnapshot", mock.Anything, "tok_abc").
		Return(nil, &upstream.RequestError{Endpoint: "account.snapshot", Err: errors.New("timeout")}).Once()
	guard := new(MockGuard)
	guard.On("HandleUpstreamError", mock.Anything, mock.Anything).Return(nil)
	svc, _ := newTestService(t, api, guard)

	require.NoError(t, svc.LoadSnapshot(context.Background()))
	err := svc.LoadSnapshot(context.Background())

	require.Error(t, err)
	snap, ok := svc.Snapshot()
	require.True(t, ok, "прежний снапшот должен сохраниться")
	assert.Equal(t, "omg_k1", snap.License.Key)
}

func TestLoadSnapshot_401DelegatesToGuard(t *testing.T) {
	api := new(MockAPI)
	api.On("AccountSnapshot", mock.Anything, "tok_abc").Return(nil, upstream.ErrUnauthorized)
	guard := new(MockGuard)
	guard.On("HandleUpstreamError", mock.Anything, upstream.ErrUnauthorized).Return(upstream.ErrUnauthorized)
	svc, _ := newTestService(t, api, guard)

	err := svc.LoadSnapshot(context.Background())

	assert.ErrorIs(t, err, upstream.ErrUnauthorized)
	guard.AssertCalled(t, "HandleUpstreamError", mock.Anything, upstream.ErrUnauthorized)
}

func TestLoadSnapshot_StaleSessionDiscarded(t *testing.T) {
	api := new(MockAPI)
	svc, store := newTestService(t, api, new(MockGuard))

	// Пока снапшот в полёте, сессия меняется: поколение сдвигается,
	// и поздний ответ обязан быть отброшен.
	api.On("AccountSnapshot", mock.Anything, "tok_abc").
		Run(func(_ mock.Arguments) {
			require.NoError(t, store.Set(context.Background(), "tok_new"))
		}).
		Return(testSnapshot(models.TierPro), nil)

	err := svc.LoadSnapshot(context.Background())

	assert.ErrorIs(t, err, models.ErrSessionChanged)
	_, ok := svc.Snapshot()
	assert.False(t, ok, "снапшот чужого поколения не должен применяться")
}

func TestLoadTeam_TierGate(t *testing.T) {
	api := new(MockAPI)
	api.On("AccountSnapshot", mock.Anything, "tok_abc").Return(testSnapshot(models.TierFree), nil)
	svc, _ := newTestService(t, api, new(MockGuard))
	require.NoError(t, svc.LoadSnapshot(context.Background()))

	err := svc.LoadTeam(context.Background())

	assert.ErrorIs(t, err, models.ErrTierRequired)
	api.AssertNotCalled(t, "TeamData", mock.Anything, mock.Anything)
}

func TestLoadTeam_TeamTier(t *testing.T) {
	api := new(MockAPI)
	api.On("AccountSnapshot", mock.Anything, "tok_abc").Return(testSnapshot(models.TierTeam), nil)
	api.On("TeamData", mock.Anything, "tok_abc").Return(&models.TeamData{
		Members: []models.TeamMember{{ID: "tm1", Email: "dev@example.com", Role: "member", Active: true}},
	}, nil)
	svc, _ := newTestService(t, api, new(MockGuard))
	require.NoError(t, svc.LoadSnapshot(context.Background()))

	require.NoError(t, svc.LoadTeam(context.Background()))

	team, ok := svc.Team()
	require.True(t, ok)
	assert.Len(t, team.Members, 1)
}

func TestLoadSessions(t *testing.T) {
	api := new(MockAPI)
	api.On("Sessions", mock.Anything, "tok_abc").Return([]models.SessionInfo{
		{ID: "s1", Current: true},
		{ID: "s2"},
	}, nil)
	svc, _ := newTestService(t, api, new(MockGuard))

	require.NoError(t, svc.LoadSessions(context.Background()))

	assert.Len(t, svc.Sessions(), 2)
}

func TestApplyLicenseKey_TotalReplacement(t *testing.T) {
	api := new(MockAPI)
	api.On("AccountSnapshot", mock.Anything, "tok_abc").Return(testSnapshot(models.TierPro), nil)
	svc, _ := newTestService(t, api, new(MockGuard))
	require.NoError(t, svc.LoadSnapshot(context.Background()))

	svc.ApplyLicenseKey("omg_k2")

	snap, _ := svc.Snapshot()
	assert.Equal(t, "omg_k2", snap.License.Key)
	assert.NotContains(t, snap.License.Key, "k1")
}

func TestSnapshot_ReturnsIndependentCopy(t *testing.T) {
	api := new(MockAPI)
	api.On("AccountSnapshot", mock.Anything, "tok_abc").Return(testSnapshot(models.TierPro), nil)
	svc, _ := newTestService(t, api, new(MockGuard))
	require.NoError(t, svc.LoadSnapshot(context.Background()))

	first, ok := svc.Snapshot()
	require.True(t, ok)
	first.License.Key = "mutated"
	first.Machines[0].Hostname = "mutated"
	first.Usage.Achievements[0] = "mutated"

	second, _ := svc.Snapshot()
	assert.Equal(t, "omg_k1", second.License.Key)
	assert.Equal(t, "devbox", second.Machines[0].Hostname)
	assert.Equal(t, "first-install", second.Usage.Achievements[0])
}

func TestSessions_ReturnsIndependentCopy(t *testing.T) {
	api := new(MockAPI)
	api.On("Sessions", mock.Anything, "tok_abc").Return([]models.SessionInfo{{ID: "s1", Current: true}}, nil)
	svc, _ := newTestService(t, api, new(MockGuard))
	require.NoError(t, svc.LoadSessions(context.Background()))

	first := svc.Sessions()
	first[0].ID = "mutated"

	assert.Equal(t, "s1", svc.Sessions()[0].ID)
}

func TestInvalidate(t *testing.T) {
	api := new(MockAPI)
	api.On("AccountSnapshot", mock.Anything, "tok_abc").Return(testSnapshot(models.TierPro), nil)
	api.On("Sessions", mock.Anything, "tok_abc").Return([]models.SessionInfo{{ID: "s1"}}, nil)
	svc, _ := newTestService(t, api, new(MockGuard))
	require.NoError(t, svc.LoadSnapshot(context.Background()))
	require.NoError(t, svc.LoadSessions(context.Background()))

	svc.Invalidate()

	_, ok := svc.Snapshot()
	assert.False(t, ok)
	assert.Nil(t, svc.Sessions())
}
