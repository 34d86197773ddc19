// Package account реализует агрегатор данных аккаунта: единая загрузка
// составного снапшота и независимые ленивые загрузчики вкладок (сессии,
// журнал действий, команда).
//
// Политика отказов: 401 делегируется контроллеру входа (принудительный выход);
// любой другой отказ сохраняет прежний снапшот нетронутым — частичной
// перезаписи не бывает. Каждое применение результата защищено проверкой
// поколения сессии: поздний ответ уже неактуальной сессии отбрасывается.
package account

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/pyro1121/omg-portal/internal/lib/sl"
	"github.com/pyro1121/omg-portal/internal/models"
	"github.com/pyro1121/omg-portal/internal/session"
)

// AccountAPI описывает используемую часть клиента сервиса аккаунтов.
type AccountAPI interface {
	AccountSnapshot(ctx context.Context, token string) (*models.AccountSnapshot, error)
	Sessions(ctx context.Context, token string) ([]models.SessionInfo, error)
	AuditLog(ctx context.Context, token string) ([]models.AuditEntry, error)
	TeamData(ctx context.Context, token string) (*models.TeamData, error)
}

// AuthGuard переводит ответ 401 в принудительный выход.
type AuthGuard interface {
	HandleUpstreamError(ctx context.Context, err error) error
}

// Service — агрегатор данных аккаунта.
type Service struct {
	log   *slog.Logger
	api   AccountAPI
	store session.Store
	guard AuthGuard

	mu       sync.RWMutex
	snapshot *models.AccountSnapshot
	sessions []models.SessionInfo
	audit    []models.AuditEntry
	team     *models.TeamData
}

// New создает новый агрегатор без гидрированного состояния.
func New(log *slog.Logger, api AccountAPI, store session.Store, guard AuthGuard) *Service {
	return &Service{
		log:   log,
		api:   api,
		store: store,
		guard: guard,
	}
}

// token возвращает актуальный токен и поколение сессии на момент вызова.
func (s *Service) token(ctx context.Context) (string, uint64, error) {
	tok, ok, err := s.store.Get(ctx)
	if err != nil {
		return "", 0, err
	}
	if !ok {
		return "", 0, models.ErrNotAuthenticated
	}
	return tok, s.store.Epoch(), nil
}

// LoadSnapshot загружает составной снапшот аккаунта. Идемпотентен: повторный
// вызов без серверных изменений даёт равное по значению состояние.
func (s *Service) LoadSnapshot(ctx context.Context) error {
	const op = "account.LoadSnapshot"

	token, epoch, err := s.token(ctx)
	if err != nil {
		return err
	}

	snap, err := s.api.AccountSnapshot(ctx, token)
	if err != nil {
		s.log.Error("snapshot load failed, prior state retained", slog.String("op", op), sl.Err(err))
		return s.guard.HandleUpstreamError(ctx, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store.Epoch() != epoch {
		s.log.Warn("discarding snapshot for stale session", slog.String("op", op))
		return models.ErrSessionChanged
	}
	s.snapshot = snap
	s.log.Info("account snapshot hydrated", slog.String("op", op),
		slog.String("tier", string(snap.License.Tier)))
	return nil
}

// LoadSessions загружает список активных сессий (вкладка Sessions).
func (s *Service) LoadSessions(ctx context.Context) error {
	const op = "account.LoadSessions"

	token, epoch, err := s.token(ctx)
	if err != nil {
		return err
	}

	sessions, err := s.api.Sessions(ctx, token)
	if err != nil {
		s.log.Error("sessions load failed", slog.String("op", op), sl.Err(err))
		return s.guard.HandleUpstreamError(ctx, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store.Epoch() != epoch {
		return models.ErrSessionChanged
	}
	s.sessions = sessions
	return nil
}

// LoadAuditLog загружает журнал действий аккаунта (вкладка Audit).
func (s *Service) LoadAuditLog(ctx context.Context) error {
	const op = "account.LoadAuditLog"

	token, epoch, err := s.token(ctx)
	if err != nil {
		return err
	}

	entries, err := s.api.AuditLog(ctx, token)
	if err != nil {
		s.log.Error("audit log load failed", slog.String("op", op), sl.Err(err))
		return s.guard.HandleUpstreamError(ctx, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store.Epoch() != epoch {
		return models.ErrSessionChanged
	}
	s.audit = entries
	return nil
}

// LoadTeam загружает участников команды. Требует гидрированного снапшота с
// уровнем team или enterprise — иначе models.ErrTierRequired без сетевого
// вызова.
func (s *Service) LoadTeam(ctx context.Context) error {
	const op = "account.LoadTeam"

	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap == nil {
		return models.ErrNotAuthenticated
	}
	if !snap.License.Tier.HasTeam() {
		return models.ErrTierRequired
	}

	token, epoch, err := s.token(ctx)
	if err != nil {
		return err
	}

	team, err := s.api.TeamData(ctx, token)
	if err != nil {
		s.log.Error("team load failed", slog.String("op", op), sl.Err(err))
		return s.guard.HandleUpstreamError(ctx, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store.Epoch() != epoch {
		return models.ErrSessionChanged
	}
	s.team = team
	return nil
}

// Snapshot возвращает копию текущего снапшота аккаунта. Изменение
// возвращённого значения не затрагивает внутреннее состояние.
func (s *Service) Snapshot() (*models.AccountSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, false
	}
	snap := *s.snapshot
	snap.Machines = slices.Clone(snap.Machines)
	snap.Leaderboard = slices.Clone(snap.Leaderboard)
	snap.Usage.PerDay = slices.Clone(snap.Usage.PerDay)
	snap.Usage.Achievements = slices.Clone(snap.Usage.Achievements)
	if snap.Global != nil {
		global := *snap.Global
		snap.Global = &global
	}
	return &snap, true
}

// CurrentUser возвращает гидрированного пользователя.
func (s *Service) CurrentUser() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return models.User{}, false
	}
	return s.snapshot.User, true
}

// Sessions возвращает копию загруженного списка сессий.
func (s *Service) Sessions() []models.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sessions)
}

// AuditLog возвращает копию загруженного журнала действий.
func (s *Service) AuditLog() []models.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.audit)
}

// Team возвращает копию загруженных командных данных.
func (s *Service) Team() (*models.TeamData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.team == nil {
		return nil, false
	}
	team := models.TeamData{Members: slices.Clone(s.team.Members)}
	return &team, true
}

// ApplyLicenseKey атомарно замещает лицензионный ключ в снапшоте результатом,
// подтверждённым сервером. Старый ключ мёртв с момента возврата из метода —
// промежуточного состояния с двумя действительными ключами не существует.
func (s *Service) ApplyLicenseKey(newKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil {
		s.snapshot.License.Key = newKey
	}
}

// Invalidate сбрасывает всё гидрированное состояние. Вызывается контроллером
// входа при выходе и принудительном выходе.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	s.sessions = nil
	s.audit = nil
	s.team = nil
}
