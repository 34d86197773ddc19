// Package admin реализует привилегированный агрегатор административной
// панели: веер из семи независимых конкурентных запросов, собираемых в одно
// составное представление.
//
// Предусловие каждого метода — гидрированный пользователь с is_admin: без него
// ни один административный запрос к сети не выполняется. Медленный или
// отказавший подзапрос не блокирует остальные: каждый результат применяется к
// своему именованному срезу независимо и идемпотентно; порядок завершения не
// специфицирован. Отказ среза analytics (необязательного) деградирует до nil
// молча, отказ любого другого среза — до nil с именем в Degraded.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/pyro1121/omg-portal/internal/lib/sl"
	"github.com/pyro1121/omg-portal/internal/models"
	"github.com/pyro1121/omg-portal/internal/session"
	"github.com/pyro1121/omg-portal/internal/upstream"
)

// AccountAPI описывает административную часть клиента сервиса аккаунтов.
type AccountAPI interface {
	AdminOverview(ctx context.Context, token string) (*models.AdminOverview, error)
	AdminUsers(ctx context.Context, token string, page, pageSize int, query string) (*models.AdminDirectory, error)
	AdminActivity(ctx context.Context, token string) ([]models.ActivityItem, error)
	AdminHealth(ctx context.Context, token string) (*models.HealthStatus, error)
	AdminRevenue(ctx context.Context, token string) (*models.AdminRevenue, error)
	AdminCohorts(ctx context.Context, token string) (*models.AdminCohorts, error)
	AdminAnalytics(ctx context.Context, token string) (*models.AdminAnalytics, error)
	AdminUserDetail(ctx context.Context, token, userID string) (*models.AdminUserDetail, error)
}

// AccountState отдаёт гидрированного пользователя для проверки привилегий.
type AccountState interface {
	CurrentUser() (models.User, bool)
}

// AuthGuard переводит ответ 401 в принудительный выход.
type AuthGuard interface {
	HandleUpstreamError(ctx context.Context, err error) error
}

// Service — привилегированный агрегатор.
type Service struct {
	log     *slog.Logger
	api     AccountAPI
	store   session.Store
	account AccountState
	guard   AuthGuard

	mu       sync.RWMutex
	snapshot *models.AdminSnapshot
	detail   *models.AdminUserDetail
	detailID string

	// Последние параметры каталога: ReloadDirectory перечитывает ту же
	// страницу с тем же поисковым запросом после мутации пользователя.
	lastPage     int
	lastPageSize int
	lastQuery    string
}

// New создает новый привилегированный агрегатор.
func New(log *slog.Logger, api AccountAPI, store session.Store, account AccountState, guard AuthGuard) *Service {
	return &Service{
		log:     log,
		api:     api,
		store:   store,
		account: account,
		guard:   guard,
	}
}

// requireAdmin проверяет привилегию и возвращает токен с поколением сессии.
// Без is_admin сетевых вызовов не происходит.
func (s *Service) requireAdmin(ctx context.Context) (string, uint64, error) {
	user, ok := s.account.CurrentUser()
	if !ok {
		return "", 0, models.ErrNotAuthenticated
	}
	if !user.IsAdmin {
		return "", 0, models.ErrAdminOnly
	}
	token, exists, err := s.store.Get(ctx)
	if err != nil {
		return "", 0, err
	}
	if !exists {
		return "", 0, models.ErrNotAuthenticated
	}
	return token, s.store.Epoch(), nil
}

// LoadSnapshot выполняет веер из семи конкурентных запросов и собирает их в
// составное представление. Пагинация и поиск — повторный вызов с новыми
// параметрами; инкрементальной дозагрузки нет.
func (s *Service) LoadSnapshot(ctx context.Context, page, pageSize int, query string) error {
	const op = "admin.LoadSnapshot"

	token, epoch, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 25
	}

	s.mu.Lock()
	s.lastPage, s.lastPageSize, s.lastQuery = page, pageSize, query
	s.mu.Unlock()

	next := &models.AdminSnapshot{LoadedAt: time.Now().UTC()}
	var (
		mu           sync.Mutex
		wg           sync.WaitGroup
		unauthorized bool
	)

	// Каждая задача пишет в свой именованный срез; отказ одной не прерывает
	// остальные, уже завершившиеся или находящиеся в полёте.
	type job struct {
		slice    string
		optional bool
		run      func(ctx context.Context) error
	}
	jobs := []job{
		{slice: "overview", run: func(ctx context.Context) error {
			v, err := s.api.AdminOverview(ctx, token)
			if err != nil {
				return err
			}
			mu.Lock()
			next.Overview = v
			mu.Unlock()
			return nil
		}},
		{slice: "directory", run: func(ctx context.Context) error {
			v, err := s.api.AdminUsers(ctx, token, page, pageSize, query)
			if err != nil {
				return err
			}
			mu.Lock()
			next.Directory = v
			mu.Unlock()
			return nil
		}},
		{slice: "activity", run: func(ctx context.Context) error {
			v, err := s.api.AdminActivity(ctx, token)
			if err != nil {
				return err
			}
			mu.Lock()
			next.Activity = v
			mu.Unlock()
			return nil
		}},
		{slice: "health", run: func(ctx context.Context) error {
			v, err := s.api.AdminHealth(ctx, token)
			if err != nil {
				return err
			}
			mu.Lock()
			next.Health = v
			mu.Unlock()
			return nil
		}},
		{slice: "revenue", run: func(ctx context.Context) error {
			v, err := s.api.AdminRevenue(ctx, token)
			if err != nil {
				return err
			}
			mu.Lock()
			next.Revenue = v
			mu.Unlock()
			return nil
		}},
		{slice: "cohorts", run: func(ctx context.Context) error {
			v, err := s.api.AdminCohorts(ctx, token)
			if err != nil {
				return err
			}
			mu.Lock()
			next.Cohorts = v
			mu.Unlock()
			return nil
		}},
		{slice: "analytics", optional: true, run: func(ctx context.Context) error {
			v, err := s.api.AdminAnalytics(ctx, token)
			if err != nil {
				return err
			}
			mu.Lock()
			next.Analytics = v
			mu.Unlock()
			return nil
		}},
	}

	for _, j := range jobs {
		j := j
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := j.run(ctx); err != nil {
				mu.Lock()
				if errors.Is(err, upstream.ErrUnauthorized) {
					unauthorized = true
				} else if !j.optional {
					next.Degraded = append(next.Degraded, j.slice)
				}
				mu.Unlock()
				s.log.Error("admin slice failed", slog.String("op", op),
					slog.String("slice", j.slice), sl.Err(err))
			}
		}()
	}
	wg.Wait()

	if unauthorized {
		return s.guard.HandleUpstreamError(ctx, upstream.ErrUnauthorized)
	}
	sort.Strings(next.Degraded)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store.Epoch() != epoch {
		s.log.Warn("discarding admin snapshot for stale session", slog.String("op", op))
		return models.ErrSessionChanged
	}
	s.snapshot = next
	s.log.Info("admin snapshot assembled", slog.String("op", op),
		slog.Int("degraded", len(next.Degraded)))
	return nil
}

// LoadUserDetail загружает детальный просмотр одного пользователя. Результат
// полностью замещает ранее загруженную деталь.
func (s *Service) LoadUserDetail(ctx context.Context, userID string) error {
	const op = "admin.LoadUserDetail"

	token, epoch, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}

	detail, err := s.api.AdminUserDetail(ctx, token, userID)
	if err != nil {
		s.log.Error("user detail load failed", slog.String("op", op),
			slog.String("user_id", userID), sl.Err(err))
		return s.guard.HandleUpstreamError(ctx, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store.Epoch() != epoch {
		return models.ErrSessionChanged
	}
	s.detail = detail
	s.detailID = userID
	return nil
}

// ReloadDirectory перечитывает только срез каталога с последними параметрами
// страницы и поиска. Вызывается диспетчером после административной мутации,
// чтобы листинг отражал изменённый уровень.
func (s *Service) ReloadDirectory(ctx context.Context) error {
	const op = "admin.ReloadDirectory"

	token, epoch, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}

	s.mu.RLock()
	page, pageSize, query := s.lastPage, s.lastPageSize, s.lastQuery
	s.mu.RUnlock()
	if page < 1 {
		page, pageSize = 1, 25
	}

	dir, err := s.api.AdminUsers(ctx, token, page, pageSize, query)
	if err != nil {
		s.log.Error("directory reload failed", slog.String("op", op), sl.Err(err))
		return s.guard.HandleUpstreamError(ctx, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store.Epoch() != epoch {
		return models.ErrSessionChanged
	}
	if s.snapshot != nil {
		s.snapshot.Directory = dir
	}
	return nil
}

// Snapshot возвращает копию текущего составного представления панели.
// Изменение возвращённого значения не затрагивает внутреннее состояние.
func (s *Service) Snapshot() (*models.AdminSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, false
	}
	return cloneSnapshot(s.snapshot), true
}

func cloneSnapshot(src *models.AdminSnapshot) *models.AdminSnapshot {
	snap := *src
	snap.Activity = slices.Clone(src.Activity)
	snap.Degraded = slices.Clone(src.Degraded)
	if src.Overview != nil {
		v := *src.Overview
		snap.Overview = &v
	}
	if src.Directory != nil {
		v := *src.Directory
		v.Users = slices.Clone(v.Users)
		snap.Directory = &v
	}
	if src.Health != nil {
		v := *src.Health
		v.Components = maps.Clone(v.Components)
		snap.Health = &v
	}
	if src.Revenue != nil {
		v := *src.Revenue
		v.Points = slices.Clone(v.Points)
		snap.Revenue = &v
	}
	if src.Cohorts != nil {
		v := *src.Cohorts
		v.Rows = slices.Clone(v.Rows)
		for i := range v.Rows {
			v.Rows[i].Retention = slices.Clone(v.Rows[i].Retention)
		}
		snap.Cohorts = &v
	}
	if src.Analytics != nil {
		v := *src.Analytics
		v.TopCommands = maps.Clone(v.TopCommands)
		v.TierCounts = maps.Clone(v.TierCounts)
		snap.Analytics = &v
	}
	return &snap
}

// UserDetail возвращает копию загруженной детали пользователя.
func (s *Service) UserDetail() (*models.AdminUserDetail, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.detail == nil {
		return nil, false
	}
	detail := *s.detail
	detail.Usage.PerDay = slices.Clone(detail.Usage.PerDay)
	detail.Usage.Achievements = slices.Clone(detail.Usage.Achievements)
	detail.Sessions = slices.Clone(detail.Sessions)
	detail.Audit = slices.Clone(detail.Audit)
	return &detail, true
}

// DetailOpenFor сообщает, открыта ли деталь именно этого пользователя.
func (s *Service) DetailOpenFor(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detail != nil && s.detailID == userID
}

// InvalidateUserDetail сбрасывает деталь пользователя после его мутации,
// чтобы представление никогда не показывало устаревшие данные.
func (s *Service) InvalidateUserDetail(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detailID == userID {
		s.detail = nil
		s.detailID = ""
	}
}

// Invalidate сбрасывает всё административное состояние при выходе.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	s.detail = nil
	s.detailID = ""
}
