// Package license реализует диспетчер деструктивных и идемпотентных операций
// над лицензией: перегенерация ключа, отзыв машины/сессии/участника команды,
// административное изменение пользователя, переход в портал оплаты.
//
// Единая политика согласования: после подтверждённой сервером мутации
// владеющая коллекция загружается заново — локального вырезания элементов не
// бывает, чтобы клиент не расходился с серверной правдой. Каждая операция либо
// подтверждает успех (и согласует состояние), либо сообщает об отказе, оставив
// прежнее состояние нетронутым; автоматических повторов нет.
package license

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pyro1121/omg-portal/internal/lib/sl"
	"github.com/pyro1121/omg-portal/internal/models"
	"github.com/pyro1121/omg-portal/internal/session"
	"github.com/pyro1121/omg-portal/internal/upstream"
)

// RevokeKind — вид отзываемого объекта.
type RevokeKind string

// Виды отзыва.
const (
	RevokeMachine    RevokeKind = "machine"
	RevokeSession    RevokeKind = "session"
	RevokeTeamMember RevokeKind = "team-member"
)

// AccountAPI описывает мутирующую часть клиента сервиса аккаунтов.
type AccountAPI interface {
	RegenerateLicense(ctx context.Context, token string) (string, error)
	RevokeMachine(ctx context.Context, token, id string) error
	RevokeSession(ctx context.Context, token, id string) error
	RevokeTeamMember(ctx context.Context, token, id string) error
	AdminUpdateUser(ctx context.Context, token, userID string, update models.AdminUserUpdate) error
	BillingPortal(ctx context.Context, token string) (string, error)
	Export(ctx context.Context, token, kind, from, to string) (*upstream.ExportResult, error)
}

// AccountState — агрегатор аккаунта: источник гидрированного пользователя
// для проверки привилегий и состояние, согласуемое после мутаций.
type AccountState interface {
	CurrentUser() (models.User, bool)
	ApplyLicenseKey(newKey string)
	LoadSnapshot(ctx context.Context) error
	LoadSessions(ctx context.Context) error
	LoadTeam(ctx context.Context) error
}

// AdminState — привилегированный агрегатор, согласуемый после мутаций
// администратора.
type AdminState interface {
	ReloadDirectory(ctx context.Context) error
	DetailOpenFor(userID string) bool
	InvalidateUserDetail(userID string)
	LoadUserDetail(ctx context.Context, userID string) error
}

// AuthGuard переводит ответ 401 в принудительный выход.
type AuthGuard interface {
	HandleUpstreamError(ctx context.Context, err error) error
}

// Service — диспетчер операций над лицензией.
type Service struct {
	log     *slog.Logger
	api     AccountAPI
	store   session.Store
	account AccountState
	admin   AdminState
	guard   AuthGuard
}

// New создает новый диспетчер.
func New(log *slog.Logger, api AccountAPI, store session.Store, account AccountState, admin AdminState, guard AuthGuard) *Service {
	return &Service{
		log:     log,
		api:     api,
		store:   store,
		account: account,
		admin:   admin,
		guard:   guard,
	}
}

func (s *Service) token(ctx context.Context) (string, error) {
	tok, ok, err := s.store.Get(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", models.ErrNotAuthenticated
	}
	return tok, nil
}

// RegenerateKey перегенерирует лицензионный ключ. Операция деструктивна:
// старый ключ становится недействительным, все машины должны активироваться
// заново, поэтому требуется явное подтверждение. При успехе новый ключ
// атомарно замещает старый в локальном состоянии — льготного периода для
// старого ключа нет.
func (s *Service) RegenerateKey(ctx context.Context, confirmed bool) (string, error) {
	const op = "license.RegenerateKey"

	if !confirmed {
		return "", models.ErrConfirmationRequired
	}
	token, err := s.token(ctx)
	if err != nil {
		return "", err
	}

	newKey, err := s.api.RegenerateLicense(ctx, token)
	if err != nil {
		s.log.Error("key regeneration failed, prior key untouched", slog.String("op", op), sl.Err(err))
		return "", s.guard.HandleUpstreamError(ctx, err)
	}

	s.account.ApplyLicenseKey(newKey)
	s.log.Info("license key regenerated", slog.String("op", op), sl.Masked("new_key", newKey))
	return newKey, nil
}

// Revoke отзывает машину, сессию или участника команды. Требует явного
// подтверждения. При успехе владеющая коллекция загружается заново.
func (s *Service) Revoke(ctx context.Context, confirmed bool, kind RevokeKind, id string) error {
	const op = "license.Revoke"

	if !confirmed {
		return models.ErrConfirmationRequired
	}
	if id == "" {
		return &models.ValidationError{Field: "id", Reason: "is required"}
	}
	token, err := s.token(ctx)
	if err != nil {
		return err
	}

	var revoke func(context.Context, string, string) error
	var reconcile func(context.Context) error
	switch kind {
	case RevokeMachine:
		revoke = s.api.RevokeMachine
		// Машины живут в составном снапшоте — владеющая коллекция именно он.
		reconcile = s.account.LoadSnapshot
	case RevokeSession:
		revoke = s.api.RevokeSession
		reconcile = s.account.LoadSessions
	case RevokeTeamMember:
		revoke = s.api.RevokeTeamMember
		reconcile = s.account.LoadTeam
	default:
		return &models.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown revoke kind %q", kind)}
	}

	if err := revoke(ctx, token, id); err != nil {
		s.log.Error("revoke failed, prior state untouched", slog.String("op", op),
			slog.String("kind", string(kind)), slog.String("id", id), sl.Err(err))
		return s.guard.HandleUpstreamError(ctx, err)
	}

	s.log.Info("revoked", slog.String("op", op), slog.String("kind", string(kind)), slog.String("id", id))

	if err := reconcile(ctx); err != nil {
		// Мутация подтверждена; отказ повторной загрузки — отдельная ошибка.
		s.log.Error("post-revoke reconciliation failed", slog.String("op", op), sl.Err(err))
		return err
	}
	return nil
}

// AdminUpdateUser изменяет уровень, количество мест или статус пользователя.
// Предусловие — гидрированный пользователь с is_admin: без него запрос к сети
// не выполняется. При успехе открытая деталь этого пользователя немедленно
// сбрасывается, каталог перечитывается, и деталь загружается заново, чтобы не
// показывать состояние до мутации.
func (s *Service) AdminUpdateUser(ctx context.Context, userID string, update models.AdminUserUpdate) error {
	const op = "license.AdminUpdateUser"

	if userID == "" {
		return &models.ValidationError{Field: "user_id", Reason: "is required"}
	}
	user, ok := s.account.CurrentUser()
	if !ok {
		return models.ErrNotAuthenticated
	}
	if !user.IsAdmin {
		return models.ErrAdminOnly
	}
	token, err := s.token(ctx)
	if err != nil {
		return err
	}

	if err := s.api.AdminUpdateUser(ctx, token, userID, update); err != nil {
		s.log.Error("admin user update failed", slog.String("op", op),
			slog.String("user_id", userID), sl.Err(err))
		return s.guard.HandleUpstreamError(ctx, err)
	}

	s.log.Info("admin user updated", slog.String("op", op), slog.String("user_id", userID))

	// Сброс до перезагрузки: даже при отказе повторной загрузки деталь до
	// мутации больше не отдаётся.
	wasOpen := s.admin.DetailOpenFor(userID)
	s.admin.InvalidateUserDetail(userID)

	if err := s.admin.ReloadDirectory(ctx); err != nil {
		s.log.Error("directory reload after update failed", slog.String("op", op), sl.Err(err))
	}
	if wasOpen {
		if err := s.admin.LoadUserDetail(ctx, userID); err != nil {
			s.log.Error("detail reload after update failed", slog.String("op", op), sl.Err(err))
		}
	}
	return nil
}

// Export запрашивает потоковую выгрузку (users, usage или audit) за период.
// Тело потока обязан закрыть получатель; весь ответ в память не буферизуется.
func (s *Service) Export(ctx context.Context, kind, from, to string) (*upstream.ExportResult, error) {
	const op = "license.Export"

	switch kind {
	case "users", "usage", "audit":
	default:
		return nil, &models.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown export kind %q", kind)}
	}
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.api.Export(ctx, token, kind, from, to)
	if err != nil {
		s.log.Error("export failed", slog.String("op", op), slog.String("kind", kind), sl.Err(err))
		return nil, s.guard.HandleUpstreamError(ctx, err)
	}
	return res, nil
}

// BillingPortalURL запрашивает одноразовый URL портала оплаты. Дальше URL
// передаётся браузеру — управление уходит внешнему платёжному провайдеру.
func (s *Service) BillingPortalURL(ctx context.Context) (string, error) {
	const op = "license.BillingPortalURL"

	token, err := s.token(ctx)
	if err != nil {
		return "", err
	}
	url, err := s.api.BillingPortal(ctx, token)
	if err != nil {
		s.log.Error("billing portal request failed", slog.String("op", op), sl.Err(err))
		return "", s.guard.HandleUpstreamError(ctx, err)
	}
	return url, nil
}
