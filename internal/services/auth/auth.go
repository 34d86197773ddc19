// Package auth реализует контроллер последовательности входа:
// unauthenticated → code_requested → authenticated, с выходом logged_out,
// возвращающим в unauthenticated.
//
// Контроллер — единственный писатель сессионного токена: успешная проверка
// кода записывает токен в хранилище, выход и принудительный выход по 401
// очищают его. Все читатели берут актуальное значение из хранилища в момент
// вызова.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/pyro1121/omg-portal/internal/lib/sl"
	"github.com/pyro1121/omg-portal/internal/models"
	"github.com/pyro1121/omg-portal/internal/session"
	"github.com/pyro1121/omg-portal/internal/upstream"
)

// State — состояние последовательности входа.
type State string

// Состояния контроллера.
const (
	StateUnauthenticated State = "unauthenticated"
	StateCodeRequested   State = "code_requested"
	StateAuthenticated   State = "authenticated"
)

// AccountAPI описывает используемую часть клиента сервиса аккаунтов.
type AccountAPI interface {
	// RequestCode запрашивает отправку одноразового кода на email.
	RequestCode(ctx context.Context, email, captchaToken string) error
	// VerifyCode проверяет код и возвращает сессионный токен.
	VerifyCode(ctx context.Context, email, code string) (string, error)
	// VerifySession проверяет сохранённый токен.
	VerifySession(ctx context.Context, token string) (*models.User, bool, error)
}

// Hydrator — агрегатор данных аккаунта, запускаемый после успешного входа.
type Hydrator interface {
	LoadSnapshot(ctx context.Context) error
}

// Invalidator — компонент с гидрированным состоянием, сбрасываемым при выходе.
type Invalidator interface {
	Invalidate()
}

// Service — контроллер последовательности входа.
type Service struct {
	log   *slog.Logger
	api   AccountAPI
	store session.Store

	mu           sync.Mutex
	state        State
	email        string
	lastCaptcha  string
	hydrator     Hydrator
	invalidators []Invalidator
}

// New создает новый контроллер в состоянии unauthenticated.
func New(log *slog.Logger, api AccountAPI, store session.Store) *Service {
	return &Service{
		log:   log,
		api:   api,
		store: store,
		state: StateUnauthenticated,
	}
}

// SetHydrator задаёт агрегатор, запускаемый после входа. Вызывается один раз
// при сборке приложения (разрывает цикл зависимостей auth ↔ account).
func (s *Service) SetHydrator(h Hydrator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hydrator = h
}

// RegisterInvalidator регистрирует компонент, состояние которого сбрасывается
// при выходе и принудительном выходе.
func (s *Service) RegisterInvalidator(inv Invalidator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidators = append(s.invalidators, inv)
}

// State возвращает текущее состояние последовательности входа.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PendingEmail возвращает email, для которого запрошен код.
func (s *Service) PendingEmail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

// RequestCode запрашивает одноразовый код. Локальная валидация выполняется до
// сетевого вызова: некорректный email или отсутствующий/повторно используемый
// CAPTCHA-токен — models.ValidationError без обращения к сети.
//
// CAPTCHA-токен одноразовый: он потребляется при каждой попытке независимо от
// исхода, поскольку провайдер проверки отклоняет повторное использование.
// Повторная отправка кода (resend) проходит через этот же метод и точно так же
// потребляет токен.
func (s *Service) RequestCode(ctx context.Context, email, captchaToken string) error {
	const op = "auth.RequestCode"

	if email == "" || !strings.Contains(email, "@") {
		return &models.ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if captchaToken == "" {
		return &models.ValidationError{Field: "captcha_token", Reason: "is required"}
	}

	s.mu.Lock()
	if captchaToken == s.lastCaptcha {
		s.mu.Unlock()
		return &models.ValidationError{Field: "captcha_token", Reason: "has already been used, obtain a fresh one"}
	}
	// Токен считается потреблённым с этого момента, даже если запрос не удастся.
	s.lastCaptcha = captchaToken
	s.mu.Unlock()

	if err := s.api.RequestCode(ctx, email, captchaToken); err != nil {
		s.log.Error("request code failed", slog.String("op", op), sl.Err(err))
		return err
	}

	s.mu.Lock()
	s.state = StateCodeRequested
	s.email = email
	s.mu.Unlock()

	s.log.Info("one-time code requested", slog.String("op", op), slog.String("email", email))
	return nil
}

// VerifyCode проверяет шестизначный код. Код неверной длины или с нецифровыми
// символами отклоняется локально без сетевого вызова. При успехе токен
// сохраняется в хранилище и запускается загрузка снапшота аккаунта (ровно один
// раз); при отказе сервера состояние остаётся code_requested, повторы не
// ограничены.
func (s *Service) VerifyCode(ctx context.Context, code string) error {
	const op = "auth.VerifyCode"

	s.mu.Lock()
	if s.state != StateCodeRequested {
		s.mu.Unlock()
		return &models.ValidationError{Field: "code", Reason: "no pending code request"}
	}
	email := s.email
	s.mu.Unlock()

	if len(code) != 6 {
		return &models.ValidationError{Field: "code", Reason: "must be exactly 6 digits"}
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return &models.ValidationError{Field: "code", Reason: "must contain only digits"}
		}
	}

	token, err := s.api.VerifyCode(ctx, email, code)
	if err != nil {
		s.log.Error("code verification failed", slog.String("op", op), sl.Err(err))
		return err
	}

	if err := s.store.Set(ctx, token); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	hydrator := s.hydrator
	s.mu.Unlock()

	s.log.Info("authenticated", slog.String("op", op), sl.Masked("token", token))

	if hydrator != nil {
		if err := hydrator.LoadSnapshot(ctx); err != nil {
			// Вход состоялся; отказ гидрации отображается отдельно.
			s.log.Error("initial snapshot load failed", slog.String("op", op), sl.Err(err))
		}
	}
	return nil
}

// Resume восстанавливает сессию при старте: существующий токен проверяется на
// сервере; действительный переводит сразу в authenticated и запускает
// гидрацию, недействительный очищает хранилище.
func (s *Service) Resume(ctx context.Context) (bool, error) {
	const op = "auth.Resume"

	token, ok, err := s.store.Get(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	user, valid, err := s.api.VerifySession(ctx, token)
	if err != nil {
		// Транспортный отказ не уничтожает токен: действительность решает
		// только сервер, а до него не достучались.
		s.log.Error("session verification failed", slog.String("op", op), sl.Err(err))
		return false, err
	}
	if !valid {
		if err := s.store.Clear(ctx); err != nil {
			return false, err
		}
		s.log.Info("stored session rejected by server", slog.String("op", op))
		return false, nil
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	hydrator := s.hydrator
	s.mu.Unlock()

	s.log.Info("session resumed", slog.String("op", op), slog.String("email", user.Email))

	if hydrator != nil {
		if err := hydrator.LoadSnapshot(ctx); err != nil {
			s.log.Error("snapshot load after resume failed", slog.String("op", op), sl.Err(err))
		}
	}
	return true, nil
}

// Logout очищает хранилище токена и сбрасывает всё гидрированное состояние.
func (s *Service) Logout(ctx context.Context) error {
	const op = "auth.Logout"
	s.log.Info("logging out", slog.String("op", op))
	return s.reset(ctx)
}

// ForceLogout — принудительный выход по ответу 401, полученному в состоянии
// authenticated. Выполняется немедленно и безусловно (fail-closed).
func (s *Service) ForceLogout(ctx context.Context) {
	const op = "auth.ForceLogout"
	s.log.Warn("server invalidated session, forcing logout", slog.String("op", op))
	if err := s.reset(ctx); err != nil {
		s.log.Error("failed to clear session on forced logout", slog.String("op", op), sl.Err(err))
	}
}

// HandleUpstreamError переводит ErrUnauthorized в принудительный выход.
// Возвращает исходную ошибку для дальнейшей обработки вызывающей стороной.
func (s *Service) HandleUpstreamError(ctx context.Context, err error) error {
	if errors.Is(err, upstream.ErrUnauthorized) {
		s.ForceLogout(ctx)
	}
	return err
}

func (s *Service) reset(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = StateUnauthenticated
	s.email = ""
	invalidators := make([]Invalidator, len(s.invalidators))
	copy(invalidators, s.invalidators)
	s.mu.Unlock()

	for _, inv := range invalidators {
		inv.Invalidate()
	}
	return nil
}
