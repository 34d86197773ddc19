// Package upstream реализует HTTP-клиент опубликованного контракта удалённого
// сервиса аккаунтов (api.pyro1121.com). Пакет только потребляет контракт:
// выдача кодов, CAPTCHA и биллинг — забота внешнего сервиса.
//
// Классификация отказов: транспортная ошибка — *RequestError, ответ 401 —
// ErrUnauthorized, структурированная ошибка сервера — *APIError.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/pyro1121/omg-portal/internal/config"
	"github.com/pyro1121/omg-portal/internal/models"
)

// Client — клиент сервиса аккаунтов. Токен не хранится в клиенте:
// каждая аутентифицированная операция принимает актуальное значение,
// прочитанное вызывающей стороной из хранилища сессии в момент вызова.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New создаёт новый клиент сервиса аккаунтов.
func New(cfg config.AccountService) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.TimeoutAccount},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do выполняет запрос и декодирует успешный ответ в out (если out != nil).
func (c *Client) do(req *http.Request, endpoint string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(endpoint, "network_error")
		return &RequestError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		observe(endpoint, "unauthorized")
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		observe(endpoint, "api_error")
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			observe(endpoint, "network_error")
			return &RequestError{Endpoint: endpoint, Err: err}
		}
	}
	observe(endpoint, "ok")
	return nil
}

// RequestCode запрашивает отправку одноразового кода на email.
func (c *Client) RequestCode(ctx context.Context, email, captchaToken string) error {
	const endpoint = "auth.request-code"
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/request-code", "",
		requestCodeRequest{Email: email, CaptchaToken: captchaToken})
	if err != nil {
		return err
	}
	var resp statusResponse
	if err := c.do(req, endpoint, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &APIError{StatusCode: http.StatusOK, Message: resp.Error}
	}
	return nil
}

// VerifyCode проверяет шестизначный код и возвращает сессионный токен.
func (c *Client) VerifyCode(ctx context.Context, email, code string) (string, error) {
	const endpoint = "auth.verify-code"
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/verify-code", "",
		verifyCodeRequest{Email: email, Code: code})
	if err != nil {
		return "", err
	}
	var resp verifyCodeResponse
	if err := c.do(req, endpoint, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.Token == "" {
		return "", &APIError{StatusCode: http.StatusOK, Message: resp.Error}
	}
	return resp.Token, nil
}

// VerifySession проверяет сохранённый токен. Возвращает пользователя и признак
// действительности; невалидный токен — не ошибка, а (nil, false).
func (c *Client) VerifySession(ctx context.Context, token string) (*models.User, bool, error) {
	const endpoint = "auth.verify-session"
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/session", token, nil)
	if err != nil {
		return nil, false, err
	}
	var resp verifySessionResponse
	if err := c.do(req, endpoint, &resp); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !resp.Valid {
		return nil, false, nil
	}
	return resp.User, true, nil
}

// AccountSnapshot загружает составной снапшот аккаунта.
func (c *Client) AccountSnapshot(ctx context.Context, token string) (*models.AccountSnapshot, error) {
	var snap models.AccountSnapshot
	req, err := c.newRequest(ctx, http.MethodGet, "/api/account", token, nil)
	if err != nil {
		return nil, err
	}
	if err := c.do(req, "account.snapshot", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Sessions загружает список активных сессий аккаунта.
func (c *Client) Sessions(ctx context.Context, token string) ([]models.SessionInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/account/sessions", token, nil)
	if err != nil {
		return nil, err
	}
	var resp sessionsResponse
	if err := c.do(req, "account.sessions", &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// AuditLog загружает журнал действий аккаунта.
func (c *Client) AuditLog(ctx context.Context, token string) ([]models.AuditEntry, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/account/audit-log", token, nil)
	if err != nil {
		return nil, err
	}
	var resp auditLogResponse
	if err := c.do(req, "account.audit-log", &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// TeamData загружает участников командной лицензии.
func (c *Client) TeamData(ctx context.Context, token string) (*models.TeamData, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/account/team", token, nil)
	if err != nil {
		return nil, err
	}
	var team models.TeamData
	if err := c.do(req, "account.team", &team); err != nil {
		return nil, err
	}
	return &team, nil
}

// RegenerateLicense перегенерирует лицензионный ключ. Заголовок X-Request-Id
// защищает от двойного срабатывания при повторной отправке той же UI-операции.
func (c *Client) RegenerateLicense(ctx context.Context, token string) (string, error) {
	const endpoint = "license.regenerate"
	req, err := c.newRequest(ctx, http.MethodPost, "/api/license/regenerate", token, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	var resp regenerateLicenseResponse
	if err := c.do(req, endpoint, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.NewLicenseKey == "" {
		return "", &APIError{StatusCode: http.StatusOK, Message: resp.Error}
	}
	return resp.NewLicenseKey, nil
}

func (c *Client) revoke(ctx context.Context, token, path, endpoint string) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, token, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	var resp statusResponse
	if err := c.do(req, endpoint, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &APIError{StatusCode: http.StatusOK, Message: resp.Error}
	}
	return nil
}

// RevokeMachine отзывает машину по идентификатору.
func (c *Client) RevokeMachine(ctx context.Context, token, id string) error {
	return c.revoke(ctx, token, "/api/machines/"+url.PathEscape(id)+"/revoke", "machine.revoke")
}

// RevokeSession отзывает сессию по идентификатору.
func (c *Client) RevokeSession(ctx context.Context, token, id string) error {
	return c.revoke(ctx, token, "/api/sessions/"+url.PathEscape(id)+"/revoke", "session.revoke")
}

// RevokeTeamMember отзывает место участника команды по идентификатору.
func (c *Client) RevokeTeamMember(ctx context.Context, token, id string) error {
	return c.revoke(ctx, token, "/api/team/members/"+url.PathEscape(id)+"/revoke", "team.revoke")
}

// BillingPortal запрашивает одноразовый URL портала оплаты.
func (c *Client) BillingPortal(ctx context.Context, token string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/billing/portal", token, nil)
	if err != nil {
		return "", err
	}
	var resp billingPortalResponse
	if err := c.do(req, "billing.portal", &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// AdminOverview загружает агрегированные показатели панели администратора.
func (c *Client) AdminOverview(ctx context.Context, token string) (*models.AdminOverview, error) {
	var out models.AdminOverview
	if err := c.getJSON(ctx, token, "/api/admin/overview", "admin.overview", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminUsers загружает страницу каталога пользователей с поиском.
func (c *Client) AdminUsers(ctx context.Context, token string, page, pageSize int, query string) (*models.AdminDirectory, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	if query != "" {
		q.Set("q", query)
	}
	var out models.AdminDirectory
	if err := c.getJSON(ctx, token, "/api/admin/users?"+q.Encode(), "admin.users", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminActivity загружает ленту недавних событий.
func (c *Client) AdminActivity(ctx context.Context, token string) ([]models.ActivityItem, error) {
	var resp activityResponse
	if err := c.getJSON(ctx, token, "/api/admin/activity", "admin.activity", &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// AdminHealth загружает состояние подсистем сервиса.
func (c *Client) AdminHealth(ctx context.Context, token string) (*models.HealthStatus, error) {
	var out models.HealthStatus
	if err := c.getJSON(ctx, token, "/api/admin/health", "admin.health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminRevenue загружает ряд выручки по месяцам.
func (c *Client) AdminRevenue(ctx context.Context, token string) (*models.AdminRevenue, error) {
	var out models.AdminRevenue
	if err := c.getJSON(ctx, token, "/api/admin/revenue", "admin.revenue", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminCohorts загружает таблицу когорт.
func (c *Client) AdminCohorts(ctx context.Context, token string) (*models.AdminCohorts, error) {
	var out models.AdminCohorts
	if err := c.getJSON(ctx, token, "/api/admin/cohorts", "admin.cohorts", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminAnalytics загружает продуктовую аналитику (необязательный срез панели).
func (c *Client) AdminAnalytics(ctx context.Context, token string) (*models.AdminAnalytics, error) {
	var out models.AdminAnalytics
	if err := c.getJSON(ctx, token, "/api/admin/analytics", "admin.analytics", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminUserDetail загружает детальный просмотр одного пользователя.
func (c *Client) AdminUserDetail(ctx context.Context, token, userID string) (*models.AdminUserDetail, error) {
	var out models.AdminUserDetail
	path := "/api/admin/users/" + url.PathEscape(userID)
	if err := c.getJSON(ctx, token, path, "admin.user-detail", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminUpdateUser изменяет уровень, количество мест или статус пользователя.
func (c *Client) AdminUpdateUser(ctx context.Context, token, userID string, update models.AdminUserUpdate) error {
	const endpoint = "admin.update-user"
	req, err := c.newRequest(ctx, http.MethodPatch, "/api/admin/users/"+url.PathEscape(userID), token, update)
	if err != nil {
		return err
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	var resp statusResponse
	if err := c.do(req, endpoint, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &APIError{StatusCode: http.StatusOK, Message: resp.Error}
	}
	return nil
}

// ExportResult — поток выгрузки с именем файла из заголовка ответа.
// Тело обязан закрыть получатель.
type ExportResult struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
}

// Export запрашивает выгрузку (users|usage|audit) за период и возвращает поток
// без буферизации всего ответа.
func (c *Client) Export(ctx context.Context, token, kind, from, to string) (*ExportResult, error) {
	const endpoint = "export"
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	path := "/api/export/" + url.PathEscape(kind)
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(endpoint, "network_error")
		return nil, &RequestError{Endpoint: endpoint, Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		observe(endpoint, "unauthorized")
		return nil, ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		observe(endpoint, "api_error")
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	filename := fmt.Sprintf("omg-export-%s.csv", kind)
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			filename = params["filename"]
		}
	}
	observe(endpoint, "ok")
	return &ExportResult{
		Body:        resp.Body,
		Filename:    filename,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, token, path, endpoint string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return err
	}
	return c.do(req, endpoint, out)
}
