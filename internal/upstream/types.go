package upstream

import "github.com/pyro1121/omg-portal/internal/models"

// requestCodeRequest — тело запроса одноразового кода.
// CaptchaToken — одноразовый токен проверки человеком, сервер валидирует его
// у провайдера; клиент лишь передаёт свежевыданное значение.
type requestCodeRequest struct {
	Email        string `json:"email"`
	CaptchaToken string `json:"captcha_token"`
}

// verifyCodeRequest — тело запроса проверки шестизначного кода.
type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// statusResponse — общая обёртка ответов вида {success, error?}.
type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// verifyCodeResponse — ответ проверки кода: при успехе содержит сессионный токен.
type verifyCodeResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
}

// verifySessionResponse — ответ проверки сохранённого токена.
type verifySessionResponse struct {
	Valid bool         `json:"valid"`
	User  *models.User `json:"user,omitempty"`
}

// regenerateLicenseResponse — ответ перегенерации: новый ключ атомарно
// замещает старый на сервере, прежний ключ мёртв с момента ответа.
type regenerateLicenseResponse struct {
	Success       bool   `json:"success"`
	NewLicenseKey string `json:"new_license_key,omitempty"`
	Error         string `json:"error,omitempty"`
}

// billingPortalResponse — одноразовый URL портала оплаты.
type billingPortalResponse struct {
	URL string `json:"url"`
}

// sessionsResponse — список активных сессий аккаунта.
type sessionsResponse struct {
	Sessions []models.SessionInfo `json:"sessions"`
}

// auditLogResponse — журнал действий аккаунта.
type auditLogResponse struct {
	Entries []models.AuditEntry `json:"entries"`
}

// activityResponse — лента недавних событий административной панели.
type activityResponse struct {
	Items []models.ActivityItem `json:"items"`
}
