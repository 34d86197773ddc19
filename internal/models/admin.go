package models

import "time"

// AdminUser — строка каталога пользователей в административной панели.
type AdminUser struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Tier       Tier      `json:"tier"`
	Status     string    `json:"status"`
	Seats      int       `json:"seats"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// Pagination описывает страницу результата каталога.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

// AdminDirectory — постраничный каталог пользователей с поиском.
type AdminDirectory struct {
	Users      []AdminUser `json:"users"`
	Pagination Pagination  `json:"pagination"`
}

// AdminOverview — агрегированные показатели по всем аккаунтам.
type AdminOverview struct {
	TotalUsers      int   `json:"total_users"`
	ActiveLicenses  int   `json:"active_licenses"`
	ActiveMachines  int   `json:"active_machines"`
	MRRCents        int64 `json:"mrr_cents"`
	SignupsToday    int   `json:"signups_today"`
	SignupsThisWeek int   `json:"signups_this_week"`
}

// ActivityItem — запись ленты недавних событий.
type ActivityItem struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// HealthStatus — состояние подсистем сервиса аккаунтов.
type HealthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// RevenuePoint — выручка за один месяц.
type RevenuePoint struct {
	Month        string `json:"month"` // формат 2006-01
	AmountCents  int64  `json:"amount_cents"`
	NewCustomers int    `json:"new_customers"`
	Churned      int    `json:"churned"`
}

// AdminRevenue — ряд выручки по месяцам.
type AdminRevenue struct {
	Points []RevenuePoint `json:"points"`
}

// CohortRow — удержание одной когорты регистраций.
type CohortRow struct {
	Cohort    string    `json:"cohort"` // месяц регистрации, формат 2006-01
	Size      int       `json:"size"`
	Retention []float64 `json:"retention"`
}

// AdminCohorts — таблица когорт.
type AdminCohorts struct {
	Rows []CohortRow `json:"rows"`
}

// AdminAnalytics — продуктовая аналитика. Считается необязательной:
// её отказ деградирует до пустого состояния, не ломая остальную панель.
type AdminAnalytics struct {
	DAU          int            `json:"dau"`
	WAU          int            `json:"wau"`
	MAU          int            `json:"mau"`
	TopCommands  map[string]int `json:"top_commands,omitempty"`
	TierCounts   map[string]int `json:"tier_counts,omitempty"`
	InstallsWeek int            `json:"installs_week"`
}

// AdminSnapshot — составное представление административной панели.
// Семь срезов заполняются независимыми конкурентными запросами; отказавший
// срез остаётся nil, а его имя (кроме analytics) попадает в Degraded.
type AdminSnapshot struct {
	Overview  *AdminOverview  `json:"overview,omitempty"`
	Directory *AdminDirectory `json:"directory,omitempty"`
	Activity  []ActivityItem  `json:"activity,omitempty"`
	Health    *HealthStatus   `json:"health,omitempty"`
	Revenue   *AdminRevenue   `json:"revenue,omitempty"`
	Cohorts   *AdminCohorts   `json:"cohorts,omitempty"`
	Analytics *AdminAnalytics `json:"analytics,omitempty"`
	Degraded  []string        `json:"degraded,omitempty"`
	LoadedAt  time.Time       `json:"loaded_at"`
}

// AdminBilling — платёжная сводка одного пользователя в детальном просмотре.
type AdminBilling struct {
	CustomerID     string     `json:"customer_id"`
	PaidThroughAt  *time.Time `json:"paid_through_at,omitempty"`
	LifetimeCents  int64      `json:"lifetime_cents"`
	LastInvoiceURL string     `json:"last_invoice_url,omitempty"`
}

// AdminUserDetail — тяжёлый детальный просмотр одного пользователя.
// Полностью замещает ранее загруженную деталь, никогда не сливается с ней.
type AdminUserDetail struct {
	User     AdminUser     `json:"user"`
	Usage    UsageStats    `json:"usage"`
	Billing  AdminBilling  `json:"billing"`
	Sessions []SessionInfo `json:"sessions"`
	Audit    []AuditEntry  `json:"audit"`
}

// AdminUserUpdate — изменяемые администратором поля пользователя.
// Nil-поле означает "не менять".
type AdminUserUpdate struct {
	Tier   *Tier   `json:"tier,omitempty"`
	Seats  *int    `json:"seats,omitempty"`
	Status *string `json:"status,omitempty"`
}
