// Package models содержит доменные структуры портала аккаунтов OMG:
// пользователь, лицензия, машины, статистика использования и командные данные.
// Все сущности принадлежат удалённому сервису аккаунтов — клиент хранит только
// снапшоты и никогда не изменяет их локально, кроме применения подтверждённого
// сервером результата.
package models

import "time"

// Tier представляет уровень подписки лицензии.
type Tier string

// Возможные уровни подписки (по возрастанию).
const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierTeam       Tier = "team"
	TierEnterprise Tier = "enterprise"
)

// DisplayName возвращает отображаемое название уровня.
func (t Tier) DisplayName() string {
	switch t {
	case TierPro:
		return "Pro"
	case TierTeam:
		return "Team"
	case TierEnterprise:
		return "Enterprise"
	default:
		return "Free"
	}
}

// Price возвращает отображаемую цену уровня.
func (t Tier) Price() string {
	switch t {
	case TierPro:
		return "$9/mo"
	case TierTeam:
		return "$200/mo"
	case TierEnterprise:
		return "Contact us"
	default:
		return "Free"
	}
}

// HasTeam сообщает, доступны ли командные данные на этом уровне.
func (t Tier) HasTeam() bool {
	return t == TierTeam || t == TierEnterprise
}

// User представляет аккаунт пользователя. Неизменяем до следующего полного
// обновления снапшота.
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

// License представляет лицензию аккаунта. В каждый момент времени действителен
// ровно один ключ: перегенерация — полная замена, а не добавление.
type License struct {
	Key       string     `json:"license_key"`
	Tier      Tier       `json:"tier"`
	Status    string     `json:"status"` // active | suspended
	MaxSeats  int        `json:"max_seats"`
	UsedSeats int        `json:"used_seats"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Machine представляет одно активированное устройство под лицензией.
// Машины отзываются независимо от лицензии.
type Machine struct {
	ID         string    `json:"id"`
	Hostname   string    `json:"hostname"`
	OS         string    `json:"os"`
	LastSeenAt time.Time `json:"last_seen_at"`
	Active     bool      `json:"active"`
}

// DayUsage — количество команд за один день.
type DayUsage struct {
	Day      string `json:"day"` // формат 2006-01-02
	Commands int64  `json:"commands"`
}

// UsageStats представляет статистику использования CLI. На сервере данные
// только накапливаются; клиент рассматривает их как снапшот только для чтения.
type UsageStats struct {
	TotalCommands    int64      `json:"total_commands"`
	TotalTimeSavedMS int64      `json:"total_time_saved_ms"`
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	PerDay           []DayUsage `json:"per_day,omitempty"`
	Achievements     []string   `json:"achievements,omitempty"`
}

// Unlocked сообщает, присутствует ли достижение в снапшоте статистики.
// Никакой собственной логики разблокировки у клиента нет.
func (u UsageStats) Unlocked(achievementID string) bool {
	for _, id := range u.Achievements {
		if id == achievementID {
			return true
		}
	}
	return false
}

// SessionInfo представляет одну активную сессию аккаунта (вкладка "Sessions").
type SessionInfo struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	IP           string    `json:"ip"`
	UserAgent    string    `json:"user_agent"`
	Current      bool      `json:"current"`
}

// AuditEntry представляет одну запись журнала действий аккаунта.
type AuditEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamMember представляет одно место (seat) командной лицензии.
type TeamMember struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	LastActiveAt time.Time `json:"last_active_at"`
	Active       bool      `json:"active"`
}

// TeamData — участники команды, привязанные к одной лицензии.
// Загружается только для уровней team и enterprise.
type TeamData struct {
	Members []TeamMember `json:"members"`
}

// LeaderboardEntry — строка необязательного глобального рейтинга.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	Name          string `json:"name"`
	TotalCommands int64  `json:"total_commands"`
}

// GlobalStats — необязательная глобальная статистика продукта.
type GlobalStats struct {
	TotalUsers    int64 `json:"total_users"`
	TotalCommands int64 `json:"total_commands"`
}

// AccountSnapshot — составной снапшот аккаунта, возвращаемый одним
// аутентифицированным запросом. Поля Leaderboard и Global могут отсутствовать.
type AccountSnapshot struct {
	User        User               `json:"user"`
	License     License            `json:"license"`
	Usage       UsageStats         `json:"usage"`
	Machines    []Machine          `json:"machines"`
	Leaderboard []LeaderboardEntry `json:"leaderboard,omitempty"`
	Global      *GlobalStats       `json:"global_stats,omitempty"`
}
