package models

// Achievement описывает элемент статического каталога достижений.
// Каталог известен клиенту заранее; разблокировка определяется исключительно
// присутствием идентификатора в UsageStats.Achievements.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AchievementCatalog возвращает статический каталог достижений.
func AchievementCatalog() []Achievement {
	return []Achievement{
		{ID: "first-install", Title: "Hello, OMG", Description: "Install the CLI on your first machine"},
		{ID: "commands-100", Title: "Warming Up", Description: "Run 100 commands"},
		{ID: "commands-1000", Title: "Power User", Description: "Run 1,000 commands"},
		{ID: "commands-10000", Title: "Terminal Native", Description: "Run 10,000 commands"},
		{ID: "streak-7", Title: "One Week Streak", Description: "Use OMG seven days in a row"},
		{ID: "streak-30", Title: "One Month Streak", Description: "Use OMG thirty days in a row"},
		{ID: "time-saved-1h", Title: "Hour Reclaimed", Description: "Save one hour of shell time"},
		{ID: "time-saved-24h", Title: "Day Reclaimed", Description: "Save a full day of shell time"},
		{ID: "team-player", Title: "Team Player", Description: "Join a team license"},
	}
}
