package entity

// Preferences preferencias por perfil (se guardan como blob JSON).
type Preferences struct {
	EmailNotifications   bool `json:"emailNotifications"`
	BrowserNotifications bool `json:"browserNotifications"`
	DailyReports         bool `json:"dailyReports"`
	WeeklyReports        bool `json:"weeklyReports"`
	AutoAssignLeads      bool `json:"autoAssignLeads"`
	ShowWelcomeTour      bool `json:"showWelcomeTour"`
}

// DefaultPreferences valores iniciales de un perfil nuevo.
func DefaultPreferences() Preferences {
	return Preferences{
		EmailNotifications:   true,
		BrowserNotifications: true,
		WeeklyReports:        true,
		ShowWelcomeTour:      true,
	}
}
