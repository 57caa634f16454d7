package models

// Settings is the per-user presentation configuration, stored as one
// document and handed to the client at startup.
type Settings struct {
	Theme     string `json:"theme"`
	Currency  string `json:"currency"`
	WeekStart string `json:"weekStart"`
}

// DefaultSettings returns the values a fresh account starts with.
func DefaultSettings() Settings {
	return Settings{Theme: "light", Currency: "USD", WeekStart: "monday"}
}
