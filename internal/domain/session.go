package domain

import "time"

type UpdateCounters struct {
	Total   int `json:"total"`
	Objects int `json:"objects"`
	Draws   int `json:"draws"`
	Clears  int `json:"clears"`
}

// Session is a shared editing context on the server side. Participants is
// the authoritative active-user list reflected into session_state snapshots.
type Session struct {
	ID           string         `json:"id"`
	StartedAt    time.Time      `json:"startedAt"`
	ClosedAt     *time.Time     `json:"closedAt"`
	Error        *string        `json:"error"`
	Participants []string       `json:"participants"`
	Updates      UpdateCounters `json:"updates"`
	ChatCount    int            `json:"chatCount"`
	AudioChunks  int            `json:"audioChunks"`
}
