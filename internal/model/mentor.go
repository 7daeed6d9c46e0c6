package model

import "time"

type Mentor struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Timezone    string    `json:"timezone"` // IANA name, e.g. "Europe/London"
	MeetLink    string    `json:"meet_link"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Location resolves the mentor's timezone, falling back to UTC if the name
// is empty or unknown.
func (m *Mentor) Location() *time.Location {
	if m.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(m.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
