package model

import "time"

// BlockedDate marks a whole day when a mentor is unavailable
type BlockedDate struct {
	ID        int64     `json:"id"`
	MentorID  int64     `json:"mentor_id"`
	Date      time.Time `json:"date"` // date only, midnight UTC
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
