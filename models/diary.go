package models

import "time"

// Watch statuses for a diary entry.
const (
	StatusPlanToWatch = "plan_to_watch"
	StatusWatching    = "watching"
	StatusWatched     = "watched"
)

// ValidStatus reports whether s is a known watch status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPlanToWatch, StatusWatching, StatusWatched:
		return true
	}
	return false
}

// DiaryEntry is the per-(user, movie) watch state. Exactly one row exists
// per user per movie; writes are upserts keyed on that pair.
type DiaryEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	MovieID   int64     `json:"movieId"`
	Status    string    `json:"status"`
	Rating    *int      `json:"rating"`
	Review    string    `json:"review"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DiaryUpdate carries the fields of a diary write. Nil fields were absent
// from the request and must leave the stored value untouched.
type DiaryUpdate struct {
	Status *string `json:"status"`
	Rating *int    `json:"rating"`
	Review *string `json:"review"`
}

// DiaryItem is a diary entry joined with its movie for list responses.
type DiaryItem struct {
	DiaryEntry
	Movie Movie `json:"movie"`
}
