package models

import "time"

// Playlist is a named, user-owned collection of movies. Only the owner may
// mutate or delete it.
type Playlist struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	Name       string    `json:"name"`
	MovieCount int       `json:"movieCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PlaylistEntry is one membership row flattened with the requesting user's
// own diary state. Membership is shared playlist data but the diary is
// per-user, so status/rating/review are filled from the caller's diary and
// fall back to plan_to_watch/0/"" when no entry exists yet.
type PlaylistEntry struct {
	MovieID int64  `json:"movieId"`
	Status  string `json:"status"`
	Rating  int    `json:"rating"`
	Review  string `json:"review"`
	Movie   Movie  `json:"movie"`
}

// PlaylistContents is the response shape for a playlist's movie listing.
type PlaylistContents struct {
	Name   string          `json:"name"`
	Movies []PlaylistEntry `json:"movies"`
}
