package model

import "time"

// Post is one raw caption to extract from. PostedAt anchors relative date
// phrases ("tomorrow", "this Friday"); LocationHint is the account's known
// venue, passed to the oracle as context.
type Post struct {
	ID           string    `json:"post_id"`
	Caption      string    `json:"caption"`
	LocationHint string    `json:"location_hint,omitempty"`
	PostedAt     time.Time `json:"posted_at"`
}
