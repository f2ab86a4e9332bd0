package models

import "time"

type PrivacyTier string

const (
	PrivacyPublic           PrivacyTier = "public"
	PrivacyFriends          PrivacyTier = "friends"
	PrivacyFriendsOfFriends PrivacyTier = "friends_of_friends"
	PrivacyPrivate          PrivacyTier = "private"
)

// Entry is a journal entry as this service consumes it: owner and privacy
// tier drive visibility, the wine fields are passed through untouched.
type Entry struct {
	ID        int64       `db:"id" json:"id"`
	OwnerID   int64       `db:"owner_id" json:"owner_id"`
	WineName  string      `db:"wine_name" json:"wine_name"`
	Vintage   int         `db:"vintage" json:"vintage,omitempty"`
	Rating    int         `db:"rating" json:"rating,omitempty"`
	Notes     string      `db:"notes" json:"notes,omitempty"`
	Privacy   PrivacyTier `db:"privacy" json:"privacy"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}
