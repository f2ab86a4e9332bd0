package models

import "time"

type FriendRequestStatus string

const (
	StatusPending  FriendRequestStatus = "pending"
	StatusAccepted FriendRequestStatus = "accepted"
	StatusDeclined FriendRequestStatus = "declined"
)

// FriendRequest is a directed edge from requester to recipient. The store
// keeps every row ever written for a pair; readers resolve the history, they
// never assume a single row per direction.
type FriendRequest struct {
	ID          int64               `db:"id" json:"id"`
	RequesterID int64               `db:"requester_id" json:"requester_id"`
	RecipientID int64               `db:"recipient_id" json:"recipient_id"`
	Status      FriendRequestStatus `db:"status" json:"status"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	RespondedAt *time.Time          `db:"responded_at" json:"responded_at,omitempty"`
	SeenAt      *time.Time          `db:"seen_at" json:"seen_at,omitempty"`
}

// Involves reports whether userID is a party to the edge.
func (r *FriendRequest) Involves(userID int64) bool {
	return r.RequesterID == userID || r.RecipientID == userID
}

// OtherParty returns the endpoint that is not userID.
func (r *FriendRequest) OtherParty(userID int64) int64 {
	if r.RequesterID == userID {
		return r.RecipientID
	}
	return r.RequesterID
}
