package models

type RelationshipStatus string

const (
	RelationshipNone            RelationshipStatus = "none"
	RelationshipRequestSent     RelationshipStatus = "request_sent"
	RelationshipRequestReceived RelationshipStatus = "request_received"
	RelationshipFriends         RelationshipStatus = "friends"
)

// FriendRelationship is the computed view of a pair, derived from the
// resolved row of each direction. It is rebuilt on every read and never
// persisted.
type FriendRelationship struct {
	Status            RelationshipStatus `json:"status"`
	Following         bool               `json:"following"`
	FollowsYou        bool               `json:"follows_you"`
	Friends           bool               `json:"friends"`
	OutgoingRequestID *int64             `json:"outgoing_request_id,omitempty"`
	IncomingRequestID *int64             `json:"incoming_request_id,omitempty"`
	FriendRequestID   *int64             `json:"friend_request_id,omitempty"`
}
