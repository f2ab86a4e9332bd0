package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"social-service/internal/models"
)

var (
	// ErrDuplicateEdge is returned when an insert collides with the active-pair
	// unique index. Callers resolve the existing state instead of failing.
	ErrDuplicateEdge = errors.New("active edge already exists for pair")

	// ErrPolicyDenied is returned when the store's row-level policy rejects a
	// mutation the caller was otherwise entitled to issue.
	ErrPolicyDenied = errors.New("store policy denied mutation")
)

// RelationshipStore is the narrow repository surface the relationship engine
// consumes. Nothing above this interface issues SQL.
type RelationshipStore interface {
	Insert(ctx context.Context, requesterID, recipientID int64, status models.FriendRequestStatus) (*models.FriendRequest, error)
	GetByID(ctx context.Context, id int64) (*models.FriendRequest, error)
	// UpdateStatusIf transitions a row from expected to next, guarded so the
	// row must still be in the expected status and addressed to recipientID.
	// Returns the number of rows affected; 0 means the guard failed.
	UpdateStatusIf(ctx context.Context, id int64, expected, next models.FriendRequestStatus, recipientID int64) (int64, error)
	DeleteWhere(ctx context.Context, requesterID, recipientID int64, statuses []models.FriendRequestStatus) (int64, error)
	DeleteByID(ctx context.Context, id int64) (int64, error)
	// QueryPair returns up to limit rows for one direction, newest first.
	QueryPair(ctx context.Context, requesterID, recipientID int64, limit int) ([]models.FriendRequest, error)
	// QueryEdgesTouchingAny returns rows with the given status where either
	// endpoint is in userIDs. Used for friend-set and one-hop expansion.
	QueryEdgesTouchingAny(ctx context.Context, userIDs []int64, status models.FriendRequestStatus) ([]models.FriendRequest, error)
}

type relationshipStore struct {
	db *sqlx.DB
}

func NewRelationshipStore(db *sqlx.DB) RelationshipStore {
	return &relationshipStore{db: db}
}

func (r *relationshipStore) Insert(ctx context.Context, requesterID, recipientID int64, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	var edge models.FriendRequest
	err := r.db.QueryRowxContext(ctx, `
INSERT INTO friend_requests (requester_id, recipient_id, status)
VALUES ($1, $2, $3)
RETURNING id, requester_id, recipient_id, status, created_at, responded_at, seen_at
`, requesterID, recipientID, status).StructScan(&edge)
	if err != nil {
		return nil, translatePQ(err)
	}
	return &edge, nil
}

func (r *relationshipStore) GetByID(ctx context.Context, id int64) (*models.FriendRequest, error) {
	var edge models.FriendRequest
	err := r.db.GetContext(ctx, &edge, `
SELECT id, requester_id, recipient_id, status, created_at, responded_at, seen_at
FROM friend_requests
WHERE id=$1
`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, translatePQ(err)
	}
	return &edge, nil
}

func (r *relationshipStore) UpdateStatusIf(ctx context.Context, id int64, expected, next models.FriendRequestStatus, recipientID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE friend_requests
SET status=$2, responded_at=NOW(), seen_at=NOW()
WHERE id=$1 AND status=$3 AND recipient_id=$4
`, id, next, expected, recipientID)
	if err != nil {
		return 0, translatePQ(err)
	}
	return res.RowsAffected()
}

func (r *relationshipStore) DeleteWhere(ctx context.Context, requesterID, recipientID int64, statuses []models.FriendRequestStatus) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM friend_requests
WHERE requester_id=$1 AND recipient_id=$2 AND status = ANY($3)
`, requesterID, recipientID, pq.Array(statusStrings(statuses)))
	if err != nil {
		return 0, translatePQ(err)
	}
	return res.RowsAffected()
}

func (r *relationshipStore) DeleteByID(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friend_requests WHERE id=$1`, id)
	if err != nil {
		return 0, translatePQ(err)
	}
	return res.RowsAffected()
}

func (r *relationshipStore) QueryPair(ctx context.Context, requesterID, recipientID int64, limit int) ([]models.FriendRequest, error) {
	var edges []models.FriendRequest
	err := r.db.SelectContext(ctx, &edges, `
SELECT id, requester_id, recipient_id, status, created_at, responded_at, seen_at
FROM friend_requests
WHERE requester_id=$1 AND recipient_id=$2
ORDER BY created_at DESC, id DESC
LIMIT $3
`, requesterID, recipientID, limit)
	if err != nil {
		return nil, translatePQ(err)
	}
	return edges, nil
}

func (r *relationshipStore) QueryEdgesTouchingAny(ctx context.Context, userIDs []int64, status models.FriendRequestStatus) ([]models.FriendRequest, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var edges []models.FriendRequest
	err := r.db.SelectContext(ctx, &edges, `
SELECT id, requester_id, recipient_id, status, created_at, responded_at, seen_at
FROM friend_requests
WHERE status=$1 AND (requester_id = ANY($2) OR recipient_id = ANY($2))
`, status, pq.Array(userIDs))
	if err != nil {
		return nil, translatePQ(err)
	}
	return edges, nil
}

func statusStrings(statuses []models.FriendRequestStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

func translatePQ(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrDuplicateEdge
		case "42501":
			return ErrPolicyDenied
		}
	}
	return err
}
