package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"social-service/internal/apperrors"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

// fakeStore is an in-memory RelationshipStore with the same observable
// behavior as the Postgres implementation: at most one active row per
// unordered pair, guarded updates reporting affected rows, and per-direction
// history queries ordered newest first.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	clock     time.Time
	rows      map[int64]*models.FriendRequest
	scanCalls int

	// deleteWhereErr, when set, fails DeleteWhere for the directions it
	// returns an error for. Lets tests break one leg of a paired delete.
	deleteWhereErr func(requesterID, recipientID int64) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID: 1,
		clock:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		rows:   make(map[int64]*models.FriendRequest),
	}
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func isActive(status models.FriendRequestStatus) bool {
	return status == models.StatusPending || status == models.StatusAccepted
}

func samePair(r *models.FriendRequest, a, b int64) bool {
	return (r.RequesterID == a && r.RecipientID == b) || (r.RequesterID == b && r.RecipientID == a)
}

func (f *fakeStore) Insert(ctx context.Context, requesterID, recipientID int64, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if isActive(status) {
		for _, r := range f.rows {
			if samePair(r, requesterID, recipientID) && isActive(r.Status) {
				return nil, repositories.ErrDuplicateEdge
			}
		}
	}

	edge := &models.FriendRequest{
		ID:          f.nextID,
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      status,
		CreatedAt:   f.tick(),
	}
	f.nextID++
	f.rows[edge.ID] = edge

	copied := *edge
	return &copied, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	edge, ok := f.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *edge
	return &copied, nil
}

func (f *fakeStore) UpdateStatusIf(ctx context.Context, id int64, expected, next models.FriendRequestStatus, recipientID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	edge, ok := f.rows[id]
	if !ok || edge.Status != expected || edge.RecipientID != recipientID {
		return 0, nil
	}
	now := f.tick()
	edge.Status = next
	edge.RespondedAt = &now
	edge.SeenAt = &now
	return 1, nil
}

func (f *fakeStore) DeleteWhere(ctx context.Context, requesterID, recipientID int64, statuses []models.FriendRequestStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteWhereErr != nil {
		if err := f.deleteWhereErr(requesterID, recipientID); err != nil {
			return 0, err
		}
	}

	allowed := make(map[models.FriendRequestStatus]struct{}, len(statuses))
	for _, s := range statuses {
		allowed[s] = struct{}{}
	}

	var deleted int64
	for id, r := range f.rows {
		if r.RequesterID != requesterID || r.RecipientID != recipientID {
			continue
		}
		if _, ok := allowed[r.Status]; !ok {
			continue
		}
		delete(f.rows, id)
		deleted++
	}
	return deleted, nil
}

func (f *fakeStore) DeleteByID(ctx context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.rows[id]; !ok {
		return 0, nil
	}
	delete(f.rows, id)
	return 1, nil
}

func (f *fakeStore) QueryPair(ctx context.Context, requesterID, recipientID int64, limit int) ([]models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.FriendRequest
	for _, r := range f.rows {
		if r.RequesterID == requesterID && r.RecipientID == recipientID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) QueryEdgesTouchingAny(ctx context.Context, userIDs []int64, status models.FriendRequestStatus) ([]models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.scanCalls++

	touch := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		touch[id] = struct{}{}
	}

	var out []models.FriendRequest
	for _, r := range f.rows {
		if r.Status != status {
			continue
		}
		_, reqOK := touch[r.RequesterID]
		_, recOK := touch[r.RecipientID]
		if reqOK || recOK {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeStore) pairRows(a, b int64) []models.FriendRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.FriendRequest
	for _, r := range f.rows {
		if samePair(r, a, b) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// recordingPublisher captures routing keys in order.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

// racingInsertStore simulates a writer that sneaks the same active edge in
// between the pair scan and the insert: the first Insert call stores the row
// under a different id and reports the unique-index violation.
type racingInsertStore struct {
	*fakeStore
	raced bool
}

func (s *racingInsertStore) Insert(ctx context.Context, requesterID, recipientID int64, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	if !s.raced {
		s.raced = true
		if _, err := s.fakeStore.Insert(ctx, requesterID, recipientID, status); err != nil {
			return nil, err
		}
		return nil, repositories.ErrDuplicateEdge
	}
	return s.fakeStore.Insert(ctx, requesterID, recipientID, status)
}

// stubAccounts resolves a fixed set of account ids.
type stubAccounts struct {
	known map[int64]string
}

func (s *stubAccounts) GetAccount(ctx context.Context, id int64) (*Account, error) {
	username, ok := s.known[id]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "account not found")
	}
	return &Account{ID: id, Username: username}, nil
}

var (
	_ repositories.RelationshipStore = (*fakeStore)(nil)
	_ repositories.RelationshipStore = (*racingInsertStore)(nil)
	_ AccountDirectory               = (*stubAccounts)(nil)
)
