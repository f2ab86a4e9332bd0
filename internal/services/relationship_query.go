package services

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"social-service/internal/apperrors"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

// pairHistoryLimit bounds how much per-direction history the resolver
// considers. Older rows cannot outrank anything inside the window.
const pairHistoryLimit = 10

// RelationshipQueryService reduces raw edge history to the authoritative
// relationship view and builds the friend sets the visibility resolver
// consumes.
type RelationshipQueryService struct {
	store repositories.RelationshipStore
}

func NewRelationshipQueryService(store repositories.RelationshipStore) *RelationshipQueryService {
	return &RelationshipQueryService{store: store}
}

func statusRank(status models.FriendRequestStatus) int {
	switch status {
	case models.StatusAccepted:
		return 3
	case models.StatusPending:
		return 2
	case models.StatusDeclined:
		return 1
	}
	return 0
}

// ResolveEdge picks the authoritative row from one direction's history:
// accepted beats pending beats declined, ties go to the newest row. The
// result does not depend on input order.
func ResolveEdge(rows []models.FriendRequest) *models.FriendRequest {
	var best *models.FriendRequest
	for i := range rows {
		row := &rows[i]
		if best == nil {
			best = row
			continue
		}
		switch {
		case statusRank(row.Status) > statusRank(best.Status):
			best = row
		case statusRank(row.Status) == statusRank(best.Status):
			if row.CreatedAt.After(best.CreatedAt) ||
				(row.CreatedAt.Equal(best.CreatedAt) && row.ID > best.ID) {
				best = row
			}
		}
	}
	return best
}

// GetRelationship loads both directions of the pair concurrently and reduces
// them to the viewer's relationship view.
func (s *RelationshipQueryService) GetRelationship(ctx context.Context, viewerID, otherID int64) (*models.FriendRelationship, error) {
	var outRows, inRows []models.FriendRequest

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.store.QueryPair(gctx, viewerID, otherID, pairHistoryLimit)
		if err != nil {
			return fmt.Errorf("query outgoing edges: %w", err)
		}
		outRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.store.QueryPair(gctx, otherID, viewerID, pairHistoryLimit)
		if err != nil {
			return fmt.Errorf("query incoming edges: %w", err)
		}
		inRows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreFailure, "failed to load relationship", err)
	}

	return reduceRelationship(ResolveEdge(outRows), ResolveEdge(inRows)), nil
}

func reduceRelationship(out, in *models.FriendRequest) *models.FriendRelationship {
	rel := &models.FriendRelationship{Status: models.RelationshipNone}

	if out != nil {
		switch out.Status {
		case models.StatusAccepted:
			rel.Friends = true
			rel.FriendRequestID = &out.ID
		case models.StatusPending:
			rel.Following = true
			rel.OutgoingRequestID = &out.ID
		}
	}
	if in != nil {
		switch in.Status {
		case models.StatusAccepted:
			rel.Friends = true
			if rel.FriendRequestID == nil {
				rel.FriendRequestID = &in.ID
			}
		case models.StatusPending:
			rel.FollowsYou = true
			rel.IncomingRequestID = &in.ID
		}
	}

	switch {
	case rel.Friends:
		rel.Status = models.RelationshipFriends
		rel.Following = true
		rel.FollowsYou = true
	case rel.Following:
		rel.Status = models.RelationshipRequestSent
	case rel.FollowsYou:
		rel.Status = models.RelationshipRequestReceived
	}
	return rel
}

// AcceptedFriendIDs returns every user with an accepted edge to or from
// userID, sorted for deterministic output.
func (s *RelationshipQueryService) AcceptedFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	edges, err := s.store.QueryEdgesTouchingAny(ctx, []int64{userID}, models.StatusAccepted)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreFailure, "failed to load friend set", err)
	}

	seen := make(map[int64]struct{}, len(edges))
	ids := make([]int64, 0, len(edges))
	for i := range edges {
		other := edges[i].OtherParty(userID)
		if other == userID {
			continue
		}
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		ids = append(ids, other)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// FriendsOfFriendIDs expands the friend set one hop: every user accepted-
// connected to a friend, excluding userID and the direct friends themselves.
func (s *RelationshipQueryService) FriendsOfFriendIDs(ctx context.Context, userID int64, friendIDs []int64) ([]int64, error) {
	if len(friendIDs) == 0 {
		return nil, nil
	}

	edges, err := s.store.QueryEdgesTouchingAny(ctx, friendIDs, models.StatusAccepted)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreFailure, "failed to expand friend set", err)
	}

	friends := make(map[int64]struct{}, len(friendIDs))
	for _, id := range friendIDs {
		friends[id] = struct{}{}
	}

	seen := make(map[int64]struct{})
	ids := make([]int64, 0, len(edges))
	for i := range edges {
		for _, endpoint := range []int64{edges[i].RequesterID, edges[i].RecipientID} {
			if endpoint == userID {
				continue
			}
			if _, ok := friends[endpoint]; ok {
				continue
			}
			if _, ok := seen[endpoint]; ok {
				continue
			}
			seen[endpoint] = struct{}{}
			ids = append(ids, endpoint)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
