package services

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"golang.org/x/sync/errgroup"

	"social-service/internal/apperrors"
	"social-service/internal/models"
	"social-service/internal/rabbitmq"
	"social-service/internal/repositories"
)

var activeStatuses = []models.FriendRequestStatus{models.StatusPending, models.StatusAccepted}

// RequestOutcome is what every successful mutation path reports back.
type RequestOutcome struct {
	Status    models.FriendRequestStatus `json:"status"`
	RequestID int64                      `json:"request_id"`
}

// FriendshipService owns every write transition of a relationship edge.
// Reads go through RelationshipQueryService; this type never interprets a
// pair's history beyond what a single mutation needs.
type FriendshipService struct {
	store     repositories.RelationshipStore
	accounts  AccountDirectory
	publisher rabbitmq.Publisher
}

func NewFriendshipService(store repositories.RelationshipStore, accounts AccountDirectory, publisher rabbitmq.Publisher) *FriendshipService {
	return &FriendshipService{store: store, accounts: accounts, publisher: publisher}
}

// RequestFriendship sends a friend request from requester to recipient.
// A pending reverse request is auto-accepted; an active forward request is
// returned idempotently; a declined forward history is purged and recreated.
func (s *FriendshipService) RequestFriendship(ctx context.Context, requesterID, recipientID int64) (*RequestOutcome, error) {
	if requesterID == recipientID {
		return nil, apperrors.New(apperrors.KindValidation, "cannot send a friend request to yourself")
	}
	if recipientID <= 0 {
		return nil, apperrors.New(apperrors.KindValidation, "recipient is required")
	}

	if s.accounts != nil {
		if _, err := s.accounts.GetAccount(ctx, recipientID); err != nil {
			if apperrors.IsKind(err, apperrors.KindNotFound) {
				return nil, apperrors.New(apperrors.KindNotFound, "recipient not found")
			}
			return nil, apperrors.Wrap(apperrors.KindStoreFailure, "failed to verify recipient", err)
		}
	}

	return s.requestFriendship(ctx, requesterID, recipientID, true)
}

func (s *FriendshipService) requestFriendship(ctx context.Context, requesterID, recipientID int64, retryOnConflict bool) (*RequestOutcome, error) {
	reverseRows, err := s.store.QueryPair(ctx, recipientID, requesterID, pairHistoryLimit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreFailure, "failed to load reverse requests", err)
	}

	if reverse := ResolveEdge(reverseRows); reverse != nil {
		switch reverse.Status {
		case models.StatusAccepted:
			return &RequestOutcome{Status: models.StatusAccepted, RequestID: reverse.ID}, nil
		case models.StatusPending:
			outcome, handled, err := s.autoAccept(ctx, reverse, requesterID, recipientID)
			if err != nil {
				return nil, err
			}
			if handled {
				return outcome, nil
			}
			// Guard failed and nobody accepted meanwhile; fall through to the
			// forward direction.
		}
	}

	forwardRows, err := s.store.QueryPair(ctx, requesterID, recipientID, pairHistoryLimit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreFailure, "failed to load existing requests", err)
	}

	if forward := ResolveEdge(forwardRows); forward != nil {
		switch forward.Status {
		case models.StatusAccepted, models.StatusPending:
			return &RequestOutcome{Status: forward.Status, RequestID: forward.ID}, nil
		case models.StatusDeclined:
			// The store forbids reviving terminal rows, so recreate: purge the
			// declined history, then insert fresh. A denied purge is the
			// recoverable case; the insert below still produces a valid state.
			if _, err := s.store.DeleteWhere(ctx, requesterID, recipientID, []models.FriendRequestStatus{models.StatusDeclined}); err != nil {
				if !errors.Is(err, repositories.ErrPolicyDenied) {
					return nil, apperrors.Wrap(apperrors.KindStoreFailure, "failed to clear declined requests", err)
				}
				log.Printf("warning: store denied purge of declined rows for %d->%d, inserting fresh request anyway", requesterID, recipientID)
			}
		}
	}

	edge, err := s.store.Insert(ctx, requesterID, recipientID, models.StatusPending)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateEdge) {
			if retryOnConflict {
				// A concurrent writer created the active edge for this pair;
				// rerun once so the request collapses onto it.
				return s.requestFriendship(ctx, requesterID, recipientID, false)
			}
			return nil, apperrors.Wrap(apperrors.KindConflict, "friend request already in flight", err)
		}
		if errors.Is(err, repositories.ErrPolicyDenied) {
			return nil, apperrors.Wrap(apperrors.KindPolicyDenied, "store denied creating the friend request; insert permission on friend_requests is required", err)
		}
		return nil, apperrors.Wrap(apperrors.KindStoreFailure, "failed to create friend request", err)
	}

	s.publish(ctx, "friend.request.created", map[string]any{
		"request_id":   edge.ID,
		"requester_id": edge.RequesterID,
		"recipient_id": edge.RecipientID,
		"created_at":   edge.CreatedAt,
	})

	return &RequestOutcome{Status: models.StatusPending, RequestID: edge.ID}, nil
}

// autoAccept transitions a pending reverse request to accepted. The update is
// guarded: the row must still be pending and still addressed to the caller,
// so a concurrent acceptance cannot be double-counted.
func (s *FriendshipService) autoAccept(ctx context.Context, reverse *models.FriendRequest, requesterID, recipientID int64) (*RequestOutcome, bool, error) {
	affected, err := s.store.UpdateStatusIf(ctx, reverse.ID, models.StatusPending, models.StatusAccepted, requesterID)
	if err != nil {
		if errors.Is(err, repositories.ErrPolicyDenied) {
			return nil, false, apperrors.Wrap(apperrors.KindPolicyDenied, "store denied accepting the request; update permission on the pending row is required", err)
		}
		return nil, false, apperrors.Wrap(apperrors.KindStoreFailure, "failed to accept pending request", err)
	}

	if affected == 0 {
		// Someone else resolved the row first. If they accepted it, the
		// outcome is the same; otherwise let the caller re-evaluate.
		current, err := s.store.GetByID(ctx, reverse.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, false, nil
			}
			return nil, false, apperrors.Wrap(apperrors.KindStoreFailure, "failed to re-read request after lost update", err)
		}
		if current.Status == models.StatusAccepted {
			return &RequestOutcome{Status: models.StatusAccepted, RequestID: current.ID}, true, nil
		}
		return nil, false, nil
	}

	// Stray forward rows would shadow the accepted edge in history reads.
	if _, err := s.store.DeleteWhere(ctx, requesterID, recipientID, activeStatuses); err != nil {
		return nil, false, apperrors.Wrap(apperrors.KindStoreFailure, "accepted request but failed to clean up forward rows; retry the request", err)
	}

	s.publish(ctx, "friendship.created", map[string]any{
		"request_id":   reverse.ID,
		"requester_id": reverse.RequesterID,
		"recipient_id": reverse.RecipientID,
	})

	return &RequestOutcome{Status: models.StatusAccepted, RequestID: reverse.ID}, true, nil
}

// DeclineRequest marks a pending request addressed to recipientID as
// declined.
func (s *FriendshipService) DeclineRequest(ctx context.Context, recipientID, requestID int64) (*RequestOutcome, error) {
	edge, err := s.getEdge(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if edge.RecipientID != recipientID {
		return nil, apperrors.New(apperrors.KindForbidden, "not the recipient of this request")
	}
	if edge.Status != models.StatusPending {
		return nil, apperrors.New(apperrors.KindConflict, "request is not pending")
	}

	affected, err := s.store.UpdateStatusIf(ctx, requestID, models.StatusPending, models.StatusDeclined, recipientID)
	if err != nil {
		if errors.Is(err, repositories.ErrPolicyDenied) {
			return nil, apperrors.Wrap(apperrors.KindPolicyDenied, "store denied declining the request; update permission on the pending row is required", err)
		}
		return nil, apperrors.Wrap(apperrors.KindStoreFailure, "failed to decline request", err)
	}
	if affected == 0 {
		return nil, apperrors.New(apperrors.KindConflict, "request changed before it could be declined")
	}

	s.publish(ctx, "friend.request.declined", map[string]any{
		"request_id":   edge.ID,
		"requester_id": edge.RequesterID,
		"recipient_id": edge.RecipientID,
	})

	return &RequestOutcome{Status: models.StatusDeclined, RequestID: requestID}, nil
}

// DeleteOrUnfriend removes a request either party is done with. An active
// (pending or accepted) edge takes the whole pair down: both directions are
// purged so no stray row can resurrect the relationship. A declined edge is
// removed alone.
func (s *FriendshipService) DeleteOrUnfriend(ctx context.Context, actorID, requestID int64) error {
	edge, err := s.getEdge(ctx, requestID)
	if err != nil {
		return err
	}
	if !edge.Involves(actorID) {
		return apperrors.New(apperrors.KindForbidden, "not a party to this request")
	}

	if edge.Status == models.StatusDeclined {
		if _, err := s.store.DeleteByID(ctx, requestID); err != nil {
			if errors.Is(err, repositories.ErrPolicyDenied) {
				return apperrors.Wrap(apperrors.KindPolicyDenied, "store denied deleting the declined request; delete permission on own rows is required", err)
			}
			return apperrors.Wrap(apperrors.KindStoreFailure, "failed to delete declined request", err)
		}
		return nil
	}

	wasAccepted := edge.Status == models.StatusAccepted

	// Two independent deletes, no cross-direction atomicity. If one fails the
	// caller gets an error and retries; deleting already-deleted rows is a
	// no-op, so the retry converges.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.store.DeleteWhere(gctx, edge.RequesterID, edge.RecipientID, activeStatuses)
		return err
	})
	g.Go(func() error {
		_, err := s.store.DeleteWhere(gctx, edge.RecipientID, edge.RequesterID, activeStatuses)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, repositories.ErrPolicyDenied) {
			return apperrors.Wrap(apperrors.KindPolicyDenied, "store denied removing the relationship; delete permission on both directions is required", err)
		}
		return apperrors.Wrap(apperrors.KindStoreFailure, "unfriend incomplete; retry to remove remaining rows", err)
	}

	event := "friend.request.cancelled"
	if wasAccepted {
		event = "friendship.removed"
	}
	s.publish(ctx, event, map[string]any{
		"request_id":   edge.ID,
		"requester_id": edge.RequesterID,
		"recipient_id": edge.RecipientID,
	})

	return nil
}

func (s *FriendshipService) getEdge(ctx context.Context, requestID int64) (*models.FriendRequest, error) {
	edge, err := s.store.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindNotFound, "friend request not found")
		}
		return nil, apperrors.Wrap(apperrors.KindStoreFailure, "failed to load friend request", err)
	}
	return edge, nil
}

func (s *FriendshipService) publish(ctx context.Context, routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		log.Printf("warning: failed to publish %s: %v", routingKey, err)
	}
}
