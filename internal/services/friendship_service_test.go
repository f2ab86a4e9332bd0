package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/internal/apperrors"
	"social-service/internal/models"
)

const (
	alice = int64(1)
	bob   = int64(2)
	carol = int64(3)
)

func newFriendshipFixture() (*FriendshipService, *fakeStore, *recordingPublisher) {
	store := newFakeStore()
	pub := &recordingPublisher{}
	return NewFriendshipService(store, nil, pub), store, pub
}

func TestRequestFriendship_CreatesPending(t *testing.T) {
	svc, store, pub := newFriendshipFixture()

	outcome, err := svc.RequestFriendship(context.Background(), alice, bob)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, outcome.Status)

	rows := store.pairRows(alice, bob)
	require.Len(t, rows, 1)
	assert.Equal(t, outcome.RequestID, rows[0].ID)
	assert.Equal(t, alice, rows[0].RequesterID)
	assert.Equal(t, bob, rows[0].RecipientID)
	assert.Equal(t, []string{"friend.request.created"}, pub.published())
}

func TestRequestFriendship_RejectsSelfAndMissingRecipient(t *testing.T) {
	svc, _, _ := newFriendshipFixture()

	_, err := svc.RequestFriendship(context.Background(), alice, alice)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = svc.RequestFriendship(context.Background(), alice, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestRequestFriendship_ResendIsIdempotent(t *testing.T) {
	svc, store, _ := newFriendshipFixture()
	ctx := context.Background()

	first, err := svc.RequestFriendship(ctx, alice, bob)
	require.NoError(t, err)

	second, err := svc.RequestFriendship(ctx, alice, bob)
	require.NoError(t, err)

	assert.Equal(t, first.RequestID, second.RequestID)
	assert.Equal(t, models.StatusPending, second.Status)
	assert.Equal(t, 1, store.rowCount())
}

func TestRequestFriendship_AutoAcceptsReversePending(t *testing.T) {
	svc, store, pub := newFriendshipFixture()
	ctx := context.Background()

	sent, err := svc.RequestFriendship(ctx, bob, alice)
	require.NoError(t, err)

	outcome, err := svc.RequestFriendship(ctx, alice, bob)
	require.NoError(t, err)
	require.Equal(t, models.StatusAccepted, outcome.Status)
	assert.Equal(t, sent.RequestID, outcome.RequestID)

	rows := store.pairRows(alice, bob)
	require.Len(t, rows, 1)
	assert.Equal(t, models.StatusAccepted, rows[0].Status)
	assert.NotNil(t, rows[0].RespondedAt)
	assert.Contains(t, pub.published(), "friendship.created")
}

func TestRequestFriendship_AcceptedIsIdempotentFromBothSides(t *testing.T) {
	svc, _, _ := newFriendshipFixture()
	ctx := context.Background()

	_, err := svc.RequestFriendship(ctx, bob, alice)
	require.NoError(t, err)
	accepted, err := svc.RequestFriendship(ctx, alice, bob)
	require.NoError(t, err)

	for _, pair := range [][2]int64{{alice, bob}, {bob, alice}} {
		outcome, err := svc.RequestFriendship(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, models.StatusAccepted, outcome.Status)
		assert.Equal(t, accepted.RequestID, outcome.RequestID)
	}
}

func TestRequestFriendship_RecreatesAfterDecline(t *testing.T) {
	svc, store, _ := newFriendshipFixture()
	ctx := context.Background()

	first, err := svc.RequestFriendship(ctx, alice, bob)
	require.NoError(t, err)

	_, err = svc.DeclineRequest(ctx, bob, first.RequestID)
	require.NoError(t, err)

	second, err := svc.RequestFriendship(ctx, alice, bob)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, second.Status)
	assert.NotEqual(t, first.RequestID, second.RequestID)

	// The declined history is purged, only the fresh request remains.
	rows := store.pairRows(alice, bob)
	require.Len(t, rows, 1)
	assert.Equal(t, second.RequestID, rows[0].ID)
	assert.Equal(t, models.StatusPending, rows[0].Status)
}

// The full lifecycle: request, decline, re-request, then the former recipient
// requests back and the pair converges on a single accepted edge that both
// sides report identically.
func TestRequestFriendship_DeclineThenMutualRequestConverges(t *testing.T) {
	store := newFakeStore()
	svc := NewFriendshipService(store, nil, nil)
	queries := NewRelationshipQueryService(store)
	ctx := context.Background()

	r1, err := svc.RequestFriendship(ctx, alice, bob)
	require.NoError(t, err)

	_, err = svc.DeclineRequest(ctx, bob, r1.RequestID)
	require.NoError(t, err)

	r2, err := svc.RequestFriendship(ctx, alice, bob)
	require.NoError(t, err)
	require.NotEqual(t, r1.RequestID, r2.RequestID)

	outcome, err := svc.RequestFriendship(ctx, bob, alice)
	require.NoError(t, err)
	require.Equal(t, models.StatusAccepted, outcome.Status)
	require.Equal(t, r2.RequestID, outcome.RequestID)

	for _, pair := range [][2]int64{{alice, bob}, {bob, alice}} {
		rel, err := queries.GetRelationship(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, models.RelationshipFriends, rel.Status)
		assert.True(t, rel.Friends)
		assert.True(t, rel.Following)
		assert.True(t, rel.FollowsYou)
		require.NotNil(t, rel.FriendRequestID)
		assert.Equal(t, r2.RequestID, *rel.FriendRequestID)
	}
}

func TestRequestFriendship_LostInsertRaceConverges(t *testing.T) {
	store := &racingInsertStore{fakeStore: newFakeStore()}
	svc := NewFriendshipService(store, nil, nil)

	// The insert loses to a concurrent writer; the retry collapses onto the
	// row that writer created instead of surfacing a conflict.
	outcome, err := svc.RequestFriendship(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, outcome.Status)

	rows := store.pairRows(alice, bob)
	require.Len(t, rows, 1)
	assert.Equal(t, rows[0].ID, outcome.RequestID)
}

func TestRequestFriendship_RecipientNotFound(t *testing.T) {
	accounts := &stubAccounts{known: map[int64]string{alice: "alice"}}
	svc := NewFriendshipService(newFakeStore(), accounts, nil)

	_, err := svc.RequestFriendship(context.Background(), alice, bob)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestDeclineRequest_OnlyRecipientMayDecline(t *testing.T) {
	svc, _, _ := newFriendshipFixture()
	ctx := context.Background()

	sent, err := svc.RequestFriendship(ctx, alice, bob)
	require.NoError(t, err)

	_, err = svc.DeclineRequest(ctx, alice, sent.RequestID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	_, err = svc.DeclineRequest(ctx, carol, sent.RequestID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestDeclineRequest_NotPendingConflicts(t *testing.T) {
	svc, _, _ := newFriendshipFixture()
	ctx := context.Background()

	sent, err := svc.RequestFriendship(ctx, alice, bob)
	require.NoError(t, err)

	_, err = svc.DeclineRequest(ctx, bob, sent.RequestID)
	require.NoError(t, err)

	_, err = svc.DeclineRequest(ctx, bob, sent.RequestID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestDeclineRequest_MissingRequest(t *testing.T) {
	svc, _, _ := newFriendshipFixture()

	_, err := svc.DeclineRequest(context.Background(), bob, 999)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestDeleteOrUnfriend_RemovesBothDirections(t *testing.T) {
	store := newFakeStore()
	pub := &recordingPublisher{}
	svc := NewFriendshipService(store, nil, pub)
	queries := NewRelationshipQueryService(store)
	ctx := context.Background()

	_, err := svc.RequestFriendship(ctx, bob, alice)
	require.NoError(t, err)
	accepted, err := svc.RequestFriendship(ctx, alice, bob)
	require.NoError(t, err)
	require.Equal(t, models.StatusAccepted, accepted.Status)

	err = svc.DeleteOrUnfriend(ctx, alice, accepted.RequestID)
	require.NoError(t, err)

	assert.Empty(t, store.pairRows(alice, bob))
	rel, err := queries.GetRelationship(ctx, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, models.RelationshipNone, rel.Status)
	assert.Contains(t, pub.published(), "friendship.removed")
}

// One leg of the paired delete failing must surface as an error even though
// the other leg went through; the retry then removes whatever survived.
func TestDeleteOrUnfriend_PartialFailureReportsAndRetryConverges(t *testing.T) {
	store := newFakeStore()
	pub := &recordingPublisher{}
	svc := NewFriendshipService(store, nil, pub)
	ctx := context.Background()

	_, err := svc.RequestFriendship(ctx, bob, alice)
	require.NoError(t, err)
	accepted, err := svc.RequestFriendship(ctx, alice, bob)
	require.NoError(t, err)
	require.Equal(t, models.StatusAccepted, accepted.Status)

	edge, err := store.GetByID(ctx, accepted.RequestID)
	require.NoError(t, err)

	storeErr := errors.New("connection reset by peer")
	store.deleteWhereErr = func(requesterID, recipientID int64) error {
		if requesterID == edge.RequesterID && recipientID == edge.RecipientID {
			return storeErr
		}
		return nil
	}

	err = svc.DeleteOrUnfriend(ctx, alice, accepted.RequestID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindStoreFailure))
	assert.ErrorIs(t, err, storeErr)

	// The accepted row survived the failed leg and no removal was announced.
	require.Len(t, store.pairRows(alice, bob), 1)
	assert.NotContains(t, pub.published(), "friendship.removed")

	// After the store recovers, the retry purges what is left.
	store.deleteWhereErr = nil
	require.NoError(t, svc.DeleteOrUnfriend(ctx, alice, accepted.RequestID))
	assert.Empty(t, store.pairRows(alice, bob))
	assert.Contains(t, pub.published(), "friendship.removed")
}

func TestDeleteOrUnfriend_PendingCancel(t *testing.T) {
	svc, store, pub := newFriendshipFixture()
	ctx := context.Background()

	sent, err := svc.RequestFriendship(ctx, alice, bob)
	require.NoError(t, err)

	err = svc.DeleteOrUnfriend(ctx, alice, sent.RequestID)
	require.NoError(t, err)
	assert.Empty(t, store.pairRows(alice, bob))
	assert.Contains(t, pub.published(), "friend.request.cancelled")
}

func TestDeleteOrUnfriend_DeclinedRemovesSingleRow(t *testing.T) {
	svc, store, _ := newFriendshipFixture()
	ctx := context.Background()

	sent, err := svc.RequestFriendship(ctx, alice, bob)
	require.NoError(t, err)
	_, err = svc.DeclineRequest(ctx, bob, sent.RequestID)
	require.NoError(t, err)

	err = svc.DeleteOrUnfriend(ctx, bob, sent.RequestID)
	require.NoError(t, err)
	assert.Equal(t, 0, store.rowCount())
}

func TestDeleteOrUnfriend_RequiresParty(t *testing.T) {
	svc, _, _ := newFriendshipFixture()
	ctx := context.Background()

	sent, err := svc.RequestFriendship(ctx, alice, bob)
	require.NoError(t, err)

	err = svc.DeleteOrUnfriend(ctx, carol, sent.RequestID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}
