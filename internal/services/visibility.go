package services

import (
	"context"

	"social-service/internal/models"
)

// VisibilityResolver decides whether a viewer may see a content owner's
// entries at a given privacy tier. Both the single-item and batch paths
// evaluate the same predicate over precomputed sets, so the two can never
// disagree.
type VisibilityResolver struct {
	relationships *RelationshipQueryService
}

func NewVisibilityResolver(relationships *RelationshipQueryService) *VisibilityResolver {
	return &VisibilityResolver{relationships: relationships}
}

// visibleWith is the tier predicate. Unrecognized tiers fall back to public;
// owners always see their own content.
func visibleWith(viewerID, ownerID int64, tier models.PrivacyTier, friends, friendsOfFriends map[int64]struct{}) bool {
	if viewerID == ownerID {
		return true
	}
	switch tier {
	case models.PrivacyPrivate:
		return false
	case models.PrivacyFriends:
		_, ok := friends[ownerID]
		return ok
	case models.PrivacyFriendsOfFriends:
		if _, ok := friends[ownerID]; ok {
			return true
		}
		_, ok := friendsOfFriends[ownerID]
		return ok
	default:
		return true
	}
}

// CanView answers visibility for a single (viewer, owner, tier) triple,
// loading whatever sets the tier needs.
func (v *VisibilityResolver) CanView(ctx context.Context, viewerID, ownerID int64, tier models.PrivacyTier) (bool, error) {
	if viewerID == ownerID {
		return true, nil
	}
	switch tier {
	case models.PrivacyFriends, models.PrivacyFriendsOfFriends:
	case models.PrivacyPrivate:
		return false, nil
	default:
		return true, nil
	}

	friendIDs, err := v.relationships.AcceptedFriendIDs(ctx, viewerID)
	if err != nil {
		return false, err
	}
	friends := toIDSet(friendIDs)

	var friendsOfFriends map[int64]struct{}
	if tier == models.PrivacyFriendsOfFriends {
		fofIDs, err := v.relationships.FriendsOfFriendIDs(ctx, viewerID, friendIDs)
		if err != nil {
			return false, err
		}
		friendsOfFriends = toIDSet(fofIDs)
	}

	return visibleWith(viewerID, ownerID, tier, friends, friendsOfFriends), nil
}

// FilterVisible keeps the entries viewerID may see. The friend set, and the
// one-hop expansion when any entry needs it, are computed once for the whole
// batch.
func (v *VisibilityResolver) FilterVisible(ctx context.Context, viewerID int64, entries []models.Entry) ([]models.Entry, error) {
	needsFriends, needsExpansion := false, false
	for i := range entries {
		switch entries[i].Privacy {
		case models.PrivacyFriends:
			needsFriends = true
		case models.PrivacyFriendsOfFriends:
			needsFriends = true
			needsExpansion = true
		}
	}

	var friends, friendsOfFriends map[int64]struct{}
	if needsFriends {
		friendIDs, err := v.relationships.AcceptedFriendIDs(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		friends = toIDSet(friendIDs)
		if needsExpansion {
			fofIDs, err := v.relationships.FriendsOfFriendIDs(ctx, viewerID, friendIDs)
			if err != nil {
				return nil, err
			}
			friendsOfFriends = toIDSet(fofIDs)
		}
	}

	visible := make([]models.Entry, 0, len(entries))
	for _, entry := range entries {
		if visibleWith(viewerID, entry.OwnerID, entry.Privacy, friends, friendsOfFriends) {
			visible = append(visible, entry)
		}
	}
	return visible, nil
}

func toIDSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
