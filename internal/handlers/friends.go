package handlers

import (
	"context"
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-service/internal/metrics"
	"social-service/internal/models"
	"social-service/internal/services"
	"social-service/internal/telemetry"
)

type FriendHandler struct {
	friendships   *services.FriendshipService
	relationships *services.RelationshipQueryService
	accounts      services.AccountDirectory
	audit         *telemetry.AuditEmitter
}

func NewFriendHandler(friendships *services.FriendshipService, relationships *services.RelationshipQueryService, accounts services.AccountDirectory, audit *telemetry.AuditEmitter) *FriendHandler {
	return &FriendHandler{friendships: friendships, relationships: relationships, accounts: accounts, audit: audit}
}

type sendRequestBody struct {
	RecipientID int64 `json:"recipient_id" binding:"required"`
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID := userIDFromContext(c)
	if userID == nil {
		metrics.IncFriendRequest(metrics.StatusFailed)
		c.JSON(nethttp.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body sendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.emitAudit(c.Request.Context(), "ERROR", "invalid request payload", requestID, userID)
		metrics.IncFriendRequest(metrics.StatusFailed)
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	outcome, err := h.friendships.RequestFriendship(ctx, *userID, body.RecipientID)
	if err != nil {
		h.emitAudit(ctx, "ERROR", "friend request failed", requestID, userID)
		metrics.IncFriendRequest(metrics.StatusFailed)
		respondError(c, err)
		return
	}

	metrics.IncFriendRequest(metrics.StatusSuccess)
	code := nethttp.StatusCreated
	if outcome.Status == models.StatusAccepted {
		metrics.IncFriendAccept(metrics.StatusSuccess)
		code = nethttp.StatusOK
	}

	h.emitAudit(ctx, "INFO", "Friend request to '"+strconv.FormatInt(body.RecipientID, 10)+"' resolved as "+string(outcome.Status), requestID, userID)
	c.JSON(code, outcome)
}

func (h *FriendHandler) DeclineRequest(c *gin.Context) {
	reqID, ok := requestIDParam(c)
	if !ok {
		metrics.IncFriendDecline(metrics.StatusFailed)
		return
	}

	requestID := requestIDFromHeader(c)
	userID := userIDFromContext(c)
	if userID == nil {
		metrics.IncFriendDecline(metrics.StatusFailed)
		c.JSON(nethttp.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	outcome, err := h.friendships.DeclineRequest(ctx, *userID, reqID)
	if err != nil {
		h.emitAudit(ctx, "ERROR", "friend request decline failed", requestID, userID)
		metrics.IncFriendDecline(metrics.StatusFailed)
		respondError(c, err)
		return
	}

	h.emitAudit(ctx, "INFO", "Friend request declined", requestID, userID)
	metrics.IncFriendDecline(metrics.StatusSuccess)
	c.JSON(nethttp.StatusOK, outcome)
}

func (h *FriendHandler) DeleteRequest(c *gin.Context) {
	reqID, ok := requestIDParam(c)
	if !ok {
		metrics.IncUnfriend(metrics.StatusFailed)
		return
	}

	requestID := requestIDFromHeader(c)
	userID := userIDFromContext(c)
	if userID == nil {
		metrics.IncUnfriend(metrics.StatusFailed)
		c.JSON(nethttp.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	if err := h.friendships.DeleteOrUnfriend(ctx, *userID, reqID); err != nil {
		h.emitAudit(ctx, "ERROR", "unfriend failed", requestID, userID)
		metrics.IncUnfriend(metrics.StatusFailed)
		respondError(c, err)
		return
	}

	h.emitAudit(ctx, "INFO", "Relationship removed", requestID, userID)
	metrics.IncUnfriend(metrics.StatusSuccess)
	c.Status(nethttp.StatusNoContent)
}

func (h *FriendHandler) GetRelationship(c *gin.Context) {
	otherID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	userID := userIDFromContext(c)
	if userID == nil {
		c.JSON(nethttp.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rel, err := h.relationships.GetRelationship(c.Request.Context(), *userID, otherID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(nethttp.StatusOK, rel)
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID := userIDFromContext(c)
	if userID == nil {
		c.JSON(nethttp.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	friendIDs, err := h.relationships.AcceptedFriendIDs(ctx, *userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]gin.H, 0, len(friendIDs))
	for _, fid := range friendIDs {
		entry := gin.H{"id": fid}
		if h.accounts != nil {
			account, err := h.accounts.GetAccount(ctx, fid)
			if err != nil {
				c.JSON(nethttp.StatusBadGateway, gin.H{"error": "failed to fetch friend info"})
				return
			}
			entry["username"] = account.Username
		}
		resp = append(resp, entry)
	}

	c.JSON(nethttp.StatusOK, resp)
}

// requestIDParam parses the :id route param, writing the 400 itself so
// callers only handle the happy path.
func requestIDParam(c *gin.Context) (int64, bool) {
	reqID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid request id"})
		return 0, false
	}
	return reqID, true
}

func (h *FriendHandler) emitAudit(ctx context.Context, level, text, requestID string, userID *int64) {
	if h.audit == nil {
		return
	}
	h.audit.EmitAudit(ctx, level, text, requestID, userID)
}
