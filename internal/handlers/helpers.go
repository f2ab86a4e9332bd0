package handlers

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"social-service/internal/apperrors"
)

func requestIDFromHeader(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return requestID
}

// userIDFromContext reads the identity the auth middleware stored. Nothing
// request-supplied can stand in for it; routes that admit anonymous callers
// simply get nil here.
func userIDFromContext(c *gin.Context) *int64 {
	if userIDVal, ok := c.Get("userID"); ok {
		if userID, ok := userIDVal.(int64); ok {
			return &userID
		}
	}
	return nil
}

// respondError maps the error taxonomy onto HTTP statuses. The kind rides
// along in the body so clients do not have to parse messages.
func respondError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	c.JSON(statusForKind(kind), gin.H{
		"error": apperrors.MessageOf(err),
		"kind":  string(kind),
	})
}

func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindUnauthenticated:
		return nethttp.StatusUnauthorized
	case apperrors.KindValidation:
		return nethttp.StatusBadRequest
	case apperrors.KindNotFound:
		return nethttp.StatusNotFound
	case apperrors.KindForbidden:
		return nethttp.StatusForbidden
	case apperrors.KindPolicyDenied:
		return nethttp.StatusUnprocessableEntity
	case apperrors.KindConflict:
		return nethttp.StatusConflict
	default:
		return nethttp.StatusInternalServerError
	}
}
