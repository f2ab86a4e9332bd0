package handlers

import (
	"database/sql"
	"errors"
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-service/internal/models"
	"social-service/internal/repositories"
	"social-service/internal/services"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 200
)

type EntryHandler struct {
	entries    repositories.EntryRepository
	visibility *services.VisibilityResolver
}

func NewEntryHandler(entries repositories.EntryRepository, visibility *services.VisibilityResolver) *EntryHandler {
	return &EntryHandler{entries: entries, visibility: visibility}
}

// ListFeed renders the entry feed, filtered to what the viewer may see. The
// friend sets are computed once for the whole page.
func (h *EntryHandler) ListFeed(c *gin.Context) {
	viewerID := int64(0)
	if userID := userIDFromContext(c); userID != nil {
		viewerID = *userID
	}

	limit := defaultFeedLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if parsed > maxFeedLimit {
			parsed = maxFeedLimit
		}
		limit = parsed
	}

	ctx := c.Request.Context()
	var (
		rows []models.Entry
		err  error
	)
	if raw := c.Query("owner_id"); raw != "" {
		ownerID, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid owner id"})
			return
		}
		rows, err = h.entries.ListByOwner(ctx, ownerID, limit)
	} else {
		rows, err = h.entries.ListRecent(ctx, limit)
	}
	if err != nil {
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to load entries"})
		return
	}

	visible, err := h.visibility.FilterVisible(ctx, viewerID, rows)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(nethttp.StatusOK, gin.H{"entries": visible})
}

// GetEntry returns one entry if the viewer may see it. Invisible entries are
// indistinguishable from absent ones.
func (h *EntryHandler) GetEntry(c *gin.Context) {
	entryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	viewerID := int64(0)
	if userID := userIDFromContext(c); userID != nil {
		viewerID = *userID
	}

	ctx := c.Request.Context()
	entry, err := h.entries.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(nethttp.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to load entry"})
		return
	}

	ok, err := h.visibility.CanView(ctx, viewerID, entry.OwnerID, entry.Privacy)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(nethttp.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}

	c.JSON(nethttp.StatusOK, entry)
}
