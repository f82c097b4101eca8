package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/footprint/internal/domain/models"
	"github.com/mamadbah2/footprint/internal/repository"
	"github.com/mamadbah2/footprint/internal/repository/sheets"
	"github.com/mamadbah2/footprint/internal/service/submission"
)

// EmissionsReader reads saved survey results and community totals.
type EmissionsReader interface {
	Community(ctx context.Context) (models.CommunityEmissionsData, error)
	UserEmissions(ctx context.Context, userID, month string) (*models.EmissionsDocument, error)
}

// SnapshotReader lists ledger snapshots.
type SnapshotReader interface {
	Snapshots(ctx context.Context) ([]sheets.Snapshot, error)
}

// EmissionsHandler serves community totals and the caller's saved results.
type EmissionsHandler struct {
	emissions EmissionsReader
	history   SnapshotReader
	logger    *zap.Logger
}

// NewEmissionsHandler constructs the HTTP handler adapter. A nil history
// answers 404 on the history route.
func NewEmissionsHandler(emissions EmissionsReader, history SnapshotReader, logger *zap.Logger) *EmissionsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmissionsHandler{emissions: emissions, history: history, logger: logger}
}

// Community returns the global running totals.
func (h *EmissionsHandler) Community(c *gin.Context) {
	data, err := h.emissions.Community(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to read community totals", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "community totals unavailable"})
		return
	}
	c.JSON(http.StatusOK, data)
}

// History returns the community snapshot ledger.
func (h *EmissionsHandler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot ledger is not configured"})
		return
	}

	snaps, err := h.history.Snapshots(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to read community snapshots", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "community history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snaps})
}

// Mine returns the caller's saved survey for ?month=YYYY-MM, or the latest.
func (h *EmissionsHandler) Mine(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	month := c.Query("month")
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month must be formatted YYYY-MM"})
			return
		}
	}

	doc, err := h.emissions.UserEmissions(c.Request.Context(), user.ID, month)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no saved survey"})
		return
	case errors.Is(err, submission.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	case err != nil:
		h.logger.Error("failed to read user emissions", zap.String("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "saved survey unavailable"})
		return
	}

	c.JSON(http.StatusOK, doc)
}
