package api

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/u1kamal/petpulse-backend/internal/analytics"
	"github.com/u1kamal/petpulse-backend/internal/model"
)

// GetHistory handles the GET /history request, newest first.
func (h *Handler) GetHistory(c *gin.Context) {
	entries, err := h.history.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	// RFC 3339 sorts lexicographically in chronological order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})

	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

// GetWeeklyAnalytics handles the GET /analytics/weekly request.
func (h *Handler) GetWeeklyAnalytics(c *gin.Context) {
	entries, err := h.history.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": analytics.Weekly(entries, time.Now())})
}
