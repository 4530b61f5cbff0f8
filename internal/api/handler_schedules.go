package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/u1kamal/petpulse-backend/internal/model"
	"github.com/u1kamal/petpulse-backend/internal/sched"
)

type scheduleRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
	Time     string `json:"time" binding:"required"`
	Amount   int    `json:"amount" binding:"required,gt=0"`
	Unit     string `json:"unit"`
}

// GetSchedules handles the GET /schedules request.
func (h *Handler) GetSchedules(c *gin.Context) {
	schedules, err := h.schedules.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load schedules"})
		return
	}
	if schedules == nil {
		schedules = []model.Schedule{}
	}
	c.JSON(http.StatusOK, schedules)
}

// PostSchedule handles the POST /schedules request.
func (h *Handler) PostSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Unit == "" {
		req.Unit = "g"
	}

	schedule, err := h.schedules.Add(req.DeviceID, req.Time, req.Amount, req.Unit)
	if err != nil {
		if errors.Is(err, sched.ErrInvalidTime) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time format. Use HH:MM"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Schedule added", "schedule": schedule})
}

// DeleteSchedule handles the DELETE /schedules/{id} request. Deleting an
// unknown id is a no-op, reported through the "deleted" field.
func (h *Handler) DeleteSchedule(c *gin.Context) {
	deleted, err := h.schedules.Remove(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Schedule deleted", "deleted": deleted})
}
