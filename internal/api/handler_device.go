package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/u1kamal/petpulse-backend/internal/dispatch"
	"github.com/u1kamal/petpulse-backend/internal/model"
)

type dispenseRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
	Amount   int    `json:"amount" binding:"required"`
	Unit     string `json:"unit"`
}

// PostFeed handles the POST /feed request.
func (h *Handler) PostFeed(c *gin.Context) {
	var req dispenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Unit == "" {
		req.Unit = "g"
	}

	cmd, err := h.dispatcher.Feed(req.DeviceID, req.Amount, req.Unit, model.SourceManual)
	if err != nil {
		h.dispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Feed command sent to %s", req.DeviceID),
		"data":    cmd,
	})
}

// PostWater handles the POST /water request.
func (h *Handler) PostWater(c *gin.Context) {
	var req dispenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Unit == "" {
		req.Unit = "ml"
	}

	cmd, err := h.dispatcher.Water(req.DeviceID, req.Amount, req.Unit, model.SourceManual)
	if err != nil {
		h.dispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Water command sent to %s", req.DeviceID),
		"data":    cmd,
	})
}

// GetDeviceStatus handles the GET /device/{device_id}/status request. An
// unseen device yields the default offline record.
func (h *Handler) GetDeviceStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Get(c.Param("device_id")))
}

// PostRefill handles the POST /device/{device_id}/refill request. It is
// a local-state correction tool: no command is sent to the device.
func (h *Handler) PostRefill(c *gin.Context) {
	st := h.store.Refill(c.Param("device_id"))
	c.JSON(http.StatusOK, gin.H{
		"message":          "Container refilled",
		"container_weight": st.ContainerWeight,
	})
}

func (h *Handler) dispatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dispatch.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
	case errors.Is(err, dispatch.ErrTransportUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to communicate with device"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
