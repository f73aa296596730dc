package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	contractx "github.com/tanpawarit/Chative-Voice-Booking/agent/contract"
	nodex "github.com/tanpawarit/Chative-Voice-Booking/agent/nodes/orchestrator"
	toolx "github.com/tanpawarit/Chative-Voice-Booking/agent/tool"
)

type handlers struct {
	ctrl Controller
}

type startRequest struct {
	RoomName string `json:"room_name" binding:"required"`
}

type startResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

type turnRequest struct {
	Text string `json:"text" binding:"required"`
}

type turnResponse struct {
	Reply        string       `json:"reply"`
	Capabilities []toolx.Kind `json:"capabilities"`
}

type capabilitiesResponse struct {
	Capabilities []toolx.Kind `json:"capabilities"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) startSession(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, greeting, err := h.ctrl.Start(c.Request.Context(), req.RoomName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, startResponse{SessionID: id, Reply: greeting})
}

func (h *handlers) getSession(c *gin.Context) {
	st, err := h.ctrl.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *handlers) handleTurn(c *gin.Context) {
	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	reply, err := h.ctrl.HandleTurn(c.Request.Context(), id, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	caps, err := h.ctrl.Capabilities(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, turnResponse{Reply: reply, Capabilities: caps})
}

func (h *handlers) capabilities(c *gin.Context) {
	caps, err := h.ctrl.Capabilities(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, capabilitiesResponse{Capabilities: caps})
}

func (h *handlers) complete(c *gin.Context) {
	rec, err := h.ctrl.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handlers) hangup(c *gin.Context) {
	if err := h.ctrl.Hangup(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, contractx.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, contractx.ErrSessionClosed):
		status = http.StatusConflict
	case errors.Is(err, nodex.ErrInvalidMessage),
		errors.Is(err, nodex.ErrInvalidSession),
		errors.Is(err, contractx.ErrValidation):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
