package handlers

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"sixdegrees-service/internal/services"
	"sixdegrees-service/internal/telemetry"
)

type SwipeHandler struct {
	auditor
	swipes *services.SwipeService
}

func NewSwipeHandler(swipes *services.SwipeService, audit *telemetry.AuditEmitter) *SwipeHandler {
	return &SwipeHandler{auditor: auditor{audit: audit}, swipes: swipes}
}

func (h *SwipeHandler) Discover(c *gin.Context) {
	userID, ok := h.caller(c, requestIDFromHeader(c))
	if !ok {
		return
	}

	users, err := h.swipes.Discover(c.Request.Context(), userID)
	if err != nil {
		status, msg := errorStatus(err, "failed to load profiles")
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(nethttp.StatusOK, users)
}

type swipeBody struct {
	TargetUserID int64  `json:"target_user_id" binding:"required"`
	Action       string `json:"action" binding:"required"`
}

func (h *SwipeHandler) Swipe(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID, ok := h.caller(c, requestID)
	if !ok {
		return
	}

	var body swipeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.reject(c, telemetry.ActionSwipe, nethttp.StatusBadRequest, "invalid request body", requestID, &userID)
		return
	}

	res, err := h.swipes.Swipe(c.Request.Context(), userID, body.TargetUserID, body.Action)
	if err != nil {
		h.fail(c, telemetry.ActionSwipe, err, "failed to record swipe", requestID, &userID)
		return
	}
	c.JSON(nethttp.StatusCreated, res)
	if res.Matched {
		h.succeeded(c, telemetry.ActionSwipe, telemetry.UserSubject(body.TargetUserID), "matched", requestID, &userID)
	}
}

func (h *SwipeHandler) Undo(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID, ok := h.caller(c, requestID)
	if !ok {
		return
	}

	swipe, err := h.swipes.Undo(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, telemetry.ActionSwipeUndo, err, "failed to undo swipe", requestID, &userID)
		return
	}
	c.JSON(nethttp.StatusOK, swipe)
	h.succeeded(c, telemetry.ActionSwipeUndo, telemetry.UserSubject(swipe.TargetUserID), swipe.Action, requestID, &userID)
}

func (h *SwipeHandler) Matches(c *gin.Context) {
	userID, ok := h.caller(c, requestIDFromHeader(c))
	if !ok {
		return
	}

	matches, err := h.swipes.Matches(c.Request.Context(), userID)
	if err != nil {
		status, msg := errorStatus(err, "failed to load matches")
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(nethttp.StatusOK, matches)
}
