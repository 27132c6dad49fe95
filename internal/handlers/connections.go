package handlers

import (
	"context"
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sixdegrees-service/internal/metrics"
	"sixdegrees-service/internal/models"
	"sixdegrees-service/internal/repositories"
	"sixdegrees-service/internal/services"
	"sixdegrees-service/internal/telemetry"
)

type ConnectionHandler struct {
	auditor
	connections repositories.ConnectionRepository
	users       *services.UserService
}

func NewConnectionHandler(connections repositories.ConnectionRepository, users *services.UserService, audit *telemetry.AuditEmitter) *ConnectionHandler {
	return &ConnectionHandler{auditor: auditor{audit: audit}, connections: connections, users: users}
}

type inviteBody struct {
	ToUserID int64 `json:"to_user_id" binding:"required"`
}

func (h *ConnectionHandler) Invite(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID := userIDFromContext(c)
	var body inviteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		metrics.IncConnectionInvite(metrics.StatusFailed)
		h.reject(c, telemetry.ActionInviteSend, nethttp.StatusBadRequest, "invalid request body", requestID, userID)
		return
	}

	if userID == nil {
		metrics.IncConnectionInvite(metrics.StatusFailed)
		h.reject(c, telemetry.ActionInviteSend, nethttp.StatusUnauthorized, "unauthorized", requestID, nil)
		return
	}
	fromUserID := *userID

	toUserID := body.ToUserID
	if toUserID == fromUserID {
		metrics.IncConnectionInvite(metrics.StatusFailed)
		h.reject(c, telemetry.ActionInviteSend, nethttp.StatusBadRequest, "cannot invite yourself", requestID, userID)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.users.Get(ctx, toUserID); err != nil {
		metrics.IncConnectionInvite(metrics.StatusFailed)
		h.fail(c, telemetry.ActionInviteSend, err, "failed to fetch target user", requestID, userID)
		return
	}

	pending, err := h.connections.HasPendingInvite(ctx, fromUserID, toUserID)
	if err != nil {
		metrics.IncConnectionInvite(metrics.StatusFailed)
		h.fail(c, telemetry.ActionInviteSend, err, "failed to check invites", requestID, userID)
		return
	}
	if pending {
		metrics.IncConnectionInvite(metrics.StatusFailed)
		h.reject(c, telemetry.ActionInviteSend, nethttp.StatusConflict, "pending invite already exists", requestID, userID)
		return
	}

	connected, err := h.connections.AreConnected(ctx, fromUserID, toUserID)
	if err != nil {
		metrics.IncConnectionInvite(metrics.StatusFailed)
		h.fail(c, telemetry.ActionInviteSend, err, "failed to check connection", requestID, userID)
		return
	}
	if connected {
		metrics.IncConnectionInvite(metrics.StatusFailed)
		h.reject(c, telemetry.ActionInviteSend, nethttp.StatusConflict, "users are already connected", requestID, userID)
		return
	}

	invite, err := h.connections.CreateInvite(ctx, fromUserID, toUserID)
	if err != nil {
		metrics.IncConnectionInvite(metrics.StatusFailed)
		h.fail(c, telemetry.ActionInviteSend, err, "failed to create invite", requestID, userID)
		return
	}

	metrics.IncConnectionInvite(metrics.StatusSuccess)
	c.JSON(nethttp.StatusCreated, invite)
	h.succeeded(c, telemetry.ActionInviteSend, telemetry.InviteSubject(invite.ID), "to user "+strconv.FormatInt(toUserID, 10), requestID, userID)
}

func (h *ConnectionHandler) ListIncoming(c *gin.Context) {
	userID, ok := h.caller(c, requestIDFromHeader(c))
	if !ok {
		return
	}

	ctx := c.Request.Context()
	invites, err := h.connections.GetIncomingInvites(ctx, userID)
	if err != nil {
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to load invites"})
		return
	}

	resp := make([]gin.H, 0, len(invites))
	for _, invite := range invites {
		sender, err := h.users.Get(ctx, invite.FromUserID)
		if err != nil {
			status, msg := errorStatus(err, "failed to fetch sender")
			c.JSON(status, gin.H{"error": msg})
			return
		}
		resp = append(resp, gin.H{
			"id":            invite.ID,
			"from_user_id":  invite.FromUserID,
			"from_username": sender.Username,
			"status":        invite.Status,
			"created_at":    invite.CreatedAt,
		})
	}

	c.JSON(nethttp.StatusOK, resp)
}

func (h *ConnectionHandler) AcceptInvite(c *gin.Context) {
	h.handleDecision(c, h.connections.AcceptInvite, telemetry.ActionInviteAccept, models.InviteStatusAccepted)
}

func (h *ConnectionHandler) RejectInvite(c *gin.Context) {
	h.handleDecision(c, h.connections.RejectInvite, telemetry.ActionInviteReject, models.InviteStatusRejected)
}

func (h *ConnectionHandler) handleDecision(c *gin.Context, decide func(ctx context.Context, inviteID, userID int64) error, action telemetry.Action, status string) {
	inviteID, ok := int64Param(c, "id")
	if !ok {
		return
	}

	requestID := requestIDFromHeader(c)
	userID, ok := h.caller(c, requestID)
	if !ok {
		return
	}

	if err := decide(c.Request.Context(), inviteID, userID); err != nil {
		h.fail(c, action, err, "failed to update invite", requestID, &userID)
		return
	}

	c.JSON(nethttp.StatusOK, gin.H{"status": status})
	h.succeeded(c, action, telemetry.InviteSubject(inviteID), "", requestID, &userID)
}

func (h *ConnectionHandler) List(c *gin.Context) {
	userID, ok := h.caller(c, requestIDFromHeader(c))
	if !ok {
		return
	}

	ctx := c.Request.Context()
	ids, err := h.connections.ListConnections(ctx, userID)
	if err != nil {
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to fetch connections"})
		return
	}

	resp := make([]models.PublicUser, 0, len(ids))
	for _, id := range ids {
		user, err := h.users.Get(ctx, id)
		if err != nil {
			status, msg := errorStatus(err, "failed to fetch connection")
			c.JSON(status, gin.H{"error": msg})
			return
		}
		resp = append(resp, user.Public())
	}

	c.JSON(nethttp.StatusOK, resp)
}

func (h *ConnectionHandler) Delete(c *gin.Context) {
	otherID, ok := int64Param(c, "user_id")
	if !ok {
		return
	}

	requestID := requestIDFromHeader(c)
	userID, ok := h.caller(c, requestID)
	if !ok {
		return
	}

	if err := h.connections.DeleteConnection(c.Request.Context(), userID, otherID); err != nil {
		h.fail(c, telemetry.ActionConnectionRemove, err, "failed to delete connection", requestID, &userID)
		return
	}

	c.Status(nethttp.StatusNoContent)
	h.succeeded(c, telemetry.ActionConnectionRemove, telemetry.UserSubject(otherID), "", requestID, &userID)
}
