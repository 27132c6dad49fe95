package handlers

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"sixdegrees-service/internal/middleware"
	"sixdegrees-service/internal/services"
	"sixdegrees-service/internal/telemetry"
)

type UserHandler struct {
	auditor
	users *services.UserService
}

func NewUserHandler(users *services.UserService, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{auditor: auditor{audit: audit}, users: users}
}

// Sync provisions the caller from the token claims.
func (h *UserHandler) Sync(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID, ok := h.caller(c, requestID)
	if !ok {
		return
	}

	user, created, err := h.users.Sync(c.Request.Context(), userID, c.GetString(middleware.ContextUsername))
	if err != nil {
		h.fail(c, telemetry.ActionUserSync, err, "failed to sync user", requestID, &userID)
		return
	}

	if created {
		c.JSON(nethttp.StatusCreated, user)
		h.succeeded(c, telemetry.ActionUserSync, telemetry.UserSubject(userID), "registered "+user.Username, requestID, &userID)
		return
	}
	c.JSON(nethttp.StatusOK, user)
}

func (h *UserHandler) GetMe(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID, ok := h.caller(c, requestID)
	if !ok {
		return
	}

	dash, err := h.users.Dashboard(c.Request.Context(), userID)
	if err != nil {
		status, msg := errorStatus(err, "failed to load dashboard")
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(nethttp.StatusOK, dash)
}

func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		status, msg := errorStatus(err, "failed to fetch user")
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(nethttp.StatusOK, user.Public())
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID, ok := h.caller(c, requestID)
	if !ok {
		return
	}

	var body services.ProfileUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		h.reject(c, telemetry.ActionProfileUpdate, nethttp.StatusBadRequest, "invalid request body", requestID, &userID)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, body)
	if err != nil {
		h.fail(c, telemetry.ActionProfileUpdate, err, "failed to update profile", requestID, &userID)
		return
	}
	c.JSON(nethttp.StatusOK, user)
	h.succeeded(c, telemetry.ActionProfileUpdate, telemetry.UserSubject(userID), "", requestID, &userID)
}

type avatarUploadBody struct {
	ContentType string `json:"content_type" binding:"required"`
}

func (h *UserHandler) AvatarUpload(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID, ok := h.caller(c, requestID)
	if !ok {
		return
	}

	var body avatarUploadBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.reject(c, telemetry.ActionAvatarUpload, nethttp.StatusBadRequest, "invalid request body", requestID, &userID)
		return
	}

	upload, err := h.users.AvatarUpload(c.Request.Context(), userID, body.ContentType)
	if err != nil {
		h.fail(c, telemetry.ActionAvatarUpload, err, "failed to prepare avatar upload", requestID, &userID)
		return
	}
	c.JSON(nethttp.StatusOK, upload)
	h.succeeded(c, telemetry.ActionAvatarUpload, telemetry.UserSubject(userID), upload.Key, requestID, &userID)
}
