package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sixdegrees-service/internal/middleware"
	"sixdegrees-service/internal/repositories"
	"sixdegrees-service/internal/services"
	"sixdegrees-service/internal/telemetry"
)

func requestIDFromHeader(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return requestID
}

func userIDFromContext(c *gin.Context) *int64 {
	if userIDVal, ok := c.Get(middleware.ContextUserID); ok {
		if userID, ok := userIDVal.(int64); ok {
			return &userID
		}
	}
	return nil
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// errorStatus maps domain errors to the fixed status codes of the API.
func errorStatus(err error, fallback string) (int, string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return nethttp.StatusBadRequest, verr.Error()
	case errors.Is(err, sql.ErrNoRows):
		return nethttp.StatusNotFound, "not found"
	case errors.Is(err, repositories.ErrForbidden):
		return nethttp.StatusForbidden, err.Error()
	case errors.Is(err, repositories.ErrInsufficientCredits):
		return nethttp.StatusPaymentRequired, err.Error()
	case errors.Is(err, repositories.ErrRequestClosed),
		errors.Is(err, repositories.ErrAlreadyParticipant),
		errors.Is(err, repositories.ErrDuplicate),
		errors.Is(err, repositories.ErrUndoNotAllowed),
		errors.Is(err, repositories.ErrInviteClosed):
		return nethttp.StatusConflict, err.Error()
	case errors.Is(err, repositories.ErrDepthExceeded),
		errors.Is(err, repositories.ErrNotParticipant):
		return nethttp.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, services.ErrStorageDisabled):
		return nethttp.StatusServiceUnavailable, err.Error()
	default:
		slog.Error(fallback, "error", err)
		return nethttp.StatusInternalServerError, fallback
	}
}

// auditor is embedded by handlers that emit audit events.
type auditor struct {
	audit *telemetry.AuditEmitter
}

func (a auditor) record(c *gin.Context, entry telemetry.AuditEntry) {
	if a.audit == nil {
		return
	}
	a.audit.Record(c.Request.Context(), entry)
}

// succeeded audits a completed state change.
func (a auditor) succeeded(c *gin.Context, action telemetry.Action, subject *telemetry.Subject, detail, requestID string, userID *int64) {
	a.record(c, telemetry.AuditEntry{
		Action:     action,
		Outcome:    telemetry.OutcomeSucceeded,
		HTTPStatus: c.Writer.Status(),
		RequestID:  requestID,
		ActorID:    userID,
		Subject:    subject,
		Detail:     detail,
	})
}

// reject answers a client error raised by the handler itself and audits it.
func (a auditor) reject(c *gin.Context, action telemetry.Action, status int, msg, requestID string, userID *int64) {
	a.record(c, telemetry.AuditEntry{
		Action:     action,
		HTTPStatus: status,
		RequestID:  requestID,
		ActorID:    userID,
		Detail:     msg,
	})
	c.JSON(status, gin.H{"error": msg})
}

// fail writes the mapped error response and audits it.
func (a auditor) fail(c *gin.Context, action telemetry.Action, err error, fallback, requestID string, userID *int64) {
	status, msg := errorStatus(err, fallback)
	a.reject(c, action, status, msg, requestID, userID)
}

// caller returns the authenticated user or answers 401.
func (a auditor) caller(c *gin.Context, requestID string) (int64, bool) {
	userID := userIDFromContext(c)
	if userID == nil {
		a.reject(c, telemetry.ActionAccess, nethttp.StatusUnauthorized, "unauthorized", requestID, nil)
		return 0, false
	}
	return *userID, true
}
