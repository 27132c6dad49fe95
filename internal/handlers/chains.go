package handlers

import (
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sixdegrees-service/internal/metrics"
	"sixdegrees-service/internal/middleware"
	"sixdegrees-service/internal/services"
	"sixdegrees-service/internal/telemetry"
)

type ChainHandler struct {
	auditor
	chains *services.ChainService
}

func NewChainHandler(chains *services.ChainService, audit *telemetry.AuditEmitter) *ChainHandler {
	return &ChainHandler{auditor: auditor{audit: audit}, chains: chains}
}

func parseRef(raw string) (*int64, bool) {
	if raw == "" {
		return nil, true
	}
	ref, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ref <= 0 {
		return nil, false
	}
	return &ref, true
}

// Visit serves the public share link. Anonymous callers are identified by IP.
func (h *ChainHandler) Visit(c *gin.Context) {
	ref, ok := parseRef(c.Query("ref"))
	if !ok {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid ref"})
		return
	}

	view, err := h.chains.Visit(c.Request.Context(), c.Param("share_id"), ref, middleware.ClientKey(c))
	if err != nil {
		status, msg := errorStatus(err, "failed to load request")
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(nethttp.StatusOK, view)
}

type joinBody struct {
	Ref *int64 `json:"ref"`
}

func (h *ChainHandler) Join(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID, ok := h.caller(c, requestID)
	if !ok {
		metrics.IncChainJoin(metrics.StatusFailed)
		return
	}

	var body joinBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			metrics.IncChainJoin(metrics.StatusFailed)
			h.reject(c, telemetry.ActionChainJoin, nethttp.StatusBadRequest, "invalid request body", requestID, &userID)
			return
		}
	}
	if body.Ref == nil {
		ref, ok := parseRef(c.Query("ref"))
		if !ok {
			metrics.IncChainJoin(metrics.StatusFailed)
			h.reject(c, telemetry.ActionChainJoin, nethttp.StatusBadRequest, "invalid ref", requestID, &userID)
			return
		}
		body.Ref = ref
	}

	participant, err := h.chains.Join(c.Request.Context(), userID, c.Param("share_id"), body.Ref)
	if err != nil {
		metrics.IncChainJoin(metrics.StatusFailed)
		h.fail(c, telemetry.ActionChainJoin, err, "failed to join chain", requestID, &userID)
		return
	}

	metrics.IncChainJoin(metrics.StatusSuccess)
	c.JSON(nethttp.StatusCreated, participant)
	h.succeeded(c, telemetry.ActionChainJoin, telemetry.RequestSubject(participant.RequestID), "depth "+strconv.Itoa(participant.Depth), requestID, &userID)
}
