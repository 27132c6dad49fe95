package handlers

import (
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sixdegrees-service/internal/metrics"
	"sixdegrees-service/internal/services"
	"sixdegrees-service/internal/telemetry"
)

type RequestHandler struct {
	auditor
	requests *services.RequestService
	chains   *services.ChainService
}

func NewRequestHandler(requests *services.RequestService, chains *services.ChainService, audit *telemetry.AuditEmitter) *RequestHandler {
	return &RequestHandler{auditor: auditor{audit: audit}, requests: requests, chains: chains}
}

func (h *RequestHandler) Create(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID, ok := h.caller(c, requestID)
	if !ok {
		metrics.IncRequestCreated(metrics.StatusFailed)
		return
	}

	var body services.CreateRequestInput
	if err := c.ShouldBindJSON(&body); err != nil {
		metrics.IncRequestCreated(metrics.StatusFailed)
		h.reject(c, telemetry.ActionRequestCreate, nethttp.StatusBadRequest, "invalid request body", requestID, &userID)
		return
	}

	req, err := h.requests.Create(c.Request.Context(), userID, body)
	if err != nil {
		metrics.IncRequestCreated(metrics.StatusFailed)
		h.fail(c, telemetry.ActionRequestCreate, err, "failed to create request", requestID, &userID)
		return
	}

	metrics.IncRequestCreated(metrics.StatusSuccess)
	c.JSON(nethttp.StatusCreated, req)
	h.succeeded(c, telemetry.ActionRequestCreate, telemetry.RequestSubject(req.ID), "credit reward "+strconv.FormatInt(req.CreditReward, 10), requestID, &userID)
}

func (h *RequestHandler) ListMine(c *gin.Context) {
	userID, ok := h.caller(c, requestIDFromHeader(c))
	if !ok {
		return
	}

	var (
		reqs any
		err  error
	)
	if c.Query("scope") == "joined" {
		reqs, err = h.requests.ListJoined(c.Request.Context(), userID)
	} else {
		reqs, err = h.requests.ListMine(c.Request.Context(), userID)
	}
	if err != nil {
		status, msg := errorStatus(err, "failed to load requests")
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(nethttp.StatusOK, reqs)
}

func (h *RequestHandler) Get(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	userID, ok := h.caller(c, requestIDFromHeader(c))
	if !ok {
		return
	}

	req, err := h.requests.Get(c.Request.Context(), userID, id)
	if err != nil {
		status, msg := errorStatus(err, "failed to load request")
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(nethttp.StatusOK, req)
}

func (h *RequestHandler) Cancel(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	requestID := requestIDFromHeader(c)
	userID, ok := h.caller(c, requestID)
	if !ok {
		return
	}

	req, err := h.requests.Cancel(c.Request.Context(), userID, id)
	if err != nil {
		h.fail(c, telemetry.ActionRequestCancel, err, "failed to cancel request", requestID, &userID)
		return
	}

	c.JSON(nethttp.StatusOK, req)
	h.succeeded(c, telemetry.ActionRequestCancel, telemetry.RequestSubject(id), "", requestID, &userID)
}

func (h *RequestHandler) Chain(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	userID, ok := h.caller(c, requestIDFromHeader(c))
	if !ok {
		return
	}

	chain, err := h.chains.Chain(c.Request.Context(), userID, id)
	if err != nil {
		status, msg := errorStatus(err, "failed to load chain")
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(nethttp.StatusOK, chain)
}

type freezeBody struct {
	Hours int `json:"hours" binding:"required"`
}

func (h *RequestHandler) Freeze(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	participantID, ok := int64Param(c, "user_id")
	if !ok {
		return
	}
	requestID := requestIDFromHeader(c)
	userID, ok := h.caller(c, requestID)
	if !ok {
		return
	}

	var body freezeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.reject(c, telemetry.ActionChainFreeze, nethttp.StatusBadRequest, "invalid request body", requestID, &userID)
		return
	}

	frozen, err := h.chains.Freeze(c.Request.Context(), userID, id, participantID, body.Hours)
	if err != nil {
		h.fail(c, telemetry.ActionChainFreeze, err, "failed to freeze participant", requestID, &userID)
		return
	}

	c.JSON(nethttp.StatusOK, gin.H{"frozen_user_ids": frozen, "hours": body.Hours})
	h.succeeded(c, telemetry.ActionChainFreeze, telemetry.RequestSubject(id), "froze "+strconv.Itoa(len(frozen))+" participants for "+strconv.Itoa(body.Hours)+"h", requestID, &userID)
}

type completeBody struct {
	ConnectorUserID int64 `json:"connector_user_id" binding:"required"`
}

func (h *RequestHandler) Complete(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		metrics.IncChainCompletion(metrics.StatusFailed)
		return
	}
	requestID := requestIDFromHeader(c)
	userID, ok := h.caller(c, requestID)
	if !ok {
		metrics.IncChainCompletion(metrics.StatusFailed)
		return
	}

	var body completeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		metrics.IncChainCompletion(metrics.StatusFailed)
		h.reject(c, telemetry.ActionChainComplete, nethttp.StatusBadRequest, "invalid request body", requestID, &userID)
		return
	}

	completion, err := h.chains.Complete(c.Request.Context(), userID, id, body.ConnectorUserID)
	if err != nil {
		metrics.IncChainCompletion(metrics.StatusFailed)
		h.fail(c, telemetry.ActionChainComplete, err, "failed to complete chain", requestID, &userID)
		return
	}

	metrics.IncChainCompletion(metrics.StatusSuccess)
	c.JSON(nethttp.StatusOK, completion)
	h.succeeded(c, telemetry.ActionChainComplete, telemetry.RequestSubject(id), "connector "+strconv.FormatInt(body.ConnectorUserID, 10), requestID, &userID)
}

func (h *RequestHandler) Rewards(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	userID, ok := h.caller(c, requestIDFromHeader(c))
	if !ok {
		return
	}

	out, err := h.chains.Rewards(c.Request.Context(), userID, id)
	if err != nil {
		status, msg := errorStatus(err, "failed to load rewards")
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(nethttp.StatusOK, out)
}

func (h *RequestHandler) Analytics(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	userID, ok := h.caller(c, requestIDFromHeader(c))
	if !ok {
		return
	}

	out, err := h.chains.Analytics(c.Request.Context(), userID, id)
	if err != nil {
		status, msg := errorStatus(err, "failed to load analytics")
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(nethttp.StatusOK, out)
}
