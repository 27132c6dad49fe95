package handlers

import (
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sixdegrees-service/internal/services"
	"sixdegrees-service/internal/telemetry"
)

type WalletHandler struct {
	auditor
	wallets *services.WalletService
}

func NewWalletHandler(wallets *services.WalletService, audit *telemetry.AuditEmitter) *WalletHandler {
	return &WalletHandler{auditor: auditor{audit: audit}, wallets: wallets}
}

func (h *WalletHandler) Get(c *gin.Context) {
	userID, ok := h.caller(c, requestIDFromHeader(c))
	if !ok {
		return
	}

	wallet, err := h.wallets.Get(c.Request.Context(), userID)
	if err != nil {
		status, msg := errorStatus(err, "failed to load wallet")
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(nethttp.StatusOK, wallet)
}

type purchaseBody struct {
	PackageID        string `json:"package_id" binding:"required"`
	PaymentReference string `json:"payment_reference" binding:"required"`
}

func (h *WalletHandler) Purchase(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID, ok := h.caller(c, requestID)
	if !ok {
		return
	}

	var body purchaseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.reject(c, telemetry.ActionCreditPurchase, nethttp.StatusBadRequest, "invalid request body", requestID, &userID)
		return
	}

	entry, created, err := h.wallets.Purchase(c.Request.Context(), userID, body.PackageID, body.PaymentReference)
	if err != nil {
		h.fail(c, telemetry.ActionCreditPurchase, err, "failed to purchase credits", requestID, &userID)
		return
	}

	if !created {
		c.JSON(nethttp.StatusOK, entry)
		return
	}
	c.JSON(nethttp.StatusCreated, entry)
	h.succeeded(c, telemetry.ActionCreditPurchase, telemetry.UserSubject(userID), "purchased "+strconv.FormatInt(entry.Amount, 10)+" credits ("+body.PackageID+")", requestID, &userID)
}
