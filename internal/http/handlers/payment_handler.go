package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gigsetu/gigsetu-backend/internal/models"
	"github.com/gigsetu/gigsetu-backend/internal/service"
)

// PaymentHandler receives payment gateway webhooks. The gateway expects
// a 2xx ack for anything it should not redeliver, so duplicates and
// business rejections both respond 200 with the outcome in the body.
type PaymentHandler struct {
	ledger *service.LedgerService
	apiKey string
}

func NewPaymentHandler(ledger *service.LedgerService, apiKey string) *PaymentHandler {
	return &PaymentHandler{ledger: ledger, apiKey: apiKey}
}

// Webhook POST /api/payments/webhook
func (h *PaymentHandler) Webhook(c *gin.Context) {
	if h.apiKey != "" && c.GetHeader("X-Gateway-Key") != h.apiKey {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid gateway key"})
		return
	}

	var req struct {
		BookingID     string          `json:"booking_id" binding:"required"`
		TransactionID string          `json:"transaction_id" binding:"required"`
		Amount        decimal.Decimal `json:"amount" binding:"required"`
		Kind          string          `json:"kind" binding:"required"`
		Status        string          `json:"status" binding:"required"`
		PlatformFee   decimal.Decimal `json:"platform_fee"`
		Method        string          `json:"method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking_id"})
		return
	}

	ev := &models.PaymentEvent{
		BookingID:     bookingID,
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Kind:          req.Kind,
		Status:        req.Status,
		PlatformFee:   req.PlatformFee,
		Method:        req.Method,
	}

	result, err := h.ledger.Ingest(c.Request.Context(), ev)
	if err != nil {
		// An overpayment is a terminal business rejection: ack the webhook
		// so the gateway stops retrying, report the rejection in the body.
		if result != nil && result.Status == models.IngestRejected {
			c.JSON(http.StatusOK, result)
			return
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}
