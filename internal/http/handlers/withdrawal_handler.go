package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gigsetu/gigsetu-backend/internal/service"
)

type WithdrawalHandler struct {
	withdrawals *service.WithdrawalService
}

func NewWithdrawalHandler(withdrawals *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals}
}

// Create POST /api/withdrawals
func (h *WithdrawalHandler) Create(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}

	w, err := h.withdrawals.RequestWithdrawal(c.Request.Context(), userID, req.Amount)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, w)
}

// Get GET /api/withdrawals/:id
func (h *WithdrawalHandler) Get(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	role, _ := currentUserRole(c)

	id, _ := uuid.Parse(c.Param("id"))
	w, err := h.withdrawals.GetWithdrawal(c.Request.Context(), id, userID, role)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, w)
}

// List GET /api/withdrawals
func (h *WithdrawalHandler) List(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)

	requests, err := h.withdrawals.ListForFreelancer(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": requests})
}

// ListPending GET /api/admin/withdrawals
func (h *WithdrawalHandler) ListPending(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)

	requests, err := h.withdrawals.ListPending(c.Request.Context(), limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": requests})
}

// Decide POST /api/admin/withdrawals/:id/decide
func (h *WithdrawalHandler) Decide(c *gin.Context) {
	var req struct {
		Approve bool    `json:"approve"`
		Reason  *string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, _ := uuid.Parse(c.Param("id"))
	w, err := h.withdrawals.Decide(c.Request.Context(), id, req.Approve, req.Reason)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, w)
}

// AddPayoutMethod POST /api/payout-methods
func (h *WithdrawalHandler) AddPayoutMethod(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	var req struct {
		Kind                 string `json:"kind" binding:"required"`
		AccountHolder        string `json:"account_holder"`
		AccountNumber        string `json:"account_number"`
		ConfirmAccountNumber string `json:"confirm_account_number"`
		IFSC                 string `json:"ifsc"`
		UpiID                string `json:"upi_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := h.withdrawals.AddPayoutMethod(c.Request.Context(), userID, service.PayoutMethodInput{
		Kind:                 req.Kind,
		AccountHolder:        req.AccountHolder,
		AccountNumber:        req.AccountNumber,
		ConfirmAccountNumber: req.ConfirmAccountNumber,
		IFSC:                 req.IFSC,
		UpiID:                req.UpiID,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

// GetPayoutMethod GET /api/payout-methods
func (h *WithdrawalHandler) GetPayoutMethod(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	m, err := h.withdrawals.GetPayoutMethod(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no payout method registered"})
		return
	}

	c.JSON(http.StatusOK, m)
}
