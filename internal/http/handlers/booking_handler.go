package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gigsetu/gigsetu-backend/internal/models"
	"github.com/gigsetu/gigsetu-backend/internal/service"
)

type BookingHandler struct {
	bookings *service.BookingService
	ledger   *service.LedgerService
}

func NewBookingHandler(bookings *service.BookingService, ledger *service.LedgerService) *BookingHandler {
	return &BookingHandler{bookings: bookings, ledger: ledger}
}

// Create POST /api/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	employerID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	var req struct {
		FreelancerID string          `json:"freelancer_id" binding:"required"`
		SourceType   string          `json:"source_type" binding:"required"`
		SourceID     string          `json:"source_id" binding:"required"`
		BasePrice    decimal.Decimal `json:"base_price" binding:"required"`
		PaymentType  string          `json:"payment_type" binding:"required"`
		BookingDate  time.Time       `json:"booking_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	freelancerID, err := uuid.Parse(req.FreelancerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid freelancer_id"})
		return
	}
	sourceID, err := uuid.Parse(req.SourceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source_id"})
		return
	}

	b, err := h.bookings.CreateBooking(c.Request.Context(), service.CreateBookingInput{
		EmployerID:   employerID,
		FreelancerID: freelancerID,
		SourceType:   req.SourceType,
		SourceID:     sourceID,
		BasePrice:    req.BasePrice,
		PaymentType:  req.PaymentType,
		BookingDate:  req.BookingDate,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, b.Snapshot(employerID))
}

// Get GET /api/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	id, _ := uuid.Parse(c.Param("id"))
	b, err := h.bookings.GetBooking(c.Request.Context(), id, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, b.Snapshot(userID))
}

// List GET /api/bookings?role=employer|freelancer
func (h *BookingHandler) List(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	actingAs := c.DefaultQuery("role", models.RoleEmployer)
	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)

	bookings, err := h.bookings.ListForUser(c.Request.Context(), userID, actingAs, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	snapshots := make([]*models.BookingSnapshot, 0, len(bookings))
	for i := range bookings {
		snapshots = append(snapshots, bookings[i].Snapshot(userID))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": snapshots})
}

// Start POST /api/bookings/:id/start
func (h *BookingHandler) Start(c *gin.Context) {
	h.transition(c, h.bookings.Start)
}

// Complete POST /api/bookings/:id/complete
func (h *BookingHandler) Complete(c *gin.Context) {
	h.transition(c, h.bookings.Complete)
}

// transition handles the two OTP-gated endpoints, which share a shape.
func (h *BookingHandler) transition(c *gin.Context, apply func(ctx context.Context, id uuid.UUID, otp, actingAs string) (*models.Booking, error)) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	role, err := currentUserRole(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	var req struct {
		Otp string `json:"otp" binding:"required,len=4,numeric"`
		// Which side of the exchange is typing the code. Defaults to the
		// caller's token role.
		ActingAs string `json:"acting_as"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a 4-digit code is required"})
		return
	}
	actingAs := req.ActingAs
	if actingAs == "" {
		actingAs = role
	}

	id, _ := uuid.Parse(c.Param("id"))
	b, err := apply(c.Request.Context(), id, req.Otp, actingAs)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, b.Snapshot(userID))
}

// Cancel POST /api/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a cancellation reason is required"})
		return
	}

	id, _ := uuid.Parse(c.Param("id"))
	b, err := h.bookings.Cancel(c.Request.Context(), id, userID, req.Reason)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, b.Snapshot(userID))
}

// Rate POST /api/bookings/:id/rating
func (h *BookingHandler) Rate(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	var req struct {
		Rating int     `json:"rating" binding:"min=0,max=5"`
		Review *string `json:"review"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 0 and 5"})
		return
	}

	id, _ := uuid.Parse(c.Param("id"))
	b, err := h.bookings.SubmitRating(c.Request.Context(), id, userID, req.Rating, req.Review)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, b.Snapshot(userID))
}

// ListPayments GET /api/bookings/:id/payments
func (h *BookingHandler) ListPayments(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	id, _ := uuid.Parse(c.Param("id"))
	b, err := h.bookings.GetBooking(c.Request.Context(), id, userID)
	if err != nil {
		c.Error(err)
		return
	}

	events, err := h.ledger.ListBookingPayments(c.Request.Context(), b)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": events})
}
