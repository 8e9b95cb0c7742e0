package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPaymentHandler_Webhook_InvalidGatewayKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewPaymentHandler(nil, "secret-key")
	r.POST("/payments/webhook", handler.Webhook)

	body := strings.NewReader(`{"booking_id":"` + validUUID + `","transaction_id":"txn_1","amount":"100","kind":"advance","status":"completed"}`)
	req, _ := http.NewRequest("POST", "/payments/webhook", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Gateway-Key", "wrong-key")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentHandler_Webhook_MalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewPaymentHandler(nil, "")
	r.POST("/payments/webhook", handler.Webhook)

	body := strings.NewReader(`{"transaction_id":""}`)
	req, _ := http.NewRequest("POST", "/payments/webhook", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_Webhook_InvalidBookingID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewPaymentHandler(nil, "")
	r.POST("/payments/webhook", handler.Webhook)

	body := strings.NewReader(`{"booking_id":"not-a-uuid","transaction_id":"txn_1","amount":"100","kind":"advance","status":"completed"}`)
	req, _ := http.NewRequest("POST", "/payments/webhook", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
