package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/autoassist/autoassist-backend/internal/services"
)

type PaymentHandler struct {
  paymentService services.PaymentService
}

func NewPaymentHandler(paymentService services.PaymentService) *PaymentHandler {
  return &PaymentHandler{paymentService: paymentService}
}

func (ph *PaymentHandler) MockPay(c *gin.Context) {
  if err := ph.paymentService.ProcessMockPayment(c.Request.Context()); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true, "message": "Upgrade concluído!"})
}
