package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/studiobooks/internal/invoice/domain"
	"github.com/smallbiznis/studiobooks/internal/observability/logger"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	paymentservice "github.com/smallbiznis/studiobooks/internal/payment/service"
	"go.uber.org/zap"
)

type addPaymentRequest struct {
	Amount      invoicedomain.Raw `json:"amount"`
	Method      string            `json:"method"`
	PaymentDate string            `json:"payment_date"`
	Notes       *string           `json:"notes"`
}

// AddPayment records a manual payment and answers with the reconciled snapshot.
func (s *Server) AddPayment(c *gin.Context) {
	var req addPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	paymentDate, err := parseOptionalTime(req.PaymentDate, false)
	if err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidPaymentDate)
		return
	}

	resp, err := s.paymentSvc.AddPayment(c.Request.Context(), strings.TrimSpace(c.Param("id")), paymentservice.AddPaymentRequest{
		Amount:      strings.TrimSpace(string(req.Amount)),
		Method:      strings.TrimSpace(req.Method),
		PaymentDate: paymentDate,
		Notes:       req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetRemovalOptions(c *gin.Context) {
	resp, err := s.paymentSvc.RemovalOptions(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type removePaymentRequest struct {
	Action     string          `json:"action"`
	Amount     decimal.Decimal `json:"amount"`
	CustomerID *snowflake.ID   `json:"customer_id"`
}

// RemovePayment applies delete, credit, refund or stripe_refund to a payment.
// The amount must match the stored payment so a stale screen cannot remove the wrong one.
func (s *Server) RemovePayment(c *gin.Context) {
	paymentID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || paymentID == 0 {
		AbortWithError(c, paymentdomain.ErrInvalidID)
		return
	}

	var req removePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	action, err := paymentdomain.ParseRemovalAction(req.Action)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.RemovePayment(c.Request.Context(), paymentdomain.RemovalRequest{
		PaymentID:  paymentID,
		Action:     action,
		Amount:     req.Amount,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusOK
	if !resp.Removed {
		status = http.StatusAccepted
	}
	c.JSON(status, gin.H{"data": resp})
}

func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err = s.webhookSvc.IngestWebhook(c.Request.Context(), provider, payload, c.Request.Header)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventAlreadyProcessed) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		logger.FromContext(c.Request.Context()).Warn("payment webhook rejected",
			zap.String("provider", provider),
			zap.Error(err),
		)
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
