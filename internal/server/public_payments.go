package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	publicinvoicedomain "github.com/smallbiznis/studiobooks/internal/publicinvoice/domain"
	"github.com/smallbiznis/studiobooks/internal/ratelimit"
)

const (
	publicOrgIDKey = "public_org_id"
	publicTokenKey = "public_token"
)

// RegisterPublicRoutes mounts the token-addressed payment page API. Reads draw
// from the invoice bucket, anything that reaches a gateway from the payment bucket.
func (s *Server) RegisterPublicRoutes() {
	public := s.engine.Group("/public/orgs/:org_id/invoices/:invoice_token")
	public.Use(s.publicInvoiceParams())

	reads := s.publicRateLimit(ratelimit.ScopeInvoice)
	payments := s.publicRateLimit(ratelimit.ScopePayment)

	public.GET("", reads, s.GetPublicInvoice)
	public.GET("/receipt", reads, s.GetPublicReceipt)
	public.POST("/payment-intents", payments, s.CreatePublicPaymentIntent)
	public.POST("/payment-intents/:intent_id/confirm", payments, s.ConfirmPublicPaymentIntent)
	public.POST("/wallet-orders", payments, s.CreatePublicWalletOrder)
	public.POST("/wallet-orders/:order_id/capture", payments, s.CapturePublicWalletOrder)
}

type publicAmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) GetPublicInvoice(c *gin.Context) {
	orgID, token := publicInvoiceKey(c)

	resp, err := s.publicInvoiceSvc.FetchPublicInvoice(c.Request.Context(), orgID, token)
	if err != nil {
		s.handlePublicInvoiceError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreatePublicPaymentIntent(c *gin.Context) {
	orgID, token := publicInvoiceKey(c)

	var req publicAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("amount", "invalid_amount", "invalid amount"))
		return
	}

	resp, err := s.publicInvoiceSvc.CreatePaymentIntent(c.Request.Context(), orgID, token, req.Amount)
	if err != nil {
		s.handlePublicInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ConfirmPublicPaymentIntent(c *gin.Context) {
	orgID, token := publicInvoiceKey(c)
	intentID := strings.TrimSpace(c.Param("intent_id"))
	if intentID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.publicInvoiceSvc.ConfirmPaymentIntent(c.Request.Context(), orgID, token, intentID)
	if err != nil {
		s.handlePublicInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreatePublicWalletOrder(c *gin.Context) {
	orgID, token := publicInvoiceKey(c)

	var req publicAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("amount", "invalid_amount", "invalid amount"))
		return
	}

	resp, err := s.publicInvoiceSvc.CreateWalletOrder(c.Request.Context(), orgID, token, req.Amount)
	if err != nil {
		s.handlePublicInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CapturePublicWalletOrder(c *gin.Context) {
	orgID, token := publicInvoiceKey(c)
	orderID := strings.TrimSpace(c.Param("order_id"))
	if orderID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.publicInvoiceSvc.CaptureWalletOrder(c.Request.Context(), orgID, token, orderID)
	if err != nil {
		s.handlePublicInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetPublicReceipt(c *gin.Context) {
	orgID, token := publicInvoiceKey(c)

	receipt, err := s.publicInvoiceSvc.FetchReceipt(c.Request.Context(), orgID, token)
	if err != nil {
		s.handlePublicInvoiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+receipt.Filename+`"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", receipt.Content)
}

// publicInvoiceParams parses the org and token path segments once. A malformed
// pair answers exactly like an unknown token.
func (s *Server) publicInvoiceParams() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgIDRaw := strings.TrimSpace(c.Param("org_id"))
		token := strings.TrimSpace(c.Param("invoice_token"))
		if orgIDRaw == "" || token == "" {
			s.respondPublicInvoiceUnavailable(c)
			return
		}
		orgID, err := snowflake.ParseString(orgIDRaw)
		if err != nil || orgID <= 0 {
			s.respondPublicInvoiceUnavailable(c)
			return
		}
		c.Set(publicOrgIDKey, orgID)
		c.Set(publicTokenKey, token)
		c.Next()
	}
}

func publicInvoiceKey(c *gin.Context) (snowflake.ID, string) {
	orgID, _ := c.Get(publicOrgIDKey)
	token, _ := c.Get(publicTokenKey)
	id, _ := orgID.(snowflake.ID)
	raw, _ := token.(string)
	return id, raw
}

func publicInvoiceRateKey(orgID snowflake.ID, token string, ip string) string {
	if orgID == 0 || token == "" {
		return ""
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = "unknown"
	}
	return orgID.String() + ":" + publicinvoicedomain.HashToken(token) + ":" + ip
}

func (s *Server) handlePublicInvoiceError(c *gin.Context, err error) {
	if errors.Is(err, publicinvoicedomain.ErrInvoiceUnavailable) {
		s.respondPublicInvoiceUnavailable(c)
		return
	}
	AbortWithError(c, err)
}

func (s *Server) respondPublicInvoiceUnavailable(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, publicInvoiceUnavailablePayload())
}

func publicInvoiceUnavailablePayload() publicInvoiceErrorResponse {
	return publicInvoiceErrorResponse{
		Code:    "INVOICE_NOT_AVAILABLE",
		Message: "This invoice link is no longer available.",
	}
}

type publicInvoiceErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
