package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/studiobooks/internal/invoice/domain"
	"github.com/smallbiznis/studiobooks/internal/orgcontext"
	"github.com/smallbiznis/studiobooks/pkg/db/pagination"
)

type invoiceRequest struct {
	CustomerID *snowflake.ID                  `json:"customer_id"`
	Items      []invoicedomain.StoredLineItem `json:"items"`
	Discount   invoicedomain.DiscountRule     `json:"discount"`
	DueDate    string                         `json:"due_date"`
	Notes      *string                        `json:"notes"`
}

func (r invoiceRequest) save() (invoicedomain.SaveInvoiceRequest, error) {
	dueDate, err := parseOptionalTime(r.DueDate, false)
	if err != nil {
		return invoicedomain.SaveInvoiceRequest{}, newValidationError("due_date", "invalid_due_date", "invalid due_date")
	}
	return invoicedomain.SaveInvoiceRequest{
		CustomerID: r.CustomerID,
		Items:      r.Items,
		Discount:   r.Discount,
		DueDate:    dueDate,
		Notes:      r.Notes,
	}, nil
}

// PreviewInvoice prices the editor's draft with the live tax rate without saving it.
func (s *Server) PreviewInvoice(c *gin.Context) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Preview(c.Request.Context(), invoicedomain.PreviewRequest{
		CustomerID: req.CustomerID,
		Items:      req.Items,
		Discount:   req.Discount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	save, err := req.save()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), save)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	save, err := req.save()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), save)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CustomerID string `form:"customer_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	customerID, err := parseOptionalSnowflakeID(query.CustomerID)
	if err != nil {
		AbortWithError(c, newValidationError("customer_id", "invalid_customer_id", "invalid customer_id"))
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		PageToken:  query.PageToken,
		PageSize:   int32(query.PageSize),
		CustomerID: customerID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetInvoiceSnapshot returns the authoritative snapshot: lines, totals, payments and
// the display status derived at request time.
func (s *Server) GetInvoiceSnapshot(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}
	orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context())
	if !ok || orgID == 0 {
		AbortWithError(c, ErrOrgRequired)
		return
	}

	snapshot, err := s.invoiceSvc.GetSnapshot(c.Request.Context(), orgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}

type publicLinkRequest struct {
	Rotate bool `json:"rotate"`
}

// EnsurePublicLink returns the invoice's active public link, creating it when
// missing. The raw token is only returned on creation or rotation.
func (s *Server) EnsurePublicLink(c *gin.Context) {
	var req publicLinkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	link, err := s.publicLinkSvc.EnsureForInvoice(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Rotate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusOK
	if link.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"data": link})
}
