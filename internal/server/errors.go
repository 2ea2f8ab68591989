package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/studiobooks/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/studiobooks/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	productdomain "github.com/smallbiznis/studiobooks/internal/product/domain"
	publicinvoicedomain "github.com/smallbiznis/studiobooks/internal/publicinvoice/domain"
	taxdomain "github.com/smallbiznis/studiobooks/internal/tax/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type      string            `json:"type"`
	Code      string            `json:"code,omitempty"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable,omitempty"`
	Errors    []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrOrgRequired        = errors.New("org_required")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	// Gateway refusals carry a message meant for the payer.
	var gatewayErr *paymentdomain.GatewayError
	if errors.As(err, &gatewayErr) {
		message := strings.TrimSpace(gatewayErr.Message)
		if message == "" {
			message = "payment was declined"
		}
		return http.StatusPaymentRequired, errorPayload{
			Type:    "gateway_error",
			Code:    gatewayErr.Code,
			Message: message,
		}
	}

	var mutationErr *paymentdomain.MutationError
	if errors.As(err, &mutationErr) {
		if mutationErr.Retryable {
			return http.StatusServiceUnavailable, errorPayload{
				Type:      "service_unavailable",
				Message:   "the change was not saved, try again",
				Retryable: true,
			}
		}
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "the change was not saved",
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrOrgRequired):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Code:    ErrOrgRequired.Error(),
			Message: "organization is required",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    conflictCode(err),
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Code:    notFoundCode(err),
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:      "rate_limited",
			Message:   "too many requests",
			Retryable: true,
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, paymentdomain.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Code:    serviceUnavailableCode(err),
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog gives the request log a stable type and code without the raw message.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Code
	if code == "" && len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	if code == "" {
		code = http.StatusText(status)
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isCustomerValidationError(err),
		isProductValidationError(err),
		isInvoiceValidationError(err),
		isPaymentValidationError(err),
		isPublicInvoiceValidationError(err):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, publicinvoicedomain.ErrInvoiceAlreadyPaid),
		errors.Is(err, publicinvoicedomain.ErrConfirmInProgress),
		errors.Is(err, paymentdomain.ErrAlreadyRemoved),
		errors.Is(err, paymentdomain.ErrActionUnavailable),
		errors.Is(err, paymentdomain.ErrInvoiceMismatch),
		errors.Is(err, paymentdomain.ErrPaymentNotSucceeded):
		return true
	default:
		return false
	}
}

func conflictCode(err error) string {
	for _, sentinel := range []error{
		publicinvoicedomain.ErrInvoiceAlreadyPaid,
		publicinvoicedomain.ErrConfirmInProgress,
		paymentdomain.ErrAlreadyRemoved,
		paymentdomain.ErrActionUnavailable,
		paymentdomain.ErrInvoiceMismatch,
		paymentdomain.ErrPaymentNotSucceeded,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ErrConflict.Error()
}

func notFoundCode(err error) string {
	if errors.Is(err, publicinvoicedomain.ErrReceiptUnavailable) {
		return publicinvoicedomain.ErrReceiptUnavailable.Error()
	}
	return ""
}

func serviceUnavailableCode(err error) string {
	if errors.Is(err, paymentdomain.ErrGatewayUnavailable) {
		return paymentdomain.ErrGatewayUnavailable.Error()
	}
	return ""
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrProviderNotFound),
		errors.Is(err, taxdomain.ErrCustomerNotFound),
		errors.Is(err, publicinvoicedomain.ErrReceiptUnavailable),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if strings.HasPrefix(code, "amount_") || strings.HasPrefix(code, "removal_amount") {
		return "amount"
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

func isCustomerValidationError(err error) bool {
	switch err {
	case customerdomain.ErrInvalidOrganization,
		customerdomain.ErrInvalidName,
		customerdomain.ErrInvalidEmail,
		customerdomain.ErrInvalidBillingState,
		customerdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isProductValidationError(err error) bool {
	switch err {
	case productdomain.ErrInvalidOrganization,
		productdomain.ErrInvalidName,
		productdomain.ErrInvalidUnitPrice,
		productdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isInvoiceValidationError(err error) bool {
	switch err {
	case invoicedomain.ErrInvalidOrganization,
		invoicedomain.ErrInvalidID,
		invoicedomain.ErrInvalidLineItem,
		invoicedomain.ErrInvalidLineKind,
		invoicedomain.ErrEmptyInvoice,
		invoicedomain.ErrInvalidCustomer:
		return true
	default:
		return false
	}
}

func isPaymentValidationError(err error) bool {
	switch {
	case errors.Is(err, paymentdomain.ErrInvalidOrganization),
		errors.Is(err, paymentdomain.ErrInvalidID),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrInvalidMethod),
		errors.Is(err, paymentdomain.ErrInvalidPaymentDate),
		errors.Is(err, paymentdomain.ErrInvalidAction),
		errors.Is(err, paymentdomain.ErrAmountMismatch),
		errors.Is(err, paymentdomain.ErrCustomerMismatch),
		errors.Is(err, paymentdomain.ErrInvalidProvider),
		errors.Is(err, paymentdomain.ErrInvalidPayload),
		errors.Is(err, paymentdomain.ErrInvalidEvent),
		errors.Is(err, paymentdomain.ErrInvalidSignature):
		return true
	default:
		return false
	}
}

func isPublicInvoiceValidationError(err error) bool {
	switch {
	case errors.Is(err, publicinvoicedomain.ErrAmountOutOfBounds),
		errors.Is(err, publicinvoicedomain.ErrInvalidToken):
		return true
	default:
		return false
	}
}
