package domain

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"
)

var (
	ErrInvalidOrganization   = errors.New("invalid_organization")
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidAmount         = errors.New("invalid_amount")
	ErrInvalidMethod         = errors.New("invalid_method")
	ErrInvalidPaymentDate    = errors.New("invalid_payment_date")
	ErrNotFound              = errors.New("payment_not_found")
	ErrAlreadyRemoved        = errors.New("payment_already_removed")
	ErrInvalidAction         = errors.New("invalid_removal_action")
	ErrActionUnavailable     = errors.New("removal_action_unavailable")
	ErrAmountMismatch        = errors.New("removal_amount_mismatch")
	ErrCustomerMismatch      = errors.New("removal_customer_mismatch")
	ErrInvoiceMismatch       = errors.New("gateway_invoice_mismatch")
	ErrPaymentNotSucceeded   = errors.New("gateway_payment_not_succeeded")
	ErrGatewayUnavailable    = errors.New("gateway_unavailable")
	ErrInvalidProvider       = errors.New("invalid_provider")
	ErrProviderNotFound      = errors.New("provider_not_found")
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrInvalidEvent          = errors.New("invalid_event")
	ErrInvalidSignature      = errors.New("invalid_signature")
	ErrEventIgnored          = errors.New("event_ignored")
	ErrEventAlreadyProcessed = errors.New("event_already_processed")
)

// MutationError wraps a failed write against the source of truth so callers can
// decide whether to retry instead of the failure being dropped.
type MutationError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *MutationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewMutationError classifies err. Domain sentinels pass through untouched.
func NewMutationError(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *MutationError
	if errors.As(err, &existing) {
		return err
	}
	var gatewayErr *GatewayError
	if errors.As(err, &gatewayErr) {
		return err
	}
	return &MutationError{Op: op, Retryable: isTransient(err), Err: err}
}

func isTransient(err error) bool {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.Is(err, driver.ErrBadConn):
		return true
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNREFUSED):
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// GatewayError is a refusal or failure reported by a card or wallet gateway.
// Message is safe to show to the payer.
type GatewayError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *GatewayError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return fmt.Sprintf("%s gateway error (%s): %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s gateway error: %s", e.Provider, e.Message)
}

func (e *GatewayError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
