package domain

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type RemovalAction string

const (
	// ActionDelete drops the payment record and nothing else.
	ActionDelete RemovalAction = "delete"
	// ActionCredit drops the payment and issues the same amount as client credit.
	ActionCredit RemovalAction = "credit"
	// ActionRefund records money returned outside the system. It never calls a gateway.
	ActionRefund RemovalAction = "refund"
	// ActionStripeRefund asks the card gateway to refund the original charge.
	ActionStripeRefund RemovalAction = "stripe_refund"
)

var RemovalActions = []RemovalAction{ActionDelete, ActionCredit, ActionRefund, ActionStripeRefund}

func ParseRemovalAction(value string) (RemovalAction, error) {
	action := RemovalAction(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range RemovalActions {
		if action == known {
			return action, nil
		}
	}
	return "", ErrInvalidAction
}

const (
	WarningGatewayRefundNotIssued = "gateway_refund_not_issued"
	WarningRefundPending          = "gateway_refund_pending"

	ReasonNoCustomer      = "invoice_has_no_client"
	ReasonNoGatewayCharge = "payment_has_no_gateway_charge"
	ReasonNoCardGateway   = "card_gateway_not_configured"
)

type RemovalRequest struct {
	PaymentID  snowflake.ID
	Action     RemovalAction
	Amount     decimal.Decimal
	CustomerID *snowflake.ID
}

type RemovalOption struct {
	Action    RemovalAction `json:"action"`
	Available bool          `json:"available"`
	Reason    string        `json:"reason,omitempty"`
	Warning   string        `json:"warning,omitempty"`
}

// RemovalOptions is what an operator sees before confirming a removal.
type RemovalOptions struct {
	PaymentID snowflake.ID    `json:"payment_id"`
	InvoiceID snowflake.ID    `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Options   []RemovalOption `json:"options"`
}

func (o RemovalOptions) Option(action RemovalAction) (RemovalOption, bool) {
	for _, opt := range o.Options {
		if opt.Action == action {
			return opt, true
		}
	}
	return RemovalOption{}, false
}

const (
	ReconcileSourceSnapshot = "snapshot"
	ReconcileSourceLocal    = "local"
)
