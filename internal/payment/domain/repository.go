package domain

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Payment, error)
	FindByGatewayCharge(ctx context.Context, db *gorm.DB, chargeID string) (*Payment, error)
	FindByGatewayOrder(ctx context.Context, db *gorm.DB, orderID string) (*Payment, error)
	// ListByInvoice returns live payments in (created_at, id) order.
	ListByInvoice(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) ([]Payment, error)
	ListByInvoices(ctx context.Context, db *gorm.DB, orgID snowflake.ID, invoiceIDs []snowflake.ID) ([]Payment, error)
	// MarkRemoved reports false when the payment was already removed.
	MarkRemoved(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, action RemovalAction, refundID *string, at time.Time) (bool, error)

	FindEvent(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*EventRecord, error)
	InsertEvent(ctx context.Context, db *gorm.DB, event *EventRecord) (bool, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error
}

// PaymentAdapter verifies and parses inbound gateway webhooks.
type PaymentAdapter interface {
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*PaymentEvent, error)
}

// WebhookService ingests gateway callbacks.
type WebhookService interface {
	IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error
}
