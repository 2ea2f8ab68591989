package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// PublicInvoiceToken is the stored form of a public link. Only the SHA-256 hash of the
// raw token is persisted. OrgID is checked on lookup but is not a security boundary.
type PublicInvoiceToken struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrgID     snowflake.ID `gorm:"not null;index"`
	InvoiceID snowflake.ID `gorm:"not null;index"`
	TokenHash string       `gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time    `gorm:"not null"`
	ExpiresAt *time.Time
	RevokedAt *time.Time
}

func (PublicInvoiceToken) TableName() string { return "invoice_public_tokens" }

// Active reports whether the token may still open the invoice at now.
func (t PublicInvoiceToken) Active(now time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	return t.ExpiresAt == nil || t.ExpiresAt.After(now)
}

// TokenRepository persists public tokens. Implementations must keep at most one
// active token per invoice.
type TokenRepository interface {
	FindActiveByInvoice(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID, now time.Time) (*PublicInvoiceToken, error)
	FindByHash(ctx context.Context, db *gorm.DB, tokenHash string) (*PublicInvoiceToken, error)
	Insert(ctx context.Context, db *gorm.DB, token *PublicInvoiceToken) error
	Revoke(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID, at time.Time) error
}
