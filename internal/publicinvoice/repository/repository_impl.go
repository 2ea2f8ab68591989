package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	publicinvoicedomain "github.com/smallbiznis/studiobooks/internal/publicinvoice/domain"
	"gorm.io/gorm"
)

const tokenColumns = `id, org_id, invoice_id, token_hash, created_at, expires_at, revoked_at`

type repo struct{}

func Provide() publicinvoicedomain.TokenRepository {
	return &repo{}
}

func (r *repo) FindActiveByInvoice(
	ctx context.Context,
	db *gorm.DB,
	orgID snowflake.ID,
	invoiceID snowflake.ID,
	now time.Time,
) (*publicinvoicedomain.PublicInvoiceToken, error) {
	if orgID == 0 || invoiceID == 0 {
		return nil, nil
	}

	var row publicinvoicedomain.PublicInvoiceToken
	err := db.WithContext(ctx).Raw(
		`SELECT `+tokenColumns+`
		 FROM invoice_public_tokens
		 WHERE org_id = ? AND invoice_id = ? AND revoked_at IS NULL
		   AND (expires_at IS NULL OR expires_at > ?)
		 ORDER BY created_at DESC
		 LIMIT 1`,
		orgID, invoiceID, now,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *repo) FindByHash(ctx context.Context, db *gorm.DB, tokenHash string) (*publicinvoicedomain.PublicInvoiceToken, error) {
	tokenHash = strings.TrimSpace(tokenHash)
	if tokenHash == "" {
		return nil, nil
	}

	var row publicinvoicedomain.PublicInvoiceToken
	err := db.WithContext(ctx).Raw(
		`SELECT `+tokenColumns+`
		 FROM invoice_public_tokens
		 WHERE token_hash = ?
		 LIMIT 1`,
		tokenHash,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, token *publicinvoicedomain.PublicInvoiceToken) error {
	if token == nil || token.ID == 0 || token.OrgID == 0 || token.InvoiceID == 0 || token.TokenHash == "" {
		return publicinvoicedomain.ErrInvariantViolation
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoice_public_tokens (
			id, org_id, invoice_id, token_hash, expires_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		token.ID,
		token.OrgID,
		token.InvoiceID,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	).Error
}

func (r *repo) Revoke(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoice_public_tokens
		 SET revoked_at = ?
		 WHERE org_id = ? AND invoice_id = ? AND revoked_at IS NULL`,
		at, orgID, invoiceID,
	).Error
}
