package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/studiobooks/internal/invoice/domain"
	"github.com/smallbiznis/studiobooks/pkg/db/option"
	"github.com/smallbiznis/studiobooks/pkg/db/pagination"
	"gorm.io/gorm"
)

const invoiceColumns = `id, org_id, customer_id, invoice_number, items, discount_kind, discount_value,
	tax_rate, tax_source, due_date, persisted_status, currency, notes, issued_at, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoices (`+invoiceColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID,
		invoice.OrgID,
		invoice.CustomerID,
		invoice.InvoiceNumber,
		invoice.Items,
		invoice.Discount.Kind,
		invoice.Discount.Value,
		invoice.TaxRate,
		invoice.TaxSource,
		invoice.DueDate,
		invoice.PersistedStatus,
		invoice.Currency,
		invoice.Notes,
		invoice.IssuedAt,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET customer_id = ?, items = ?, discount_kind = ?, discount_value = ?, tax_rate = ?, tax_source = ?,
			due_date = ?, persisted_status = ?, notes = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		invoice.CustomerID,
		invoice.Items,
		invoice.Discount.Kind,
		invoice.Discount.Value,
		invoice.TaxRate,
		invoice.TaxSource,
		invoice.DueDate,
		invoice.PersistedStatus,
		invoice.Notes,
		invoice.UpdatedAt,
		invoice.OrgID,
		invoice.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT `+invoiceColumns+`
		 FROM invoices WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	stmt := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("org_id = ?", orgID)
	if filter.CustomerID != nil {
		stmt = stmt.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.DueBefore != nil {
		stmt = stmt.Where("due_date < ?", *filter.DueBefore)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) CountByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM invoices WHERE org_id = ?`,
		orgID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) UpdatePersistedStatus(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, status domain.Status, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices SET persisted_status = ?, updated_at = ? WHERE org_id = ? AND id = ?`,
		status,
		at,
		orgID,
		id,
	).Error
}
