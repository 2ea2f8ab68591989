package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/studiobooks/internal/customer/domain"
	"github.com/smallbiznis/studiobooks/pkg/db/option"
	"github.com/smallbiznis/studiobooks/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO customers (id, org_id, name, email, billing_state, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		customer.ID,
		customer.OrgID,
		customer.Name,
		customer.Email,
		customer.BillingState,
		customer.Metadata,
		customer.CreatedAt,
		customer.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, name, email, billing_state, metadata, created_at, updated_at
		 FROM customers WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	res := db.WithContext(ctx).Exec(
		`UPDATE customers SET name = ?, email = ?, billing_state = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		customer.Name,
		customer.Email,
		customer.BillingState,
		customer.UpdatedAt,
		customer.OrgID,
		customer.ID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListCustomerFilter, page pagination.Pagination) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	stmt := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("org_id = ?", orgID)
	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	if filter.Email != "" {
		stmt = stmt.Where("email = ?", filter.Email)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", *filter.CreatedTo)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repo) InsertCredit(ctx context.Context, db *gorm.DB, credit *domain.CustomerCredit) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO customer_credits (id, org_id, customer_id, invoice_id, source_payment_id, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		credit.ID,
		credit.OrgID,
		credit.CustomerID,
		credit.InvoiceID,
		credit.SourcePaymentID,
		credit.Amount,
		credit.CreatedAt,
	).Error
}

func (r *repo) ListCredits(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID) ([]domain.CustomerCredit, error) {
	var credits []domain.CustomerCredit
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, customer_id, invoice_id, source_payment_id, amount, created_at
		 FROM customer_credits WHERE org_id = ? AND customer_id = ?
		 ORDER BY created_at ASC, id ASC`,
		orgID,
		customerID,
	).Scan(&credits).Error
	if err != nil {
		return nil, err
	}
	return credits, nil
}
