package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/studiobooks/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Customer, error)
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListCustomerFilter, page pagination.Pagination) ([]*Customer, error)

	InsertCredit(ctx context.Context, db *gorm.DB, credit *CustomerCredit) error
	ListCredits(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID) ([]CustomerCredit, error)
}
