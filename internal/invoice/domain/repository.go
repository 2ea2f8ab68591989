package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/studiobooks/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	CustomerID *snowflake.ID
	DueBefore  *time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter, page pagination.Pagination) ([]*Invoice, error)
	CountByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error)
	UpdatePersistedStatus(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, status Status, at time.Time) error
}
