package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Product, error)
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	FindAll(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]Product, error)
}
