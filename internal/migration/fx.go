package migration

import (
	"github.com/smallbiznis/studiobooks/internal/config"
	customerdomain "github.com/smallbiznis/studiobooks/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/studiobooks/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	productdomain "github.com/smallbiznis/studiobooks/internal/product/domain"
	publicinvoicedomain "github.com/smallbiznis/studiobooks/internal/publicinvoice/domain"
	"github.com/smallbiznis/studiobooks/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if cfg.DBType != db.TypePostgres {
			log.Info("auto-migrating schema", zap.String("dialect", cfg.DBType))
			return AutoMigrate(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)

// Models lists every persisted type, in dependency order.
func Models() []any {
	return []any{
		&customerdomain.Customer{},
		&productdomain.Product{},
		&invoicedomain.Invoice{},
		&paymentdomain.Payment{},
		&paymentdomain.EventRecord{},
		&customerdomain.CustomerCredit{},
		&publicinvoicedomain.PublicInvoiceToken{},
	}
}

// AutoMigrate builds the schema from the gorm models for the sqlite and mysql
// dialects, which the embedded postgres migrations do not target.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(Models()...)
}
