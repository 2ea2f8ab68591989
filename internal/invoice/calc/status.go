package calc

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/studiobooks/internal/invoice/domain"
)

// PersistedStatus is the status written alongside the invoice at save time.
func PersistedStatus(total, paid decimal.Decimal) domain.Status {
	switch {
	case paid.GreaterThanOrEqual(total):
		return domain.StatusPaid
	case paid.IsPositive():
		return domain.StatusPartial
	default:
		return domain.StatusPending
	}
}

// DisplayStatus derives the status shown to users. A settled balance always wins;
// then an elapsed due date; otherwise the fallback status is shown.
func DisplayStatus(fallback domain.Status, balanceDue decimal.Decimal, dueDate *time.Time, now time.Time) domain.Status {
	if !balanceDue.IsPositive() {
		return domain.StatusPaid
	}
	if dueDate != nil && dueDate.Before(now) {
		return domain.StatusOverdue
	}
	if fallback == "" {
		return domain.StatusPending
	}
	return fallback
}
