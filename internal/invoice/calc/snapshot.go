package calc

import (
	"time"

	"github.com/smallbiznis/studiobooks/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
)

// BuildSnapshot prices a saved invoice at its frozen rate and folds in the ledger.
// Line items that no longer decode are skipped and reported as unresolved lines.
// The display status falls back to the status derived from these totals; the stored
// persisted status is reported as is and may lag behind the ledger.
func BuildSnapshot(invoice domain.Invoice, prices domain.PriceList, ledger paymentdomain.Ledger, now time.Time) domain.Snapshot {
	pricer := NewPricer(prices, Rates{Frozen: invoice.TaxRate})

	lines := make([]domain.ItemPricing, 0, len(invoice.Items))
	for _, stored := range invoice.Items {
		item, err := stored.LineItem()
		if err != nil {
			lines = append(lines, domain.ItemPricing{
				Kind:        stored.Kind,
				Description: stored.Description,
				Unresolved:  true,
			})
			continue
		}
		lines = append(lines, pricer.Price(item, ModeHistorical))
	}

	totals := Aggregate(lines, invoice.Discount, ledger)
	derived := PersistedStatus(totals.Total, totals.PaidAmount)

	return domain.Snapshot{
		Invoice:          invoice,
		Lines:            lines,
		Totals:           totals,
		Payments:         ledger.Payments(),
		PersistedStatus:  invoice.PersistedStatus,
		DisplayStatus:    DisplayStatus(derived, totals.BalanceDue, invoice.DueDate, now),
		ReceiptAvailable: ledger.HasOnlinePayment(),
		ComputedAt:       now,
	}
}

// Reprice rebuilds a snapshot from one already computed, swapping in a new ledger.
// Product prices are taken from the earlier lines so the figures stay identical
// without another catalog read.
func Reprice(previous domain.Snapshot, ledger paymentdomain.Ledger, now time.Time) domain.Snapshot {
	prices := domain.PriceList{}
	for _, line := range previous.Lines {
		if line.Kind != domain.LineKindProduct || line.ProductID == nil || line.Unresolved {
			continue
		}
		prices[*line.ProductID] = line.UnitPrice
	}
	return BuildSnapshot(previous.Invoice, prices, ledger, now)
}
