package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Ledger is the ordered set of live payments on one invoice. Order is whatever the
// source of truth returned; the ledger never sorts. Methods never mutate the receiver.
type Ledger struct {
	payments []Payment
}

func NewLedger(payments []Payment) Ledger {
	live := lo.Filter(payments, func(p Payment, _ int) bool { return !p.IsRemoved() })
	return Ledger{payments: live}
}

func (l Ledger) TotalPaid() decimal.Decimal {
	return lo.Reduce(l.payments, func(acc decimal.Decimal, p Payment, _ int) decimal.Decimal {
		return acc.Add(p.Amount)
	}, decimal.Zero)
}

// Payments returns a copy of the entries.
func (l Ledger) Payments() []Payment {
	out := make([]Payment, len(l.payments))
	copy(out, l.payments)
	return out
}

func (l Ledger) Len() int { return len(l.payments) }

func (l Ledger) Append(p Payment) Ledger {
	next := make([]Payment, 0, len(l.payments)+1)
	next = append(next, l.payments...)
	next = append(next, p)
	return Ledger{payments: next}
}

func (l Ledger) Without(id snowflake.ID) Ledger {
	return Ledger{payments: lo.Reject(l.payments, func(p Payment, _ int) bool { return p.ID == id })}
}

func (l Ledger) HasOnlinePayment() bool {
	return lo.ContainsBy(l.payments, func(p Payment) bool { return p.IsOnline() })
}

// LatestOnline returns the online payment with the latest payment date. Ties go to
// the one later in ledger order.
func (l Ledger) LatestOnline() (Payment, bool) {
	var (
		latest Payment
		found  bool
	)
	for _, p := range l.payments {
		if !p.IsOnline() {
			continue
		}
		if !found || !p.PaymentDate.Before(latest.PaymentDate) {
			latest, found = p, true
		}
	}
	return latest, found
}
