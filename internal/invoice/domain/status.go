package domain

// Status is both the persisted snapshot taken at write time and the derived display value.
// Only display derivation produces StatusOverdue.
type Status string

const (
	StatusPending Status = "pending"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

func (s Status) Persistable() bool {
	return s == StatusPending || s == StatusPartial || s == StatusPaid
}
