package party

import (
	"time"

	"github.com/google/uuid"
)

// Borrowers and guarantors are never deleted from the ledger. When one
// defaults they are blacklisted, and their record stays referenced by loans
// and guarantor debts indefinitely.

type Borrower struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Email     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Guarantor struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Email     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
