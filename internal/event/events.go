package event

import (
	"time"

	"github.com/google/uuid"
)

type TransferCommittedEvent struct {
	LoanID         uuid.UUID   `json:"loanId"`
	BorrowerID     uuid.UUID   `json:"borrowerId"`
	CreatedDebtIDs []uuid.UUID `json:"createdDebtIds"`
	Actor          string      `json:"actor"`
	Timestamp      time.Time   `json:"timestamp"`
}

type SubjectBlockedEvent struct {
	EntryID   uuid.UUID `json:"entryId"`
	Type      string    `json:"type"`
	PersonID  uuid.UUID `json:"personId"`
	Reason    string    `json:"reason"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

type SubjectUnblockedEvent struct {
	EntryID   uuid.UUID `json:"entryId"`
	Type      string    `json:"type"`
	PersonID  uuid.UUID `json:"personId"`
	Reason    string    `json:"reason"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}
