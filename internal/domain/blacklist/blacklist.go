package blacklist

import (
	"time"

	"github.com/google/uuid"
)

type SubjectType string

const (
	SubjectBorrower  SubjectType = "borrower"
	SubjectGuarantor SubjectType = "guarantor"
)

// Entry is one block action in the append-only audit log. Entries are never
// deleted; "removal" flips IsActive and fills the removal fields while the
// original block fields stay intact. At most one entry per (type, personId)
// may be active at a time.
type Entry struct {
	ID          uuid.UUID
	Type        SubjectType
	PersonID    uuid.UUID
	Reason      string
	BlockedDate time.Time
	BlockedBy   string
	IsActive    bool

	RemovedDate   *time.Time
	RemovedBy     string
	RemovalReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t SubjectType) Valid() bool {
	return t == SubjectBorrower || t == SubjectGuarantor
}
