package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gemach-ledger/internal/domain/blacklist"
)

type BlockRequest struct {
	Type     string `json:"type"`
	PersonID string `json:"personId"`
	Reason   string `json:"reason"`
}

func (r *BlockRequest) Validate() error {
	if !blacklist.SubjectType(r.Type).Valid() {
		return fmt.Errorf("type must be %q or %q", blacklist.SubjectBorrower, blacklist.SubjectGuarantor)
	}
	if _, err := uuid.Parse(r.PersonID); err != nil {
		return fmt.Errorf("invalid personId: %w", err)
	}
	if strings.TrimSpace(r.Reason) == "" {
		return fmt.Errorf("reason cannot be empty")
	}
	return nil
}

type UnblockRequest struct {
	Reason string `json:"reason"`
}

type BlacklistEntryResponse struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	PersonID      string     `json:"personId"`
	Reason        string     `json:"reason"`
	BlockedDate   time.Time  `json:"blockedDate"`
	BlockedBy     string     `json:"blockedBy,omitempty"`
	IsActive      bool       `json:"isActive"`
	RemovedDate   *time.Time `json:"removedDate,omitempty"`
	RemovedBy     string     `json:"removedBy,omitempty"`
	RemovalReason string     `json:"removalReason,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func NewBlacklistEntryResponse(e *blacklist.Entry) BlacklistEntryResponse {
	return BlacklistEntryResponse{
		ID:            e.ID.String(),
		Type:          string(e.Type),
		PersonID:      e.PersonID.String(),
		Reason:        e.Reason,
		BlockedDate:   e.BlockedDate,
		BlockedBy:     e.BlockedBy,
		IsActive:      e.IsActive,
		RemovedDate:   e.RemovedDate,
		RemovedBy:     e.RemovedBy,
		RemovalReason: e.RemovalReason,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
