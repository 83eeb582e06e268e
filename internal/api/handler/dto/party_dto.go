package dto

import (
	"fmt"
	"strings"
	"time"

	"gemach-ledger/internal/domain/party"
)

type RegisterPersonRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

func (r *RegisterPersonRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	return nil
}

type PersonResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewBorrowerResponse(b *party.Borrower) PersonResponse {
	return PersonResponse{
		ID:        b.ID.String(),
		Name:      b.Name,
		Phone:     b.Phone,
		Email:     b.Email,
		Address:   b.Address,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func NewGuarantorResponse(g *party.Guarantor) PersonResponse {
	return PersonResponse{
		ID:        g.ID.String(),
		Name:      g.Name,
		Phone:     g.Phone,
		Email:     g.Email,
		Address:   g.Address,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}
