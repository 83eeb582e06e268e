package party

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	SaveBorrower(ctx context.Context, b *Borrower) error

	FindBorrowerByID(ctx context.Context, id uuid.UUID) (*Borrower, error)

	FindAllBorrowers(ctx context.Context) ([]*Borrower, error)

	SaveGuarantor(ctx context.Context, g *Guarantor) error

	FindGuarantorByID(ctx context.Context, id uuid.UUID) (*Guarantor, error)

	FindAllGuarantors(ctx context.Context) ([]*Guarantor, error)
}
