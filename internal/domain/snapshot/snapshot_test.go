package snapshot

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemach-ledger/internal/pkg/apperrors"
)

func validSnapshot() *Snapshot {
	borrowerID := uuid.New()
	guarantorID := uuid.New()
	loanID := uuid.New()
	now := time.Now()
	due := now.AddDate(0, 1, 0)

	return &Snapshot{
		ExportedAt: now,
		Borrowers:  []Person{{ID: borrowerID, Name: "Reuven Cohen"}},
		Guarantors: []Person{{ID: guarantorID, Name: "Shimon Levi"}},
		Loans: []Loan{{
			ID:           loanID,
			BorrowerID:   borrowerID,
			Amount:       decimal.NewFromInt(3000),
			LoanDate:     now.AddDate(0, -6, 0),
			ReturnDate:   now.AddDate(0, 0, -30),
			Guarantor1ID: &guarantorID,
			Payments: []Payment{{
				ID:     uuid.New(),
				Amount: decimal.NewFromInt(1000),
				Date:   now.AddDate(0, -3, 0),
			}},
			TransferredToGuarantors: true,
		}},
		GuarantorDebts: []GuarantorDebt{{
			ID:                 uuid.New(),
			GuarantorID:        guarantorID,
			OriginalBorrowerID: borrowerID,
			OriginalLoanID:     loanID,
			Amount:             decimal.NewFromInt(2000),
			PaymentType:        "single",
			DueDate:            &due,
			TransferDate:       now,
			Status:             "active",
		}},
		BlacklistEntries: []BlacklistEntry{{
			ID:          uuid.New(),
			Type:        "borrower",
			PersonID:    borrowerID,
			Reason:      "loan transferred to guarantors",
			BlockedDate: now,
			BlockedBy:   "system",
			IsActive:    true,
		}},
	}
}

func TestSnapshotValidate(t *testing.T) {
	t.Run("accepts a consistent snapshot", func(t *testing.T) {
		assert.NoError(t, validSnapshot().Validate())
	})

	t.Run("rejects duplicate borrower ids", func(t *testing.T) {
		s := validSnapshot()
		s.Borrowers = append(s.Borrowers, s.Borrowers[0])
		assert.ErrorIs(t, s.Validate(), apperrors.ErrValidation)
	})

	t.Run("rejects duplicate loan ids", func(t *testing.T) {
		s := validSnapshot()
		s.Loans = append(s.Loans, s.Loans[0])
		assert.ErrorIs(t, s.Validate(), apperrors.ErrValidation)
	})

	t.Run("rejects a loan with an unknown borrower", func(t *testing.T) {
		s := validSnapshot()
		s.Loans[0].BorrowerID = uuid.New()
		assert.ErrorIs(t, s.Validate(), apperrors.ErrValidation)
	})

	t.Run("rejects a loan with an unknown guarantor", func(t *testing.T) {
		s := validSnapshot()
		unknown := uuid.New()
		s.Loans[0].Guarantor2ID = &unknown
		assert.ErrorIs(t, s.Validate(), apperrors.ErrValidation)
	})

	t.Run("rejects a debt pointing at an unknown loan", func(t *testing.T) {
		s := validSnapshot()
		s.GuarantorDebts[0].OriginalLoanID = uuid.New()
		assert.ErrorIs(t, s.Validate(), apperrors.ErrValidation)
	})

	t.Run("rejects an unknown blacklist subject type", func(t *testing.T) {
		s := validSnapshot()
		s.BlacklistEntries[0].Type = "vendor"
		assert.ErrorIs(t, s.Validate(), apperrors.ErrValidation)
	})

	t.Run("rejects two active entries for one subject", func(t *testing.T) {
		s := validSnapshot()
		dup := s.BlacklistEntries[0]
		dup.ID = uuid.New()
		s.BlacklistEntries = append(s.BlacklistEntries, dup)
		assert.ErrorIs(t, s.Validate(), apperrors.ErrValidation)
	})

	t.Run("allows an inactive entry alongside an active one", func(t *testing.T) {
		s := validSnapshot()
		removed := time.Now()
		inactive := s.BlacklistEntries[0]
		inactive.ID = uuid.New()
		inactive.IsActive = false
		inactive.RemovedDate = &removed
		s.BlacklistEntries = append(s.BlacklistEntries, inactive)
		assert.NoError(t, s.Validate())
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := validSnapshot()

	ledger := s.ToLedger()
	require.Len(t, ledger.Loans, 1)
	require.Len(t, ledger.Debts, 1)

	back := FromLedger(ledger, s.ExportedAt)

	assert.Equal(t, s.Borrowers, back.Borrowers)
	assert.Equal(t, s.Guarantors, back.Guarantors)
	assert.Equal(t, s.Loans, back.Loans)
	assert.Equal(t, s.GuarantorDebts, back.GuarantorDebts)
	assert.Equal(t, s.BlacklistEntries, back.BlacklistEntries)
}

func TestBuildWorkbook(t *testing.T) {
	data, err := BuildWorkbook(validSnapshot())

	assert.NoError(t, err)
	assert.NotEmpty(t, data)
	// xlsx files are zip archives.
	require.True(t, len(data) > 4)
	assert.Equal(t, []byte{'P', 'K'}, data[:2])
}
