package snapshot

import "context"

type Repository interface {
	// ExportLedger reads all five collections in one consistent view.
	ExportLedger(ctx context.Context) (*Ledger, error)

	// ReplaceLedger swaps the whole ledger for the given one in a single
	// transaction. Either every collection is replaced or none is.
	ReplaceLedger(ctx context.Context, l *Ledger) error
}
