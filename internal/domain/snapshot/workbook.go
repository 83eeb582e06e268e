package snapshot

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// BuildWorkbook renders a snapshot as an xlsx workbook, one sheet per
// collection. Read-only surface; the workbook is never imported back.
func BuildWorkbook(s *Snapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	_ = f.SetDocProps(&excelize.DocProperties{
		Creator: "gemach-ledger",
	})

	writeSheet := func(name string, headers []string, rows [][]interface{}) error {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			if err := f.SetCellValue(name, cell, h); err != nil {
				return err
			}
		}
		for rowIdx, row := range rows {
			for colIdx, value := range row {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
				if err := f.SetCellValue(name, cell, value); err != nil {
					return err
				}
			}
		}
		return nil
	}

	personRows := func(people []Person) [][]interface{} {
		rows := make([][]interface{}, 0, len(people))
		for _, p := range people {
			rows = append(rows, []interface{}{p.ID.String(), p.Name, p.Phone, p.Email, p.Address})
		}
		return rows
	}

	if err := writeSheet("Borrowers", []string{"ID", "Name", "Phone", "Email", "Address"}, personRows(s.Borrowers)); err != nil {
		return nil, err
	}
	if err := writeSheet("Guarantors", []string{"ID", "Name", "Phone", "Email", "Address"}, personRows(s.Guarantors)); err != nil {
		return nil, err
	}

	loanRows := make([][]interface{}, 0, len(s.Loans))
	for _, l := range s.Loans {
		loanRows = append(loanRows, []interface{}{
			l.ID.String(),
			l.BorrowerID.String(),
			l.Amount.StringFixed(2),
			l.LoanDate.Format(time.DateOnly),
			l.ReturnDate.Format(time.DateOnly),
			len(l.Payments),
			l.TransferredToGuarantors,
		})
	}
	if err := writeSheet("Loans", []string{"ID", "BorrowerID", "Amount", "LoanDate", "ReturnDate", "Payments", "Transferred"}, loanRows); err != nil {
		return nil, err
	}

	debtRows := make([][]interface{}, 0, len(s.GuarantorDebts))
	for _, d := range s.GuarantorDebts {
		debtRows = append(debtRows, []interface{}{
			d.ID.String(),
			d.GuarantorID.String(),
			d.OriginalLoanID.String(),
			d.Amount.StringFixed(2),
			d.PaymentType,
			d.TransferDate.Format(time.DateOnly),
			d.Status,
		})
	}
	if err := writeSheet("GuarantorDebts", []string{"ID", "GuarantorID", "OriginalLoanID", "Amount", "PaymentType", "TransferDate", "Status"}, debtRows); err != nil {
		return nil, err
	}

	blRows := make([][]interface{}, 0, len(s.BlacklistEntries))
	for _, e := range s.BlacklistEntries {
		blRows = append(blRows, []interface{}{
			e.ID.String(),
			e.Type,
			e.PersonID.String(),
			e.Reason,
			e.BlockedDate.Format(time.DateOnly),
			e.IsActive,
		})
	}
	if err := writeSheet("Blacklist", []string{"ID", "Type", "PersonID", "Reason", "BlockedDate", "Active"}, blRows); err != nil {
		return nil, err
	}

	_ = f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
