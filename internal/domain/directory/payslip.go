package directory

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Payslip renders a one-page PDF for a salary record. Amounts are shown per
// month whatever the pay type.
func (s *Service) Payslip(salaryID string) ([]byte, error) {
	rec, err := s.GetSalary(salaryID)
	if err != nil {
		return nil, err
	}
	issued := s.now()
	monthly := AnnualAmount(rec) / 12

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payslip %s", rec.EmployeeName), false)
	pdf.SetCreator("AuraHR", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", rec.EmployeeName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Department: %s", rec.Department))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s", issued.Format("January 2006")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Effective since: %s", rec.EffectiveDate.Format("2006-01-02")))
	pdf.Ln(10)
	pdf.Cell(0, 8, fmt.Sprintf("Base (%s): %.2f %s", rec.Type, rec.Amount, rec.Currency))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Monthly gross: %.2f %s", monthly, rec.Currency))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render payslip: %w", err)
	}
	return buf.Bytes(), nil
}
