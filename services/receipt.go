package services

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/itsmessk/infoziant-courses/models"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

// GenerateReceipt writes a PDF payment receipt to the temp directory and
// returns its path. The file is attached to the enrollment confirmation
// email and can be cleaned up afterwards.
func GenerateReceipt(name string, course *models.Course, payment *models.Payment) (string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Payment Receipt")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(40, 10, fmt.Sprintf("Billed to: %s", name))
	pdf.Ln(10)
	pdf.Cell(40, 10, fmt.Sprintf("Course: %s", course.Title))
	pdf.Ln(10)
	pdf.Cell(40, 10, fmt.Sprintf("Instructor: %s", course.Instructor))
	pdf.Ln(10)
	pdf.Cell(40, 10, fmt.Sprintf("Amount: %s %d", payment.Currency, payment.Amount/100))
	pdf.Ln(10)
	pdf.Cell(40, 10, fmt.Sprintf("Order ID: %s", payment.RazorpayOrderID))
	pdf.Ln(10)
	pdf.Cell(40, 10, fmt.Sprintf("Payment ID: %s", payment.RazorpayPaymentID))
	pdf.Ln(10)
	pdf.Cell(40, 10, fmt.Sprintf("Date: %s", time.Now().Format("02 Jan 2006")))
	pdf.Ln(12)
	pdf.Cell(40, 10, "Thank you for enrolling with Virtual Training Academy.")

	fileName := filepath.Join(os.TempDir(), fmt.Sprintf("receipt_%s.pdf", uuid.NewString()))
	if err := pdf.OutputFileAndClose(fileName); err != nil {
		return "", fmt.Errorf("error generating receipt PDF: %w", err)
	}

	return fileName, nil
}
