package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// BookingPDFData is what gets printed on a booking confirmation.
type BookingPDFData struct {
	BookingID      string
	EventTitle     string
	EventStart     time.Time
	EventEnd       time.Time
	Location       string
	TicketTypeName string
	Quantity       int
	TotalAmount    string
	AttendeeName   string
	AttendeeEmail  string
	QRCodePngBytes []byte
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// GenerateBookingPDF renders a single-page A4 ticket with the check-in QR on top.
func GenerateBookingPDF(data BookingPDFData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; translate UTF-8 input rather than stripping it.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("Booking %s", data.BookingID), true)
	pdf.AddPage()

	if len(data.QRCodePngBytes) > 0 {
		imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
		imgName := fmt.Sprintf("qr_%s", data.BookingID)
		pdf.RegisterImageOptionsReader(imgName, imgOpts, bytes.NewReader(data.QRCodePngBytes))

		qrX := (210.0 - 100.0) / 2
		pdf.ImageOptions(imgName, qrX, pdf.GetY(), 100, 100, false, imgOpts, 0, "")
		pdf.Ln(104)
	}

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.5)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(8)

	// Title on the left, schedule on the right.
	currentY := pdf.GetY()
	pdf.SetFont("Arial", "B", 20)
	pdf.SetXY(20, currentY)
	pdf.MultiCell(85, 9, tr(truncate(data.EventTitle, 60)), "", "L", false)
	titleBottom := pdf.GetY()

	pdf.SetXY(115, currentY)
	pdf.SetFont("Arial", "", 14)
	pdf.CellFormat(75, 7, "Event Time:", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 14)
	pdf.SetX(115)
	pdf.CellFormat(75, 6, data.EventStart.Format("January 2, 2006"), "", 1, "L", false, 0, "")
	pdf.SetX(115)
	timeStr := data.EventStart.Format("3:04PM")
	if !data.EventEnd.IsZero() {
		timeStr = fmt.Sprintf("%s - %s", timeStr, data.EventEnd.Format("3:04PM"))
	}
	pdf.CellFormat(75, 6, timeStr, "", 1, "L", false, 0, "")
	pdf.SetX(115)
	pdf.SetFont("Arial", "", 14)
	pdf.CellFormat(75, 7, "Location:", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 14)
	pdf.SetX(115)
	pdf.MultiCell(75, 6, tr(truncate(data.Location, 80)), "", "L", false)

	if pdf.GetY() < titleBottom {
		pdf.SetY(titleBottom)
	}
	pdf.Ln(6)

	rows := [][2]string{
		{"Guest:", data.AttendeeName},
		{"Email:", data.AttendeeEmail},
		{"Ticket type:", data.TicketTypeName},
		{"Quantity:", fmt.Sprintf("%d", data.Quantity)},
		{"Total paid:", data.TotalAmount},
	}
	for _, row := range rows {
		pdf.SetX(20)
		pdf.SetFont("Arial", "", 15)
		pdf.CellFormat(45, 10, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 17)
		pdf.CellFormat(0, 10, tr(truncate(row[1], 50)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "I", 14)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 10, fmt.Sprintf("Booking ID: %s", data.BookingID), "0", 1, "C", false, 0, "")
	pdf.Ln(3)
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 6, "Bring this ticket (PDF or screenshot) to the event.\nThe QR code is scanned once at the entrance.", "0", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
