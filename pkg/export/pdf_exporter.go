package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets and letters into PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			value := row[header]
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Letter describes a formal single-page letter document.
type Letter struct {
	Heading    string
	Date       string
	Recipient  []string
	Salutation string
	Paragraphs []string
	Closing    string
	SignName   string
	SignTitle  string
}

// RenderLetter creates a formal letter PDF (endorsement letters and the like).
func (e *PDFExporter) RenderLetter(letter Letter) ([]byte, error) {
	if len(letter.Paragraphs) == 0 {
		return nil, fmt.Errorf("letter requires at least one paragraph")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(25, 25, 25)
	pdf.AddPage()

	if letter.Heading != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.MultiCell(0, 7, letter.Heading, "", "C", false)
		pdf.Ln(8)
	}

	pdf.SetFont("Arial", "", 11)
	if letter.Date != "" {
		pdf.MultiCell(0, 6, letter.Date, "", "R", false)
		pdf.Ln(4)
	}
	for _, line := range letter.Recipient {
		pdf.MultiCell(0, 6, line, "", "L", false)
	}
	if len(letter.Recipient) > 0 {
		pdf.Ln(4)
	}
	if letter.Salutation != "" {
		pdf.MultiCell(0, 6, letter.Salutation, "", "L", false)
		pdf.Ln(2)
	}
	for _, para := range letter.Paragraphs {
		pdf.MultiCell(0, 6, para, "", "J", false)
		pdf.Ln(3)
	}
	if letter.Closing != "" {
		pdf.Ln(4)
		pdf.MultiCell(0, 6, letter.Closing, "", "L", false)
	}
	if letter.SignName != "" {
		pdf.Ln(10)
		pdf.SetFont("Arial", "B", 11)
		pdf.MultiCell(0, 6, letter.SignName, "", "L", false)
		if letter.SignTitle != "" {
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(0, 5, letter.SignTitle, "", "L", false)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render letter pdf: %w", err)
	}
	return buf.Bytes(), nil
}
