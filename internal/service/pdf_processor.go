package service

import (
	"context"
	"fmt"
	"strings"

	"pdf-intake/internal/domain"

	"github.com/gen2brain/go-fitz"
)

// PDFProcessor reads PDFs locally with MuPDF
type PDFProcessor struct {
	logger domain.Logger
}

// NewPDFProcessor creates a new PDF processor
func NewPDFProcessor(logger domain.Logger) *PDFProcessor {
	return &PDFProcessor{
		logger: logger,
	}
}

// Inspect returns the page count and the title/author metadata of a PDF
func (p *PDFProcessor) Inspect(pdfBytes []byte) (*domain.PDFInfo, error) {
	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	info := &domain.PDFInfo{PageCount: doc.NumPage()}
	meta := doc.Metadata()
	if title, ok := meta["title"]; ok {
		info.Title = strings.TrimSpace(title)
	}
	if author, ok := meta["author"]; ok {
		info.Author = strings.TrimSpace(author)
	}
	return info, nil
}

// Convert implements domain.Converter by extracting the text of every page.
// Pages that fail to extract are logged and skipped.
func (p *PDFProcessor) Convert(ctx context.Context, name string, pdfBytes []byte) (string, error) {
	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	numPages := doc.NumPage()
	for pageNum := 0; pageNum < numPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p.logger.Debug("PDF processing page", "name", name, "page", pageNum+1, "total", numPages)

		text, err := doc.Text(pageNum)
		if err != nil {
			p.logger.Warn("PDF page extraction failed", "name", name, "page", pageNum+1, "error", err)
			continue
		}
		b.WriteString(strings.TrimSpace(text))
		b.WriteString("\n\n")
	}

	return strings.TrimSpace(b.String()), nil
}
