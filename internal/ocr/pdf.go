package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

const EnginePDF = "pdf"

// PDFEngine reads the embedded text layer of PDF documents with go-fitz.
// Scanned PDFs without a text layer yield a failure result.
type PDFEngine struct {
	logger *zap.Logger
}

func NewPDFEngine(logger *zap.Logger) *PDFEngine {
	return &PDFEngine{logger: logger}
}

func (e *PDFEngine) Name() string {
	return EnginePDF
}

func (e *PDFEngine) IsAvailable(_ context.Context) bool {
	return true
}

func (e *PDFEngine) ProcessFile(ctx context.Context, path string) (*Result, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
		return Failure(fmt.Sprintf("unsupported file format for pdf engine: %s", ext)), nil
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageText, err := doc.Text(i)
		if err != nil {
			e.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1),
				zap.String("file", path),
				zap.Error(err),
			)
			continue
		}

		if pageText != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n")
		}
	}

	text := strings.TrimSpace(textBuilder.String())

	e.logger.Info("PDF text extracted using go-fitz",
		zap.String("file", path),
		zap.Int("pages", doc.NumPage()),
		zap.Int("text_length", len(text)),
	)

	return TextResult(EnginePDF, text), nil
}
