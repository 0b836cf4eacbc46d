package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

const EngineTesseract = "tesseract"

var tesseractFormats = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".tif": true, ".tiff": true, ".bmp": true, ".webp": true,
}

// TesseractEngine runs the local tesseract library on image files.
type TesseractEngine struct {
	languages []string
	logger    *zap.Logger
}

func NewTesseractEngine(languages []string, logger *zap.Logger) *TesseractEngine {
	return &TesseractEngine{
		languages: languages,
		logger:    logger,
	}
}

func (e *TesseractEngine) Name() string {
	return EngineTesseract
}

func (e *TesseractEngine) IsAvailable(_ context.Context) bool {
	return gosseract.Version() != ""
}

func (e *TesseractEngine) ProcessFile(ctx context.Context, path string) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !tesseractFormats[ext] {
		return Failure(fmt.Sprintf("unsupported file format for tesseract: %s", ext)), nil
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(e.languages) > 0 {
		if err := client.SetLanguage(e.languages...); err != nil {
			return nil, fmt.Errorf("failed to set tesseract languages: %w", err)
		}
	}
	if err := client.SetImage(path); err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract recognition failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.logger.Info("Tesseract extraction completed",
		zap.String("file", path),
		zap.Int("text_length", len(text)),
	)

	return TextResult(EngineTesseract, text), nil
}
