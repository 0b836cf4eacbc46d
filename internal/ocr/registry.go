package ocr

import (
	"docflow/pkg/config"

	"go.uber.org/zap"
)

// BuildEngines instantiates the configured engines in priority order. Engines
// that cannot be constructed are logged and left out; the returned closer
// releases whatever was built.
func BuildEngines(cfg *config.Config, logger *zap.Logger) ([]Engine, func()) {
	var (
		engines []Engine
		closers []func() error
	)

	for _, name := range cfg.OCR.Engines {
		switch name {
		case EngineTesseract:
			engines = append(engines, NewTesseractEngine(cfg.OCR.TesseractLanguages, logger))
		case EnginePDF:
			engines = append(engines, NewPDFEngine(logger))
		case EngineGigaChat:
			engine, err := NewGigaChatEngine(&cfg.GigaChat, logger)
			if err != nil {
				logger.Warn("GigaChat engine disabled", zap.Error(err))
				continue
			}
			engines = append(engines, engine)
			closers = append(closers, engine.Close)
		default:
			logger.Warn("Unknown OCR engine in configuration", zap.String("engine", name))
		}
	}

	logger.Info("OCR engines configured", zap.Int("count", len(engines)), zap.Strings("order", cfg.OCR.Engines))

	return engines, func() {
		for _, closeFn := range closers {
			_ = closeFn()
		}
	}
}
