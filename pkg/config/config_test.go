package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OCR_ENGINES", "")
	t.Setenv("OCR_ENGINE_TIMEOUT_SECONDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := []string{"tesseract", "gigachat", "pdf"}
	if len(cfg.OCR.Engines) != len(want) {
		t.Fatalf("Engines = %v, want %v", cfg.OCR.Engines, want)
	}
	for i := range want {
		if cfg.OCR.Engines[i] != want[i] {
			t.Errorf("Engines[%d] = %q, want %q", i, cfg.OCR.Engines[i], want[i])
		}
	}
	if cfg.OCR.EngineTimeout != 60*time.Second {
		t.Errorf("EngineTimeout = %v, want 60s", cfg.OCR.EngineTimeout)
	}
}

func TestLoad_EngineOrderFromEnv(t *testing.T) {
	t.Setenv("OCR_ENGINES", " PDF , ,tesseract")
	t.Setenv("OCR_ENGINE_TIMEOUT_SECONDS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(cfg.OCR.Engines) != 2 || cfg.OCR.Engines[0] != "pdf" || cfg.OCR.Engines[1] != "tesseract" {
		t.Errorf("Engines = %v, want [pdf tesseract]", cfg.OCR.Engines)
	}
	if cfg.OCR.EngineTimeout != 0 {
		t.Errorf("EngineTimeout = %v, want 0", cfg.OCR.EngineTimeout)
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a,b,,c", 3},
		{" , ", 0},
	}
	for _, tt := range tests {
		if got := splitList(tt.in); len(got) != tt.want {
			t.Errorf("splitList(%q) = %v, want %d items", tt.in, got, tt.want)
		}
	}
}
