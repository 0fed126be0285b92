package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scan.BatchSize != 36 {
		t.Errorf("expected default batch size 36, got %d", cfg.Scan.BatchSize)
	}
	if cfg.Scan.SettleSeconds != 10 {
		t.Errorf("expected default settle window 10s, got %d", cfg.Scan.SettleSeconds)
	}
	if cfg.Bootstrap.BatchSize != 36 || cfg.Bootstrap.DelaySeconds != 5 {
		t.Errorf("unexpected bootstrap defaults: %+v", cfg.Bootstrap)
	}
	if !cfg.Bootstrap.Enabled {
		t.Error("expected bootstrap enabled by default")
	}
}

func TestLoadSymbolsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.txt")
	content := "# biotech block\nGOOG\n\nBLUE\nXOMA\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{Scan: ScanConfig{SymbolsFile: path, Symbols: []string{"IGNORED"}}}
	symbols, err := cfg.LoadSymbols()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"GOOG", "BLUE", "XOMA"}
	if len(symbols) != len(want) {
		t.Fatalf("expected %v, got %v", want, symbols)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("expected %v, got %v", want, symbols)
			break
		}
	}
}

func TestLoadSymbolsInline(t *testing.T) {
	cfg := &Config{Scan: ScanConfig{Symbols: []string{"GOOG"}}}
	symbols, err := cfg.LoadSymbols()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(symbols) != 1 || symbols[0] != "GOOG" {
		t.Errorf("expected [GOOG], got %v", symbols)
	}
}
