package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_PartialConfig(t *testing.T) {
	path := writeConfig(t, `{"num_bins": 16, "strict": true}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	bin := cfg.BinConfig()
	if bin.NumBins != 16 {
		t.Errorf("NumBins = %d, want 16", bin.NumBins)
	}
	// Unset fields fall back to defaults.
	if bin.MinExponent != -6 || bin.MaxExponent != 2 {
		t.Errorf("exponent range = (%g, %g), want defaults (-6, 2)", bin.MinExponent, bin.MaxExponent)
	}
	if !cfg.GetStrict() {
		t.Error("GetStrict() = false, want true")
	}
	if cfg.GetWorkers() != 0 {
		t.Errorf("GetWorkers() = %d, want 0 (driver picks)", cfg.GetWorkers())
	}
}

func TestLoad_RejectsNonJSONExtension(t *testing.T) {
	if _, err := Load("run.yaml"); err == nil {
		t.Error("Load of .yaml succeeded, want error")
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := []string{
		`{"num_bins": 0}`,
		`{"num_bins": -4}`,
		`{"min_exponent": 2, "max_exponent": -6}`,
		`{"workers": -1}`,
	}
	for _, content := range cases {
		path := writeConfig(t, content)
		if _, err := Load(path); err == nil {
			t.Errorf("Load(%s) succeeded, want validation error", content)
		}
	}
}

func TestLoad_RejectsMalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"num_bins": `)
	if _, err := Load(path); err == nil {
		t.Error("Load of malformed JSON succeeded, want error")
	}
}
