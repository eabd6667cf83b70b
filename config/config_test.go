package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// WHAT: With nothing configured, Load produces the documented defaults.
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TipoCFE != "111" {
		t.Errorf("TipoCFE = %q", cfg.TipoCFE)
	}
	if cfg.OutputFile != "outputs/cfe_data.xlsx" {
		t.Errorf("OutputFile = %q", cfg.OutputFile)
	}
	if !cfg.Headless {
		t.Error("Headless should default to true")
	}
	if cfg.NavTimeout != 30*time.Second || cfg.LoadTimeout != 60*time.Second {
		t.Errorf("timeouts = %v / %v", cfg.NavTimeout, cfg.LoadTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	// WHAT: Environment variables override defaults, including millisecond timeouts.
	clearEnv(t)
	t.Setenv("RUT", "211234560012")
	t.Setenv("CLAVE", "secret")
	t.Setenv("ECF_TIPO", "112")
	t.Setenv("HEADLESS", "false")
	t.Setenv("NAV_TIMEOUT_MS", "5000")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RUT != "211234560012" || cfg.Clave != "secret" {
		t.Error("credentials not read from env")
	}
	if cfg.TipoCFE != "112" {
		t.Errorf("TipoCFE = %q", cfg.TipoCFE)
	}
	if cfg.Headless {
		t.Error("HEADLESS=false not applied")
	}
	if cfg.NavTimeout != 5*time.Second {
		t.Errorf("NavTimeout = %v", cfg.NavTimeout)
	}
}

func TestLoad_YAMLThenEnvPrecedence(t *testing.T) {
	// WHAT: YAML values apply below environment variables.
	// WHY: Operators keep a checked-in YAML baseline and override per-run via env.
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "cfeharvest.yaml")
	if err := os.WriteFile(path, []byte("tipo_cfe: \"113\"\nfrom_date: \"01/07/2026\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ECF_TIPO", "111")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TipoCFE != "111" {
		t.Errorf("env should win over YAML: TipoCFE = %q", cfg.TipoCFE)
	}
	if cfg.FromDate != "01/07/2026" {
		t.Errorf("FromDate = %q", cfg.FromDate)
	}
}

func TestLoad_RejectsBadDate(t *testing.T) {
	// WHAT: A malformed filter date fails fast instead of reaching the portal.
	clearEnv(t)
	t.Setenv("ECF_FROM_DATE", "2026-07-01")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for non-DD/MM/YYYY date")
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"RUT", "CLAVE", "ECF_TIPO", "ECF_FROM_DATE", "ECF_TO_DATE",
		"OUTPUT_FILE", "DOWNLOAD_DIR", "AUDIT_DB", "HEADLESS",
		"NAV_TIMEOUT_MS", "LOAD_TIMEOUT_MS",
	} {
		t.Setenv(k, "")
	}
}
