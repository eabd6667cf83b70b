// CLAUDE:SUMMARY Immutable run configuration from YAML file, .env, and environment, with validation of the date filters.
// Package config builds the immutable configuration value handed to the
// workflow entry point. Sources, lowest precedence first: built-in defaults,
// an optional YAML file, then environment variables (a .env file in the
// working directory is loaded into the environment first).
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PortalURL is the entry page of the services portal.
const PortalURL = "https://servicios.dgi.gub.uy/serviciosenlinea"

// Config is the full run configuration. Treat it as immutable once loaded.
type Config struct {
	// Credentials for the portal login.
	RUT   string `yaml:"rut"`
	Clave string `yaml:"clave"`

	// Search filters. TipoCFE is the document-type code; the dates are
	// DD/MM/YYYY and skippable when blank.
	TipoCFE  string `yaml:"tipo_cfe"`
	FromDate string `yaml:"from_date"`
	ToDate   string `yaml:"to_date"`

	// Output locations.
	OutputFile  string `yaml:"output_file"`
	DownloadDir string `yaml:"download_dir"`
	AuditDB     string `yaml:"audit_db"`

	// Browser behaviour.
	Headless bool `yaml:"headless"`
	Devtools bool `yaml:"devtools"`

	// Timeouts.
	NavTimeout  time.Duration `yaml:"nav_timeout"`
	LoadTimeout time.Duration `yaml:"load_timeout"`
}

func (c *Config) defaults() {
	if c.TipoCFE == "" {
		c.TipoCFE = "111"
	}
	if c.OutputFile == "" {
		c.OutputFile = "outputs/cfe_data.xlsx"
	}
	if c.DownloadDir == "" {
		c.DownloadDir = "downloads"
	}
	if c.AuditDB == "" {
		c.AuditDB = "cfeharvest_audit.db"
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = 60 * time.Second
	}
}

var dateRe = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// Validate checks the filter dates. Missing credentials are not an error
// here — the login step reports them against the live page.
func (c *Config) Validate() error {
	for name, v := range map[string]string{"from_date": c.FromDate, "to_date": c.ToDate} {
		if v != "" && !dateRe.MatchString(v) {
			return fmt.Errorf("config: %s %q is not DD/MM/YYYY", name, v)
		}
	}
	return nil
}

// Load builds the configuration. filePath may be empty (no YAML file).
// A .env file in the working directory is merged into the environment
// without overriding variables already set.
func Load(filePath string) (Config, error) {
	_ = godotenv.Load() // missing .env is fine

	var cfg Config
	cfg.Headless = true

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", filePath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", filePath, err)
		}
	}

	applyEnv(&cfg)
	cfg.defaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(c *Config) {
	setStr := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setStr(&c.RUT, "RUT")
	setStr(&c.Clave, "CLAVE")
	setStr(&c.TipoCFE, "ECF_TIPO")
	setStr(&c.FromDate, "ECF_FROM_DATE")
	setStr(&c.ToDate, "ECF_TO_DATE")
	setStr(&c.OutputFile, "OUTPUT_FILE")
	setStr(&c.DownloadDir, "DOWNLOAD_DIR")
	setStr(&c.AuditDB, "AUDIT_DB")

	if v, ok := os.LookupEnv("HEADLESS"); ok && v != "" {
		switch v {
		case "1", "true", "yes", "TRUE", "True", "YES":
			c.Headless = true
		default:
			c.Headless = false
		}
	}
	if ms := envMillis("NAV_TIMEOUT_MS"); ms > 0 {
		c.NavTimeout = ms
	}
	if ms := envMillis("LOAD_TIMEOUT_MS"); ms > 0 {
		c.LoadTimeout = ms
	}
}

func envMillis(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Millisecond
}
