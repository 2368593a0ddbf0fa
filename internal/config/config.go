// Package config loads the runtime configuration from config.json, a .env
// file and the environment, in that order of precedence (lowest first).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"myfood/internal/nutrition"
)

// Storage backends.
const (
	StorageDrive    = "drive"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
)

// Config represents the application configuration.
type Config struct {
	Addr         string   `json:"addr"`
	Storage      string   `json:"storage"`
	FolderID     string   `json:"google_drive_folder_id"`
	Credentials  string   `json:"google_drive_credentials"`
	DatabaseURL  string   `json:"DATABASE_URL"`
	GeminiAPIKey string   `json:"gemini_api_key"`
	LocalLLMURL  string   `json:"local_llm_url"`
	LogLevel     string   `json:"log_level"`
	Development  bool     `json:"development"`
	AllowOrigins []string `json:"allow_origins"`

	// ReferenceFile is the xlsx workbook holding per-ingredient nutrition
	// values; ReferenceSheet selects its worksheet (first sheet if empty).
	ReferenceFile  string            `json:"reference_file"`
	ReferenceSheet string            `json:"reference_sheet"`
	Columns        nutrition.Columns `json:"columns"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Addr:          ":8080",
		Storage:       StorageSQLite,
		FolderID:      "myfood",
		DatabaseURL:   "file:myfood.db",
		LocalLLMURL:   "http://localhost:1234/v1/chat/completions",
		LogLevel:      "info",
		AllowOrigins:  []string{"http://localhost:8081"},
		ReferenceFile: "Table Ciqual 2020_FR_2020 07 07.xlsx",
		Columns:       nutrition.DefaultColumns,
	}
}

// Load builds the configuration. path names an optional JSON file; a
// missing file is not an error. A .env file in the working directory is
// loaded into the process environment without overriding variables that are
// already set.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read %s: %w", path, err)
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to unmarshal %s: %w", path, err)
			}
		}
	}

	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.fillColumns()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, "MYFOOD_ADDR")
	setString(&c.Storage, "MYFOOD_STORAGE")
	setString(&c.FolderID, "GOOGLE_DRIVE_FOLDER_ID")
	setString(&c.Credentials, "GOOGLE_DRIVE_CREDENTIALS")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.LocalLLMURL, "LOCAL_LLM_URL")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.ReferenceFile, "MYFOOD_REFERENCE_FILE")

	if v := os.Getenv("MYFOOD_ALLOW_ORIGINS"); v != "" {
		c.AllowOrigins = c.AllowOrigins[:0]
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowOrigins = append(c.AllowOrigins, o)
			}
		}
	}
	if v := os.Getenv("MYFOOD_DEV"); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MYFOOD_DEV %q: %w", v, err)
		}
		c.Development = dev
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// fillColumns keeps default column names for any left blank by a partial
// "columns" object in config.json.
func (c *Config) fillColumns() {
	d := nutrition.DefaultColumns
	if c.Columns.Name == "" {
		c.Columns.Name = d.Name
	}
	if c.Columns.Energy == "" {
		c.Columns.Energy = d.Energy
	}
	if c.Columns.Protein == "" {
		c.Columns.Protein = d.Protein
	}
	if c.Columns.Fat == "" {
		c.Columns.Fat = d.Fat
	}
	if c.Columns.Carbohydrate == "" {
		c.Columns.Carbohydrate = d.Carbohydrate
	}
}

// Validate checks that the fields required by the selected backend are set.
func (c Config) Validate() error {
	if c.FolderID == "" {
		return errors.New("folder id is required")
	}
	if len(c.AllowOrigins) == 0 {
		return errors.New("at least one CORS origin is required")
	}
	switch c.Storage {
	case StorageDrive:
		if c.Credentials == "" {
			return errors.New("GOOGLE_DRIVE_CREDENTIALS is required for drive storage")
		}
	case StoragePostgres, StorageSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s storage", c.Storage)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage)
	}
	return nil
}
