package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const (
	DirName        = "jobharvest"
	ConfigFileName = "config.json"
	BoardsFileName = "boards.txt"
)

// Config holds harvest defaults. File values override the built-in
// defaults, environment variables override the file.
type Config struct {
	Sites           []string `json:"sites"`
	IntervalHours   int      `json:"interval_hours"`
	Workers         int      `json:"workers"`
	CountryHint     string   `json:"country_hint"`
	RetentionDays   int      `json:"retention_days"`
	DatabaseURL     string   `json:"database_url"`
	AnthropicAPIKey string   `json:"anthropic_api_key"`
	AnthropicModel  string   `json:"anthropic_model"`
	EnrichJobs      bool     `json:"enrich_jobs"`
}

func DefaultConfig() Config {
	return Config{
		Sites:         []string{"lever", "greenhouse", "ashby", "wellfound"},
		IntervalHours: envInt("JOBHARVEST_INTERVAL_HOURS", 6),
		Workers:       envInt("JOBHARVEST_WORKERS", 3),
		CountryHint:   envString("JOBHARVEST_COUNTRY", "US"),
		RetentionDays: envInt("JOBHARVEST_RETENTION_DAYS", 60),
	}
}

func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func BoardsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, BoardsFileName), nil
}

// Load builds the effective configuration: defaults, then the config
// file, then the environment. A .env file in the working directory is
// honored before the environment is read.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json5.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	// Secrets come from the environment first.
	if dsn := envString("JOBHARVEST_DATABASE_URL", ""); dsn != "" {
		cfg.DatabaseURL = dsn
	}
	if key := envString("ANTHROPIC_API_KEY", ""); key != "" {
		cfg.AnthropicAPIKey = key
	}
	if model := envString("JOBHARVEST_ANTHROPIC_MODEL", ""); model != "" {
		cfg.AnthropicModel = model
	}
	if envString("JOBHARVEST_ENRICH", "") == "true" {
		cfg.EnrichJobs = true
	}

	return cfg, nil
}

// Init writes a default config.json and an empty boards.txt unless
// they already exist, and reports what it created.
func Init() ([]string, error) {
	var created []string

	dir, err := ConfigDir()
	if err != nil {
		return created, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return created, err
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := writeConfig(configPath, DefaultConfig()); err != nil {
			return created, err
		}
		created = append(created, configPath)
	}

	boardsPath := filepath.Join(dir, BoardsFileName)
	if _, err := os.Stat(boardsPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(boardsPath, []byte("# one board listing URL per line\n"), 0o644); err != nil {
			return created, err
		}
		created = append(created, boardsPath)
	}

	return created, nil
}

func writeConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadBoards resolves the board listing URLs: the flag value wins,
// then JOBHARVEST_BOARDS, then boards.txt.
func LoadBoards(flagValue string) ([]string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return splitCSV(flagValue), nil
	}

	if env := strings.TrimSpace(os.Getenv("JOBHARVEST_BOARDS")); env != "" {
		return splitCSV(env), nil
	}

	path, err := BoardsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var boards []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		boards = append(boards, line)
	}
	return boards, nil
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
