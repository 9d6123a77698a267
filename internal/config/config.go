// Package config loads service settings from INI files with environment
// variable overrides.
//
// Layout: config/setting.ini selects the environment and holds defaults;
// config/<env>/intake.ini overrides per environment; STACKHIRE_* environment
// variables win over both.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	settingsFile     = "config/setting.ini"
	defaultEnv       = "dev"
	envConfigPattern = "config/%s/intake.ini"
)

// Config describes runtime options for the intake service.
type Config struct {
	Environment string
	ListenAddr  string

	// Storage: "sqlite" (default, DBPath) or "postgres" (DBDSN).
	DBDriver string
	DBPath   string
	DBDSN    string

	// Upstream model. Empty api key selects the loopback adapter.
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	RequestTimeout time.Duration

	// Conversation behavior.
	GreetingDelay time.Duration
	PromptPack    string

	LogFile  string
	LogLevel string
}

// Load reads settings relative to root (usually ".").
func Load(root string) (Config, error) {
	if root == "" {
		root = "."
	}

	environment := defaultEnv
	defaults := map[string]string{}
	if settings, err := parseINI(filepath.Join(root, settingsFile)); err == nil {
		defaults = settings
		if env := strings.TrimSpace(settings["environment"]); env != "" {
			environment = env
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	if env := strings.TrimSpace(os.Getenv("STACKHIRE_ENV")); env != "" {
		environment = env
	}

	envValues, err := parseINI(filepath.Join(root, fmt.Sprintf(envConfigPattern, environment)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			envValues = map[string]string{}
		} else {
			return Config{}, err
		}
	}

	merged := make(map[string]string, len(defaults)+len(envValues))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range envValues {
		merged[k] = v
	}

	cfg := Config{
		Environment:   environment,
		ListenAddr:    firstNonEmpty(os.Getenv("STACKHIRE_LISTEN_ADDR"), merged["listen_addr"], ":8080"),
		DBDriver:      firstNonEmpty(os.Getenv("STACKHIRE_DB_DRIVER"), merged["db_driver"], "sqlite"),
		DBPath:        firstNonEmpty(os.Getenv("STACKHIRE_DB_PATH"), merged["db_path"], defaultDBPath()),
		DBDSN:         firstNonEmpty(os.Getenv("STACKHIRE_DB_DSN"), merged["db_dsn"]),
		OpenAIAPIKey:  firstNonEmpty(os.Getenv("STACKHIRE_OPENAI_API_KEY"), merged["openai_api_key"]),
		OpenAIBaseURL: firstNonEmpty(os.Getenv("STACKHIRE_OPENAI_BASE_URL"), merged["openai_base_url"]),
		PromptPack:    firstNonEmpty(os.Getenv("STACKHIRE_PROMPT_PACK"), merged["prompt_pack"]),
		LogFile:       firstNonEmpty(os.Getenv("STACKHIRE_LOG_FILE"), merged["log_file"]),
		LogLevel:      firstNonEmpty(os.Getenv("STACKHIRE_LOG_LEVEL"), merged["log_level"], "info"),
	}

	cfg.RequestTimeout, err = parseOptionalDuration(
		firstNonEmpty(os.Getenv("STACKHIRE_REQUEST_TIMEOUT"), merged["request_timeout"]), 60*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid request_timeout: %w", err)
	}
	cfg.GreetingDelay, err = parseOptionalDuration(
		firstNonEmpty(os.Getenv("STACKHIRE_GREETING_DELAY"), merged["greeting_delay"]), 500*time.Millisecond)
	if err != nil {
		return Config{}, fmt.Errorf("invalid greeting_delay: %w", err)
	}

	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported db_driver %q", cfg.DBDriver)
	}
	if cfg.DBDriver == "postgres" && strings.TrimSpace(cfg.DBDSN) == "" {
		return Config{}, errors.New("db_dsn is required when db_driver=postgres")
	}

	return cfg, nil
}

func defaultDBPath() string {
	return filepath.Join("data", "intake.db")
}

// parseINI reads key=value pairs, ignoring blank lines, comments, and
// [section] headers.
func parseINI(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// parseOptionalDuration accepts Go duration strings or bare seconds.
func parseOptionalDuration(v string, fallback time.Duration) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback, nil
	}
	if seconds, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(seconds * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}
