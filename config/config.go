package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvFilePathVar      = "ASCENDANT_ENV_FILE"
	APIKeyEnvVar        = "OPENAI_API_KEY"
	APIKeyFileEnvVar    = "OPENAI_API_KEY_FILE"
	HotkeysEnvVar       = "ASCENDANT_HOTKEYS"
	ModelEnvVar         = "ASCENDANT_MODEL"
	ConfidenceMinEnvVar = "ASCENDANT_CONFIDENCE_MIN"
	BaseURLEnvVar       = "ASCENDANT_API_BASE_URL"
	FileLoggingEnvVar   = "ENABLE_FILE_LOGGING"

	DefaultModel         = "gpt-4o-mini"
	DefaultBaseURL       = "https://api.openai.com/v1"
	DefaultConfidenceMin = 0.90
)

// DefaultHotkeys are the two stock capture bindings. Both trigger the same
// pipeline.
var DefaultHotkeys = []string{"ctrl+alt+m", "ctrl+alt+a"}

// Config is the resolved runtime configuration, read once at startup.
// Precedence per value: key file > environment > settings file > default.
type Config struct {
	APIKey            string
	Model             string
	BaseURL           string
	Hotkeys           []string
	ConfidenceMin     float64
	EnableFileLogging bool
	SettingsPath      string
}

type LoadOptions struct {
	SettingsPathOverride string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Seed the environment from .env beside the executable (or an explicit
	// override path) before reading anything else.
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	settingsPath := strings.TrimSpace(opts.SettingsPathOverride)
	if settingsPath == "" {
		p, err := DefaultSettingsPath()
		if err != nil {
			log.Printf("config: cannot resolve settings path: %v", err)
		}
		settingsPath = p
	}

	var st Settings
	if settingsPath != "" {
		loaded, err := NewStore(settingsPath).Load()
		if err != nil {
			// Corrupt or unreadable settings fall back to env + defaults.
			log.Printf("config: %v; using environment and defaults", err)
		} else {
			st = loaded
		}
	}

	cfg := &Config{
		APIKey:            resolveAPIKey(st.APIKey),
		Model:             firstNonEmpty(os.Getenv(ModelEnvVar), st.Model, DefaultModel),
		BaseURL:           firstNonEmpty(os.Getenv(BaseURLEnvVar), DefaultBaseURL),
		Hotkeys:           resolveHotkeys(st.Hotkeys),
		ConfidenceMin:     resolveConfidenceMin(st.ConfidenceMin),
		EnableFileLogging: strings.ToLower(os.Getenv(FileLoggingEnvVar)) != "false",
		SettingsPath:      settingsPath,
	}
	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}
	if alt := os.Getenv(EnvFilePathVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}
	return ""
}

// resolveAPIKey checks a key file first, then the environment, then the
// settings file. The environment is consulted before the settings file so
// operators can rotate keys without touching the user's saved document.
func resolveAPIKey(settingsKey string) string {
	if keyPath := strings.TrimSpace(os.Getenv(APIKeyFileEnvVar)); keyPath != "" {
		if data, err := os.ReadFile(keyPath); err == nil {
			if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
				return fileKey
			}
		} else {
			log.Printf("config: key file %s unreadable: %v", keyPath, err)
		}
	}
	if envKey := strings.TrimSpace(os.Getenv(APIKeyEnvVar)); envKey != "" {
		return envKey
	}
	return strings.TrimSpace(settingsKey)
}

// resolveHotkeys parses the comma-separated environment list, else takes the
// settings list, else the two stock bindings.
func resolveHotkeys(settingsHotkeys []string) []string {
	if raw := os.Getenv(HotkeysEnvVar); raw != "" {
		var combos []string
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				combos = append(combos, trimmed)
			}
		}
		if len(combos) > 0 {
			return combos
		}
	}
	if len(settingsHotkeys) > 0 {
		out := make([]string, len(settingsHotkeys))
		copy(out, settingsHotkeys)
		return out
	}
	out := make([]string, len(DefaultHotkeys))
	copy(out, DefaultHotkeys)
	return out
}

func resolveConfidenceMin(settingsValue float64) float64 {
	if raw := os.Getenv(ConfidenceMinEnvVar); raw != "" {
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && v >= 0 && v <= 1 {
			return v
		}
		log.Printf("config: ignoring invalid %s=%q", ConfidenceMinEnvVar, raw)
	}
	if settingsValue > 0 && settingsValue <= 1 {
		return settingsValue
	}
	return DefaultConfidenceMin
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
