package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds the process level settings of the HTTP service
type ServerConfig struct {
	Port          string
	APIKeys       []string
	ConfigPath    string
	LogLevel      string
	VerboseErrors bool
}

// LoadServerConfig reads the service settings from the environment
func LoadServerConfig() ServerConfig {
	sc := ServerConfig{
		Port:       os.Getenv("PORT"),
		ConfigPath: os.Getenv("SCRAPER_CONFIG"),
		LogLevel:   strings.ToLower(os.Getenv("LOG_LEVEL")),
		APIKeys:    ParseAPIKeys(os.Getenv("SCRAPER_API_KEYS")),
	}
	if sc.Port == "" {
		sc.Port = "8080"
	}
	if sc.LogLevel == "" {
		sc.LogLevel = "info"
	}
	sc.VerboseErrors = os.Getenv("VERBOSE_ERRORS") == "true" || os.Getenv("DEBUG") == "true"
	return sc
}

// ParseAPIKeys splits a comma-separated key list, dropping blanks
func ParseAPIKeys(keysStr string) []string {
	keys := strings.Split(keysStr, ",")
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key != "" {
			out = append(out, key)
		}
	}
	return out
}

// ApplyEnv overlays browser settings from the environment
func ApplyEnv(sc *ScrapeConfig) {
	if sc == nil {
		return
	}
	if ua := strings.TrimSpace(os.Getenv("SCRAPER_USER_AGENT")); ua != "" {
		sc.UserAgent = ua
	}
	if v := os.Getenv("RENDER_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			sc.RenderTimeout = time.Duration(ms) * time.Millisecond
		}
	}
}
