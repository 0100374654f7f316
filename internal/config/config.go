package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Environment variables that override file configuration.
const (
	EnvAPIURL = "SHELTH_API_URL"
	EnvToken  = "SHELTH_TOKEN"
)

// Config holds application configuration.
type Config struct {
	// APIBaseURL is the root of the remote Shelth API (classification, chat, search).
	APIBaseURL string `json:"api_base_url,omitempty"`

	// Token is the opaque session credential sent as a bearer token.
	// Obtaining it (login) happens outside this tool.
	Token string `json:"token,omitempty"`

	// RequestTimeoutSeconds bounds every remote call.
	// A call that exceeds it fails with TIMED_OUT.
	RequestTimeoutSeconds int `json:"request_timeout_seconds,omitempty"`

	// DefaultSearchResults is the result count used when the caller does not pick one.
	DefaultSearchResults int `json:"default_search_results,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type names to disable entirely.
	// Known types: "classification", "attachment", "chat", "interactions".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:            "http://127.0.0.1:5000/api/v1",
		RequestTimeoutSeconds: 30,
		DefaultSearchResults:  3,
	}
}

// RequestTimeout returns the per-call deadline as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.shelth.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.shelth) and repo (.shelth) directories.
// Repo config is found by walking upward from startDir to find the nearest .shelth/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// ApplyEnv overlays SHELTH_API_URL and SHELTH_TOKEN onto cfg.
func ApplyEnv(cfg *Config) *Config {
	return Merge(cfg, &Config{
		APIBaseURL: strings.TrimSpace(os.Getenv(EnvAPIURL)),
		Token:      strings.TrimSpace(os.Getenv(EnvToken)),
	})
}

// FindRepoConfig walks upward from startDir to find the nearest .shelth/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".shelth", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.APIBaseURL = firstString(overlay.APIBaseURL, base.APIBaseURL)
	result.Token = firstString(overlay.Token, base.Token)
	result.RequestTimeoutSeconds = firstPositive(overlay.RequestTimeoutSeconds, base.RequestTimeoutSeconds)
	result.DefaultSearchResults = firstPositive(overlay.DefaultSearchResults, base.DefaultSearchResults)
	result.DBMaxOpenConns = firstPositive(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstPositive(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstPositive(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
