package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := DefaultConfig()
	if cfg.APIBaseURL != def.APIBaseURL {
		t.Fatalf("APIBaseURL = %q, want %q", cfg.APIBaseURL, def.APIBaseURL)
	}
	if cfg.RequestTimeoutSeconds != 30 {
		t.Fatalf("RequestTimeoutSeconds = %d, want 30", cfg.RequestTimeoutSeconds)
	}
	if cfg.DefaultSearchResults != 3 {
		t.Fatalf("DefaultSearchResults = %d, want 3", cfg.DefaultSearchResults)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	body := `{"api_base_url": "https://shelth.example/api/v1", "token": "abc", "request_timeout_seconds": 5}`
	if err := os.WriteFile(configPath, []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "https://shelth.example/api/v1" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.Token != "abc" {
		t.Errorf("Token = %q, want %q", cfg.Token, "abc")
	}
	if cfg.RequestTimeout() != 5*time.Second {
		t.Errorf("RequestTimeout() = %v, want 5s", cfg.RequestTimeout())
	}
	// Unset scalar keeps default
	if cfg.DefaultSearchResults != 3 {
		t.Errorf("DefaultSearchResults = %d, want 3", cfg.DefaultSearchResults)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"disabled_tools": ["chat_clear", "classification_delete"]}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if cfg.DisabledTools[0] != "chat_clear" {
		t.Errorf("DisabledTools[0] = %q, want %q", cfg.DisabledTools[0], "chat_clear")
	}
	if cfg.DisabledTools[1] != "classification_delete" {
		t.Errorf("DisabledTools[1] = %q, want %q", cfg.DisabledTools[1], "classification_delete")
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	globalConfig := `{"token": "global-token", "default_search_results": 5, "disabled_tools": ["chat_clear"]}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	shelthDir := filepath.Join(repoRoot, ".shelth")
	if err := os.MkdirAll(shelthDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	repoConfig := `{"default_search_results": 7, "disabled_tools": ["interactions_search"]}`
	if err := os.WriteFile(filepath.Join(shelthDir, "config.json"), []byte(repoConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.DefaultSearchResults != 7 {
		t.Errorf("DefaultSearchResults = %d, want 7 (repo override)", cfg.DefaultSearchResults)
	}
	if cfg.Token != "global-token" {
		t.Errorf("Token = %q, want global value", cfg.Token)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools = %v, want 2 merged entries", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_WalksUpward(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	shelthDir := filepath.Join(repoRoot, ".shelth")
	if err := os.MkdirAll(shelthDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(shelthDir, "config.json"), []byte(`{"token": "repo"}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	nested := filepath.Join(repoRoot, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, nested)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.Token != "repo" {
		t.Errorf("Token = %q, want %q", cfg.Token, "repo")
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.APIBaseURL != DefaultConfig().APIBaseURL {
		t.Errorf("APIBaseURL = %q, want default", cfg.APIBaseURL)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://localhost:9000/api/v1")
	t.Setenv(EnvToken, " env-token ")

	cfg := ApplyEnv(&Config{APIBaseURL: "http://file", Token: "file-token", RequestTimeoutSeconds: 10})

	if cfg.APIBaseURL != "http://localhost:9000/api/v1" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.Token != "env-token" {
		t.Errorf("Token = %q, want trimmed env value", cfg.Token)
	}
	if cfg.RequestTimeoutSeconds != 10 {
		t.Errorf("RequestTimeoutSeconds = %d, want 10", cfg.RequestTimeoutSeconds)
	}
}

func TestApplyEnv_Unset(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvToken, "")

	cfg := ApplyEnv(&Config{Token: "file-token"})
	if cfg.Token != "file-token" {
		t.Errorf("Token = %q, want file value", cfg.Token)
	}
}

func TestMerge_NegativeScalarsIgnored(t *testing.T) {
	cfg := Merge(DefaultConfig(), &Config{RequestTimeoutSeconds: -1, DefaultSearchResults: -4})
	if cfg.RequestTimeoutSeconds != 30 {
		t.Errorf("RequestTimeoutSeconds = %d, want 30", cfg.RequestTimeoutSeconds)
	}
	if cfg.DefaultSearchResults != 3 {
		t.Errorf("DefaultSearchResults = %d, want 3", cfg.DefaultSearchResults)
	}
}

func TestMergeStringSlice(t *testing.T) {
	got := mergeStringSlice([]string{" a ", "b"}, []string{"b", "", "c"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("mergeStringSlice = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mergeStringSlice[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if mergeStringSlice(nil, []string{" "}) != nil {
		t.Error("mergeStringSlice of blanks should be nil")
	}
}
