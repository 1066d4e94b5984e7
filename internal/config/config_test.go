package config_test

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/rohmanhakim/spider/internal/config"
)

func TestWithDefault(t *testing.T) {
	testURLs := []url.URL{
		{Scheme: "https", Host: "example.org"},
	}

	cfg := config.WithDefault(testURLs)

	if cfg == nil {
		t.Fatal("WithDefault() returned nil")
	}

	builtCfg, err := cfg.Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}

	if len(builtCfg.SeedURLs()) != 1 {
		t.Errorf("expected 1 seed URL, got %d", len(builtCfg.SeedURLs()))
	}

	// AllowedDomains should default to seed URL hostnames
	if len(builtCfg.AllowedDomains()) != 1 {
		t.Errorf("expected 1 allowed domain, got %d", len(builtCfg.AllowedDomains()))
	}
	if _, ok := builtCfg.AllowedDomains()["example.org"]; !ok {
		t.Errorf("expected 'example.org' in AllowedDomains, got %v", builtCfg.AllowedDomains())
	}

	if _, ok := builtCfg.AllowedProtocols()["http"]; !ok {
		t.Error("expected 'http' in AllowedProtocols by default")
	}
	if _, ok := builtCfg.AllowedProtocols()["https"]; !ok {
		t.Error("expected 'https' in AllowedProtocols by default")
	}

	if builtCfg.MaxDepth() != 3 {
		t.Errorf("expected MaxDepth 3, got %d", builtCfg.MaxDepth())
	}
	if builtCfg.MaxPages() != 100 {
		t.Errorf("expected MaxPages 100, got %d", builtCfg.MaxPages())
	}
	if builtCfg.MaxConcurrentWorkers() != 10 {
		t.Errorf("expected MaxConcurrentWorkers 10, got %d", builtCfg.MaxConcurrentWorkers())
	}
	if builtCfg.Concurrency() != 1 {
		t.Errorf("expected Concurrency 1, got %d", builtCfg.Concurrency())
	}

	if builtCfg.RequestDelay() != time.Second {
		t.Errorf("expected RequestDelay 1s, got %v", builtCfg.RequestDelay())
	}
	if builtCfg.Jitter() != 500*time.Millisecond {
		t.Errorf("expected Jitter 500ms, got %v", builtCfg.Jitter())
	}
	if builtCfg.Timeout() != 10*time.Second {
		t.Errorf("expected Timeout 10s, got %v", builtCfg.Timeout())
	}
	if builtCfg.MaxRobotsCrawlDelay() != 10*time.Second {
		t.Errorf("expected MaxRobotsCrawlDelay 10s, got %v", builtCfg.MaxRobotsCrawlDelay())
	}
	if builtCfg.IgnoreRobotsTxt() {
		t.Error("expected IgnoreRobotsTxt false by default")
	}

	if builtCfg.UserAgent() != "spidercore/1.0" {
		t.Errorf("expected UserAgent 'spidercore/1.0', got '%s'", builtCfg.UserAgent())
	}
	if builtCfg.OutputDir() != "output" {
		t.Errorf("expected OutputDir 'output', got '%s'", builtCfg.OutputDir())
	}
	if builtCfg.DryRun() {
		t.Error("expected DryRun false by default")
	}

	if builtCfg.RandomSeed() == 0 {
		t.Error("expected RandomSeed to be set, got 0")
	}

	if builtCfg.MaxAttempt() != 10 {
		t.Errorf("expected MaxAttempt 10, got %d", builtCfg.MaxAttempt())
	}
	if builtCfg.BackoffInitialDuration() != 100*time.Millisecond {
		t.Errorf("expected BackoffInitialDuration 100ms, got %v", builtCfg.BackoffInitialDuration())
	}
	if builtCfg.BackoffMultiplier() != 2.0 {
		t.Errorf("expected BackoffMultiplier 2.0, got %f", builtCfg.BackoffMultiplier())
	}
	if builtCfg.BackoffMaxDuration() != 10*time.Second {
		t.Errorf("expected BackoffMaxDuration 10s, got %v", builtCfg.BackoffMaxDuration())
	}
}

func TestWithDefault_EmptySeedUrls(t *testing.T) {
	cfg := config.WithDefault([]url.URL{})

	if cfg == nil {
		t.Fatal("WithDefault() returned nil")
	}

	_, err := cfg.Build()
	if err == nil {
		t.Fatal("should error")
	}
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestWithSeedUrls(t *testing.T) {
	testURLs := []url.URL{
		{Scheme: "https", Host: "example.org"},
		{Scheme: "http", Host: "test.com", Path: "/path"},
	}

	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).WithSeedUrls(testURLs).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}

	if len(cfg.SeedURLs()) != 2 {
		t.Errorf("expected 2 seed URLs, got %d", len(cfg.SeedURLs()))
	}
	if cfg.SeedURLs()[0].String() != "https://example.org" {
		t.Errorf("expected first URL 'https://example.org', got '%s'", cfg.SeedURLs()[0].String())
	}
	if cfg.SeedURLs()[1].String() != "http://test.com/path" {
		t.Errorf("expected second URL 'http://test.com/path', got '%s'", cfg.SeedURLs()[1].String())
	}
	if cfg.MaxDepth() != 3 {
		t.Errorf("expected MaxDepth to remain default 3, got %d", cfg.MaxDepth())
	}
}

func TestWithAllowedDomains(t *testing.T) {
	testDomains := map[string]struct{}{
		"example.org": {},
		"test.com":    {},
	}

	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).WithAllowedDomains(testDomains).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if len(cfg.AllowedDomains()) != 2 {
		t.Errorf("expected 2 allowed domains, got %d", len(cfg.AllowedDomains()))
	}
	if _, ok := cfg.AllowedDomains()["example.org"]; !ok {
		t.Error("expected 'example.org' in AllowedDomains")
	}
}

func TestWithBlockedDomains(t *testing.T) {
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).
		WithBlockedDomains(map[string]struct{}{"evil.com": {}}).
		Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if _, ok := cfg.BlockedDomains()["evil.com"]; !ok {
		t.Error("expected 'evil.com' in BlockedDomains")
	}
}

func TestAllowedDomains_DefaultsToSeedUrls(t *testing.T) {
	testURLs := []url.URL{
		{Scheme: "https", Host: "example.org"},
		{Scheme: "https", Host: "docs.example.com"},
	}

	cfg, err := config.WithDefault(testURLs).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}

	if len(cfg.AllowedDomains()) != 2 {
		t.Errorf("expected 2 allowed domains, got %d", len(cfg.AllowedDomains()))
	}
	if _, ok := cfg.AllowedDomains()["docs.example.com"]; !ok {
		t.Errorf("expected 'docs.example.com' in AllowedDomains, got %v", cfg.AllowedDomains())
	}
}

func TestAllowedDomains_WithExplicitDomainsOverridesDefault(t *testing.T) {
	testURLs := []url.URL{{Scheme: "https", Host: "example.org"}}
	explicit := map[string]struct{}{"custom.com": {}}

	cfg, err := config.WithDefault(testURLs).WithAllowedDomains(explicit).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}

	if len(cfg.AllowedDomains()) != 1 {
		t.Errorf("expected 1 allowed domain, got %d", len(cfg.AllowedDomains()))
	}
	if _, ok := cfg.AllowedDomains()["example.org"]; ok {
		t.Error("should not have 'example.org' in AllowedDomains when explicit domains are set")
	}
}

func TestWithCustomURLFilters(t *testing.T) {
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	filters := []*regexp.Regexp{regexp.MustCompile(`/internal/`)}
	cfg, err := config.WithDefault(baseURL).WithCustomURLFilters(filters).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if len(cfg.CustomURLFilters()) != 1 {
		t.Errorf("expected 1 custom URL filter, got %d", len(cfg.CustomURLFilters()))
	}
}

func TestWithMaxDepth(t *testing.T) {
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).WithMaxDepth(5).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.MaxDepth() != 5 {
		t.Errorf("expected MaxDepth 5, got %d", cfg.MaxDepth())
	}
}

func TestWithMaxPages(t *testing.T) {
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).WithMaxPages(500).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.MaxPages() != 500 {
		t.Errorf("expected MaxPages 500, got %d", cfg.MaxPages())
	}
}

func TestDefaultQueueAndHeapWarningThresholds(t *testing.T) {
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.QueueSizeWarningThreshold() != 10000 {
		t.Errorf("expected QueueSizeWarningThreshold 10000, got %d", cfg.QueueSizeWarningThreshold())
	}
	if cfg.HeapUsageWarningBytes() != 1<<30 {
		t.Errorf("expected HeapUsageWarningBytes 1GiB, got %d", cfg.HeapUsageWarningBytes())
	}
}

func TestWithQueueSizeWarningThreshold(t *testing.T) {
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).WithQueueSizeWarningThreshold(250).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.QueueSizeWarningThreshold() != 250 {
		t.Errorf("expected QueueSizeWarningThreshold 250, got %d", cfg.QueueSizeWarningThreshold())
	}
}

func TestWithHeapUsageWarningBytes(t *testing.T) {
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).WithHeapUsageWarningBytes(512 << 20).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.HeapUsageWarningBytes() != 512<<20 {
		t.Errorf("expected HeapUsageWarningBytes 512MiB, got %d", cfg.HeapUsageWarningBytes())
	}
}

func TestWithConcurrency(t *testing.T) {
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).WithConcurrency(20).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.Concurrency() != 20 {
		t.Errorf("expected Concurrency 20, got %d", cfg.Concurrency())
	}
}

func TestBuild_RejectsNonPositiveWorkerCounts(t *testing.T) {
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}

	if _, err := config.WithDefault(baseURL).WithMaxConcurrentWorkers(0).Build(); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for zero MaxConcurrentWorkers, got %v", err)
	}
	if _, err := config.WithDefault(baseURL).WithConcurrency(0).Build(); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for zero Concurrency, got %v", err)
	}
}

func TestWithRequestDelay(t *testing.T) {
	testDelay := 2 * time.Second
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).WithRequestDelay(testDelay).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.RequestDelay() != testDelay {
		t.Errorf("expected RequestDelay %v, got %v", testDelay, cfg.RequestDelay())
	}
}

func TestWithMaxRequestsPerSecondPerDomain(t *testing.T) {
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).WithMaxRequestsPerSecondPerDomain(5).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.MaxRequestsPerSecondPerDomain() != 5 {
		t.Errorf("expected MaxRequestsPerSecondPerDomain 5, got %f", cfg.MaxRequestsPerSecondPerDomain())
	}
}

func TestWithMaxRobotsCrawlDelay(t *testing.T) {
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).WithMaxRobotsCrawlDelay(3 * time.Second).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.MaxRobotsCrawlDelay() != 3*time.Second {
		t.Errorf("expected MaxRobotsCrawlDelay 3s, got %v", cfg.MaxRobotsCrawlDelay())
	}
}

func TestWithIgnoreRobotsTxt(t *testing.T) {
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).WithIgnoreRobotsTxt(true).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if !cfg.IgnoreRobotsTxt() {
		t.Error("expected IgnoreRobotsTxt true")
	}
}

func TestWithUserAgent(t *testing.T) {
	testAgent := "CustomBot/2.0"
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).WithUserAgent(testAgent).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.UserAgent() != testAgent {
		t.Errorf("expected UserAgent '%s', got '%s'", testAgent, cfg.UserAgent())
	}
}

func TestWithOutputDir(t *testing.T) {
	testDir := "/custom/output/path"
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).WithOutputDir(testDir).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.OutputDir() != testDir {
		t.Errorf("expected OutputDir '%s', got '%s'", testDir, cfg.OutputDir())
	}
}

func TestWithDryRun(t *testing.T) {
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).WithDryRun(true).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if !cfg.DryRun() {
		t.Error("expected DryRun true")
	}
}

func TestWithRespectNoFollowAndNormalize(t *testing.T) {
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	cfg, err := config.WithDefault(baseURL).
		WithRespectNoFollow(false).
		WithNormalizeURLsForDeduplication(false).
		Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.RespectNoFollow() {
		t.Error("expected RespectNoFollow false")
	}
	if cfg.NormalizeURLsForDeduplication() {
		t.Error("expected NormalizeURLsForDeduplication false")
	}
}

func TestBuild_ReturnsIndependentCopies(t *testing.T) {
	baseURL := []url.URL{{Scheme: "https", Host: "base.org"}}
	original := config.WithDefault(baseURL)

	built, err := original.Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	again, err := original.Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if again.SeedURLs()[0].String() != built.SeedURLs()[0].String() {
		t.Error("Build() did not return matching config")
	}
	if again.MaxDepth() != 3 {
		t.Error("Build() appears to return reference, not value")
	}
}

func TestWithConfigFile_FileDoesNotExist(t *testing.T) {
	_, err := config.WithConfigFile("/nonexistent/path/config.json")

	if err == nil {
		t.Fatal("expected error for non-existent file, got nil")
	}
	if !errors.Is(err, config.ErrFileDoesNotExist) {
		t.Errorf("expected ErrFileDoesNotExist, got: %v", err)
	}
}

func TestWithConfigFile_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.json")

	if err := os.WriteFile(configPath, []byte("{invalid json content}"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	_, err := config.WithConfigFile(configPath)
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
	if !errors.Is(err, config.ErrConfigParsingFail) {
		t.Errorf("expected ErrConfigParsingFail, got: %v", err)
	}
}

func TestWithConfigFile_ValidCompleteConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(completeConfigJson()), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loadedConfig, err := config.WithConfigFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error loading valid config: %v", err)
	}

	if len(loadedConfig.SeedURLs()) != 2 ||
		loadedConfig.SeedURLs()[0].String() != "https://my-documentation.com/docs" ||
		loadedConfig.SeedURLs()[1].String() != "http://my-other-documentation.com/docs" {
		t.Errorf("unexpected SeedURLs: %v", loadedConfig.SeedURLs())
	}
	if loadedConfig.MaxDepth() != 5 {
		t.Errorf("expected MaxDepth 5, got %d", loadedConfig.MaxDepth())
	}
	if loadedConfig.MaxPages() != 200 {
		t.Errorf("expected MaxPages 200, got %d", loadedConfig.MaxPages())
	}
	if loadedConfig.Concurrency() != 20 {
		t.Errorf("expected Concurrency 20, got %d", loadedConfig.Concurrency())
	}
	if loadedConfig.UserAgent() != "TestBot/1.0" {
		t.Errorf("expected UserAgent 'TestBot/1.0', got '%s'", loadedConfig.UserAgent())
	}
	if loadedConfig.OutputDir() != "test_output" {
		t.Errorf("expected OutputDir 'test_output', got '%s'", loadedConfig.OutputDir())
	}
	if !loadedConfig.DryRun() {
		t.Errorf("expected DryRun true, got %v", loadedConfig.DryRun())
	}
	if len(loadedConfig.CustomURLFilters()) != 1 {
		t.Errorf("expected 1 custom URL filter, got %d", len(loadedConfig.CustomURLFilters()))
	}

	if loadedConfig.MaxAttempt() != 15 {
		t.Errorf("expected MaxAttempt 15, got %d", loadedConfig.MaxAttempt())
	}
	if loadedConfig.BackoffInitialDuration() != 200*time.Millisecond {
		t.Errorf("expected BackoffInitialDuration 200ms, got %v", loadedConfig.BackoffInitialDuration())
	}
	if loadedConfig.BackoffMultiplier() != 2.5 {
		t.Errorf("expected BackoffMultiplier 2.5, got %f", loadedConfig.BackoffMultiplier())
	}
	if loadedConfig.BackoffMaxDuration() != 20*time.Second {
		t.Errorf("expected BackoffMaxDuration 20s, got %v", loadedConfig.BackoffMaxDuration())
	}
}

func TestWithConfigFile_PartialConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")

	partialData := `{
		"seedUrls": [{"Scheme": "https", "Host": "partial-example.com"}],
		"maxDepth": 7,
		"userAgent": "PartialBot/1.0",
		"outputDir": "partial_output"
	}`

	if err := os.WriteFile(configPath, []byte(partialData), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loadedConfig, err := config.WithConfigFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error loading partial config: %v", err)
	}

	if loadedConfig.MaxDepth() != 7 {
		t.Errorf("expected MaxDepth 7, got %d", loadedConfig.MaxDepth())
	}
	if loadedConfig.UserAgent() != "PartialBot/1.0" {
		t.Errorf("expected UserAgent 'PartialBot/1.0', got '%s'", loadedConfig.UserAgent())
	}
	if loadedConfig.OutputDir() != "partial_output" {
		t.Errorf("expected OutputDir 'partial_output', got '%s'", loadedConfig.OutputDir())
	}
	if len(loadedConfig.SeedURLs()) != 1 || loadedConfig.SeedURLs()[0].String() != "https://partial-example.com" {
		t.Errorf("expected SeedURLs to be loaded from config, got %v", loadedConfig.SeedURLs())
	}

	if loadedConfig.MaxPages() != 100 {
		t.Errorf("expected MaxPages to remain default 100, got %d", loadedConfig.MaxPages())
	}
	if loadedConfig.Concurrency() != 1 {
		t.Errorf("expected Concurrency to remain default 1, got %d", loadedConfig.Concurrency())
	}
}

func TestWithConfigFile_AllowedDomainsDefaultsToSeedUrls(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "no_allowed_domains.json")

	configData := `{
		"seedUrls": [
			{"Scheme": "https", "Host": "docs.example.com"},
			{"Scheme": "https", "Host": "api.example.com"}
		],
		"maxDepth": 5
	}`

	if err := os.WriteFile(configPath, []byte(configData), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loadedConfig, err := config.WithConfigFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if len(loadedConfig.AllowedDomains()) != 2 {
		t.Errorf("expected 2 allowed domains, got %d", len(loadedConfig.AllowedDomains()))
	}
	if _, ok := loadedConfig.AllowedDomains()["docs.example.com"]; !ok {
		t.Errorf("expected 'docs.example.com' in AllowedDomains, got %v", loadedConfig.AllowedDomains())
	}
}

func TestWithConfigFile_PartialConfigNoSeedUrl(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")

	partialData := `{
		"maxDepth": 7,
		"userAgent": "PartialBot/1.0",
		"outputDir": "partial_output"
	}`

	if err := os.WriteFile(configPath, []byte(partialData), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := config.WithConfigFile(configPath)
	if err == nil {
		t.Fatal("should error")
	}
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig error, got: %v", err)
	}
}

func TestWithConfigFile_EmptyJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "empty.json")

	if err := os.WriteFile(configPath, []byte("{}"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := config.WithConfigFile(configPath)
	if err == nil {
		t.Fatal("expected error for empty config without seedUrls, got nil")
	}
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got: %v", err)
	}
}

// Note: the config file loader keeps the default for any numeric or string
// field left at its zero value, so zero values in JSON cannot override defaults. To set zero values, users must either:
// 1. Modify the Config struct after loading, or
// 2. Use a pointer type to distinguish between unset and zero values.

func completeConfigJson() string {
	return `
	{
    "seedUrls": [
        {
            "Scheme": "https",
            "Host": "my-documentation.com",
            "Path": "/docs"
        },
        {
            "Scheme": "http",
            "Host": "my-other-documentation.com",
            "Path": "/docs"
        }
    ],
    "allowedDomains": {
        "custom.com": {}
    },
    "customUrlFilters": [
        "/internal/"
    ],
    "maxDepth": 5,
    "maxPages": 200,
    "concurrency": 20,
    "requestDelay": 2000000000,
    "jitter": 1000000000,
    "randomSeed": 42,
    "maxAttempt": 15,
    "backoffInitialDuration": 200000000,
    "backoffMultiplier": 2.5,
    "backoffMaxDuration": 20000000000,
    "timeout": 30000000000,
    "userAgent": "TestBot/1.0",
    "outputDir": "test_output",
    "dryRun": true
}
	`
}
