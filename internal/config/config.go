package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"
)

type Config struct {
	//===============
	//  Crawl scope
	//===============
	// Initial pages to give to the crawler to begin discovering and traversing other pages.
	seedURLs []url.URL
	// Whitelisted hostnames. Build fills an empty list with the seed URLs' hosts.
	// Ignored once a session is handed more than one seed (§4.8): each seed is then
	// restricted to its own domain and this field is superseded.
	allowedDomains map[string]struct{}
	// Hostnames a task must never be enqueued for, regardless of allowedDomains.
	blockedDomains map[string]struct{}
	// Deny patterns applied to every candidate URL before it is enqueued.
	customURLFilters []*regexp.Regexp
	// Schemes a candidate URL must use to be followed.
	allowedProtocols map[string]struct{}
	// Skip links whose anchor carries rel="nofollow".
	respectNoFollow bool
	// Apply the dedup-grade URL normalization (query sort, default-port drop,
	// trailing slash, ...) before the Deduplicator's try_add/contains.
	normalizeURLsForDeduplication bool

	//===============
	// Limits
	//===============
	// Maximum number of hyperlink hops from a seed (root) URL
	maxDepth int
	// Maximum number of URLs a single Domain Crawl Engine may claim in its dedup
	// set, whether or not their fetch succeeds
	maxPages int
	// Queue size above which a worker emits a high_queue_size warning event.
	queueSizeWarningThreshold int
	// Process heap size in bytes above which a worker emits a high_memory_usage
	// warning event.
	heapUsageWarningBytes uint64

	//===============
	// Politeness
	//===============
	// Workers processing URLs concurrently within one Domain Crawl Engine.
	maxConcurrentWorkers int
	// Parallel Domain Crawl Engines a Crawl Session runs at once.
	concurrency int
	// Mandatory sleep enforced before every fetch to a given host.
	requestDelay time.Duration
	// Randomized variation layered on top of requestDelay.
	jitter time.Duration
	// Controls the random number generator behind jitter.
	randomSeed int64
	// Soft per-domain requests-per-second cap, enforced by pkg/ratelimit's
	// token-bucket limiter in addition to requestDelay.
	maxRequestsPerSecondPerDomain float64
	// Ceiling applied to a robots.txt Crawl-delay directive.
	maxRobotsCrawlDelay time.Duration
	// Bypass the Robots Cache (C5) entirely when true.
	ignoreRobotsTxt bool
	// Retry attempt count. The crawl core does not read it, nor the three
	// backoff fields below: fetch retries use a fixed 3 attempts with a 1s
	// exponential backoff.
	maxAttempt int
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration

	//===============
	// Fetch
	//===============
	// Request timeout setting. The Scraper does not read it; it applies its
	// own fixed 30s request timeout.
	timeout time.Duration
	// User agent sent on every request; also used for robots.txt section matching.
	userAgent string

	//===============
	// Output
	//===============
	// Root directory for persisted state / example CLI output
	outputDir string
	// Whether the program simulates what it would do without performing any
	// irreversible or side-effecting actions
	dryRun bool
}

type configDTO struct {
	SeedURLs                      []url.URL           `json:"seedUrls"`
	AllowedDomains                 map[string]struct{} `json:"allowedDomains,omitempty"`
	BlockedDomains                 map[string]struct{} `json:"blockedDomains,omitempty"`
	CustomURLFilters               []string            `json:"customUrlFilters,omitempty"`
	AllowedProtocols               []string            `json:"allowedProtocols,omitempty"`
	RespectNoFollow                bool                `json:"respectNoFollow,omitempty"`
	NormalizeURLsForDeduplication  bool                `json:"normalizeUrlsForDeduplication,omitempty"`
	MaxDepth                       int                 `json:"maxDepth,omitempty"`
	MaxPages                       int                 `json:"maxPages,omitempty"`
	QueueSizeWarningThreshold      int                 `json:"queueSizeWarningThreshold,omitempty"`
	HeapUsageWarningBytes          uint64              `json:"heapUsageWarningBytes,omitempty"`
	MaxConcurrentWorkers           int                 `json:"maxConcurrentWorkers,omitempty"`
	Concurrency                    int                 `json:"concurrency,omitempty"`
	RequestDelay                   time.Duration       `json:"requestDelay,omitempty"`
	Jitter                         time.Duration       `json:"jitter,omitempty"`
	RandomSeed                     int64               `json:"randomSeed,omitempty"`
	MaxRequestsPerSecondPerDomain  float64             `json:"maxRequestsPerSecondPerDomain,omitempty"`
	MaxRobotsCrawlDelay            time.Duration       `json:"maxRobotsCrawlDelay,omitempty"`
	IgnoreRobotsTxt                bool                `json:"ignoreRobotsTxt,omitempty"`
	MaxAttempt                     int                 `json:"maxAttempt,omitempty"`
	BackoffInitialDuration         time.Duration       `json:"backoffInitialDuration,omitempty"`
	BackoffMultiplier              float64             `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration             time.Duration       `json:"backoffMaxDuration,omitempty"`
	Timeout                        time.Duration       `json:"timeout,omitempty"`
	UserAgent                      string              `json:"userAgent,omitempty"`
	OutputDir                      string              `json:"outputDir,omitempty"`
	DryRun                         bool                `json:"dryRun,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {

	// Start with default config
	cfg, err := WithDefault(dto.SeedURLs).Build()
	if err != nil {
		return Config{}, err
	}

	// AllowedDomains can be empty - if so, default to seed URLs hostnames
	if len(dto.AllowedDomains) > 0 {
		cfg.allowedDomains = dto.AllowedDomains
	}
	if len(dto.BlockedDomains) > 0 {
		cfg.blockedDomains = dto.BlockedDomains
	}

	if len(dto.CustomURLFilters) > 0 {
		filters, err := compileFilters(dto.CustomURLFilters)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
		}
		cfg.customURLFilters = filters
	}

	if len(dto.AllowedProtocols) > 0 {
		cfg.allowedProtocols = toSet(dto.AllowedProtocols)
	}

	// Booleans are taken as-is: false is a legitimate explicit override.
	cfg.respectNoFollow = dto.RespectNoFollow
	cfg.normalizeURLsForDeduplication = dto.NormalizeURLsForDeduplication
	cfg.ignoreRobotsTxt = dto.IgnoreRobotsTxt
	cfg.dryRun = dto.DryRun

	if dto.MaxDepth != 0 {
		cfg.maxDepth = dto.MaxDepth
	}
	if dto.MaxPages != 0 {
		cfg.maxPages = dto.MaxPages
	}
	if dto.QueueSizeWarningThreshold != 0 {
		cfg.queueSizeWarningThreshold = dto.QueueSizeWarningThreshold
	}
	if dto.HeapUsageWarningBytes != 0 {
		cfg.heapUsageWarningBytes = dto.HeapUsageWarningBytes
	}
	if dto.MaxConcurrentWorkers != 0 {
		cfg.maxConcurrentWorkers = dto.MaxConcurrentWorkers
	}
	if dto.Concurrency != 0 {
		cfg.concurrency = dto.Concurrency
	}
	if dto.RequestDelay != 0 {
		cfg.requestDelay = dto.RequestDelay
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.MaxRequestsPerSecondPerDomain != 0 {
		cfg.maxRequestsPerSecondPerDomain = dto.MaxRequestsPerSecondPerDomain
	}
	if dto.MaxRobotsCrawlDelay != 0 {
		cfg.maxRobotsCrawlDelay = dto.MaxRobotsCrawlDelay
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.OutputDir != "" {
		cfg.outputDir = dto.OutputDir
	}

	return cfg, nil
}

func compileFilters(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg, err := newConfigFromDTO(cfgDTO)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithDefault creates a new Config with the provided seed URLs and default values for all other fields.
// seedUrls is mandatory and must not be empty - an error will be returned by Build if it is.
func WithDefault(seedUrls []url.URL) *Config {
	defaultConfig := Config{
		seedURLs:                      seedUrls,
		allowedDomains:                map[string]struct{}{},
		blockedDomains:                map[string]struct{}{},
		customURLFilters:              nil,
		allowedProtocols:              map[string]struct{}{"http": {}, "https": {}},
		respectNoFollow:               true,
		normalizeURLsForDeduplication: true,
		maxDepth:                      3,
		maxPages:                      100,
		queueSizeWarningThreshold:     10000,
		heapUsageWarningBytes:         1 << 30,
		maxConcurrentWorkers:          10,
		concurrency:                   1,
		requestDelay:                  time.Second,
		jitter:                        time.Millisecond * 500,
		randomSeed:                    time.Now().UnixNano(),
		maxRequestsPerSecondPerDomain: 1,
		maxRobotsCrawlDelay:           10 * time.Second,
		ignoreRobotsTxt:               false,
		maxAttempt:                    10,
		backoffInitialDuration:        100 * time.Millisecond,
		backoffMultiplier:             2.0,
		backoffMaxDuration:            10 * time.Second,
		timeout:                       time.Second * 10,
		userAgent:                     "spidercore/1.0",
		outputDir:                     "output",
		dryRun:                        false,
	}
	return &defaultConfig
}

func (c *Config) WithSeedUrls(urls []url.URL) *Config {
	c.seedURLs = urls
	return c
}

func (c *Config) WithAllowedDomains(domains map[string]struct{}) *Config {
	c.allowedDomains = domains
	return c
}

func (c *Config) WithBlockedDomains(domains map[string]struct{}) *Config {
	c.blockedDomains = domains
	return c
}

func (c *Config) WithCustomURLFilters(filters []*regexp.Regexp) *Config {
	c.customURLFilters = filters
	return c
}

func (c *Config) WithAllowedProtocols(protocols map[string]struct{}) *Config {
	c.allowedProtocols = protocols
	return c
}

func (c *Config) WithRespectNoFollow(respect bool) *Config {
	c.respectNoFollow = respect
	return c
}

func (c *Config) WithNormalizeURLsForDeduplication(normalize bool) *Config {
	c.normalizeURLsForDeduplication = normalize
	return c
}

func (c *Config) WithMaxDepth(depth int) *Config {
	c.maxDepth = depth
	return c
}

func (c *Config) WithMaxPages(pages int) *Config {
	c.maxPages = pages
	return c
}

func (c *Config) WithQueueSizeWarningThreshold(threshold int) *Config {
	c.queueSizeWarningThreshold = threshold
	return c
}

func (c *Config) WithHeapUsageWarningBytes(bytes uint64) *Config {
	c.heapUsageWarningBytes = bytes
	return c
}

func (c *Config) WithMaxConcurrentWorkers(workers int) *Config {
	c.maxConcurrentWorkers = workers
	return c
}

func (c *Config) WithConcurrency(concurrency int) *Config {
	c.concurrency = concurrency
	return c
}

func (c *Config) WithRequestDelay(delay time.Duration) *Config {
	c.requestDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxRequestsPerSecondPerDomain(rps float64) *Config {
	c.maxRequestsPerSecondPerDomain = rps
	return c
}

func (c *Config) WithMaxRobotsCrawlDelay(delay time.Duration) *Config {
	c.maxRobotsCrawlDelay = delay
	return c
}

func (c *Config) WithIgnoreRobotsTxt(ignore bool) *Config {
	c.ignoreRobotsTxt = ignore
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithOutputDir(outputDir string) *Config {
	c.outputDir = outputDir
	return c
}

func (c *Config) WithDryRun(dryRun bool) *Config {
	c.dryRun = dryRun
	return c
}

func (c *Config) Build() (Config, error) {
	if len(c.seedURLs) == 0 {
		return Config{}, fmt.Errorf("%w: seedUrls cannot be empty", ErrInvalidConfig)
	}

	// If allowedDomains is empty, default to seed URLs hostnames
	if len(c.allowedDomains) == 0 {
		c.allowedDomains = make(map[string]struct{})
		for _, u := range c.seedURLs {
			if u.Host != "" {
				c.allowedDomains[u.Host] = struct{}{}
			}
		}
	}

	if len(c.allowedProtocols) == 0 {
		c.allowedProtocols = map[string]struct{}{"http": {}, "https": {}}
	}

	if c.maxConcurrentWorkers <= 0 {
		return Config{}, fmt.Errorf("%w: maxConcurrentWorkers must be positive", ErrInvalidConfig)
	}
	if c.concurrency <= 0 {
		return Config{}, fmt.Errorf("%w: concurrency must be positive", ErrInvalidConfig)
	}

	return *c, nil
}

func (c Config) SeedURLs() []url.URL {
	urls := make([]url.URL, len(c.seedURLs))
	copy(urls, c.seedURLs)
	return urls
}

func (c Config) AllowedDomains() map[string]struct{} {
	domains := make(map[string]struct{})
	for k, v := range c.allowedDomains {
		domains[k] = v
	}
	return domains
}

func (c Config) BlockedDomains() map[string]struct{} {
	domains := make(map[string]struct{})
	for k, v := range c.blockedDomains {
		domains[k] = v
	}
	return domains
}

func (c Config) CustomURLFilters() []*regexp.Regexp {
	filters := make([]*regexp.Regexp, len(c.customURLFilters))
	copy(filters, c.customURLFilters)
	return filters
}

func (c Config) AllowedProtocols() map[string]struct{} {
	protocols := make(map[string]struct{})
	for k, v := range c.allowedProtocols {
		protocols[k] = v
	}
	return protocols
}

func (c Config) RespectNoFollow() bool {
	return c.respectNoFollow
}

func (c Config) NormalizeURLsForDeduplication() bool {
	return c.normalizeURLsForDeduplication
}

func (c Config) MaxDepth() int {
	return c.maxDepth
}

func (c Config) MaxPages() int {
	return c.maxPages
}

func (c Config) QueueSizeWarningThreshold() int {
	return c.queueSizeWarningThreshold
}

func (c Config) HeapUsageWarningBytes() uint64 {
	return c.heapUsageWarningBytes
}

func (c Config) MaxConcurrentWorkers() int {
	return c.maxConcurrentWorkers
}

func (c Config) Concurrency() int {
	return c.concurrency
}

func (c Config) RequestDelay() time.Duration {
	return c.requestDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) MaxRequestsPerSecondPerDomain() float64 {
	return c.maxRequestsPerSecondPerDomain
}

func (c Config) MaxRobotsCrawlDelay() time.Duration {
	return c.maxRobotsCrawlDelay
}

func (c Config) IgnoreRobotsTxt() bool {
	return c.ignoreRobotsTxt
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) OutputDir() string {
	return c.outputDir
}

func (c Config) DryRun() bool {
	return c.dryRun
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}
