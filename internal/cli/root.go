// Package cli wires the cobra root command to a session.Session, mirroring
// the teacher's own internal/cli/root.go: persistent flags feeding an
// InitConfigWithError chain, with Set*ForTest helpers so tests can drive
// flag state without spawning a process.
package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/rohmanhakim/spider/internal/config"
	"github.com/rohmanhakim/spider/internal/engine"
	"github.com/rohmanhakim/spider/internal/fetch"
	"github.com/rohmanhakim/spider/internal/robots"
	"github.com/rohmanhakim/spider/internal/session"
	"github.com/rohmanhakim/spider/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	seedURLs       []string
	maxDepth       int
	maxPages       int
	concurrency    int
	requestDelay   time.Duration
	userAgent      string
	ignoreRobots   bool
	allowedDomains []string
	blockedDomains []string
	outputFormat   string
)

func parseStringSliceToSet(values []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func parseSeedURLs(urlStrings []string) ([]url.URL, error) {
	if len(urlStrings) == 0 {
		return nil, fmt.Errorf("seed URLs cannot be empty")
	}

	urls := make([]url.URL, 0, len(urlStrings))
	for _, urlStr := range urlStrings {
		parsed, err := url.Parse(urlStr)
		if err != nil {
			return nil, fmt.Errorf("error parsing seed URL %s: %w", urlStr, err)
		}
		urls = append(urls, *parsed)
	}
	return urls, nil
}

// rootCmd is the base command when spidercore is called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "spidercore",
	Short: "A polite, resumable concurrent web crawler.",
	Long: `spidercore crawls one or more seed URLs, respecting robots.txt and
per-domain rate limits, and emits one structured result per page visited.

It is organized around one Domain Crawl Engine per seed, each with its own
bounded worker pool, so unrelated domains make independent progress.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(seedURLs) == 0 {
			return fmt.Errorf("--seed-url is required; provide at least one seed URL to start crawling")
		}

		parsedURLs, err := parseSeedURLs(seedURLs)
		if err != nil {
			return err
		}

		cfg, err := InitConfigWithError(parsedURLs)
		if err != nil {
			return err
		}

		eventSink := telemetry.NewConsoleSink()

		fetcher := fetch.New(cfg.UserAgent(), eventSink)
		var robotsCache *robots.Cache
		if !cfg.IgnoreRobotsTxt() {
			robotsCache = robots.New(cfg.UserAgent(), eventSink)
		}

		result := resultSinkFromFormat(outputFormat)
		sess := session.New(cfg, robotsCache, fetcher, eventSink, result)

		seeds := make([]session.Seed, len(parsedURLs))
		for i, u := range parsedURLs {
			seeds[i] = session.Seed{URL: u.String()}
		}

		summary := sess.Run(cmd.Context(), seeds)
		fmt.Fprintf(os.Stdout, "completed=%t total_pages=%d domains=%d\n", summary.Completed, summary.TotalPages, len(summary.PerDomain))
		for _, d := range summary.PerDomain {
			fmt.Fprintf(os.Stdout, "  %s pages=%d reason=%s\n", d.Domain, d.PagesScraped, d.Reason)
		}
		return nil
	},
}

func resultSinkFromFormat(format string) engine.ResultSink {
	if format == "json" {
		return newJSONResultSink(os.Stdout)
	}
	return newTextResultSink(os.Stdout)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringArrayVar(&seedURLs, "seed-url", []string{}, "one or more starting URLs (can be repeated)")
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", 0, "maximum link depth from each seed URL (0 = use default)")
	rootCmd.PersistentFlags().IntVar(&maxPages, "max-pages", 0, "maximum pages to fetch per domain (0 = unlimited)")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "number of domains crawled concurrently (0 = use default)")
	rootCmd.PersistentFlags().DurationVar(&requestDelay, "request-delay", 0, "base delay between requests to the same host (0 = use default)")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().BoolVar(&ignoreRobots, "ignore-robots", false, "skip robots.txt checks entirely")
	rootCmd.PersistentFlags().StringArrayVar(&allowedDomains, "allowed-domain", []string{}, "explicit domain allowlist (defaults to each seed's own host)")
	rootCmd.PersistentFlags().StringArrayVar(&blockedDomains, "blocked-domain", []string{}, "domains to never follow links into")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output-format", "text", "result sink format: text or json")
}

// InitConfigWithError builds a Config from the registered CLI flags, for
// direct use by tests (error-returning, per the teacher's pattern of
// separating flag-to-Config construction from the Run closure).
func InitConfigWithError(seedUrls []url.URL) (config.Config, error) {
	if len(seedUrls) == 0 {
		return config.Config{}, fmt.Errorf("%w: seedUrls cannot be empty", config.ErrInvalidConfig)
	}

	builder := config.WithDefault(seedUrls)

	if maxDepth > 0 {
		builder = builder.WithMaxDepth(maxDepth)
	}
	if maxPages > 0 {
		builder = builder.WithMaxPages(maxPages)
	}
	if concurrency > 0 {
		builder = builder.WithConcurrency(concurrency)
	}
	if requestDelay > 0 {
		builder = builder.WithRequestDelay(requestDelay)
	}
	if userAgent != "" {
		builder = builder.WithUserAgent(userAgent)
	}
	if ignoreRobots {
		builder = builder.WithIgnoreRobotsTxt(true)
	}
	if len(allowedDomains) > 0 {
		builder = builder.WithAllowedDomains(parseStringSliceToSet(allowedDomains))
	}
	if len(blockedDomains) > 0 {
		builder = builder.WithBlockedDomains(parseStringSliceToSet(blockedDomains))
	}

	return builder.Build()
}

func ResetFlags() {
	seedURLs = []string{}
	maxDepth = 0
	maxPages = 0
	concurrency = 0
	requestDelay = 0
	userAgent = ""
	ignoreRobots = false
	allowedDomains = []string{}
	blockedDomains = []string{}
	outputFormat = "text"
}

func SetSeedURLsForTest(urls []string)          { seedURLs = urls }
func SetMaxDepthForTest(depth int)               { maxDepth = depth }
func SetMaxPagesForTest(pages int)               { maxPages = pages }
func SetConcurrencyForTest(c int)                { concurrency = c }
func SetRequestDelayForTest(d time.Duration)     { requestDelay = d }
func SetUserAgentForTest(agent string)           { userAgent = agent }
func SetIgnoreRobotsForTest(ignore bool)         { ignoreRobots = ignore }
func SetAllowedDomainsForTest(domains []string)  { allowedDomains = domains }
func SetBlockedDomainsForTest(domains []string)  { blockedDomains = domains }
func SetOutputFormatForTest(format string)       { outputFormat = format }
