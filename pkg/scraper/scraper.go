package scraper

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/queue"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT x.y; Win64; x64; rv:10.0) Gecko/20100101 Firefox/10.0"

// Options configures the collector behind an extractor.
type Options struct {
	// StartURLs are the search result pages to visit, in order. Empty means the source default.
	StartURLs []string

	// AllowedDomains restricts the crawl; empty allows any domain.
	AllowedDomains []string

	// CacheDir can be empty to disable caching.
	CacheDir string

	// HTTPRetryMax is the number of transport-level retries for transient HTTP failures
	// (connection errors, 429 and 5xx responses).
	HTTPRetryMax int

	// Delay between requests to the same domain.
	Delay time.Duration

	UserAgent string
}

// DefaultOptions mirrors the settings used in production.
func DefaultOptions() Options {
	return Options{
		HTTPRetryMax: 2,
		Delay:        1 * time.Second,
		UserAgent:    defaultUserAgent,
	}
}

// newCollector builds a fresh collector. A new collector per extraction keeps the visited
// list empty, so a retry really fetches the page again.
func newCollector(opts Options) *colly.Collector {
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	options := []colly.CollectorOption{
		colly.UserAgent(ua),
	}
	if len(opts.AllowedDomains) > 0 {
		options = append(options, colly.AllowedDomains(opts.AllowedDomains...))
	}
	if opts.CacheDir != "" {
		options = append(options, colly.CacheDir(opts.CacheDir))
	}

	c := colly.NewCollector(options...)
	c.SetRequestTimeout(30 * time.Second)
	c.WithTransport(retryTransport(opts.HTTPRetryMax))

	if opts.Delay > 0 {
		c.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Parallelism: 1,
			Delay:       opts.Delay,
		})
	}

	c.OnRequest(func(r *colly.Request) {
		logrus.WithField("url", r.URL.String()).Debug("Visiting")
	})

	return c
}

func retryTransport(retryMax int) http.RoundTripper {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 3 * time.Second
	rc.Logger = nil
	return &retryablehttp.RoundTripper{Client: rc}
}

// crawl visits every start page in order through a single-consumer queue and returns the
// request failures seen along the way.
func crawl(c *colly.Collector, urls []string) error {
	var errs []error
	c.OnError(func(r *colly.Response, err error) {
		errs = append(errs, fmt.Errorf("request %q [%d] failed: %w", r.Request.URL.String(), r.StatusCode, err))
	})

	q, err := queue.New(1, &FIFOQueueStorage{})
	if err != nil {
		return err
	}
	for _, u := range urls {
		if err := q.AddURL(u); err != nil {
			return err
		}
	}
	if err := q.Run(c); err != nil {
		return err
	}
	c.Wait()

	return errors.Join(errs...)
}
