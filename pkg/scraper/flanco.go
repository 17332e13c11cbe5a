package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

const FlancoSearchURL = "https://www.flanco.ro/catalogsearch/result/?q=casti+apple+airpods"

const (
	flancoNameSelector         = "h2"
	flancoPriceSelector        = "span.singlePrice, span.special-price"
	flancoLinkSelector         = "a.product-item-link"
	flancoAvailabilitySelector = "span.stocky-txt"
)

// FlancoExtractor reads listings from the Flanco search results (Source B). The page renders
// names, prices, links and stock labels as separate lists which are zipped back together.
type FlancoExtractor struct {
	opts Options
}

func NewFlancoExtractor(opts Options) *FlancoExtractor {
	if len(opts.StartURLs) == 0 {
		opts.StartURLs = []string{FlancoSearchURL}
		opts.AllowedDomains = []string{"flanco.ro", "www.flanco.ro"}
	}
	return &FlancoExtractor{opts: opts}
}

func (f *FlancoExtractor) Extract(ctx context.Context) ([]RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := newCollector(f.opts)

	var (
		records []RawRecord
		errs    []error
	)
	c.OnHTML("html", func(e *colly.HTMLElement) {
		page, err := zipListings(e)
		if err != nil {
			errs = append(errs, fmt.Errorf("page %q: %w", e.Request.URL.String(), err))
			return
		}
		records = append(records, page...)
	})

	if err := crawl(c, f.opts.StartURLs); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return records, errors.Join(errs...)
	}
	return records, nil
}

func zipListings(e *colly.HTMLElement) ([]RawRecord, error) {
	names := texts(e.DOM.Find(flancoNameSelector))
	prices := texts(e.DOM.Find(flancoPriceSelector))
	availability := texts(e.DOM.Find(flancoAvailabilitySelector))

	// product tiles link the image and the title to the same page
	var links []string
	seen := map[string]bool{}
	e.DOM.Find(flancoLinkSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		link := e.Request.AbsoluteURL(href)
		if seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	})

	n := len(names)
	if len(prices) != n || len(links) != n || len(availability) != n {
		return nil, fmt.Errorf("%w: names=%d prices=%d links=%d availability=%d",
			ErrLayoutMismatch, n, len(prices), len(links), len(availability))
	}

	records := make([]RawRecord, 0, n)
	for i := range names {
		records = append(records, RawRecord{
			Name:             names[i],
			PriceText:        prices[i],
			AvailabilityText: availability[i],
			Link:             links[i],
		})
	}
	return records, nil
}

func texts(s *goquery.Selection) []string {
	out := make([]string, 0, s.Length())
	s.Each(func(_ int, el *goquery.Selection) {
		out = append(out, strings.TrimSpace(el.Text()))
	})
	return out
}
