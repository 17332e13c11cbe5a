package scraper

import (
	"context"

	"github.com/gocolly/colly/v2"
)

const AltexSearchURL = "https://altex.ro/cauta/?q=AirPods"

// Listing layout of the Altex search page. Price and availability are positional inside a
// result item.
const (
	altexItemXPath         = `//ul/li[.//span[contains(@class, 'Product-name')]]`
	altexNameXPath         = `.//span[contains(@class, 'Product-name')]`
	altexLinkXPath         = altexNameXPath + `/..`
	altexPriceXPath        = `div/div[3]/div/div/span/span[1]`
	altexAvailabilityXPath = `div/div[2]`
)

// AltexExtractor reads listings from the Altex search results (Source A).
type AltexExtractor struct {
	opts Options
}

func NewAltexExtractor(opts Options) *AltexExtractor {
	if len(opts.StartURLs) == 0 {
		opts.StartURLs = []string{AltexSearchURL}
		opts.AllowedDomains = []string{"altex.ro", "www.altex.ro"}
	}
	return &AltexExtractor{opts: opts}
}

func (a *AltexExtractor) Extract(ctx context.Context) ([]RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := newCollector(a.opts)

	var records []RawRecord
	c.OnXML(altexItemXPath, func(e *colly.XMLElement) {
		link := ""
		if href := e.ChildAttr(altexLinkXPath, "href"); href != "" {
			link = e.Request.AbsoluteURL(href)
		}
		records = append(records, RawRecord{
			Name:             e.ChildText(altexNameXPath),
			PriceText:        e.ChildText(altexPriceXPath),
			AvailabilityText: e.ChildText(altexAvailabilityXPath),
			Link:             link,
		})
	})

	err := crawl(c, a.opts.StartURLs)
	return records, err
}
