// Package normalize turns raw scraped records into canonical products.
//
// Normalization is pure: the same record, family and date always give the same product or
// the same rejection.
package normalize

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/geniass/airpods-dealz/pkg/product"
	"github.com/geniass/airpods-dealz/pkg/scraper"
	"github.com/shopspring/decimal"
)

var (
	ErrPriceMissing        = errors.New("price is missing")
	ErrAvailabilityMissing = errors.New("availability information is missing")
	ErrNotInFamily         = errors.New("not part of the tracked product family")
	ErrBadLink             = errors.New("link is not an absolute URL")
)

// priceAdjustment is added to every whole-unit price. Historical ledgers were written with it,
// so averages only stay comparable if new observations carry it too.
var priceAdjustment = decimal.RequireFromString("0.99")

// RejectError explains why a record was dropped. It unwraps to one of the Err* reasons.
type RejectError struct {
	Name   string
	Reason error
	Detail string
}

func (e *RejectError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("for product %q: %v: %s", e.Name, e.Reason, e.Detail)
	}
	return fmt.Sprintf("for product %q: %v", e.Name, e.Reason)
}

func (e *RejectError) Unwrap() error {
	return e.Reason
}

// Normalizer validates records of one source.
type Normalizer struct {
	Family       product.Family
	Availability AvailabilityPolicy
}

// Normalize builds a product observed on date, or returns a *RejectError.
func (n Normalizer) Normalize(r scraper.RawRecord, date civil.Date) (product.Product, error) {
	name := strings.TrimSpace(r.Name)

	price, err := ParsePrice(r.PriceText)
	if err != nil {
		return product.Product{}, &RejectError{Name: name, Reason: ErrPriceMissing, Detail: err.Error()}
	}

	if n.Availability == nil || !n.Availability.InStock(r.AvailabilityText) {
		return product.Product{}, &RejectError{Name: name, Reason: ErrAvailabilityMissing, Detail: fmt.Sprintf("%q", r.AvailabilityText)}
	}

	if name == "" || !n.Family.Member(name) {
		return product.Product{}, &RejectError{Name: name, Reason: ErrNotInFamily}
	}

	link, err := url.Parse(strings.TrimSpace(r.Link))
	if err != nil || !link.IsAbs() || link.Host == "" {
		return product.Product{}, &RejectError{Name: name, Reason: ErrBadLink, Detail: fmt.Sprintf("%q", r.Link)}
	}

	return product.Product{
		Name:  name,
		Link:  link.String(),
		Price: price,
		Date:  date,
	}, nil
}

// ParsePrice reads a whole-unit price such as "1.299", "1.299,99 lei" or "899 RON" and
// applies the fixed 0.99 adjustment. Dots are thousands separators; anything from the decimal
// comma onwards is dropped.
func ParsePrice(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(strings.TrimRightFunc(s, func(r rune) bool {
		return r < '0' || r > '9'
	}))
	s = strings.NewReplacer(".", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return 0, fmt.Errorf("no digits in %q", text)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", text, err)
	}
	if !d.IsInteger() || !d.IsPositive() {
		return 0, fmt.Errorf("not a positive whole amount: %q", text)
	}

	return d.Add(priceAdjustment).InexactFloat64(), nil
}
