package scraper

import (
	"context"
	"errors"
)

// RawRecord is a listing exactly as a source page shows it, before any validation.
type RawRecord struct {
	Name             string
	PriceText        string
	AvailabilityText string
	Link             string
}

// Extractor fetches the current listings of one source. Every call fetches fresh state, so
// extractors are safe to retry.
type Extractor interface {
	Extract(ctx context.Context) ([]RawRecord, error)
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc func(ctx context.Context) ([]RawRecord, error)

func (f ExtractorFunc) Extract(ctx context.Context) ([]RawRecord, error) {
	return f(ctx)
}

// ErrLayoutMismatch means a results page could not be split into consistent listings.
var ErrLayoutMismatch = errors.New("mismatch in lengths of product attributes")
