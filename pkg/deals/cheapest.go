// Package deals reduces a cycle's observations to one summary per tier and decides which
// tiers are worth an alert.
package deals

import (
	"github.com/geniass/airpods-dealz/pkg/product"
)

// Summary is the per-tier view of one cycle. Cheapest is nil when the tier had no
// observation this cycle.
type Summary struct {
	Tier     product.Tier
	Cheapest *product.Product
	Average  float64
}

// Cheapest returns one summary per tier in product.Tiers order. A product only replaces the
// current pick when it is strictly cheaper, so among equal prices the first one seen wins.
func Cheapest(family product.Family, batch []product.Product) []Summary {
	summaries := make([]Summary, len(product.Tiers))
	for i, t := range product.Tiers {
		summaries[i].Tier = t
	}

	for i := range batch {
		p := batch[i]
		s := &summaries[family.Classify(p.Name)]
		if s.Cheapest == nil || p.Price < s.Cheapest.Price {
			s.Cheapest = &p
		}
	}
	return summaries
}

// WithAverages fills in Average from a per-tier average table.
func WithAverages(summaries []Summary, avg Averages) []Summary {
	out := make([]Summary, len(summaries))
	for i, s := range summaries {
		s.Average = avg.Of(s.Tier)
		out[i] = s
	}
	return out
}
