package deals

import (
	"github.com/geniass/airpods-dealz/pkg/product"
)

// MinDiscountPct is the smallest drop below the rolling average that makes an offer.
const MinDiscountPct = 15.0

// Offer is a tier whose cheapest current listing is far enough below its average.
type Offer struct {
	Tier        product.Tier
	Product     product.Product
	Average     float64
	DiscountPct float64
}

// Decide evaluates one summary. Tiers without a current observation or without a historical
// baseline (zero average) never qualify.
func Decide(s Summary) (Offer, bool) {
	if s.Cheapest == nil || s.Average <= 0 {
		return Offer{}, false
	}
	price := s.Cheapest.Price
	if price >= s.Average {
		return Offer{}, false
	}

	discount := 100 * (s.Average - price) / s.Average
	if discount < MinDiscountPct {
		return Offer{}, false
	}
	return Offer{
		Tier:        s.Tier,
		Product:     *s.Cheapest,
		Average:     s.Average,
		DiscountPct: discount,
	}, true
}

// Offers evaluates every summary independently.
func Offers(summaries []Summary) []Offer {
	var offers []Offer
	for _, s := range summaries {
		if o, ok := Decide(s); ok {
			offers = append(offers, o)
		}
	}
	return offers
}
