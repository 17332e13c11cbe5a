package deals

import (
	"cloud.google.com/go/civil"
	"github.com/geniass/airpods-dealz/pkg/product"
)

// Averages holds the trailing one-month mean price per tier. A tier without entries in the
// window has a zero mean.
type Averages struct {
	Mean  [len(product.Tiers)]float64
	Count [len(product.Tiers)]int
}

func (a Averages) Of(t product.Tier) float64 {
	return a.Mean[t]
}

// RollingAverages averages every ledger entry observed on or after the date one calendar
// month before today.
func RollingAverages(family product.Family, ledger []product.Product, today civil.Date) Averages {
	cutoff := product.MonthBefore(today)

	var (
		sums [len(product.Tiers)]float64
		avg  Averages
	)
	// the ledger is appended chronologically; newest entries are at the end
	for i := len(ledger) - 1; i >= 0; i-- {
		p := ledger[i]
		if p.Date.Before(cutoff) {
			continue
		}
		t := family.Classify(p.Name)
		sums[t] += p.Price
		avg.Count[t]++
	}

	for t := range sums {
		if avg.Count[t] > 0 {
			avg.Mean[t] = sums[t] / float64(avg.Count[t])
		}
	}
	return avg
}
