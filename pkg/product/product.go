// Package product holds the canonical product model shared by the scraper, the history
// ledger and the offer engine.
package product

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Product is one observed listing. Field order is the serialized order of the history ledger.
type Product struct {
	Name  string     `json:"name"`
	Link  string     `json:"link"`
	Price float64    `json:"price"`
	Date  civil.Date `json:"date"`
}

type Tier int

const (
	Standard Tier = iota
	Pro
	Max
)

// Tiers lists every tier in summary order.
var Tiers = [...]Tier{Standard, Pro, Max}

func (t Tier) String() string {
	switch t {
	case Standard:
		return "Standard"
	case Pro:
		return "Pro"
	case Max:
		return "Max"
	}
	return "Unknown"
}

// Family describes the tracked product line: the token every member's name carries and the
// markers that split it into tiers.
type Family struct {
	Token     string
	ProMarker string
	MaxMarker string
}

// AirPods is the family tracked by the dealz agent ("Casti" is the retailers' headphones prefix).
var AirPods = Family{
	Token:     "Casti",
	ProMarker: "Pro",
	MaxMarker: "Max",
}

// Member reports whether name belongs to the family.
func (f Family) Member(name string) bool {
	return f.Token != "" && strings.Contains(name, f.Token)
}

// Classify maps a name to its tier. The Max marker wins over the Pro marker.
func (f Family) Classify(name string) Tier {
	switch {
	case f.MaxMarker != "" && strings.Contains(name, f.MaxMarker):
		return Max
	case f.ProMarker != "" && strings.Contains(name, f.ProMarker):
		return Pro
	default:
		return Standard
	}
}

// Today is the observation date for a cycle running at now.
func Today(now time.Time) civil.Date {
	return civil.DateOf(now)
}

// MonthBefore subtracts one calendar month, clamping the day to the length of the target
// month (2024-03-31 gives 2024-02-29).
func MonthBefore(d civil.Date) civil.Date {
	year, month := d.Year, d.Month-1
	if month < time.January {
		month = time.December
		year--
	}
	day := d.Day
	if last := daysIn(year, month); day > last {
		day = last
	}
	return civil.Date{Year: year, Month: month, Day: day}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
