package normalize

import "strings"

// AvailabilityPolicy decides from a source's stock label whether a listing can be bought.
type AvailabilityPolicy interface {
	InStock(text string) bool
}

// KeywordAvailability is in stock when the lowercased label contains every keyword. Altex
// labels read "In stoc" when the item ships.
type KeywordAvailability struct {
	Keywords []string
}

func (k KeywordAvailability) InStock(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	for _, kw := range k.Keywords {
		if !strings.Contains(t, kw) {
			return false
		}
	}
	return true
}

// SoldOutPhrase is in stock unless the label is exactly the sold-out phrase. Flanco only
// labels the sold-out case consistently.
type SoldOutPhrase struct {
	Phrase string
}

func (s SoldOutPhrase) InStock(text string) bool {
	return text != s.Phrase
}

var (
	AltexAvailability  AvailabilityPolicy = KeywordAvailability{Keywords: []string{"in", "stoc"}}
	FlancoAvailability AvailabilityPolicy = SoldOutPhrase{Phrase: "Stoc epuizat"}
)
