package notify

import (
	"strings"
	"text/template"

	"github.com/geniass/airpods-dealz/pkg/deals"
)

var subjectTemplate = template.Must(template.New("subject").Parse(
	`Product offer for: {{ .Product.Name }}`,
))

var bodyTemplate = template.Must(template.New("body").Parse(
	`An offer has been found for {{ .Product.Name }} at a price of {{ printf "%.2f" .Product.Price }} RON. ` +
		`This price is {{ printf "%.2f" .DiscountPct }}% lower than the average price of the product ` +
		`which is {{ printf "%.2f" .Average }} RON. ` +
		`You can find the product on the following link: {{ .Product.Link }}`,
))

// Compose renders the subject and body of an offer alert.
func Compose(o deals.Offer) (subject, body string, err error) {
	var sb, bb strings.Builder
	if err := subjectTemplate.Execute(&sb, o); err != nil {
		return "", "", err
	}
	if err := bodyTemplate.Execute(&bb, o); err != nil {
		return "", "", err
	}
	return sb.String(), bb.String(), nil
}
