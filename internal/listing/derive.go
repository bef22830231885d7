package listing

import "strings"

// Price bucket thresholds, in the source currency's smallest display unit.
const (
	bucketLow  = 5_000_000
	bucketMid  = 10_000_000
	bucketHigh = 20_000_000
)

// DerivePriceBucket maps a price to its coarse range label. Nil and
// non-positive prices have no bucket.
func DerivePriceBucket(price *float64) *string {
	if price == nil || *price <= 0 {
		return nil
	}
	var bucket string
	switch {
	case *price < bucketLow:
		bucket = "0-5M"
	case *price < bucketMid:
		bucket = "5-10M"
	case *price < bucketHigh:
		bucket = "10-20M"
	default:
		bucket = "20M+"
	}
	return &bucket
}

// segmentRule is one entry in the priority-ordered keyword heuristic.
type segmentRule struct {
	label    string
	keywords []string
}

// segmentRules is a fixed, ordered heuristic: the first rule with a keyword
// hit wins. Downstream aggregation depends on this exact set and order.
var segmentRules = []segmentRule{
	{"Nybygg", []string{"nybygg", "prosjekt"}},
	{"Rekkehus", []string{"rekkehus", "townhouse", "småhus", "tomannsbolig"}},
	{"Leilighet", []string{"leilig"}},
	{"Enebolig", []string{"enebolig"}},
	{"Fritidsbolig", []string{"fritids"}},
	{"Tomt", []string{"tomt"}},
}

// DeriveSegment infers the coarse property segment from the property type and
// title text. Falls back to the property type when no keyword matches.
func DeriveSegment(propertyType, title *string) *string {
	var parts []string
	if propertyType != nil && *propertyType != "" {
		parts = append(parts, *propertyType)
	}
	if title != nil && *title != "" {
		parts = append(parts, *title)
	}
	source := strings.ToLower(strings.Join(parts, " "))
	if source == "" {
		return propertyType
	}
	for _, rule := range segmentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(source, kw) {
				label := rule.label
				return &label
			}
		}
	}
	return propertyType
}

// Normalize fills the derived fields of a listing in place: the is_sold flag
// from the sold status set, the price bucket and the segment. Derivation
// happens once at ingestion; queries never re-derive.
func Normalize(l *Listing) {
	if l.IsSold == nil {
		sold := soldStatuses[strings.ToLower(deref(l.Status))]
		l.IsSold = &sold
	}
	if l.PriceBucket == nil {
		l.PriceBucket = DerivePriceBucket(l.Price)
	}
	if l.Segment == nil {
		l.Segment = DeriveSegment(l.PropertyType, l.Title)
	}
}
