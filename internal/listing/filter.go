package listing

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// ValidationError reports malformed query parameters per field. A request
// carrying one is rejected before any aggregation runs.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid filter: " + strings.Join(parts, "; ")
}

// Filter is the canonical predicate set applied to listings. Each list is
// OR-matched case-insensitively; an empty list is no constraint. Matches is
// the single definition of filter semantics: the relational backend's WHERE
// clause must agree with it predicate for predicate.
type Filter struct {
	Sources       []string
	Cities        []string
	Districts     []string
	Chains        []string
	Brokers       []string
	Roles         []string
	PropertyTypes []string
	Segments      []string
	PriceBuckets  []string

	PriceMin *float64
	PriceMax *float64

	OnlySold     bool
	MinSoldCount int

	Since *Day
	Until *Day

	SearchTokens []string
}

// ParseFilter canonicalizes raw query parameters into a Filter. All malformed
// fields are collected into a single ValidationError.
func ParseFilter(values url.Values) (Filter, error) {
	fieldErrs := map[string]string{}

	f := Filter{
		Sources:       parseList(values.Get("source")),
		Cities:        parseList(values.Get("city")),
		Districts:     parseList(values.Get("district")),
		Chains:        parseList(values.Get("chain")),
		Brokers:       parseList(values.Get("broker")),
		PropertyTypes: parseList(values.Get("property_type")),
		Segments:      parseList(values.Get("segment")),
		PriceBuckets:  parseList(values.Get("price_bucket")),
	}

	// The secondary broker_role field is a fallback spelling for the same
	// constraint, not an extra one.
	f.Roles = parseList(values.Get("role"))
	if len(f.Roles) == 0 {
		f.Roles = parseList(values.Get("broker_role"))
	}

	f.PriceMin = parseOptionalFloat(values.Get("price_min"), "price_min", fieldErrs)
	f.PriceMax = parseOptionalFloat(values.Get("price_max"), "price_max", fieldErrs)

	if raw := values.Get("only_sold"); raw != "" {
		v, err := parseBool(raw)
		if err != nil {
			fieldErrs["only_sold"] = "must be a boolean"
		} else {
			f.OnlySold = v
		}
	}

	if raw := values.Get("min_sold_count"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			fieldErrs["min_sold_count"] = "must be a number"
		} else if n := int(math.Trunc(v)); n > 0 {
			f.MinSoldCount = n
		}
	}

	f.Since = parseOptionalDay(values.Get("since"), "since", fieldErrs)
	f.Until = parseOptionalDay(values.Get("until"), "until", fieldErrs)

	if raw := values.Get("search"); raw != "" {
		for _, token := range strings.Fields(strings.ToLower(raw)) {
			f.SearchTokens = append(f.SearchTokens, token)
		}
	}

	if len(fieldErrs) > 0 {
		return Filter{}, &ValidationError{Fields: fieldErrs}
	}
	return f, nil
}

// HasDates reports whether an explicit date range is set, in which case no
// symbolic window is applied.
func (f Filter) HasDates() bool {
	return f.Since != nil || f.Until != nil
}

// WithoutDates returns a copy with the date constraints stripped, used when
// resolving the anchor date so that it reflects current data availability.
func (f Filter) WithoutDates() Filter {
	copied := f
	copied.Since = nil
	copied.Until = nil
	return copied
}

// WithRange returns a copy constrained to [start, end] inclusive.
func (f Filter) WithRange(start, end Day) Filter {
	copied := f
	copied.Since = &start
	copied.Until = &end
	return copied
}

// Matches evaluates the filter against one listing. This is the in-memory
// evaluator the sample backend runs directly; min_sold_count is deliberately
// excluded here because it is a post-aggregation threshold, not a per-listing
// predicate.
func (f Filter) Matches(l *Listing) bool {
	if !matchList(f.Sources, &l.Source) {
		return false
	}
	if !matchList(f.Cities, l.City) {
		return false
	}
	if !matchList(f.Districts, l.District) {
		return false
	}
	if !matchList(f.Chains, l.Chain) {
		return false
	}
	if !matchList(f.Brokers, l.Broker) {
		return false
	}
	if !matchList(f.Roles, l.EffectiveRole()) {
		return false
	}
	if !matchList(f.PropertyTypes, l.PropertyType) {
		return false
	}
	if !matchList(f.Segments, l.Segment) {
		return false
	}
	if !matchList(f.PriceBuckets, l.PriceBucket) {
		return false
	}
	// Listings without a price pass the range check.
	if l.Price != nil {
		if f.PriceMin != nil && *l.Price < *f.PriceMin {
			return false
		}
		if f.PriceMax != nil && *l.Price > *f.PriceMax {
			return false
		}
	}
	if f.OnlySold && !l.Sold() {
		return false
	}
	if len(f.SearchTokens) > 0 {
		haystack := searchHaystack(l)
		for _, token := range f.SearchTokens {
			if !strings.Contains(haystack, token) {
				return false
			}
		}
	}
	if f.Since != nil || f.Until != nil {
		if l.SnapshotAt.IsZero() {
			return false
		}
		day := l.SnapshotDay()
		if f.Since != nil && day.Before(*f.Since) {
			return false
		}
		if f.Until != nil && day.After(*f.Until) {
			return false
		}
	}
	return true
}

// searchHaystack concatenates the searchable attributes of a listing,
// lower-cased. Every search token must be a substring of it.
func searchHaystack(l *Listing) string {
	fields := []*string{l.Broker, l.Chain, l.City, l.District, l.PropertyType, l.Segment}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != nil && *f != "" {
			parts = append(parts, *f)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// FilterByMinSoldCount keeps only listings whose broker has at least min sold
// listings within the given set. Brokers are keyed by trimmed lower-case name;
// listings without a broker never qualify.
func FilterByMinSoldCount(listings []Listing, min int) []Listing {
	if min <= 0 {
		return listings
	}
	counts := map[string]int{}
	for i := range listings {
		l := &listings[i]
		if !l.Sold() {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(deref(l.Broker)))
		if key == "" {
			continue
		}
		counts[key]++
	}
	var kept []Listing
	for i := range listings {
		key := strings.ToLower(strings.TrimSpace(deref(listings[i].Broker)))
		if counts[key] >= min && key != "" {
			kept = append(kept, listings[i])
		}
	}
	return kept
}

func matchList(list []string, value *string) bool {
	if len(list) == 0 {
		return true
	}
	if value == nil || *value == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(item, *value) {
			return true
		}
	}
	return false
}

func parseList(raw string) []string {
	if raw == "" {
		return nil
	}
	var list []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			list = append(list, item)
		}
	}
	return list
}

func parseOptionalFloat(raw, field string, fieldErrs map[string]string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		fieldErrs[field] = "must be a number"
		return nil
	}
	return &v
}

func parseOptionalDay(raw, field string, fieldErrs map[string]string) *Day {
	if raw == "" {
		return nil
	}
	d, err := ParseDay(raw)
	if err != nil {
		fieldErrs[field] = "must be an ISO date (YYYY-MM-DD)"
		return nil
	}
	return &d
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", raw)
}
