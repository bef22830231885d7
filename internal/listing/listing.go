// Package listing holds the snapshot domain model: the listing record, its
// classification rules, derived attributes, the canonical filter and the
// symbolic time window resolver. Everything above this package (stores,
// analytics, HTTP) is written against the types defined here.
package listing

import (
	"strings"
	"time"
)

// Listing is one observation of a broker's published property on a given
// snapshot day. Listings are immutable once recorded; a broker's history is
// the set of all listings sharing that broker across snapshot days.
type Listing struct {
	Source        string     `json:"source"`
	ListingID     string     `json:"listing_id"`
	Title         *string    `json:"title"`
	Address       *string    `json:"address"`
	City          *string    `json:"city"`
	District      *string    `json:"district"`
	Chain         *string    `json:"chain"`
	Broker        *string    `json:"broker"`
	Price         *float64   `json:"price"`
	CommissionEst *float64   `json:"commission_est"`
	Status        *string    `json:"status"`
	Published     *time.Time `json:"published"`
	PropertyType  *string    `json:"property_type"`
	Segment       *string    `json:"segment"`
	PriceBucket   *string    `json:"price_bucket"`
	BrokerRole    *string    `json:"broker_role"`
	Role          *string    `json:"role"`
	IsSold        *bool      `json:"is_sold"`
	LastSeenAt    time.Time  `json:"last_seen_at"`
	SnapshotAt    time.Time  `json:"snapshot_at"`
}

// soldStatuses marks a listing as sold regardless of the is_sold flag.
// "solgt" is the Norwegian portal spelling.
var soldStatuses = map[string]bool{
	"sold":  true,
	"solgt": true,
}

// activeExclusions are statuses that disqualify a listing from the active
// count. A listing marked inactive or withdrawn is neither active nor sold.
var activeExclusions = map[string]bool{
	"sold":      true,
	"solgt":     true,
	"inactive":  true,
	"withdrawn": true,
}

// Sold reports whether the listing counts as sold: the is_sold flag, or a
// status equal to a sold marker (case-insensitive).
func (l *Listing) Sold() bool {
	if l.IsSold != nil && *l.IsSold {
		return true
	}
	return soldStatuses[strings.ToLower(deref(l.Status))]
}

// Active reports whether the listing counts as active: no status at all, or
// a status outside the exclusion set. Sold and Active are mutually exclusive
// because the sold statuses are a subset of the exclusions.
func (l *Listing) Active() bool {
	if l.Sold() {
		return false
	}
	status := strings.ToLower(deref(l.Status))
	if status == "" {
		return true
	}
	return !activeExclusions[status]
}

// EffectiveRole returns the role attribute, falling back to broker_role for
// listings lacking the primary field.
func (l *Listing) EffectiveRole() *string {
	if l.Role != nil && *l.Role != "" {
		return l.Role
	}
	return l.BrokerRole
}

// SnapshotDay returns the calendar day of this observation.
func (l *Listing) SnapshotDay() Day {
	return DayOf(l.SnapshotAt)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
