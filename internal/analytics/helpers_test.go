package analytics

import (
	"time"

	"github.com/meglermonitor/backend/internal/listing"
	"github.com/meglermonitor/backend/internal/store"
	"github.com/meglermonitor/backend/pkg/config"
	"github.com/meglermonitor/backend/pkg/logger"
)

// newTestService builds a service over an in-memory dataset.
func newTestService(rows []listing.Listing) *Service {
	log := logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
	return New(store.NewSampleFromListings(rows), log)
}

var listingSeq int

// mk builds one listing on the given snapshot day, customized by the option
// functions. Listing IDs are generated so canonical ordering stays stable.
func mk(day string, opts ...func(*listing.Listing)) listing.Listing {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	listingSeq++
	l := listing.Listing{
		Source:     "finn",
		ListingID:  string(rune('a'+listingSeq%26)) + day,
		LastSeenAt: t,
		SnapshotAt: t,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

func broker(name, chain string) func(*listing.Listing) {
	return func(l *listing.Listing) {
		l.Broker = &name
		if chain != "" {
			l.Chain = &chain
		}
	}
}

func price(p float64) func(*listing.Listing) {
	return func(l *listing.Listing) { l.Price = &p }
}

func commission(c float64) func(*listing.Listing) {
	return func(l *listing.Listing) { l.CommissionEst = &c }
}

func status(s string) func(*listing.Listing) {
	return func(l *listing.Listing) { l.Status = &s }
}

func sold() func(*listing.Listing) {
	return status("sold")
}

func district(d string) func(*listing.Listing) {
	return func(l *listing.Listing) { l.District = &d }
}

func city(c string) func(*listing.Listing) {
	return func(l *listing.Listing) { l.City = &c }
}

func segment(s string) func(*listing.Listing) {
	return func(l *listing.Listing) { l.Segment = &s }
}

func role(r string) func(*listing.Listing) {
	return func(l *listing.Listing) { l.Role = &r }
}

func propertyType(p string) func(*listing.Listing) {
	return func(l *listing.Listing) { l.PropertyType = &p }
}

func id(v string) func(*listing.Listing) {
	return func(l *listing.Listing) { l.ListingID = v }
}

func sp(s string) *string { return &s }
