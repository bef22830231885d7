// Package store provides the two listing repository backends: a relational
// one that pushes filtering down to PostgreSQL, and an in-memory one that
// evaluates the same predicates over a cached sample dataset. Everything
// above this package is written once against the Repository contract, so any
// divergence between the backends is a defect here, not in the analytics.
package store

import (
	"context"
	"sort"

	"github.com/meglermonitor/backend/internal/listing"
)

// Repository is the single query contract shared by both backends.
//
// FilteredListings returns every listing satisfying the filter, in canonical
// order: snapshot timestamp, then source, then listing ID, all ascending.
// The order is part of the contract: aggregation carries "first seen"
// attributes and must observe listings identically on both backends.
//
// LatestSnapshotDay returns the maximum snapshot day over the filtered set,
// reporting false when no listing matches at all.
type Repository interface {
	FilteredListings(ctx context.Context, f listing.Filter) ([]listing.Listing, error)
	LatestSnapshotDay(ctx context.Context, f listing.Filter) (listing.Day, bool, error)
}

// sortCanonical orders listings into the contract order shared with the
// relational backend's ORDER BY.
func sortCanonical(listings []listing.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		a, b := &listings[i], &listings[j]
		if !a.SnapshotAt.Equal(b.SnapshotAt) {
			return a.SnapshotAt.Before(b.SnapshotAt)
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.ListingID < b.ListingID
	})
}
