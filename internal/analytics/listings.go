package analytics

import (
	"context"
	"sort"

	"github.com/meglermonitor/backend/internal/listing"
)

// Listings returns the raw filtered listing set. Without explicit dates it
// defaults to the latest snapshot day so callers see the current state, not
// the whole history; when no snapshot data exists the filter runs as-is and
// yields an empty set. The minimum-sold-count threshold is applied over the
// final set.
func (s *Service) Listings(ctx context.Context, f listing.Filter) ([]listing.Listing, error) {
	resolved := f
	if !f.HasDates() {
		anchor, found, err := s.anchor(ctx)
		if err != nil {
			return nil, err
		}
		if found {
			resolved = f.WithRange(anchor, anchor)
		}
	}

	rows, err := s.repo.FilteredListings(ctx, resolved)
	if err != nil {
		return nil, err
	}
	rows = listing.FilterByMinSoldCount(rows, f.MinSoldCount)

	// Newest first, highest price first within a day; unpriced listings sink.
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := &rows[i], &rows[j]
		if !a.SnapshotAt.Equal(b.SnapshotAt) {
			return a.SnapshotAt.After(b.SnapshotAt)
		}
		ap, bp := a.Price, b.Price
		switch {
		case ap == nil && bp == nil:
			return false
		case ap == nil:
			return false
		case bp == nil:
			return true
		default:
			return *ap > *bp
		}
	})

	if rows == nil {
		rows = []listing.Listing{}
	}
	return rows, nil
}
