package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/meglermonitor/backend/internal/listing"
)

// Sample is the in-memory backend over the offline/demo dataset. The dataset
// is decoded from disk exactly once on first use, normalized and held
// immutable for the process lifetime; there is no reload path. Concurrent
// first access is coordinated by sync.Once, after which all reads are
// lock-free.
type Sample struct {
	path string

	once     sync.Once
	listings []listing.Listing
	err      error
}

// NewSample creates a sample backend reading from a JSON file of listings.
// Timestamps in the file must be RFC 3339.
func NewSample(path string) *Sample {
	return &Sample{path: path}
}

// NewSampleFromListings creates a sample backend over an in-memory dataset,
// used by tests and diagnostics. The listings are normalized and sorted into
// contract order immediately.
func NewSampleFromListings(listings []listing.Listing) *Sample {
	s := &Sample{}
	s.once.Do(func() {
		owned := make([]listing.Listing, len(listings))
		copy(owned, listings)
		for i := range owned {
			listing.Normalize(&owned[i])
		}
		sortCanonical(owned)
		s.listings = owned
	})
	return s
}

// load reads and caches the dataset. The error, if any, is cached too: a
// broken sample file fails every request rather than retrying.
func (s *Sample) load() ([]listing.Listing, error) {
	s.once.Do(func() {
		raw, err := os.ReadFile(s.path)
		if err != nil {
			s.err = fmt.Errorf("read sample dataset: %w", err)
			return
		}
		var decoded []listing.Listing
		if err := json.Unmarshal(raw, &decoded); err != nil {
			s.err = fmt.Errorf("decode sample dataset %s: %w", s.path, err)
			return
		}
		for i := range decoded {
			listing.Normalize(&decoded[i])
		}
		sortCanonical(decoded)
		s.listings = decoded
	})
	return s.listings, s.err
}

// FilteredListings evaluates the filter predicate directly over the cached
// dataset, preserving contract order.
func (s *Sample) FilteredListings(_ context.Context, f listing.Filter) ([]listing.Listing, error) {
	all, err := s.load()
	if err != nil {
		return nil, err
	}
	var matched []listing.Listing
	for i := range all {
		if f.Matches(&all[i]) {
			matched = append(matched, all[i])
		}
	}
	return matched, nil
}

// LatestSnapshotDay returns the maximum snapshot day over the filtered set.
func (s *Sample) LatestSnapshotDay(_ context.Context, f listing.Filter) (listing.Day, bool, error) {
	all, err := s.load()
	if err != nil {
		return listing.Day{}, false, err
	}
	var max listing.Day
	found := false
	for i := range all {
		if all[i].SnapshotAt.IsZero() || !f.Matches(&all[i]) {
			continue
		}
		day := all[i].SnapshotDay()
		if !found || day.After(max) {
			max = day
			found = true
		}
	}
	return max, found, nil
}

// Size returns the number of listings in the dataset, loading it if needed.
func (s *Sample) Size() (int, error) {
	all, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(all), nil
}
