package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meglermonitor/backend/internal/listing"
)

func strp(s string) *string { return &s }
func fp(f float64) *float64 { return &f }
func at(s string) time.Time { t, _ := time.Parse("2006-01-02", s); return t }

func sampleFixture() []listing.Listing {
	return []listing.Listing{
		{
			Source: "finn", ListingID: "b", Broker: strp("Kari Nordmann"),
			Chain: strp("DNB Eiendom"), City: strp("Oslo"),
			Price: fp(7_500_000), Status: strp("solgt"),
			SnapshotAt: at("2025-06-15"),
		},
		{
			Source: "finn", ListingID: "a", Broker: strp("Ola Hansen"),
			Chain: strp("Krogsveen"), City: strp("Bergen"),
			Price: fp(3_200_000),
			SnapshotAt: at("2025-06-15"),
		},
		{
			Source: "hjem", ListingID: "c", Broker: strp("Kari Nordmann"),
			Chain: strp("DNB Eiendom"), City: strp("Oslo"),
			Price: fp(12_000_000),
			SnapshotAt: at("2025-06-14"),
		},
	}
}

func TestSampleFilteredListingsCanonicalOrder(t *testing.T) {
	s := NewSampleFromListings(sampleFixture())

	rows, err := s.FilteredListings(context.Background(), listing.Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// snapshot_at asc, then source, then listing id.
	assert.Equal(t, "c", rows[0].ListingID)
	assert.Equal(t, "a", rows[1].ListingID)
	assert.Equal(t, "b", rows[2].ListingID)
}

func TestSampleFilteredListingsApplyFilter(t *testing.T) {
	s := NewSampleFromListings(sampleFixture())

	f := listing.Filter{Cities: []string{"oslo"}}
	rows, err := s.FilteredListings(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, l := range rows {
		assert.Equal(t, "Oslo", *l.City)
	}
}

func TestSampleNormalizesOnLoad(t *testing.T) {
	s := NewSampleFromListings(sampleFixture())

	rows, err := s.FilteredListings(context.Background(), listing.Filter{})
	require.NoError(t, err)

	for _, l := range rows {
		require.NotNil(t, l.IsSold)
		require.NotNil(t, l.PriceBucket, "priced listings get a bucket")
	}

	// Derived attributes are filterable.
	f := listing.Filter{PriceBuckets: []string{"5-10M"}}
	rows, err = s.FilteredListings(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0].ListingID)
}

func TestSampleLatestSnapshotDay(t *testing.T) {
	s := NewSampleFromListings(sampleFixture())

	day, found, err := s.LatestSnapshotDay(context.Background(), listing.Filter{})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2025-06-15", day.String())

	// The filtered maximum can differ from the global one.
	day, found, err = s.LatestSnapshotDay(context.Background(), listing.Filter{Sources: []string{"hjem"}})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2025-06-14", day.String())

	_, found, err = s.LatestSnapshotDay(context.Background(), listing.Filter{Cities: []string{"Tromsø"}})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSampleLoadsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.json")
	data := `[
		{"source":"finn","listing_id":"x","broker":"Kari Nordmann","price":7500000,
		 "status":"solgt","last_seen_at":"2025-06-15T10:00:00Z","snapshot_at":"2025-06-15T00:00:00Z"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	s := NewSample(path)
	size, err := s.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	rows, err := s.FilteredListings(context.Background(), listing.Filter{OnlySold: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "x", rows[0].ListingID)
}

func TestSampleCachesLoadError(t *testing.T) {
	s := NewSample(filepath.Join(t.TempDir(), "missing.json"))

	_, err := s.FilteredListings(context.Background(), listing.Filter{})
	require.Error(t, err)

	// The failure sticks for subsequent reads.
	_, _, err = s.LatestSnapshotDay(context.Background(), listing.Filter{})
	assert.Error(t, err)
}
