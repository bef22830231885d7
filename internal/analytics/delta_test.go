package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meglermonitor/backend/internal/listing"
)

func TestDeltasPartitionAndSort(t *testing.T) {
	// Anchor day 2025-06-12 with 7-day windows: now covers 06-06..06-12,
	// prev covers 05-30..06-05.
	svc := newTestService([]listing.Listing{
		// Grower: 5M -> 9M.
		mk("2025-06-05", broker("Vekst", "DNB"), price(5_000_000)),
		mk("2025-06-12", broker("Vekst", "DNB"), price(9_000_000)),
		// Faller: 8M -> 2M.
		mk("2025-06-05", broker("Fall", "Krogsveen"), price(8_000_000)),
		mk("2025-06-12", broker("Fall", "Krogsveen"), price(2_000_000)),
		// Flat: identical totals, must appear in neither partition.
		mk("2025-06-05", broker("Flat", "EIE"), price(4_000_000)),
		mk("2025-06-12", broker("Flat", "EIE"), price(4_000_000)),
		// Only present in the now window.
		mk("2025-06-12", broker("Ny", "Nordvik"), price(1_000_000)),
		// Only present in the prev window.
		mk("2025-06-05", broker("Borte", "PrivatMegleren"), price(3_000_000)),
	})

	result, err := svc.Deltas(context.Background(), 7, 0)
	require.NoError(t, err)

	require.Len(t, result.Growing, 2)
	assert.Equal(t, "Vekst", *result.Growing[0].Broker)
	assert.Equal(t, int64(4_000_000), result.Growing[0].Delta)
	assert.Equal(t, "Ny", *result.Growing[1].Broker)
	assert.Equal(t, int64(0), result.Growing[1].PrevValue, "missing window contributes zero")

	require.Len(t, result.Falling, 2)
	assert.Equal(t, "Fall", *result.Falling[0].Broker, "most negative first")
	assert.Equal(t, int64(-6_000_000), result.Falling[0].Delta)
	assert.Equal(t, "Borte", *result.Falling[1].Broker)
	assert.Equal(t, int64(0), result.Falling[1].NowValue)

	for _, e := range append(result.Growing, result.Falling...) {
		assert.Equal(t, e.NowValue-e.PrevValue, e.Delta)
		assert.NotZero(t, e.Delta, "flat entities are excluded")
	}
}

func TestDeltasLimit(t *testing.T) {
	svc := newTestService([]listing.Listing{
		mk("2025-06-12", broker("A", "X"), price(1_000_000)),
		mk("2025-06-12", broker("B", "X"), price(2_000_000)),
		mk("2025-06-12", broker("C", "X"), price(3_000_000)),
	})

	result, err := svc.Deltas(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Len(t, result.Growing, 2)
	assert.Equal(t, "C", *result.Growing[0].Broker)
}

func TestDeltasEmptyDataset(t *testing.T) {
	svc := newTestService(nil)

	result, err := svc.Deltas(context.Background(), 30, 10)
	require.NoError(t, err)
	assert.NotNil(t, result.Growing)
	assert.NotNil(t, result.Falling)
	assert.Empty(t, result.Growing)
	assert.Empty(t, result.Falling)
}

func TestCommissionTrendsUsesCommissionAndFilter(t *testing.T) {
	svc := newTestService([]listing.Listing{
		mk("2025-06-05", broker("Kari", "DNB"), city("Oslo"), commission(40_000)),
		mk("2025-06-12", broker("Kari", "DNB"), city("Oslo"), commission(90_000)),
		// Filtered out by city.
		mk("2025-06-12", broker("Ola", "Krogsveen"), city("Bergen"), commission(500_000)),
		// Non-positive commissions never participate.
		mk("2025-06-12", broker("Null", "EIE"), city("Oslo"), commission(0)),
	})

	f := listing.Filter{Cities: []string{"Oslo"}}
	result, err := svc.CommissionTrends(context.Background(), f, 7, 0)
	require.NoError(t, err)

	require.Len(t, result.Growing, 1)
	assert.Equal(t, "Kari", *result.Growing[0].Broker)
	assert.Equal(t, int64(90_000), result.Growing[0].NowTotal)
	assert.Equal(t, int64(40_000), result.Growing[0].PrevTotal)
	assert.Equal(t, int64(50_000), result.Growing[0].Delta)
	assert.Empty(t, result.Falling)
}

func TestCommissionTrendsIgnoresExplicitDates(t *testing.T) {
	since, _ := listing.ParseDay("2020-01-01")
	until, _ := listing.ParseDay("2020-12-31")

	svc := newTestService([]listing.Listing{
		mk("2025-06-12", broker("Kari", "DNB"), commission(90_000)),
	})

	f := listing.Filter{Since: &since, Until: &until}
	result, err := svc.CommissionTrends(context.Background(), f, 7, 0)
	require.NoError(t, err)
	require.Len(t, result.Growing, 1, "delta windows always anchor to data availability")
}
