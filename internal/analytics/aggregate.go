package analytics

import (
	"context"
	"sort"
	"strings"

	"github.com/meglermonitor/backend/internal/listing"
)

// Brokers computes the broker rollup for the given filter and window, sorted
// by the caller-selected key. The minimum-sold-count threshold on the filter
// is applied after aggregation, so a broker is dropped for having too few
// sold listings, not its individual listings.
func (s *Service) Brokers(ctx context.Context, f listing.Filter, window string, sortKey SortKey, limit int) ([]BrokerAggregate, error) {
	resolved, ok, err := s.resolveRange(ctx, f, window, 30)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []BrokerAggregate{}, nil
	}

	rows, err := s.repo.FilteredListings(ctx, resolved)
	if err != nil {
		return nil, err
	}

	aggs := AggregateBrokers(rows)

	if f.MinSoldCount > 0 {
		kept := aggs[:0]
		for _, a := range aggs {
			if a.CountSold >= f.MinSoldCount {
				kept = append(kept, a)
			}
		}
		aggs = kept
	}

	SortBrokerAggregates(aggs, sortKey)
	return truncate(aggs, limit), nil
}

// Chains computes the chain rollup over active listings for the given window.
func (s *Service) Chains(ctx context.Context, f listing.Filter, window string, limit int) ([]ChainAggregate, error) {
	resolved, ok, err := s.resolveRange(ctx, f, window, 30)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []ChainAggregate{}, nil
	}

	rows, err := s.repo.FilteredListings(ctx, resolved)
	if err != nil {
		return nil, err
	}

	aggs := AggregateChains(rows)
	return truncate(aggs, limit), nil
}

// AggregateBrokers groups a filtered listing set by broker. Group order
// follows first appearance in the input, which both backends deliver in
// canonical order, so the representative chain/role ("first non-null seen")
// is deterministic.
func AggregateBrokers(rows []listing.Listing) []BrokerAggregate {
	type accum struct {
		chain       *string
		role        *string
		countActive int
		countSold   int
		total       float64
		valueCount  int
	}

	var order []string
	groups := map[string]*accum{}

	for i := range rows {
		l := &rows[i]
		key := groupKey(l.Broker)
		acc, seen := groups[key]
		if !seen {
			acc = &accum{}
			groups[key] = acc
			order = append(order, key)
		}
		if acc.chain == nil {
			acc.chain = l.Chain
		}
		if acc.role == nil {
			acc.role = l.EffectiveRole()
		}
		if l.Sold() {
			acc.countSold++
		} else if l.Active() {
			acc.countActive++
		}
		if l.Price != nil {
			acc.total += *l.Price
			acc.valueCount++
		}
	}

	aggs := make([]BrokerAggregate, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		aggs = append(aggs, BrokerAggregate{
			Broker:      labelOf(key),
			Chain:       acc.chain,
			Role:        acc.role,
			CountActive: acc.countActive,
			CountSold:   acc.countSold,
			Count:       acc.countActive + acc.countSold,
			TotalValue:  roundMoney(acc.total),
			AvgValue:    safeAvg(acc.total, acc.valueCount),
		})
	}
	return aggs
}

// AggregateChains groups the active listings of a filtered set by chain.
func AggregateChains(rows []listing.Listing) []ChainAggregate {
	type accum struct {
		count      int
		total      float64
		valueCount int
	}

	var order []string
	groups := map[string]*accum{}

	for i := range rows {
		l := &rows[i]
		if !l.Active() {
			continue
		}
		key := groupKey(l.Chain)
		acc, seen := groups[key]
		if !seen {
			acc = &accum{}
			groups[key] = acc
			order = append(order, key)
		}
		acc.count++
		if l.Price != nil {
			acc.total += *l.Price
			acc.valueCount++
		}
	}

	aggs := make([]ChainAggregate, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		aggs = append(aggs, ChainAggregate{
			Chain:      labelOf(key),
			TotalValue: roundMoney(acc.total),
			Count:      acc.count,
			AvgValue:   safeAvg(acc.total, acc.valueCount),
		})
	}

	sort.SliceStable(aggs, func(i, j int) bool {
		return aggs[i].TotalValue > aggs[j].TotalValue
	})
	return aggs
}

// SortBrokerAggregates orders aggregates by the selected key descending,
// breaking ties by total value descending. The sort is stable over the
// deterministic group order, so equal entries keep a defined sequence.
func SortBrokerAggregates(aggs []BrokerAggregate, key SortKey) {
	value := func(a BrokerAggregate) int64 {
		switch key {
		case SortAvgValue:
			return a.AvgValue
		case SortCountSold:
			return int64(a.CountSold)
		case SortCountActive:
			return int64(a.CountActive)
		default:
			return a.TotalValue
		}
	}
	sort.SliceStable(aggs, func(i, j int) bool {
		vi, vj := value(aggs[i]), value(aggs[j])
		if vi != vj {
			return vi > vj
		}
		return aggs[i].TotalValue > aggs[j].TotalValue
	})
}

// groupKey normalizes a nullable grouping attribute: nil and blank values
// collapse into the single unknown bucket.
func groupKey(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
