package analytics

import (
	"context"
	"sort"

	"github.com/meglermonitor/backend/internal/listing"
)

// Commission leaderboards look back a full trailing year unless the caller
// narrows the window.
const defaultCommissionWindow = "12m"

// CommissionBrokers computes the broker commission leaderboard for the given
// filter and window. Only listings with a positive commission estimate
// participate.
func (s *Service) CommissionBrokers(ctx context.Context, f listing.Filter, window string, limit int) ([]CommissionBrokerAggregate, error) {
	if window == "" {
		window = defaultCommissionWindow
	}
	resolved, ok, err := s.resolveRange(ctx, f, window, 365)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []CommissionBrokerAggregate{}, nil
	}

	rows, err := s.repo.FilteredListings(ctx, resolved)
	if err != nil {
		return nil, err
	}
	return truncate(AggregateCommissionBrokers(rows), limit), nil
}

// CommissionChains computes the chain commission leaderboard.
func (s *Service) CommissionChains(ctx context.Context, f listing.Filter, window string, limit int) ([]CommissionChainAggregate, error) {
	if window == "" {
		window = defaultCommissionWindow
	}
	resolved, ok, err := s.resolveRange(ctx, f, window, 365)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []CommissionChainAggregate{}, nil
	}

	rows, err := s.repo.FilteredListings(ctx, resolved)
	if err != nil {
		return nil, err
	}
	return truncate(AggregateCommissionChains(rows), limit), nil
}

// AggregateCommissionBrokers groups commission-positive listings by
// (broker, chain) and ranks by total commission descending.
func AggregateCommissionBrokers(rows []listing.Listing) []CommissionBrokerAggregate {
	type accum struct {
		broker   string
		chain    *string
		listings int
		total    float64
	}

	var order []string
	groups := map[string]*accum{}

	for i := range rows {
		l := &rows[i]
		if l.CommissionEst == nil || *l.CommissionEst <= 0 {
			continue
		}
		broker := groupKey(l.Broker)
		key := broker + "\x00" + groupKey(l.Chain)
		acc, seen := groups[key]
		if !seen {
			acc = &accum{broker: broker, chain: l.Chain}
			groups[key] = acc
			order = append(order, key)
		}
		if acc.chain == nil {
			acc.chain = l.Chain
		}
		acc.listings++
		acc.total += *l.CommissionEst
	}

	aggs := make([]CommissionBrokerAggregate, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		aggs = append(aggs, CommissionBrokerAggregate{
			Broker:          labelOf(acc.broker),
			Chain:           acc.chain,
			Listings:        acc.listings,
			TotalCommission: roundMoney(acc.total),
			AvgCommission:   safeAvg(acc.total, acc.listings),
		})
	}

	sort.SliceStable(aggs, func(i, j int) bool {
		return aggs[i].TotalCommission > aggs[j].TotalCommission
	})
	return aggs
}

// AggregateCommissionChains groups commission-positive listings by chain.
func AggregateCommissionChains(rows []listing.Listing) []CommissionChainAggregate {
	type accum struct {
		listings int
		total    float64
	}

	var order []string
	groups := map[string]*accum{}

	for i := range rows {
		l := &rows[i]
		if l.CommissionEst == nil || *l.CommissionEst <= 0 {
			continue
		}
		key := groupKey(l.Chain)
		acc, seen := groups[key]
		if !seen {
			acc = &accum{}
			groups[key] = acc
			order = append(order, key)
		}
		acc.listings++
		acc.total += *l.CommissionEst
	}

	aggs := make([]CommissionChainAggregate, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		aggs = append(aggs, CommissionChainAggregate{
			Chain:           labelOf(key),
			Listings:        acc.listings,
			TotalCommission: roundMoney(acc.total),
			AvgCommission:   safeAvg(acc.total, acc.listings),
		})
	}

	sort.SliceStable(aggs, func(i, j int) bool {
		return aggs[i].TotalCommission > aggs[j].TotalCommission
	})
	return aggs
}
