package analytics

import (
	"context"
	"sort"

	"github.com/meglermonitor/backend/internal/listing"
)

// Districts groups the filtered listing set by district, then independently
// by (district, broker) and (district, chain), keeping the top limit entries
// per district ranked by total commission within that district. Listings
// without a district are skipped; districts are emitted alphabetically.
func (s *Service) Districts(ctx context.Context, f listing.Filter, limit int) ([]DistrictAggregate, error) {
	rows, err := s.repo.FilteredListings(ctx, f)
	if err != nil {
		return nil, err
	}
	return AggregateDistricts(rows, limit), nil
}

// AggregateDistricts performs the windowed per-district ranking. Unlike the
// commission leaderboards, every listing counts here; missing commission
// estimates contribute 0.
func AggregateDistricts(rows []listing.Listing, limit int) []DistrictAggregate {
	type commissionAccum struct {
		broker   string
		chain    *string
		listings int
		total    float64
	}
	type districtAccum struct {
		brokerOrder []string
		brokers     map[string]*commissionAccum
		chainOrder  []string
		chains      map[string]*commissionAccum
	}

	var order []string
	districts := map[string]*districtAccum{}

	for i := range rows {
		l := &rows[i]
		district := groupKey(l.District)
		if district == "" {
			continue
		}
		acc, seen := districts[district]
		if !seen {
			acc = &districtAccum{
				brokers: map[string]*commissionAccum{},
				chains:  map[string]*commissionAccum{},
			}
			districts[district] = acc
			order = append(order, district)
		}

		commission := 0.0
		if l.CommissionEst != nil {
			commission = *l.CommissionEst
		}

		broker := groupKey(l.Broker)
		brokerKey := broker + "\x00" + groupKey(l.Chain)
		b, seen := acc.brokers[brokerKey]
		if !seen {
			b = &commissionAccum{broker: broker, chain: l.Chain}
			acc.brokers[brokerKey] = b
			acc.brokerOrder = append(acc.brokerOrder, brokerKey)
		}
		b.listings++
		b.total += commission

		chainKey := groupKey(l.Chain)
		c, seen := acc.chains[chainKey]
		if !seen {
			c = &commissionAccum{chain: l.Chain}
			acc.chains[chainKey] = c
			acc.chainOrder = append(acc.chainOrder, chainKey)
		}
		c.listings++
		c.total += commission
	}

	sort.Strings(order)

	aggs := make([]DistrictAggregate, 0, len(order))
	for _, district := range order {
		acc := districts[district]

		brokers := make([]CommissionBrokerAggregate, 0, len(acc.brokerOrder))
		for _, key := range acc.brokerOrder {
			b := acc.brokers[key]
			brokers = append(brokers, CommissionBrokerAggregate{
				Broker:          labelOf(b.broker),
				Chain:           b.chain,
				Listings:        b.listings,
				TotalCommission: roundMoney(b.total),
				AvgCommission:   safeAvg(b.total, b.listings),
			})
		}
		sort.SliceStable(brokers, func(i, j int) bool {
			return brokers[i].TotalCommission > brokers[j].TotalCommission
		})

		chains := make([]CommissionChainAggregate, 0, len(acc.chainOrder))
		for _, key := range acc.chainOrder {
			c := acc.chains[key]
			chains = append(chains, CommissionChainAggregate{
				Chain:           labelOf(key),
				Listings:        c.listings,
				TotalCommission: roundMoney(c.total),
				AvgCommission:   safeAvg(c.total, c.listings),
			})
		}
		sort.SliceStable(chains, func(i, j int) bool {
			return chains[i].TotalCommission > chains[j].TotalCommission
		})

		aggs = append(aggs, DistrictAggregate{
			District: district,
			Brokers:  truncate(brokers, limit),
			Chains:   truncate(chains, limit),
		})
	}
	return aggs
}
