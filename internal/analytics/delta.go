package analytics

import (
	"context"
	"sort"

	"github.com/meglermonitor/backend/internal/listing"
)

// entityTotal is one (broker, chain) entity's rounded total over a window.
type entityTotal struct {
	broker *string
	chain  *string
	total  int64
}

// Deltas compares listing value per (broker, chain) entity across the
// trailing nowDays-day window and the equally long window immediately before
// it. Entities present in either window are joined with 0 substituted for
// the missing side; zero-delta entities are excluded from the result.
func (s *Service) Deltas(ctx context.Context, nowDays, limit int) (DeltaResult, error) {
	empty := DeltaResult{Growing: []DeltaAggregate{}, Falling: []DeltaAggregate{}}

	now, prev, ok, err := s.deltaWindows(ctx, listing.Filter{}, nowDays)
	if err != nil {
		return empty, err
	}
	if !ok {
		return empty, nil
	}

	nowTotals := entityTotals(now, priceValue)
	prevTotals := entityTotals(prev, priceValue)
	joined := joinEntities(nowTotals, prevTotals)

	result := DeltaResult{Growing: []DeltaAggregate{}, Falling: []DeltaAggregate{}}
	for _, e := range joined {
		agg := DeltaAggregate{
			Broker:    e.broker,
			Chain:     e.chain,
			NowValue:  e.now,
			PrevValue: e.prev,
			Delta:     e.now - e.prev,
		}
		switch {
		case agg.Delta > 0:
			result.Growing = append(result.Growing, agg)
		case agg.Delta < 0:
			result.Falling = append(result.Falling, agg)
		}
	}

	sort.SliceStable(result.Growing, func(i, j int) bool {
		return result.Growing[i].Delta > result.Growing[j].Delta
	})
	sort.SliceStable(result.Falling, func(i, j int) bool {
		return result.Falling[i].Delta < result.Falling[j].Delta
	})
	result.Growing = truncate(result.Growing, limit)
	result.Falling = truncate(result.Falling, limit)
	return result, nil
}

// CommissionTrends is the commission-specific delta variant: it aggregates
// only listings with a positive commission estimate, under the caller's
// filter.
func (s *Service) CommissionTrends(ctx context.Context, f listing.Filter, nowDays, limit int) (TrendResult, error) {
	empty := TrendResult{Growing: []TrendEntry{}, Falling: []TrendEntry{}}

	now, prev, ok, err := s.deltaWindows(ctx, f, nowDays)
	if err != nil {
		return empty, err
	}
	if !ok {
		return empty, nil
	}

	nowTotals := entityTotals(now, commissionValue)
	prevTotals := entityTotals(prev, commissionValue)
	joined := joinEntities(nowTotals, prevTotals)

	result := TrendResult{Growing: []TrendEntry{}, Falling: []TrendEntry{}}
	for _, e := range joined {
		entry := TrendEntry{
			Broker:    e.broker,
			Chain:     e.chain,
			NowTotal:  e.now,
			PrevTotal: e.prev,
			Delta:     e.now - e.prev,
		}
		switch {
		case entry.Delta > 0:
			result.Growing = append(result.Growing, entry)
		case entry.Delta < 0:
			result.Falling = append(result.Falling, entry)
		}
	}

	sort.SliceStable(result.Growing, func(i, j int) bool {
		return result.Growing[i].Delta > result.Growing[j].Delta
	})
	sort.SliceStable(result.Falling, func(i, j int) bool {
		return result.Falling[i].Delta < result.Falling[j].Delta
	})
	result.Growing = truncate(result.Growing, limit)
	result.Falling = truncate(result.Falling, limit)
	return result, nil
}

// deltaWindows fetches the two adjacent windows of length nowDays ending at
// the anchor date. Explicit dates on the filter are ignored: delta windows
// are always anchored to data availability.
func (s *Service) deltaWindows(ctx context.Context, f listing.Filter, nowDays int) (now, prev []listing.Listing, ok bool, err error) {
	anchor, found, err := s.anchor(ctx)
	if err != nil {
		return nil, nil, false, err
	}
	if !found {
		return nil, nil, false, nil
	}

	nowStart, nowEnd, prevStart, prevEnd := listing.DeltaWindows(anchor, nowDays)

	base := f.WithoutDates()
	now, err = s.repo.FilteredListings(ctx, base.WithRange(nowStart, nowEnd))
	if err != nil {
		return nil, nil, false, err
	}
	prev, err = s.repo.FilteredListings(ctx, base.WithRange(prevStart, prevEnd))
	if err != nil {
		return nil, nil, false, err
	}
	return now, prev, true, nil
}

// priceValue selects the listing price for value deltas; listings without a
// price contribute nothing.
func priceValue(l *listing.Listing) (float64, bool) {
	if l.Price == nil {
		return 0, false
	}
	return *l.Price, true
}

// commissionValue selects positive commission estimates for trend deltas.
func commissionValue(l *listing.Listing) (float64, bool) {
	if l.CommissionEst == nil || *l.CommissionEst <= 0 {
		return 0, false
	}
	return *l.CommissionEst, true
}

// orderedTotals carries per-entity window totals in first-seen order.
type orderedTotals struct {
	order  []string
	totals map[string]entityTotal
}

// entityTotals sums the selected value per (broker, chain) entity, rounding
// each window total before the join so that delta == now - prev holds
// exactly on the emitted integers.
func entityTotals(rows []listing.Listing, value func(*listing.Listing) (float64, bool)) orderedTotals {
	type accum struct {
		broker *string
		chain  *string
		total  float64
	}

	var order []string
	groups := map[string]*accum{}

	for i := range rows {
		l := &rows[i]
		v, counted := value(l)
		if !counted {
			continue
		}
		broker := groupKey(l.Broker)
		key := broker + "\x00" + groupKey(l.Chain)
		acc, seen := groups[key]
		if !seen {
			acc = &accum{broker: labelOf(broker), chain: l.Chain}
			groups[key] = acc
			order = append(order, key)
		}
		if acc.chain == nil {
			acc.chain = l.Chain
		}
		acc.total += v
	}

	totals := make(map[string]entityTotal, len(groups))
	for key, acc := range groups {
		totals[key] = entityTotal{broker: acc.broker, chain: acc.chain, total: roundMoney(acc.total)}
	}
	return orderedTotals{order: order, totals: totals}
}

// joinedEntity is the full-outer-join of one entity across both windows.
type joinedEntity struct {
	broker *string
	chain  *string
	now    int64
	prev   int64
}

// joinEntities full-outer-joins the two window totals on the entity key.
// Order is deterministic: now-window entities in their first-seen order,
// then prev-only entities in theirs.
func joinEntities(now, prev orderedTotals) []joinedEntity {
	joined := make([]joinedEntity, 0, len(now.order)+len(prev.order))
	for _, key := range now.order {
		n := now.totals[key]
		e := joinedEntity{broker: n.broker, chain: n.chain, now: n.total}
		if p, found := prev.totals[key]; found {
			e.prev = p.total
			if e.chain == nil {
				e.chain = p.chain
			}
		}
		joined = append(joined, e)
	}
	for _, key := range prev.order {
		if _, found := now.totals[key]; found {
			continue
		}
		p := prev.totals[key]
		joined = append(joined, joinedEntity{broker: p.broker, chain: p.chain, prev: p.total})
	}
	return joined
}
