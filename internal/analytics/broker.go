package analytics

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/meglermonitor/backend/internal/listing"
)

var slugSeparators = regexp.MustCompile(`[-_]+`)

// SlugToName turns a URL slug back into a broker name: URL-decoded,
// separator runs replaced with spaces, trimmed. Slugification is lossy:
// distinct names can normalize to the same slug, and resolution simply
// returns whichever broker matches the de-slugged name case-insensitively.
func SlugToName(slug string) string {
	if decoded, err := url.PathUnescape(slug); err == nil {
		slug = decoded
	}
	return strings.TrimSpace(slugSeparators.ReplaceAllString(slug, " "))
}

// BrokerDetail assembles the cross-cutting view for one broker identity:
// summary, breakdowns, monthly commission series, peers, recommendations and
// global rank. The filter may constrain chain and dates; peers and the rank
// are always computed over the full dataset. Returns ErrNotFound when the
// filtered listing set for the resolved broker is empty.
func (s *Service) BrokerDetail(ctx context.Context, slug string, f listing.Filter) (*BrokerDetail, error) {
	name := SlugToName(slug)
	if name == "" {
		return nil, ErrNotFound
	}

	brokerFilter := listing.Filter{
		Brokers: []string{name},
		Chains:  f.Chains,
		Since:   f.Since,
		Until:   f.Until,
	}
	rows, err := s.repo.FilteredListings(ctx, brokerFilter)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	summary := buildSummary(rows)
	propertyBreakdown := buildBreakdown(rows, func(l *listing.Listing) *string { return l.PropertyType })
	districtBreakdown := buildBreakdown(rows, func(l *listing.Listing) *string { return l.District })

	// Peer matching keys: the broker's strongest segment and district by
	// commission.
	topSegment := topBucket(rows, func(l *listing.Listing) *string { return l.Segment })
	topDistrict := topBucket(rows, func(l *listing.Listing) *string { return l.District })

	all, err := s.repo.FilteredListings(ctx, listing.Filter{})
	if err != nil {
		return nil, err
	}

	peers := buildPeers(all, name, peerCriteria{segment: topSegment, district: topDistrict}, 5)
	recommendations := buildPeers(all, name, peerCriteria{chain: summary.Chain}, 3)
	rank, totalBrokers := commissionRank(all, name)

	// Listings are echoed newest first.
	echoed := make([]listing.Listing, len(rows))
	copy(echoed, rows)
	sort.SliceStable(echoed, func(i, j int) bool {
		return echoed[i].SnapshotAt.After(echoed[j].SnapshotAt)
	})

	return &BrokerDetail{
		Summary:           summary,
		PropertyBreakdown: propertyBreakdown,
		DistrictBreakdown: districtBreakdown,
		CommissionTrend:   buildTrend(rows),
		Listings:          echoed,
		Peers:             peers,
		Recommendations:   recommendations,
		Rank:              rank,
		TotalBrokers:      totalBrokers,
	}, nil
}

// buildSummary computes the headline block over the broker's filtered
// listings. Averages divide by the listing count, guarding zero.
func buildSummary(rows []listing.Listing) BrokerSummary {
	var totalPrice, totalCommission float64
	roles := map[string]int{}
	var chain *string

	for i := range rows {
		l := &rows[i]
		if chain == nil {
			chain = l.Chain
		}
		if l.Price != nil {
			totalPrice += *l.Price
		}
		if l.CommissionEst != nil {
			totalCommission += *l.CommissionEst
		}
		if role := l.EffectiveRole(); role != nil && *role != "" {
			roles[*role]++
		}
	}

	return BrokerSummary{
		Broker:          rows[0].Broker,
		Chain:           chain,
		Listings:        len(rows),
		TotalPrice:      roundMoney(totalPrice),
		AvgPrice:        safeAvg(totalPrice, len(rows)),
		TotalCommission: roundMoney(totalCommission),
		AvgCommission:   safeAvg(totalCommission, len(rows)),
		Roles:           roles,
	}
}

// buildBreakdown groups the broker's listings by one attribute, sorted by
// total commission descending. The null bucket is labelled "unknown".
func buildBreakdown(rows []listing.Listing, attr func(*listing.Listing) *string) []BreakdownRow {
	type accum struct {
		listings   int
		price      float64
		commission float64
	}

	var order []string
	groups := map[string]*accum{}

	for i := range rows {
		l := &rows[i]
		key := groupKey(attr(l))
		acc, seen := groups[key]
		if !seen {
			acc = &accum{}
			groups[key] = acc
			order = append(order, key)
		}
		acc.listings++
		if l.Price != nil {
			acc.price += *l.Price
		}
		if l.CommissionEst != nil {
			acc.commission += *l.CommissionEst
		}
	}

	breakdown := make([]BreakdownRow, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		label := key
		if label == "" {
			label = "unknown"
		}
		breakdown = append(breakdown, BreakdownRow{
			Label:           label,
			Listings:        acc.listings,
			TotalPrice:      roundMoney(acc.price),
			TotalCommission: roundMoney(acc.commission),
		})
	}
	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].TotalCommission > breakdown[j].TotalCommission
	})
	return breakdown
}

// topBucket returns the attribute value with the highest commission total
// over the rows, ignoring the unknown bucket.
func topBucket(rows []listing.Listing, attr func(*listing.Listing) *string) *string {
	var order []string
	totals := map[string]float64{}
	seen := map[string]bool{}
	for i := range rows {
		l := &rows[i]
		key := groupKey(attr(l))
		if key == "" {
			continue
		}
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
		if l.CommissionEst != nil {
			totals[key] += *l.CommissionEst
		}
	}
	var best *string
	bestTotal := 0.0
	for _, key := range order {
		if best == nil || totals[key] > bestTotal {
			k := key
			best = &k
			bestTotal = totals[key]
		}
	}
	return best
}

// buildTrend sums commission per calendar month of the broker's listings,
// sorted chronologically. Periods are reported as the first day of the
// month.
func buildTrend(rows []listing.Listing) []TrendPoint {
	totals := map[string]float64{}
	for i := range rows {
		l := &rows[i]
		if l.SnapshotAt.IsZero() {
			continue
		}
		period := l.SnapshotAt.UTC().Format("2006-01")
		commission := 0.0
		if l.CommissionEst != nil {
			commission = *l.CommissionEst
		}
		totals[period] += commission
	}

	points := make([]TrendPoint, 0, len(totals))
	for period, total := range totals {
		points = append(points, TrendPoint{
			Period:          period + "-01",
			TotalCommission: roundMoney(total),
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Period < points[j].Period
	})
	return points
}

// peerCriteria narrows the peer candidate set. Nil fields are no constraint.
type peerCriteria struct {
	segment  *string
	district *string
	chain    *string
}

// buildPeers ranks other brokers matching the criteria by total commission
// descending, keeping commission-positive entries only.
func buildPeers(all []listing.Listing, selfName string, criteria peerCriteria, limit int) []PeerSummary {
	type accum struct {
		chain    *string
		listings int
		total    float64
		priceSum float64
	}

	var order []string
	groups := map[string]*accum{}

	for i := range all {
		l := &all[i]
		broker := groupKey(l.Broker)
		if broker == "" || strings.EqualFold(broker, selfName) {
			continue
		}
		if criteria.segment != nil && (l.Segment == nil || *l.Segment != *criteria.segment) {
			continue
		}
		if criteria.district != nil && (l.District == nil || *l.District != *criteria.district) {
			continue
		}
		if criteria.chain != nil && (l.Chain == nil || *l.Chain != *criteria.chain) {
			continue
		}
		acc, seen := groups[broker]
		if !seen {
			acc = &accum{chain: l.Chain}
			groups[broker] = acc
			order = append(order, broker)
		}
		if acc.chain == nil {
			acc.chain = l.Chain
		}
		acc.listings++
		if l.CommissionEst != nil {
			acc.total += *l.CommissionEst
		}
		if l.Price != nil {
			acc.priceSum += *l.Price
		}
	}

	peers := make([]PeerSummary, 0, len(order))
	for _, broker := range order {
		acc := groups[broker]
		total := roundMoney(acc.total)
		if total <= 0 {
			continue
		}
		name := broker
		peers = append(peers, PeerSummary{
			Broker:          &name,
			Chain:           acc.chain,
			Listings:        acc.listings,
			TotalCommission: total,
			AvgPrice:        safeAvg(acc.priceSum, acc.listings),
		})
	}
	sort.SliceStable(peers, func(i, j int) bool {
		return peers[i].TotalCommission > peers[j].TotalCommission
	})
	return truncate(peers, limit)
}

// commissionRank computes the broker's 1-based dense rank by total
// commission over all brokers with positive commission, and the size of
// that ranking population. A broker without positive commission has no rank.
func commissionRank(all []listing.Listing, name string) (*int, *int) {
	totals := map[string]float64{}
	for i := range all {
		l := &all[i]
		broker := groupKey(l.Broker)
		if broker == "" || l.CommissionEst == nil {
			continue
		}
		totals[strings.ToLower(broker)] += *l.CommissionEst
	}

	type ranked struct {
		lower string
		total int64
	}
	var population []ranked
	for lower, total := range totals {
		if rounded := roundMoney(total); rounded > 0 {
			population = append(population, ranked{lower: lower, total: rounded})
		}
	}
	sort.Slice(population, func(i, j int) bool {
		if population[i].total != population[j].total {
			return population[i].total > population[j].total
		}
		return population[i].lower < population[j].lower
	})

	count := len(population)
	target := strings.ToLower(name)

	var rank *int
	current := 0
	var prevTotal int64
	for _, p := range population {
		if current == 0 || p.total != prevTotal {
			current++
			prevTotal = p.total
		}
		if p.lower == target {
			r := current
			rank = &r
			break
		}
	}
	return rank, &count
}
