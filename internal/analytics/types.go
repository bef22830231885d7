package analytics

import (
	"time"

	"github.com/meglermonitor/backend/internal/listing"
)

// BrokerAggregate is one broker's rollup within a window. A nil broker is the
// bucket for listings without a broker attribute. The chain and role are the
// first non-null values observed for the broker.
type BrokerAggregate struct {
	Broker      *string `json:"broker"`
	Chain       *string `json:"chain"`
	Role        *string `json:"role"`
	CountActive int     `json:"count_active"`
	CountSold   int     `json:"count_sold"`
	Count       int     `json:"count"`
	TotalValue  int64   `json:"total_value"`
	AvgValue    int64   `json:"avg_value"`
}

// ChainAggregate is one chain's rollup over active listings within a window.
type ChainAggregate struct {
	Chain      *string `json:"chain"`
	TotalValue int64   `json:"total_value"`
	Count      int     `json:"count"`
	AvgValue   int64   `json:"avg_value"`
}

// CommissionBrokerAggregate is a commission leaderboard entry keyed by
// (broker, chain), covering only listings with a positive commission
// estimate.
type CommissionBrokerAggregate struct {
	Broker          *string `json:"broker"`
	Chain           *string `json:"chain"`
	Listings        int     `json:"listings"`
	TotalCommission int64   `json:"total_commission"`
	AvgCommission   int64   `json:"avg_commission"`
}

// CommissionChainAggregate is a commission leaderboard entry keyed by chain.
type CommissionChainAggregate struct {
	Chain           *string `json:"chain"`
	Listings        int     `json:"listings"`
	TotalCommission int64   `json:"total_commission"`
	AvgCommission   int64   `json:"avg_commission"`
}

// DeltaAggregate compares one entity's listing value across two adjacent
// windows. An entity missing from a window contributes 0 for it.
type DeltaAggregate struct {
	Broker    *string `json:"broker"`
	Chain     *string `json:"chain"`
	NowValue  int64   `json:"now_value"`
	PrevValue int64   `json:"prev_value"`
	Delta     int64   `json:"delta"`
}

// DeltaResult partitions entities by movement: growing is sorted by delta
// descending, falling by delta ascending (most negative first). Entities with
// a zero delta appear in neither list.
type DeltaResult struct {
	Growing []DeltaAggregate `json:"growing"`
	Falling []DeltaAggregate `json:"falling"`
}

// TrendEntry is the commission-specific delta variant.
type TrendEntry struct {
	Broker    *string `json:"broker"`
	Chain     *string `json:"chain"`
	NowTotal  int64   `json:"now_total"`
	PrevTotal int64   `json:"prev_total"`
	Delta     int64   `json:"delta"`
}

// TrendResult partitions commission trend entries by movement.
type TrendResult struct {
	Growing []TrendEntry `json:"growing"`
	Falling []TrendEntry `json:"falling"`
}

// DistrictAggregate carries the top brokers and chains of one district,
// ranked by total commission within that district.
type DistrictAggregate struct {
	District string                      `json:"district"`
	Brokers  []CommissionBrokerAggregate `json:"brokers"`
	Chains   []CommissionChainAggregate  `json:"chains"`
}

// BrokerSummary is the headline block of a broker detail view.
type BrokerSummary struct {
	Broker          *string        `json:"broker"`
	Chain           *string        `json:"chain"`
	Listings        int            `json:"listings"`
	TotalPrice      int64          `json:"total_price"`
	AvgPrice        int64          `json:"avg_price"`
	TotalCommission int64          `json:"total_commission"`
	AvgCommission   int64          `json:"avg_commission"`
	Roles           map[string]int `json:"roles"`
}

// BreakdownRow is one bucket of a per-broker breakdown. Listings without the
// bucketing attribute land in the "unknown" bucket.
type BreakdownRow struct {
	Label           string `json:"label"`
	Listings        int    `json:"listings"`
	TotalPrice      int64  `json:"total_price"`
	TotalCommission int64  `json:"total_commission"`
}

// TrendPoint is one calendar month of a broker's commission series.
type TrendPoint struct {
	Period          string `json:"period"`
	TotalCommission int64  `json:"total_commission"`
}

// PeerSummary describes a broker related to the one being viewed.
type PeerSummary struct {
	Broker          *string `json:"broker"`
	Chain           *string `json:"chain"`
	Listings        int     `json:"listings"`
	TotalCommission int64   `json:"total_commission"`
	AvgPrice        int64   `json:"avg_price"`
}

// BrokerDetail is the cross-cutting per-broker view.
type BrokerDetail struct {
	Summary           BrokerSummary     `json:"summary"`
	PropertyBreakdown []BreakdownRow    `json:"property_breakdown"`
	DistrictBreakdown []BreakdownRow    `json:"district_breakdown"`
	CommissionTrend   []TrendPoint      `json:"commission_trend"`
	Listings          []listing.Listing `json:"listings"`
	Peers             []PeerSummary     `json:"peers"`
	Recommendations   []PeerSummary     `json:"recommendations"`
	Rank              *int              `json:"rank"`
	TotalBrokers      *int              `json:"total_brokers"`
}

// Metrics is the headline dashboard figure set.
type Metrics struct {
	AsOf         time.Time `json:"as_of"`
	TotalValue   int64     `json:"total_value"`
	ActiveAgents int       `json:"active_agents"`
}

// Catalog lists the distinct filterable values present in a listing set.
type Catalog struct {
	Cities       []string            `json:"cities"`
	Districts    map[string][]string `json:"districts"`
	Roles        []string            `json:"roles"`
	Segments     []string            `json:"segments"`
	PriceBuckets []string            `json:"price_buckets"`
	Chains       []string            `json:"chains"`
	Sources      []string            `json:"sources"`
}
