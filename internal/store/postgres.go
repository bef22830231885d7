package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meglermonitor/backend/internal/listing"
)

// Postgres is the relational backend. Filtering is pushed down into a
// parameterized WHERE clause that mirrors listing.Filter.Matches predicate
// for predicate; grouping stays in Go so that both backends share one
// aggregation path. All queries are independent reads; failures surface to
// the caller without retries.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates the relational backend over a pgx connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const listingColumns = `source, listing_id, title, address, city, district, chain, broker,
	price::float8, commission_est::float8, status, published, property_type,
	segment, price_bucket, broker_role, role, is_sold, last_seen_at, snapshot_at`

// FilteredListings returns the filtered listing set in canonical order.
func (p *Postgres) FilteredListings(ctx context.Context, f listing.Filter) ([]listing.Listing, error) {
	clause, args := buildWhere(f)
	query := fmt.Sprintf(`
		SELECT %s
		FROM listings
		%s
		ORDER BY snapshot_at, source, listing_id
	`, listingColumns, clause)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var listings []listing.Listing
	for rows.Next() {
		var l listing.Listing
		if err := rows.Scan(
			&l.Source, &l.ListingID, &l.Title, &l.Address, &l.City, &l.District,
			&l.Chain, &l.Broker, &l.Price, &l.CommissionEst, &l.Status,
			&l.Published, &l.PropertyType, &l.Segment, &l.PriceBucket,
			&l.BrokerRole, &l.Role, &l.IsSold, &l.LastSeenAt, &l.SnapshotAt,
		); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// LatestSnapshotDay returns the maximum snapshot day under the filter.
func (p *Postgres) LatestSnapshotDay(ctx context.Context, f listing.Filter) (listing.Day, bool, error) {
	clause, args := buildWhere(f)
	query := fmt.Sprintf(`SELECT max(snapshot_at::date) FROM listings %s`, clause)

	var max *time.Time
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&max); err != nil {
		return listing.Day{}, false, fmt.Errorf("query latest snapshot day: %w", err)
	}
	if max == nil {
		return listing.Day{}, false, nil
	}
	return listing.DayOf(*max), true, nil
}

// RefreshMaterializedViews refreshes the derived views maintained on top of
// the listings table. Called from the refresh command, never per request.
func (p *Postgres) RefreshMaterializedViews(ctx context.Context) error {
	for _, view := range []string{"listings_latest", "broker_commission_stats"} {
		if _, err := p.pool.Exec(ctx, "REFRESH MATERIALIZED VIEW "+view); err != nil {
			return fmt.Errorf("refresh %s: %w", view, err)
		}
	}
	return nil
}

// buildWhere renders the filter as a parameterized WHERE clause. Every
// predicate must stay semantically identical to Filter.Matches: list matches
// are case-insensitive, a missing attribute never matches a non-empty list,
// and listings without a price pass the price range.
func buildWhere(f listing.Filter) (string, []any) {
	var conditions []string
	var args []any

	add := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}
	addList := func(column string, list []string) {
		if len(list) == 0 {
			return
		}
		lowered := make([]string, len(list))
		for i, item := range list {
			lowered[i] = strings.ToLower(item)
		}
		conditions = append(conditions, fmt.Sprintf("LOWER(%s) = ANY(%s)", column, add(lowered)))
	}

	addList("source", f.Sources)
	addList("city", f.Cities)
	addList("district", f.Districts)
	addList("chain", f.Chains)
	addList("broker", f.Brokers)
	addList("COALESCE(NULLIF(role, ''), broker_role)", f.Roles)
	addList("property_type", f.PropertyTypes)
	addList("segment", f.Segments)
	addList("price_bucket", f.PriceBuckets)

	if f.PriceMin != nil {
		conditions = append(conditions, fmt.Sprintf("(price IS NULL OR price >= %s)", add(*f.PriceMin)))
	}
	if f.PriceMax != nil {
		conditions = append(conditions, fmt.Sprintf("(price IS NULL OR price <= %s)", add(*f.PriceMax)))
	}

	if f.OnlySold {
		conditions = append(conditions,
			"(is_sold IS TRUE OR LOWER(COALESCE(status, '')) IN ('sold', 'solgt'))")
	}

	for _, token := range f.SearchTokens {
		pattern := add("%" + token + "%")
		conditions = append(conditions, fmt.Sprintf(
			"(LOWER(COALESCE(broker, '')) LIKE %[1]s"+
				" OR LOWER(COALESCE(chain, '')) LIKE %[1]s"+
				" OR LOWER(COALESCE(city, '')) LIKE %[1]s"+
				" OR LOWER(COALESCE(district, '')) LIKE %[1]s"+
				" OR LOWER(COALESCE(property_type, '')) LIKE %[1]s"+
				" OR LOWER(COALESCE(segment, '')) LIKE %[1]s)", pattern))
	}

	if f.Since != nil {
		conditions = append(conditions, fmt.Sprintf("snapshot_at::date >= %s::date", add(f.Since.String())))
	}
	if f.Until != nil {
		conditions = append(conditions, fmt.Sprintf("snapshot_at::date <= %s::date", add(f.Until.String())))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}
