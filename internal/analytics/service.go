// Package analytics is the aggregation engine: it turns filtered listing
// sets into broker/chain/district rollups, period-over-period deltas,
// commission leaderboards and per-broker detail views. All logic here is
// backend-agnostic and runs identically over the relational store and the
// in-memory sample dataset through the store.Repository contract.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/meglermonitor/backend/internal/listing"
	"github.com/meglermonitor/backend/internal/store"
	"github.com/meglermonitor/backend/pkg/logger"
)

// ErrNotFound is returned when a broker slug resolves to zero listings under
// the given filters.
var ErrNotFound = errors.New("broker not found")

// SortKey selects the primary sort field for broker aggregation. Ties are
// always broken by total value descending.
type SortKey string

const (
	SortTotalValue  SortKey = "total_value"
	SortAvgValue    SortKey = "avg_value"
	SortCountSold   SortKey = "count_sold"
	SortCountActive SortKey = "count_active"
)

// ParseSortKey validates a sort parameter; the empty string defaults to
// total value.
func ParseSortKey(raw string) (SortKey, error) {
	switch SortKey(raw) {
	case "":
		return SortTotalValue, nil
	case SortTotalValue, SortAvgValue, SortCountSold, SortCountActive:
		return SortKey(raw), nil
	}
	return "", &listing.ValidationError{Fields: map[string]string{
		"sort": fmt.Sprintf("unknown sort key %q", raw),
	}}
}

// Service computes analytics over one Repository backend. It holds no
// per-request state; every operation is an independent read.
type Service struct {
	repo store.Repository
	log  *logger.Logger
}

// New creates an analytics service over the given backend.
func New(repo store.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// anchor returns the latest snapshot day across the whole dataset, ignoring
// any request filter so that symbolic windows reflect data availability.
func (s *Service) anchor(ctx context.Context) (listing.Day, bool, error) {
	return s.repo.LatestSnapshotDay(ctx, listing.Filter{})
}

// resolveRange applies a symbolic window to the filter. An explicit
// since/until on the filter wins over the window token. ok is false when no
// snapshot data exists at all, in which case the caller returns an empty
// result rather than an error.
func (s *Service) resolveRange(ctx context.Context, f listing.Filter, window string, fallbackDays int) (resolved listing.Filter, ok bool, err error) {
	if f.HasDates() {
		return f, true, nil
	}
	anchor, found, err := s.anchor(ctx)
	if err != nil {
		return f, false, err
	}
	if !found {
		return f, false, nil
	}
	start, end := listing.ResolveWindow(anchor, window, fallbackDays)
	return f.WithRange(start, end), true, nil
}

// roundMoney rounds a monetary accumulation to the nearest whole currency
// unit. Every aggregate leaves this package already rounded.
func roundMoney(x float64) int64 {
	return int64(math.Round(x))
}

// safeAvg divides guarding the denominator: an empty group averages to 0,
// never NaN.
func safeAvg(total float64, count int) int64 {
	if count == 0 {
		return 0
	}
	return roundMoney(total / float64(count))
}

// labelOf maps a group key back to its reported label: the empty key is the
// unknown bucket, reported as a null label.
func labelOf(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}
