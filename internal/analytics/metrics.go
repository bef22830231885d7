package analytics

import (
	"context"
	"strings"
	"time"

	"github.com/meglermonitor/backend/internal/listing"
)

// AsOfLatest asks Metrics to anchor on the latest snapshot day.
const AsOfLatest = "latest"

// Metrics computes the headline figures for the dashboard: the summed value
// of active listings in the trailing window ending at asOf, and the number
// of distinct brokers carrying them. With no snapshot data at all it returns
// zero metrics, not an error.
func (s *Service) Metrics(ctx context.Context, asOf, window string) (Metrics, error) {
	days := listing.ParseWindowDays(window, 365)

	var asOfDay listing.Day
	if asOf == "" || asOf == AsOfLatest {
		anchor, found, err := s.anchor(ctx)
		if err != nil {
			return Metrics{}, err
		}
		if !found {
			return Metrics{AsOf: time.Now().UTC()}, nil
		}
		asOfDay = anchor
	} else {
		parsed, err := listing.ParseDay(asOf)
		if err != nil {
			return Metrics{}, &listing.ValidationError{Fields: map[string]string{
				"asOf": "must be \"latest\" or an ISO date (YYYY-MM-DD)",
			}}
		}
		asOfDay = parsed
	}

	if days < 1 {
		days = 1
	}
	start := asOfDay.AddDays(-(days - 1))
	rows, err := s.repo.FilteredListings(ctx, listing.Filter{}.WithRange(start, asOfDay))
	if err != nil {
		return Metrics{}, err
	}

	var total float64
	agents := map[string]bool{}
	for i := range rows {
		l := &rows[i]
		if !l.Active() {
			continue
		}
		if l.Price != nil {
			total += *l.Price
		}
		if broker := groupKey(l.Broker); broker != "" {
			agents[strings.ToLower(broker)] = true
		}
	}

	return Metrics{
		AsOf:         asOfDay.Time(),
		TotalValue:   roundMoney(total),
		ActiveAgents: len(agents),
	}, nil
}
