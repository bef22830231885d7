package analytics

import (
	"context"
	"sort"

	"github.com/meglermonitor/backend/internal/listing"
)

// FilterCatalog reports the distinct filterable values present under the
// given filter, for populating dashboard filter controls. No window is
// applied: the catalog spans all snapshot days unless the filter says
// otherwise.
func (s *Service) FilterCatalog(ctx context.Context, f listing.Filter) (Catalog, error) {
	rows, err := s.repo.FilteredListings(ctx, f)
	if err != nil {
		return Catalog{}, err
	}

	cities := map[string]bool{}
	districts := map[string]map[string]bool{}
	roles := map[string]bool{}
	segments := map[string]bool{}
	priceBuckets := map[string]bool{}
	chains := map[string]bool{}
	sources := map[string]bool{}

	for i := range rows {
		l := &rows[i]
		city := groupKey(l.City)
		if city != "" {
			cities[city] = true
			if district := groupKey(l.District); district != "" {
				if districts[city] == nil {
					districts[city] = map[string]bool{}
				}
				districts[city][district] = true
			}
		}
		if role := l.EffectiveRole(); role != nil && *role != "" {
			roles[*role] = true
		}
		if segment := groupKey(l.Segment); segment != "" {
			segments[segment] = true
		}
		if bucket := groupKey(l.PriceBucket); bucket != "" {
			priceBuckets[bucket] = true
		}
		if chain := groupKey(l.Chain); chain != "" {
			chains[chain] = true
		}
		if l.Source != "" {
			sources[l.Source] = true
		}
	}

	districtLists := make(map[string][]string, len(districts))
	for city, set := range districts {
		districtLists[city] = sortedKeys(set)
	}

	return Catalog{
		Cities:       sortedKeys(cities),
		Districts:    districtLists,
		Roles:        sortedKeys(roles),
		Segments:     sortedKeys(segments),
		PriceBuckets: sortedKeys(priceBuckets),
		Chains:       sortedKeys(chains),
		Sources:      sortedKeys(sources),
	}, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
