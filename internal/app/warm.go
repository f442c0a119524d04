package app

import (
	"context"
	"errors"
	"fmt"

	"tripsync/internal/domain"
)

// WarmService pre-loads the read-through cache for featured search terms so
// the first visitors are served from Redis.
type WarmService struct {
	q *CatalogQueries
}

func NewWarmService(q *CatalogQueries) *WarmService { return &WarmService{q: q} }

// WarmTerm refreshes the cached place search for term and the hotel list and
// detail of every place it returns; existing entries are dropped first so a
// run never leaves stale data behind. Missing places are skipped; other
// failures are reported after the remaining places were tried.
func (s *WarmService) WarmTerm(ctx context.Context, term string) (int, error) {
	s.q.InvalidateSearch(ctx, term)
	places, err := s.q.SearchPlaces(ctx, term)
	if err != nil {
		return 0, fmt.Errorf("warm %q: %w", term, err)
	}
	var errs []error
	n := 0
	for _, p := range places {
		s.q.Invalidate(ctx, p.ID)
		if _, err := s.q.GetPlace(ctx, p.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			errs = append(errs, err)
			continue
		}
		if _, err := s.q.ListHotelsByPlace(ctx, p.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}
