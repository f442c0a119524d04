package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tripsync/internal/domain"
)

// CatalogQueries is a read-through cache in front of the catalog. It
// satisfies the same ports it wraps. A nil cache disables caching.
type CatalogQueries struct {
	places   domain.PlaceCatalog
	hotels   domain.HotelCatalog
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewCatalogQueries(p domain.PlaceCatalog, h domain.HotelCatalog, c domain.Cache, ttl time.Duration) *CatalogQueries {
	return &CatalogQueries{places: p, hotels: h, cache: c, cacheTTL: ttl}
}

func (s *CatalogQueries) SearchPlaces(ctx context.Context, term string) ([]domain.LocalPlaceRaw, error) {
	return cached(ctx, s, searchKey(term), func() ([]domain.LocalPlaceRaw, error) {
		return s.places.SearchPlaces(ctx, term)
	})
}

func (s *CatalogQueries) GetPlace(ctx context.Context, id int64) (domain.LocalPlaceRaw, error) {
	return cached(ctx, s, fmt.Sprintf("place:%d", id), func() (domain.LocalPlaceRaw, error) {
		return s.places.GetPlace(ctx, id)
	})
}

func (s *CatalogQueries) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	return cached(ctx, s, fmt.Sprintf("hotel:%d", id), func() (domain.Hotel, error) {
		return s.hotels.GetHotel(ctx, id)
	})
}

func (s *CatalogQueries) ListHotelsByPlace(ctx context.Context, placeID int64) ([]domain.Hotel, error) {
	return cached(ctx, s, fmt.Sprintf("hotels:place:%d", placeID), func() ([]domain.Hotel, error) {
		return s.hotels.ListHotelsByPlace(ctx, placeID)
	})
}

func searchKey(term string) string {
	return "places:search:" + strings.ToLower(strings.TrimSpace(term))
}

// InvalidateSearch drops the cached catalog result for term.
func (s *CatalogQueries) InvalidateSearch(ctx context.Context, term string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, searchKey(term))
}

// Invalidate drops everything cached about a place.
func (s *CatalogQueries) Invalidate(ctx context.Context, placeID int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, fmt.Sprintf("place:%d", placeID))
	_ = s.cache.Del(ctx, fmt.Sprintf("hotels:place:%d", placeID))
}

// cached serves key from the cache or loads and stores it. Cache errors never
// fail the read.
func cached[T any](ctx context.Context, s *CatalogQueries, key string, load func() (T, error)) (T, error) {
	var v T
	if s.cache != nil {
		ok, err := s.cache.Get(ctx, key, &v)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		if ok {
			return v, nil
		}
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return v, nil
}
