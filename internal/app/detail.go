package app

import (
	"context"
	"net/url"

	"golang.org/x/sync/errgroup"

	"tripsync/internal/domain"
)

type PlaceDetail struct {
	Place  domain.Place   `json:"place"`
	Hotels []domain.Hotel `json:"hotels"`
	// HotelsAvailable is false for external places, which cannot be booked.
	HotelsAvailable bool `json:"hotelsAvailable"`
}

type DetailService struct {
	places domain.PlaceCatalog
	hotels domain.HotelCatalog
}

func NewDetailService(p domain.PlaceCatalog, h domain.HotelCatalog) *DetailService {
	return &DetailService{places: p, hotels: h}
}

// Detail resolves a route produced by RouteFor. External places are rebuilt
// from the route alone; local ones are fetched along with their hotels.
func (s *DetailService) Detail(ctx context.Context, routeID string, q url.Values) (PlaceDetail, error) {
	t, err := ParseRoute(routeID, q)
	if err != nil {
		return PlaceDetail{}, err
	}
	switch t.Provenance {
	case domain.ProvenanceExternal:
		return PlaceDetail{Place: externalFromRoute(t), Hotels: []domain.Hotel{}}, nil
	default:
		return s.local(ctx, t.LocalID)
	}
}

func (s *DetailService) local(ctx context.Context, id int64) (PlaceDetail, error) {
	var (
		raw    domain.LocalPlaceRaw
		hotels []domain.Hotel
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		raw, err = s.places.GetPlace(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		hotels, err = s.hotels.ListHotelsByPlace(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return PlaceDetail{}, err
	}
	if hotels == nil {
		hotels = []domain.Hotel{}
	}
	return PlaceDetail{Place: NormalizeLocal(raw), Hotels: hotels, HotelsAvailable: true}, nil
}

func externalFromRoute(t RouteTarget) domain.Place {
	return domain.Place{
		Provenance: domain.ProvenanceExternal,
		ExternalID: t.ExternalID,
		Name:       t.Name,
		City:       t.Name,
		Country:    externalCountry,
		Description: "Explore the beautiful destination of " + t.Name +
			". Known for its culture, landmarks, and unique experiences, this place attracts travelers from around the world.",
		Images: []string{ExternalHeroImage},
		Coords: t.Coords,
	}
}
