package app

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"tripsync/internal/domain"
)

const (
	// DefaultImage is shown for places that carry no image at all.
	DefaultImage = "https://images.unsplash.com/photo-1476514525535-07fb3b4ae5f1?q=80&w=1000&auto=format&fit=crop"
	// ExternalHeroImage is the detail-page hero for reconstructed external places.
	ExternalHeroImage = "https://images.unsplash.com/photo-1505761671935-60b3a7427bad?auto=format&fit=crop&w=1600&q=80"

	externalCountry     = "Global"
	externalRoutePrefix = "ext-"
)

// NormalizeLocal maps a catalog record into the unified Place shape.
func NormalizeLocal(raw domain.LocalPlaceRaw) domain.Place {
	p := domain.Place{
		Provenance:  domain.ProvenanceLocal,
		LocalID:     raw.ID,
		Name:        raw.Name,
		City:        raw.City,
		Country:     raw.Country,
		Description: raw.Description,
		Images:      append([]string(nil), raw.Images...),
	}
	if raw.Lat != nil && raw.Lng != nil {
		p.Coords = &domain.Coords{Lat: *raw.Lat, Lon: *raw.Lng}
	}
	return p
}

// NormalizeExternal maps a provider point of interest into the unified shape.
// A missing name falls back to the formatted address and a missing photo to a
// placeholder seeded by the provider id, so the same place always renders the
// same image.
func NormalizeExternal(raw domain.ExternalPlaceRaw) domain.Place {
	name := raw.Name
	if name == "" {
		name = raw.Formatted
	}
	img := raw.PhotoURL
	if img == "" {
		img = PlaceholderImage(raw.PlaceID)
	}
	country := raw.Country
	if country == "" {
		country = externalCountry
	}
	return domain.Place{
		Provenance:  domain.ProvenanceExternal,
		ExternalID:  raw.PlaceID,
		Name:        name,
		City:        raw.City,
		Country:     country,
		Description: raw.Formatted,
		Images:      []string{img},
		Coords:      &domain.Coords{Lat: raw.Lat, Lon: raw.Lon},
	}
}

func PlaceholderImage(seed string) string {
	return "https://picsum.photos/seed/" + url.PathEscape(seed) + "/400/300"
}

// DedupKeyOf returns the identity used for every bookmark comparison.
func DedupKeyOf(p domain.Place) domain.Key {
	switch p.Provenance {
	case domain.ProvenanceLocal:
		return domain.Key{Provenance: domain.ProvenanceLocal, ID: strconv.FormatInt(p.LocalID, 10)}
	case domain.ProvenanceExternal:
		return domain.Key{Provenance: domain.ProvenanceExternal, ID: p.ExternalID}
	default:
		return domain.Key{Provenance: domain.ProvenanceUnknown}
	}
}

// Match reports whether a and b are the same place. Places of different
// provenance never match, even when their ids render identically.
func Match(a, b domain.Place) bool {
	ka, kb := DedupKeyOf(a), DedupKeyOf(b)
	if ka.Provenance == domain.ProvenanceUnknown || kb.Provenance == domain.ProvenanceUnknown {
		return false
	}
	return ka == kb
}

// Route addresses a place's detail view. For external places Query carries
// what the detail view needs to rebuild the place without a geocode call.
type Route struct {
	ID    string
	Query url.Values
}

func (r Route) String() string {
	if len(r.Query) == 0 {
		return r.ID
	}
	return r.ID + "?" + r.Query.Encode()
}

// Routable reports whether the detail view can be reached for r.
func (r Route) Routable() bool { return r.ID != "" }

// RouteFor is the inverse of ParseRoute; the two must change together.
// External places without coordinates (old stored bookmarks) cannot be
// rebuilt by the detail view and get the zero Route.
func RouteFor(p domain.Place) Route {
	switch p.Provenance {
	case domain.ProvenanceLocal:
		return Route{ID: strconv.FormatInt(p.LocalID, 10)}
	case domain.ProvenanceExternal:
		if p.Coords == nil || p.ExternalID == "" {
			return Route{}
		}
		q := url.Values{"name": {p.Name}}
		q.Set("lat", strconv.FormatFloat(p.Coords.Lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(p.Coords.Lon, 'f', -1, 64))
		return Route{ID: externalRoutePrefix + p.ExternalID, Query: q}
	default:
		return Route{}
	}
}

// RouteTarget is a decoded detail route.
type RouteTarget struct {
	Provenance domain.Provenance
	LocalID    int64
	ExternalID string
	Name       string
	Coords     *domain.Coords
}

// ParseRoute decodes a detail route produced by RouteFor.
func ParseRoute(id string, q url.Values) (RouteTarget, error) {
	id = strings.TrimSpace(id)
	if rest, ok := strings.CutPrefix(id, externalRoutePrefix); ok {
		if rest == "" {
			return RouteTarget{}, fmt.Errorf("%w: empty external id", domain.ErrInvalidRoute)
		}
		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
		if errLat != nil || errLon != nil {
			return RouteTarget{}, fmt.Errorf("%w: external route %q needs lat and lon", domain.ErrInvalidRoute, id)
		}
		return RouteTarget{
			Provenance: domain.ProvenanceExternal,
			ExternalID: rest,
			Name:       q.Get("name"),
			Coords:     &domain.Coords{Lat: lat, Lon: lon},
		}, nil
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return RouteTarget{}, fmt.Errorf("%w: %q", domain.ErrInvalidRoute, id)
	}
	return RouteTarget{Provenance: domain.ProvenanceLocal, LocalID: n}, nil
}

// FirstImage returns the image a card or hero should show.
func FirstImage(p domain.Place) string {
	for _, img := range p.Images {
		if img != "" {
			return img
		}
	}
	return DefaultImage
}
