// internal/adapters/geoapify/client.go
package geoapify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tripsync/internal/adapters/httpx"
	"tripsync/internal/domain"
)

// Category is the points-of-interest category searched around a geocoded
// query.
const Category = "tourism.sights"

// Client calls the Geoapify geocoding and places APIs.
type Client struct {
	base string
	key  string
	hc   *httpx.Client
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if base == "" {
		base = "https://api.geoapify.com"
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		key:  key,
		hc:   httpx.New("geoapify", rps, 10*time.Second),
	}, nil
}

type featureCollection struct {
	Features []struct {
		Properties properties `json:"properties"`
	} `json:"features"`
}

type properties struct {
	PlaceID   string  `json:"place_id"`
	Name      string  `json:"name"`
	Formatted string  `json:"formatted"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Photo     *struct {
		URL string `json:"url"`
	} `json:"photo"`
}

// Geocode resolves text to its best-matching coordinate. A nil result with a
// nil error means the provider found nothing.
func (c *Client) Geocode(ctx context.Context, text string) (*domain.Coords, error) {
	q := url.Values{
		"text":   {text},
		"limit":  {"1"},
		"apiKey": {c.key},
	}
	var fc featureCollection
	if err := c.hc.Get(ctx, "geocode.search", c.base+"/v1/geocode/search?"+q.Encode(), &fc); err != nil {
		return nil, fmt.Errorf("%w: geocode: %v", domain.ErrUpstream, err)
	}
	if len(fc.Features) == 0 {
		return nil, nil
	}
	p := fc.Features[0].Properties
	return &domain.Coords{Lat: p.Lat, Lon: p.Lon}, nil
}

// Nearby lists points of interest within radiusMeters of at.
func (c *Client) Nearby(ctx context.Context, at domain.Coords, radiusMeters, limit int) ([]domain.ExternalPlaceRaw, error) {
	q := url.Values{
		"categories":  {Category},
		"filter":      {circleFilter(at, radiusMeters)},
		"limit":       {strconv.Itoa(limit)},
		"with_photos": {"true"},
		"apiKey":      {c.key},
	}
	var fc featureCollection
	if err := c.hc.Get(ctx, "places.nearby", c.base+"/v2/places?"+q.Encode(), &fc); err != nil {
		return nil, fmt.Errorf("%w: places: %v", domain.ErrUpstream, err)
	}
	out := make([]domain.ExternalPlaceRaw, 0, len(fc.Features))
	for _, f := range fc.Features {
		p := f.Properties
		if p.PlaceID == "" {
			continue
		}
		raw := domain.ExternalPlaceRaw{
			PlaceID:   p.PlaceID,
			Name:      p.Name,
			Formatted: p.Formatted,
			City:      p.City,
			Country:   p.Country,
			Lat:       p.Lat,
			Lon:       p.Lon,
		}
		if p.Photo != nil {
			raw.PhotoURL = p.Photo.URL
		}
		out = append(out, raw)
	}
	return out, nil
}

// circleFilter renders "circle:<lon>,<lat>,<meters>"; the provider wants
// longitude first.
func circleFilter(at domain.Coords, radiusMeters int) string {
	return fmt.Sprintf("circle:%s,%s,%d",
		strconv.FormatFloat(at.Lon, 'f', -1, 64),
		strconv.FormatFloat(at.Lat, 'f', -1, 64),
		radiusMeters)
}
