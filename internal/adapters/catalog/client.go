// internal/adapters/catalog/client.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tripsync/internal/adapters/httpx"
	"tripsync/internal/domain"
)

// Client talks to the first-party catalog service (places, hotels, users,
// bookings). It implements the catalog, user and booking ports.
type Client struct {
	base string
	hc   *httpx.Client
}

func New(base string, rps int) (*Client, error) {
	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("catalog base URL is required")
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   httpx.New("catalog", rps, 15*time.Second),
	}, nil
}

// ---- places ----

func (c *Client) SearchPlaces(ctx context.Context, term string) ([]domain.LocalPlaceRaw, error) {
	u := c.base + "/places"
	if term = strings.TrimSpace(term); term != "" {
		u += "?" + url.Values{"search": {term}}.Encode()
	}
	var raw []placeRaw
	if err := c.hc.Get(ctx, "places.search", u, &raw); err != nil {
		return nil, mapErr(err)
	}
	out := make([]domain.LocalPlaceRaw, 0, len(raw))
	for _, p := range raw {
		out = append(out, p.toDomain())
	}
	return out, nil
}

func (c *Client) GetPlace(ctx context.Context, id int64) (domain.LocalPlaceRaw, error) {
	var raw placeRaw
	if err := c.hc.Get(ctx, "places.get", fmt.Sprintf("%s/places/%d", c.base, id), &raw); err != nil {
		return domain.LocalPlaceRaw{}, mapErr(err)
	}
	return raw.toDomain(), nil
}

// ---- hotels ----

func (c *Client) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	var raw hotelRaw
	if err := c.hc.Get(ctx, "hotels.get", fmt.Sprintf("%s/hotels/%d", c.base, id), &raw); err != nil {
		return domain.Hotel{}, mapErr(err)
	}
	return raw.toDomain(), nil
}

func (c *Client) ListHotelsByPlace(ctx context.Context, placeID int64) ([]domain.Hotel, error) {
	u := c.base + "/hotels?" + url.Values{"placeId": {strconv.FormatInt(placeID, 10)}}.Encode()
	var raw []hotelRaw
	if err := c.hc.Get(ctx, "hotels.by_place", u, &raw); err != nil {
		return nil, mapErr(err)
	}
	out := make([]domain.Hotel, 0, len(raw))
	for _, h := range raw {
		out = append(out, h.toDomain())
	}
	return out, nil
}

// ---- users ----

func (c *Client) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var raw userRaw
	if err := c.hc.Get(ctx, "users.get", fmt.Sprintf("%s/users/%d", c.base, id), &raw); err != nil {
		return domain.User{}, mapErr(err)
	}
	return userOrUpstream(raw)
}

func (c *Client) UpdateBookmarks(ctx context.Context, id int64, bm domain.Bookmarks) (domain.User, error) {
	if bm == nil {
		bm = domain.Bookmarks{}
	}
	var raw userRaw
	err := c.hc.Do(ctx, http.MethodPatch, "users.patch",
		fmt.Sprintf("%s/users/%d", c.base, id), bookmarksPatch{Bookmarks: bm}, &raw)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	return userOrUpstream(raw)
}

func userOrUpstream(raw userRaw) (domain.User, error) {
	u, err := raw.toDomain()
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: catalog: user %d: %v", domain.ErrUpstream, int64(raw.ID), err)
	}
	return u, nil
}

// ---- bookings ----

func (c *Client) ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	u := c.base + "/bookings?" + url.Values{"userId": {strconv.FormatInt(userID, 10)}}.Encode()
	var raw []bookingRaw
	if err := c.hc.Get(ctx, "bookings.list", u, &raw); err != nil {
		return nil, mapErr(err)
	}
	out := make([]domain.Booking, 0, len(raw))
	for _, b := range raw {
		out = append(out, b.toDomain())
	}
	return out, nil
}

// CancelBooking marks the booking cancelled; the record itself is kept.
func (c *Client) CancelBooking(ctx context.Context, id int64) error {
	err := c.hc.Do(ctx, http.MethodPatch, "bookings.cancel",
		fmt.Sprintf("%s/bookings/%d", c.base, id), statusPatch{Status: domain.BookingCancelled}, nil)
	return mapErr(err)
}

// mapErr folds transport errors into the domain taxonomy.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, httpx.ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: catalog: %v", domain.ErrUpstream, err)
	}
}
