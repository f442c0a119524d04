package domain

import "context"

type PlaceCatalog interface {
	SearchPlaces(ctx context.Context, term string) ([]LocalPlaceRaw, error)
	GetPlace(ctx context.Context, id int64) (LocalPlaceRaw, error)
}

type HotelCatalog interface {
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListHotelsByPlace(ctx context.Context, placeID int64) ([]Hotel, error)
}

type UserStore interface {
	GetUser(ctx context.Context, id int64) (User, error)
	UpdateBookmarks(ctx context.Context, id int64, bm Bookmarks) (User, error)
}

type BookingStore interface {
	ListBookings(ctx context.Context, userID int64) ([]Booking, error)
	CancelBooking(ctx context.Context, id int64) error
}

type GeoProvider interface {
	// Geocode returns the best match for text, or nil when nothing matched.
	Geocode(ctx context.Context, text string) (*Coords, error)
	Nearby(ctx context.Context, at Coords, radiusMeters, limit int) ([]ExternalPlaceRaw, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
