package catalog

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tripsync/internal/domain"
)

// catalogID decodes ids the catalog may send as numbers or numeric strings.
type catalogID int64

func (c *catalogID) UnmarshalJSON(b []byte) error {
	id, err := domain.ParseCatalogID(b)
	if err != nil {
		return err
	}
	*c = catalogID(id)
	return nil
}

func optID(p *catalogID) *int64 {
	if p == nil || *p == 0 {
		return nil
	}
	v := int64(*p)
	return &v
}

type placeRaw struct {
	ID          catalogID `json:"id"`
	Name        string    `json:"name"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	Image       string    `json:"image"`
	Lat         *float64  `json:"lat"`
	Lng         *float64  `json:"lng"`
}

func (p placeRaw) toDomain() domain.LocalPlaceRaw {
	imgs := p.Images
	if len(imgs) == 0 && p.Image != "" {
		imgs = []string{p.Image}
	}
	return domain.LocalPlaceRaw{
		ID:          int64(p.ID),
		Name:        p.Name,
		City:        p.City,
		Country:     p.Country,
		Description: p.Description,
		Images:      imgs,
		Lat:         p.Lat,
		Lng:         p.Lng,
	}
}

type hotelRaw struct {
	ID          catalogID  `json:"id"`
	PlaceID     *catalogID `json:"placeId"`
	Name        string     `json:"name"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Rating      *float64   `json:"rating"`
	Amenities   []string   `json:"amenities"`
	Images      []string   `json:"images"`
	Lat         *float64   `json:"lat"`
	Lng         *float64   `json:"lng"`
}

func (h hotelRaw) toDomain() domain.Hotel {
	out := domain.Hotel{
		ID:            int64(h.ID),
		PlaceID:       optID(h.PlaceID),
		Name:          h.Name,
		Location:      h.Location,
		Description:   h.Description,
		PricePerNight: h.Price,
		Rating:        h.Rating,
		Amenities:     h.Amenities,
		Images:        h.Images,
	}
	if h.Lat != nil && h.Lng != nil {
		out.Coords = &domain.Coords{Lat: *h.Lat, Lon: *h.Lng}
	}
	return out
}

type userRaw struct {
	ID        catalogID        `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Bookmarks json.RawMessage `json:"bookmarks"`
}

// toDomain keeps the user usable when some stored bookmarks are malformed;
// those entries are logged and left out.
func (u userRaw) toDomain() (domain.User, error) {
	bm, skipped, err := domain.DecodeBookmarks(u.Bookmarks)
	if err != nil {
		return domain.User{}, err
	}
	for _, e := range skipped {
		log.Warn().Err(e).Int64("user", int64(u.ID)).Msg("dropping undecodable bookmark")
	}
	return domain.User{ID: int64(u.ID), Name: u.Name, Email: u.Email, Bookmarks: bm}, nil
}

type bookingRaw struct {
	ID          catalogID  `json:"id"`
	UserID      catalogID  `json:"userId"`
	Status      string     `json:"status"`
	HotelID     *catalogID `json:"hotelId"`
	PlaceID     *catalogID `json:"placeId"`
	CheckIn     string     `json:"checkIn"`
	CheckOut    string     `json:"checkOut"`
	Rooms       int        `json:"rooms"`
	Guests      int        `json:"guests"`
	TotalPrice  float64    `json:"totalPrice"`
	PackageName *string    `json:"packageName"`
}

func (b bookingRaw) toDomain() domain.Booking {
	return domain.Booking{
		ID:          int64(b.ID),
		UserID:      int64(b.UserID),
		Status:      domain.BookingStatus(strings.ToLower(strings.TrimSpace(b.Status))),
		HotelID:     optID(b.HotelID),
		PlaceID:     optID(b.PlaceID),
		CheckIn:     parseDate(b.CheckIn),
		CheckOut:    parseDate(b.CheckOut),
		Rooms:       b.Rooms,
		Guests:      b.Guests,
		TotalPrice:  b.TotalPrice,
		PackageName: b.PackageName,
	}
}

// parseDate accepts RFC 3339 timestamps and plain dates; anything else is zero.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

type bookmarksPatch struct {
	Bookmarks domain.Bookmarks `json:"bookmarks"`
}

type statusPatch struct {
	Status domain.BookingStatus `json:"status"`
}

var _ json.Unmarshaler = (*catalogID)(nil)
