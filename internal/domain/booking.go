package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID          int64         `json:"id"`
	UserID      int64         `json:"userId"`
	Status      BookingStatus `json:"status"`
	HotelID     *int64        `json:"hotelId,omitempty"`
	PlaceID     *int64        `json:"placeId,omitempty"`
	CheckIn     time.Time     `json:"checkIn"`
	CheckOut    time.Time     `json:"checkOut"`
	Rooms       int           `json:"rooms"`
	Guests      int           `json:"guests"`
	TotalPrice  float64       `json:"totalPrice"`
	PackageName *string       `json:"packageName,omitempty"`
}

// EnrichedBooking is a display-only join of a booking with what it refers to.
// Hotel and Place are nil when the lookup failed or did not apply.
type EnrichedBooking struct {
	Booking
	Hotel *Hotel `json:"hotel"`
	Place *Place `json:"place"`
}
