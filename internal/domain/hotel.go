package domain

type Hotel struct {
	ID            int64    `json:"id"`
	PlaceID       *int64   `json:"placeId,omitempty"`
	Name          string   `json:"name"`
	Location      string   `json:"location"`
	Description   string   `json:"description,omitempty"`
	PricePerNight float64  `json:"price"`
	Rating        *float64 `json:"rating,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
	Images        []string `json:"images,omitempty"`
	Coords        *Coords  `json:"coords,omitempty"`
}
