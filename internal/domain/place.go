package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Provenance tells which source a Place came from.
type Provenance uint8

const (
	ProvenanceUnknown Provenance = iota
	ProvenanceLocal
	ProvenanceExternal
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceLocal:
		return "local"
	case ProvenanceExternal:
		return "external"
	default:
		return "unknown"
	}
}

type Coords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Place is the unified place shape. Provenance is the tag: LocalID is only
// meaningful for ProvenanceLocal, ExternalID only for ProvenanceExternal.
type Place struct {
	Provenance  Provenance
	LocalID     int64
	ExternalID  string
	Name        string
	City        string
	Country     string
	Description string
	Images      []string
	Coords      *Coords // always set for external places
}

// Key is the dedup identity of a place. Both fields take part in equality.
type Key struct {
	Provenance Provenance
	ID         string
}

func (k Key) String() string { return k.Provenance.String() + ":" + k.ID }

// Bookmarks is a user's ordered bookmark collection, unique by Key.
type Bookmarks []Place

// UnmarshalJSON decodes entry by entry and drops entries that are not a
// place, so one bad record cannot hide the rest of the collection.
func (b *Bookmarks) UnmarshalJSON(data []byte) error {
	bm, _, err := DecodeBookmarks(data)
	if err != nil {
		return err
	}
	*b = bm
	return nil
}

// DecodeBookmarks decodes a stored bookmark array. Entries that fail to
// decode are left out and reported in skipped; err is only set when data is
// not a JSON array at all. null and empty input give an empty collection.
func DecodeBookmarks(data []byte) (bm Bookmarks, skipped []error, err error) {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return Bookmarks{}, nil, nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, nil, fmt.Errorf("bookmarks: %w", err)
	}
	bm = make(Bookmarks, 0, len(raws))
	for i, raw := range raws {
		var p Place
		if err := json.Unmarshal(raw, &p); err != nil {
			skipped = append(skipped, fmt.Errorf("bookmark %d: %w", i, err))
			continue
		}
		bm = append(bm, p)
	}
	return bm, skipped, nil
}

// LocalPlaceRaw is a place record as served by the catalog.
type LocalPlaceRaw struct {
	ID          int64
	Name        string
	City        string
	Country     string
	Description string
	Images      []string
	Lat, Lng    *float64
}

// ExternalPlaceRaw is a point of interest as returned by the geo provider.
type ExternalPlaceRaw struct {
	PlaceID   string
	Name      string
	Formatted string
	City      string
	Country   string
	Lat, Lon  float64
	PhotoURL  string
}

// placeJSON keeps the stored bookmark shape compatible with what the web
// client writes into the user record.
type placeJSON struct {
	ID          json.RawMessage `json:"id"`
	PlaceID     string          `json:"place_id,omitempty"`
	IsExternal  bool            `json:"isExternal,omitempty"`
	Name        string          `json:"name"`
	City        string          `json:"city"`
	Country     string          `json:"country"`
	Description string          `json:"description"`
	Images      []string        `json:"images"`
	Lat         *float64        `json:"lat,omitempty"`
	Lon         *float64        `json:"lon,omitempty"`
	Lng         *float64        `json:"lng,omitempty"`
}

func (p Place) MarshalJSON() ([]byte, error) {
	out := placeJSON{
		Name:        p.Name,
		City:        p.City,
		Country:     p.Country,
		Description: p.Description,
		Images:      p.Images,
	}
	if out.Images == nil {
		out.Images = []string{}
	}
	if p.Coords != nil {
		lat, lon := p.Coords.Lat, p.Coords.Lon
		out.Lat, out.Lon = &lat, &lon
	}
	switch p.Provenance {
	case ProvenanceLocal:
		out.ID = json.RawMessage(strconv.FormatInt(p.LocalID, 10))
	case ProvenanceExternal:
		id, _ := json.Marshal(p.ExternalID)
		out.ID = id
		out.PlaceID = p.ExternalID
		out.IsExternal = true
	default:
		return nil, fmt.Errorf("marshal place: unknown provenance %d", p.Provenance)
	}
	return json.Marshal(out)
}

func (p *Place) UnmarshalJSON(b []byte) error {
	var in placeJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*p = Place{
		Name:        in.Name,
		City:        in.City,
		Country:     in.Country,
		Description: in.Description,
		Images:      in.Images,
	}
	lon := in.Lon
	if lon == nil {
		lon = in.Lng
	}
	if in.Lat != nil && lon != nil {
		p.Coords = &Coords{Lat: *in.Lat, Lon: *lon}
	}

	if in.IsExternal || in.PlaceID != "" {
		p.Provenance = ProvenanceExternal
		p.ExternalID = in.PlaceID
		if p.ExternalID == "" {
			var s string
			if err := json.Unmarshal(in.ID, &s); err != nil {
				return fmt.Errorf("external place id: %w", err)
			}
			p.ExternalID = s
		}
		return nil
	}

	id, err := ParseCatalogID(in.ID)
	if err != nil {
		return fmt.Errorf("local place id: %w", err)
	}
	p.Provenance = ProvenanceLocal
	p.LocalID = id
	return nil
}

// ParseCatalogID accepts a catalog id encoded as a JSON number or as a
// numeric JSON string.
func ParseCatalogID(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, fmt.Errorf("missing id")
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
	}
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
