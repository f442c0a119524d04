package app_test

import (
	"context"
	"errors"
	"sync"

	"tripsync/internal/domain"
)

// ---- fakes ----

type fakeCatalog struct {
	mu        sync.Mutex
	places    map[int64]domain.LocalPlaceRaw
	hotels    map[int64]domain.Hotel
	byPlace   map[int64][]domain.Hotel
	search    map[string][]domain.LocalPlaceRaw
	failPlace map[int64]bool
	failHotel map[int64]bool
	searchErr error
	calls     map[string]int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		places:    map[int64]domain.LocalPlaceRaw{},
		hotels:    map[int64]domain.Hotel{},
		byPlace:   map[int64][]domain.Hotel{},
		search:    map[string][]domain.LocalPlaceRaw{},
		failPlace: map[int64]bool{},
		failHotel: map[int64]bool{},
		calls:     map[string]int{},
	}
}

func (f *fakeCatalog) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeCatalog) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeCatalog) SearchPlaces(ctx context.Context, term string) ([]domain.LocalPlaceRaw, error) {
	f.hit("search:" + term)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.search[term], nil
}

func (f *fakeCatalog) GetPlace(ctx context.Context, id int64) (domain.LocalPlaceRaw, error) {
	f.hit("place")
	if f.failPlace[id] {
		return domain.LocalPlaceRaw{}, errors.New("place backend down")
	}
	p, ok := f.places[id]
	if !ok {
		return domain.LocalPlaceRaw{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	f.hit("hotel")
	if f.failHotel[id] {
		return domain.Hotel{}, errors.New("hotel backend down")
	}
	h, ok := f.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (f *fakeCatalog) ListHotelsByPlace(ctx context.Context, placeID int64) ([]domain.Hotel, error) {
	f.hit("hotels")
	return f.byPlace[placeID], nil
}

type fakeGeo struct {
	coords    map[string]*domain.Coords
	nearby    []domain.ExternalPlaceRaw
	geoErr    error
	nearbyErr error

	mu          sync.Mutex
	nearbyCalls int
	lastRadius  int
	lastLimit   int
}

func (g *fakeGeo) Geocode(ctx context.Context, text string) (*domain.Coords, error) {
	if g.geoErr != nil {
		return nil, g.geoErr
	}
	return g.coords[text], nil
}

func (g *fakeGeo) Nearby(ctx context.Context, at domain.Coords, radiusMeters, limit int) ([]domain.ExternalPlaceRaw, error) {
	g.mu.Lock()
	g.nearbyCalls++
	g.lastRadius, g.lastLimit = radiusMeters, limit
	g.mu.Unlock()
	if g.nearbyErr != nil {
		return nil, g.nearbyErr
	}
	return g.nearby, nil
}

type fakeUsers struct {
	mu        sync.Mutex
	users     map[int64]domain.User
	updateErr error
	getErr    error
	writes    int
}

func (u *fakeUsers) GetUser(ctx context.Context, id int64) (domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.getErr != nil {
		return domain.User{}, u.getErr
	}
	usr, ok := u.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return usr, nil
}

func (u *fakeUsers) UpdateBookmarks(ctx context.Context, id int64, bm domain.Bookmarks) (domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.updateErr != nil {
		return domain.User{}, u.updateErr
	}
	usr := u.users[id]
	usr.Bookmarks = bm
	u.users[id] = usr
	u.writes++
	return usr, nil
}

type fakeBookings struct {
	list      []domain.Booking
	listErr   error
	cancelErr error
	cancelled []int64
}

func (b *fakeBookings) ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	var out []domain.Booking
	for _, bk := range b.list {
		if bk.UserID == userID {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (b *fakeBookings) CancelBooking(ctx context.Context, id int64) error {
	if b.cancelErr != nil {
		return b.cancelErr
	}
	b.cancelled = append(b.cancelled, id)
	return nil
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string]any
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.Hotel:
		*d = v.(domain.Hotel)
	case *domain.LocalPlaceRaw:
		*d = v.(domain.LocalPlaceRaw)
	case *[]domain.Hotel:
		*d = v.([]domain.Hotel)
	case *[]domain.LocalPlaceRaw:
		*d = v.([]domain.LocalPlaceRaw)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

// ---- helpers ----

func ptr[T any](v T) *T { return &v }

func localPlace(id int64, name string) domain.Place {
	return domain.Place{Provenance: domain.ProvenanceLocal, LocalID: id, Name: name}
}

func extPlace(id, name string) domain.Place {
	return domain.Place{
		Provenance: domain.ProvenanceExternal, ExternalID: id, Name: name,
		Coords: &domain.Coords{Lat: 1, Lon: 2},
	}
}
