package app_test

import (
	"context"
	"testing"
	"time"

	"tripsync/internal/app"
	"tripsync/internal/domain"
)

func TestGetHotel_CacheMissThenHit(t *testing.T) {
	cat := newFakeCatalog()
	cat.hotels[42] = domain.Hotel{ID: 42, Name: "Hôtel Test"}
	cache := &fakeCache{}
	q := app.NewCatalogQueries(cat, cat, cache, 10*time.Minute)

	// Miss (first time, populates cache)
	h, err := q.GetHotel(context.Background(), 42)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if h.ID != 42 || h.Name != "Hôtel Test" {
		t.Fatalf("unexpected hotel: %+v", h)
	}

	// Mutate the backend to ensure the second read comes from cache
	cat.hotels[42] = domain.Hotel{ID: 42, Name: "SHOULD NOT SEE THIS"}

	h2, err := q.GetHotel(context.Background(), 42)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if h2.Name != "Hôtel Test" {
		t.Fatalf("expected cached name, got %s", h2.Name)
	}
	if n := cat.count("hotel"); n != 1 {
		t.Fatalf("expected one backend call, got %d", n)
	}
}

func TestGetPlace_ErrorsAreNotCached(t *testing.T) {
	cat := newFakeCatalog()
	cache := &fakeCache{}
	q := app.NewCatalogQueries(cat, cat, cache, time.Minute)

	if _, err := q.GetPlace(context.Background(), 7); err == nil {
		t.Fatalf("expected not found")
	}
	cat.places[7] = domain.LocalPlaceRaw{ID: 7, Name: "Jaipur"}
	p, err := q.GetPlace(context.Background(), 7)
	if err != nil || p.Name != "Jaipur" {
		t.Fatalf("expected fresh read after miss, got %+v, %v", p, err)
	}

	q.Invalidate(context.Background(), 7)
	cat.places[7] = domain.LocalPlaceRaw{ID: 7, Name: "Pink City"}
	p, _ = q.GetPlace(context.Background(), 7)
	if p.Name != "Pink City" {
		t.Fatalf("expected invalidated entry to reload, got %s", p.Name)
	}
}

func TestCatalogQueries_NilCache(t *testing.T) {
	cat := newFakeCatalog()
	cat.search["agra"] = []domain.LocalPlaceRaw{{ID: 1}}
	q := app.NewCatalogQueries(cat, cat, nil, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := q.SearchPlaces(context.Background(), "agra"); err != nil {
			t.Fatalf("err: %v", err)
		}
	}
	if n := cat.count("search:agra"); n != 2 {
		t.Fatalf("expected every call to reach the backend, got %d", n)
	}
}

func TestWarmTerm(t *testing.T) {
	cat := newFakeCatalog()
	cat.search["india"] = []domain.LocalPlaceRaw{{ID: 20}, {ID: 21}, {ID: 22}}
	cat.places[20] = domain.LocalPlaceRaw{ID: 20}
	cat.places[21] = domain.LocalPlaceRaw{ID: 21}
	cat.failPlace[22] = true
	cache := &fakeCache{}
	w := app.NewWarmService(app.NewCatalogQueries(cat, cat, cache, time.Minute))

	n, err := w.WarmTerm(context.Background(), "india")
	if err == nil {
		t.Fatalf("expected the failing place to be reported")
	}
	if n != 2 {
		t.Fatalf("expected 2 warmed places, got %d", n)
	}
	if _, ok := cache.store["place:20"]; !ok {
		t.Fatalf("expected place:20 cached, have %v", cache.store)
	}
	if _, ok := cache.store["places:search:india"]; !ok {
		t.Fatalf("expected the search cached")
	}
}

func TestWarmTerm_ReplacesStaleEntries(t *testing.T) {
	cat := newFakeCatalog()
	cat.search["agra"] = []domain.LocalPlaceRaw{{ID: 30, Name: "Agra"}}
	cat.places[30] = domain.LocalPlaceRaw{ID: 30, Name: "Agra"}
	cat.byPlace[30] = []domain.Hotel{{ID: 300, Name: "Old"}}
	cache := &fakeCache{}
	q := app.NewCatalogQueries(cat, cat, cache, time.Minute)
	w := app.NewWarmService(q)

	if _, err := w.WarmTerm(context.Background(), "agra"); err != nil {
		t.Fatalf("first warm: %v", err)
	}

	cat.search["agra"] = []domain.LocalPlaceRaw{{ID: 30, Name: "Agra"}, {ID: 31, Name: "Agra Cantt"}}
	cat.places[31] = domain.LocalPlaceRaw{ID: 31, Name: "Agra Cantt"}
	cat.byPlace[30] = []domain.Hotel{{ID: 301, Name: "New"}}

	n, err := w.WarmTerm(context.Background(), "agra")
	if err != nil || n != 2 {
		t.Fatalf("second warm: n=%d err=%v", n, err)
	}
	places, _ := q.SearchPlaces(context.Background(), "agra")
	if len(places) != 2 {
		t.Fatalf("expected refreshed search, got %+v", places)
	}
	hotels, _ := q.ListHotelsByPlace(context.Background(), 30)
	if len(hotels) != 1 || hotels[0].Name != "New" {
		t.Fatalf("expected refreshed hotels, got %+v", hotels)
	}
}
