package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsync/internal/app"
	"tripsync/internal/domain"
)

func TestSearch_EmptyTermSkipsExternal(t *testing.T) {
	cat := newFakeCatalog()
	cat.search[""] = []domain.LocalPlaceRaw{{ID: 1, Name: "Featured"}}
	geo := &fakeGeo{}
	svc := app.NewSearchService(cat, geo)

	res, err := svc.Search(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, res.External)
	assert.NotNil(t, res.External)
	require.Len(t, res.Local, 1)
	assert.Equal(t, "Featured", res.Local[0].Name)
	assert.Equal(t, app.DefaultRadiusKm, res.RadiusKm)
	assert.Equal(t, 0, geo.nearbyCalls)
}

func TestSearch_ShortTermSkipsExternal(t *testing.T) {
	cat := newFakeCatalog()
	geo := &fakeGeo{coords: map[string]*domain.Coords{"Pa": {Lat: 1, Lon: 1}}}
	svc := app.NewSearchService(cat, geo)

	res, err := svc.Search(context.Background(), "Pa", 10)
	require.NoError(t, err)
	assert.Empty(t, res.External)
	assert.Equal(t, 0, geo.nearbyCalls)
	assert.Equal(t, 1, cat.count("search:Pa"))
}

func TestSearch_GeocodeMissIsNotAnError(t *testing.T) {
	cat := newFakeCatalog()
	cat.search["Par"] = []domain.LocalPlaceRaw{{ID: 2, Name: "Paro"}}
	geo := &fakeGeo{coords: map[string]*domain.Coords{}}
	svc := app.NewSearchService(cat, geo)

	res, err := svc.Search(context.Background(), "Par", 10)
	require.NoError(t, err)
	assert.NoError(t, res.ExternalErr)
	assert.Empty(t, res.External)
	assert.Len(t, res.Local, 1)
	assert.Equal(t, 0, geo.nearbyCalls, "no stage 2 without a coordinate")
}

func TestSearch_ExternalTwoStage(t *testing.T) {
	cat := newFakeCatalog()
	raws := make([]domain.ExternalPlaceRaw, 15)
	for i := range raws {
		raws[i] = domain.ExternalPlaceRaw{PlaceID: string(rune('a' + i)), Name: "poi", Lat: 1, Lon: 2}
	}
	geo := &fakeGeo{
		coords: map[string]*domain.Coords{"Paris": {Lat: 48.85, Lon: 2.35}},
		nearby: raws,
	}
	svc := app.NewSearchService(cat, geo)

	res, err := svc.Search(context.Background(), "  Paris ", 25)
	require.NoError(t, err)
	assert.Equal(t, "Paris", res.Term)
	assert.Len(t, res.External, app.ExternalPageSize)
	assert.Equal(t, 25000, geo.lastRadius)
	assert.Equal(t, app.ExternalPageSize, geo.lastLimit)
	for _, p := range res.External {
		assert.Equal(t, domain.ProvenanceExternal, p.Provenance)
	}
}

func TestSearch_ExternalFailureDegrades(t *testing.T) {
	for name, geo := range map[string]*fakeGeo{
		"geocode": {geoErr: errors.New("dns")},
		"nearby": {
			coords:    map[string]*domain.Coords{"Rome": {Lat: 1, Lon: 1}},
			nearbyErr: errors.New("malformed"),
		},
	} {
		t.Run(name, func(t *testing.T) {
			cat := newFakeCatalog()
			cat.search["Rome"] = []domain.LocalPlaceRaw{{ID: 3, Name: "Roma"}}
			res, err := app.NewSearchService(cat, geo).Search(context.Background(), "Rome", 10)
			require.NoError(t, err)
			assert.Error(t, res.ExternalErr)
			assert.Empty(t, res.External)
			assert.Len(t, res.Local, 1)
		})
	}
}

func TestSearch_LocalFailureKeepsExternal(t *testing.T) {
	cat := newFakeCatalog()
	cat.searchErr = domain.ErrUpstream
	geo := &fakeGeo{
		coords: map[string]*domain.Coords{"Rome": {Lat: 41.9, Lon: 12.5}},
		nearby: []domain.ExternalPlaceRaw{{PlaceID: "colosseo", Name: "Colosseo", Lat: 41.89, Lon: 12.49}},
	}

	res, err := app.NewSearchService(cat, geo).Search(context.Background(), "Rome", 10)
	require.NoError(t, err)
	assert.ErrorIs(t, res.LocalErr, domain.ErrUpstream)
	assert.NotNil(t, res.Local)
	assert.Empty(t, res.Local)
	assert.NoError(t, res.ExternalErr)
	require.Len(t, res.External, 1)
	assert.Equal(t, "colosseo", res.External[0].ExternalID)
}

func TestSearch_BothLegsFailing(t *testing.T) {
	cat := newFakeCatalog()
	cat.searchErr = domain.ErrUpstream
	geo := &fakeGeo{geoErr: errors.New("dns")}

	res, err := app.NewSearchService(cat, geo).Search(context.Background(), "Rome", 10)
	require.NoError(t, err)
	assert.Error(t, res.LocalErr)
	assert.Error(t, res.ExternalErr)
	assert.Empty(t, res.Local)
	assert.Empty(t, res.External)
}

func TestClampRadius(t *testing.T) {
	assert.Equal(t, app.DefaultRadiusKm, app.ClampRadius(0))
	assert.Equal(t, app.DefaultRadiusKm, app.ClampRadius(-5))
	assert.Equal(t, 1, app.ClampRadius(1))
	assert.Equal(t, app.MaxRadiusKm, app.ClampRadius(500))
}

// gatedSearcher blocks each term until its gate is closed, ignoring context
// cancellation so late responses really arrive late.
type gatedSearcher struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func (g *gatedSearcher) gate(term string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gates == nil {
		g.gates = map[string]chan struct{}{}
	}
	ch, ok := g.gates[term]
	if !ok {
		ch = make(chan struct{})
		g.gates[term] = ch
	}
	return ch
}

func (g *gatedSearcher) Search(ctx context.Context, term string, radiusKm int) (app.SearchResult, error) {
	<-g.gate(term)
	return app.SearchResult{Term: term, External: []domain.Place{extPlace(term, term)}}, nil
}

func TestSearchFeed_DiscardsStaleResponse(t *testing.T) {
	s := &gatedSearcher{}
	feed := app.NewSearchFeed(s)

	parisDone := make(chan app.FeedUpdate, 1)
	go func() {
		u, _ := feed.Search(context.Background(), "Paris", 10)
		parisDone <- u
	}()
	// make sure Paris is issued before Rome
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, ok := s.gates["Paris"]
		return ok
	}, time.Second, time.Millisecond)

	romeDone := make(chan app.FeedUpdate, 1)
	go func() {
		u, _ := feed.Search(context.Background(), "Rome", 10)
		romeDone <- u
	}()

	// Rome's response arrives first, Paris's afterwards.
	close(s.gate("Rome"))
	rome := <-romeDone
	close(s.gate("Paris"))
	paris := <-parisDone

	assert.True(t, rome.Applied)
	assert.False(t, paris.Applied)
	assert.Less(t, paris.Generation, rome.Generation)

	latest, gen := feed.Latest()
	assert.Equal(t, "Rome", latest.Term)
	assert.Equal(t, rome.Generation, gen)
}

type ctxSearcher struct{ started chan struct{} }

func (c ctxSearcher) Search(ctx context.Context, term string, radiusKm int) (app.SearchResult, error) {
	if term == "slow" {
		close(c.started)
		<-ctx.Done()
		return app.SearchResult{}, ctx.Err()
	}
	return app.SearchResult{Term: term}, nil
}

func TestSearchFeed_NewSearchCancelsInFlight(t *testing.T) {
	s := ctxSearcher{started: make(chan struct{})}
	feed := app.NewSearchFeed(s)

	slowDone := make(chan error, 1)
	var slow app.FeedUpdate
	go func() {
		var err error
		slow, err = feed.Search(context.Background(), "slow", 10)
		slowDone <- err
	}()
	<-s.started

	fast, err := feed.Search(context.Background(), "fast", 10)
	require.NoError(t, err)
	assert.True(t, fast.Applied)

	select {
	case err := <-slowDone:
		assert.NoError(t, err, "a superseded search is dropped, not failed")
		assert.False(t, slow.Applied)
	case <-time.After(time.Second):
		t.Fatal("superseded search was not cancelled")
	}
}

// sleepySearcher takes a little while and gives up when cancelled.
type sleepySearcher struct{}

func (sleepySearcher) Search(ctx context.Context, term string, radiusKm int) (app.SearchResult, error) {
	select {
	case <-ctx.Done():
		return app.SearchResult{}, ctx.Err()
	case <-time.After(200 * time.Microsecond):
		return app.SearchResult{Term: term}, nil
	}
}

func TestSearchFeed_ConcurrentIssueNewestWins(t *testing.T) {
	for i := 0; i < 500; i++ {
		feed := app.NewSearchFeed(sleepySearcher{})
		var (
			wg   sync.WaitGroup
			ups  [2]app.FeedUpdate
			errs [2]error
		)
		for j, term := range []string{"Paris", "Rome"} {
			j, term := j, term
			wg.Add(1)
			go func() {
				defer wg.Done()
				ups[j], errs[j] = feed.Search(context.Background(), term, 10)
			}()
		}
		wg.Wait()

		newest := 0
		if ups[1].Generation > ups[0].Generation {
			newest = 1
		}
		require.NoError(t, errs[newest], "iteration %d", i)
		require.True(t, ups[newest].Applied, "iteration %d: newest search was not applied", i)

		latest, gen := feed.Latest()
		require.Equal(t, ups[newest].Generation, gen)
		require.Equal(t, ups[newest].Result.Term, latest.Term)
	}
}

func TestFeedRegistry(t *testing.T) {
	reg := app.NewFeedRegistry(ctxSearcher{})
	a := reg.For("a")
	assert.Same(t, a, reg.For("a"))
	assert.NotSame(t, a, reg.For("b"))

	assert.Equal(t, 0, reg.Sweep(time.Hour))
	assert.Equal(t, 2, reg.Sweep(-time.Second))
	assert.NotSame(t, a, reg.For("a"))
}
