package app

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"tripsync/internal/adapters/observability"
	"tripsync/internal/domain"
)

const (
	// MinExternalTermLen: the provider is only asked for terms longer than this.
	MinExternalTermLen = 2
	ExternalPageSize   = 12

	DefaultRadiusKm = 50
	MinRadiusKm     = 1
	MaxRadiusKm     = 100
)

type SearchResult struct {
	Term     string
	RadiusKm int
	Local    []domain.Place
	External []domain.Place
	// LocalErr is set when the catalog leg failed; Local is then empty and
	// External is still valid.
	LocalErr error
	// ExternalErr is set when the provider leg failed; External is then empty
	// and Local is still valid.
	ExternalErr error
}

type Searcher interface {
	Search(ctx context.Context, term string, radiusKm int) (SearchResult, error)
}

// SearchService queries the catalog and the geo provider for one term.
type SearchService struct {
	places domain.PlaceCatalog
	geo    domain.GeoProvider
}

// NewSearchService builds the orchestrator. geo may be nil, in which case
// external results are always empty.
func NewSearchService(places domain.PlaceCatalog, geo domain.GeoProvider) *SearchService {
	return &SearchService{places: places, geo: geo}
}

func ClampRadius(km int) int {
	switch {
	case km <= 0:
		return DefaultRadiusKm
	case km < MinRadiusKm:
		return MinRadiusKm
	case km > MaxRadiusKm:
		return MaxRadiusKm
	}
	return km
}

// Search runs the catalog query and, for long enough terms, the two-stage
// provider lookup concurrently. Neither leg fails the other: a failed leg
// comes back empty with its error in LocalErr or ExternalErr.
func (s *SearchService) Search(ctx context.Context, term string, radiusKm int) (SearchResult, error) {
	term = strings.TrimSpace(term)
	res := SearchResult{Term: term, RadiusKm: ClampRadius(radiusKm), Local: []domain.Place{}, External: []domain.Place{}}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		raws, err := s.places.SearchPlaces(ctx, term)
		if err != nil {
			log.Warn().Err(err).Str("term", term).Msg("local search degraded to empty")
			res.LocalErr = err
			return
		}
		local := make([]domain.Place, 0, len(raws))
		for _, r := range raws {
			local = append(local, NormalizeLocal(r))
		}
		res.Local = local
	}()
	if s.geo != nil && utf8.RuneCountInString(term) > MinExternalTermLen {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ext, err := s.external(ctx, term, res.RadiusKm)
			if err != nil {
				log.Warn().Err(err).Str("term", term).Msg("external search degraded to empty")
				res.ExternalErr = err
				return
			}
			res.External = ext
		}()
	}
	wg.Wait()
	return res, nil
}

func (s *SearchService) external(ctx context.Context, term string, radiusKm int) ([]domain.Place, error) {
	at, err := s.geo.Geocode(ctx, term)
	if err != nil {
		return []domain.Place{}, err
	}
	if at == nil {
		return []domain.Place{}, nil
	}
	raws, err := s.geo.Nearby(ctx, *at, radiusKm*1000, ExternalPageSize)
	if err != nil {
		return []domain.Place{}, err
	}
	if len(raws) > ExternalPageSize {
		raws = raws[:ExternalPageSize]
	}
	out := make([]domain.Place, 0, len(raws))
	for _, r := range raws {
		out = append(out, NormalizeExternal(r))
	}
	return out, nil
}

// SearchFeed holds one session's search results. Every call is tagged with a
// generation; a result is applied only if no newer call was issued while it
// ran. Starting a search cancels the one still in flight.
type SearchFeed struct {
	svc Searcher
	gen atomic.Uint64

	mu        sync.Mutex
	cancel    context.CancelFunc
	latest    SearchResult
	latestGen uint64
	touched   time.Time
}

func NewSearchFeed(svc Searcher) *SearchFeed { return &SearchFeed{svc: svc, touched: time.Now()} }

// FeedUpdate is the outcome of one SearchFeed.Search call.
type FeedUpdate struct {
	Generation uint64
	Applied    bool
	Result     SearchResult
}

func (f *SearchFeed) Search(ctx context.Context, term string, radiusKm int) (FeedUpdate, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The generation is allocated under mu so that whoever installs cancel
	// last also holds the newest generation.
	f.mu.Lock()
	gen := f.gen.Add(1)
	observability.ObserveSearch("issued")
	if f.cancel != nil {
		f.cancel()
	}
	f.cancel = cancel
	f.touched = time.Now()
	f.mu.Unlock()

	res, err := f.svc.Search(runCtx, term, radiusKm)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen.Load() {
		observability.ObserveSearch("discarded")
		log.Debug().Uint64("generation", gen).Str("term", term).Msg("stale search result discarded")
		return FeedUpdate{Generation: gen}, nil
	}
	f.cancel = nil
	if err != nil {
		return FeedUpdate{Generation: gen}, err
	}
	f.latest, f.latestGen = res, gen
	observability.ObserveSearch("applied")
	return FeedUpdate{Generation: gen, Applied: true, Result: res}, nil
}

// Latest returns the most recently applied result and its generation.
func (f *SearchFeed) Latest() (SearchResult, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, f.latestGen
}

// FeedRegistry keeps one SearchFeed per session id.
type FeedRegistry struct {
	svc   Searcher
	mu    sync.Mutex
	feeds map[string]*SearchFeed
}

func NewFeedRegistry(svc Searcher) *FeedRegistry {
	return &FeedRegistry{svc: svc, feeds: map[string]*SearchFeed{}}
}

func (r *FeedRegistry) For(sessionID string) *SearchFeed {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.feeds[sessionID]
	if !ok {
		f = NewSearchFeed(r.svc)
		r.feeds[sessionID] = f
	}
	return f
}

// Sweep drops feeds untouched for longer than idle and returns how many went.
func (r *FeedRegistry) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, f := range r.feeds {
		f.mu.Lock()
		stale := f.touched.Before(cutoff) && f.cancel == nil
		f.mu.Unlock()
		if stale {
			delete(r.feeds, id)
			n++
		}
	}
	return n
}
