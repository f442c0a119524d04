package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"tripsync/internal/adapters/observability"
	"tripsync/internal/domain"
)

// BookingService enriches, filters and cancels a user's bookings.
type BookingService struct {
	bookings domain.BookingStore
	hotels   domain.HotelCatalog
	places   domain.PlaceCatalog
	users    domain.UserStore
}

func NewBookingService(b domain.BookingStore, h domain.HotelCatalog, p domain.PlaceCatalog, u domain.UserStore) *BookingService {
	return &BookingService{bookings: b, hotels: h, places: p, users: u}
}

// Enrich looks up the hotel and place of every booking concurrently. A failed
// lookup leaves that one field nil and touches nothing else. The output keeps
// the input order.
func (s *BookingService) Enrich(ctx context.Context, bookings []domain.Booking) []domain.EnrichedBooking {
	out := make([]domain.EnrichedBooking, len(bookings))
	var wg sync.WaitGroup
	for i, b := range bookings {
		i, b := i, b
		out[i].Booking = b
		if b.HotelID != nil {
			id := *b.HotelID
			wg.Add(1)
			go func() {
				defer wg.Done()
				h, err := s.hotels.GetHotel(ctx, id)
				observability.ObserveEnrich("hotel", err)
				if err != nil {
					log.Warn().Err(err).Int64("booking", b.ID).Int64("hotel", id).Msg("hotel lookup failed")
					return
				}
				out[i].Hotel = &h
			}()
		}
		if b.PlaceID != nil {
			id := *b.PlaceID
			wg.Add(1)
			go func() {
				defer wg.Done()
				raw, err := s.places.GetPlace(ctx, id)
				observability.ObserveEnrich("place", err)
				if err != nil {
					log.Warn().Err(err).Int64("booking", b.ID).Int64("place", id).Msg("place lookup failed")
					return
				}
				p := NormalizeLocal(raw)
				out[i].Place = &p
			}()
		}
	}
	wg.Wait()
	return out
}

// ConfirmedOnly keeps confirmed bookings; this is the only list shown as
// active.
func ConfirmedOnly(in []domain.EnrichedBooking) []domain.EnrichedBooking {
	out := make([]domain.EnrichedBooking, 0, len(in))
	for _, b := range in {
		if b.Status == domain.BookingConfirmed {
			out = append(out, b)
		}
	}
	return out
}

// Active loads, enriches and filters the session user's bookings.
func (s *BookingService) Active(ctx context.Context, sess domain.Session) ([]domain.EnrichedBooking, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrAuthRequired
	}
	raw, err := s.bookings.ListBookings(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	return ConfirmedOnly(s.Enrich(ctx, raw)), nil
}

// Cancel asks the booking store to cancel id. Only after it acknowledges is
// the booking dropped from the returned list; on failure list comes back as
// it was.
func (s *BookingService) Cancel(ctx context.Context, list []domain.EnrichedBooking, id int64) ([]domain.EnrichedBooking, error) {
	if err := s.bookings.CancelBooking(ctx, id); err != nil {
		return list, fmt.Errorf("cancel booking %d: %w", id, err)
	}
	out := make([]domain.EnrichedBooking, 0, len(list))
	for _, b := range list {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out, nil
}

// CancelForUser cancels one of the session user's bookings, refusing ids that
// belong to somebody else, and returns the remaining active bookings.
func (s *BookingService) CancelForUser(ctx context.Context, sess domain.Session, id int64) ([]domain.EnrichedBooking, error) {
	active, err := s.Active(ctx, sess)
	if err != nil {
		return nil, err
	}
	owned := false
	for _, b := range active {
		if b.ID == id {
			owned = true
			break
		}
	}
	if !owned {
		return active, domain.ErrNotFound
	}
	return s.Cancel(ctx, active, id)
}

// Summary is the dashboard snapshot.
type Summary struct {
	ConfirmedBookings int `json:"confirmedBookings"`
	Bookmarks         int `json:"bookmarks"`
	// BookingsErr is set when bookings could not be counted.
	BookingsErr string `json:"bookingsError,omitempty"`
}

func (s *BookingService) Summary(ctx context.Context, sess domain.Session) (Summary, error) {
	if !sess.Authenticated() {
		return Summary{}, domain.ErrAuthRequired
	}
	var (
		sum Summary
		g   errgroup.Group
	)
	g.Go(func() error {
		raw, err := s.bookings.ListBookings(ctx, sess.UserID)
		if err != nil {
			log.Warn().Err(err).Int64("user", sess.UserID).Msg("booking count unavailable")
			sum.BookingsErr = "unavailable"
			return nil
		}
		for _, b := range raw {
			if b.Status == domain.BookingConfirmed {
				sum.ConfirmedBookings++
			}
		}
		return nil
	})
	g.Go(func() error {
		u, err := s.users.GetUser(ctx, sess.UserID)
		if err != nil {
			return err
		}
		sum.Bookmarks = len(u.Bookmarks)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}
