package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"tripsync/internal/domain"
)

// IsBookmarked reports whether p is in c.
func IsBookmarked(c domain.Bookmarks, p domain.Place) bool {
	for _, b := range c {
		if Match(b, p) {
			return true
		}
	}
	return false
}

// Toggle returns a new collection with p removed if present, or appended if
// not. c is never modified.
func Toggle(c domain.Bookmarks, p domain.Place) domain.Bookmarks {
	out := make(domain.Bookmarks, 0, len(c)+1)
	removed := false
	for _, b := range c {
		if Match(b, p) {
			removed = true
			continue
		}
		out = append(out, b)
	}
	if !removed {
		out = append(out, p)
	}
	return out
}

// BookmarkService persists bookmark changes to the user record.
type BookmarkService struct {
	users domain.UserStore
}

func NewBookmarkService(users domain.UserStore) *BookmarkService {
	return &BookmarkService{users: users}
}

func (s *BookmarkService) List(ctx context.Context, sess domain.Session) (domain.Bookmarks, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrAuthRequired
	}
	u, err := s.users.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	return u.Bookmarks, nil
}

// Toggle flips p in the user's bookmarks. The new collection is returned only
// once the user record has accepted it; on a failed write the prior
// collection comes back with a *domain.PersistenceError.
func (s *BookmarkService) Toggle(ctx context.Context, sess domain.Session, p domain.Place) (domain.Bookmarks, bool, error) {
	if !sess.Authenticated() {
		return nil, false, domain.ErrAuthRequired
	}
	u, err := s.users.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, false, err
	}
	prior := u.Bookmarks
	next := Toggle(prior, p)
	saved := !IsBookmarked(prior, p)

	updated, err := s.users.UpdateBookmarks(ctx, sess.UserID, next)
	if err != nil {
		log.Warn().Err(err).Int64("user", sess.UserID).Str("place", DedupKeyOf(p).String()).
			Msg("bookmark write rejected; keeping prior bookmarks")
		return prior, !saved, &domain.PersistenceError{Op: "update bookmarks", Err: err}
	}
	if updated.Bookmarks != nil {
		next = updated.Bookmarks
	}
	return next, saved, nil
}

// Annotate pairs each place with its route and bookmark state for rendering.
func Annotate(places []domain.Place, c domain.Bookmarks) []PlaceCard {
	out := make([]PlaceCard, 0, len(places))
	for _, p := range places {
		out = append(out, PlaceCard{
			Place:      p,
			Route:      RouteFor(p).String(),
			Image:      FirstImage(p),
			Bookmarked: IsBookmarked(c, p),
		})
	}
	return out
}

type PlaceCard struct {
	Place      domain.Place `json:"place"`
	Route      string       `json:"route,omitempty"` // empty when the place has no detail view
	Image      string       `json:"image"`
	Bookmarked bool         `json:"bookmarked"`
}
