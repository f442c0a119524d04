// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"tripsync/internal/app"
	"tripsync/internal/domain"
)

type Handlers struct {
	Search    *app.SearchService
	Feeds     *app.FeedRegistry
	Detail    *app.DetailService
	Bookmarks *app.BookmarkService
	Bookings  *app.BookingService
	RadiusKm  int
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/search", h.search)
	s.mux.Get("/v1/places/{routeID}", h.placeDetail)
	s.mux.Route("/v1/me", func(r chi.Router) {
		r.Use(RequireUser)
		r.Get("/bookmarks", h.listBookmarks)
		r.Post("/bookmarks/toggle", h.toggleBookmark)
		r.Get("/bookings", h.listBookings)
		r.Post("/bookings/{id}/cancel", h.cancelBooking)
		r.Get("/summary", h.summary)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the domain error taxonomy onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		writeProblem(w, http.StatusUnauthorized, "Authentication Required", "log in to continue")
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "resource not found")
	case errors.Is(err, domain.ErrInvalidRoute):
		writeProblem(w, http.StatusBadRequest, "Invalid Place", err.Error())
	case errors.Is(err, domain.ErrPersistence):
		writeProblem(w, http.StatusBadGateway, "Not Saved", "your change could not be saved, please try again")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusBadGateway, "Upstream Error", "a backing service is unavailable")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// bookmarksFor returns the session user's bookmarks, or none when the user is
// anonymous or the record cannot be read.
func (h *Handlers) bookmarksFor(r *http.Request, sess domain.Session) domain.Bookmarks {
	if !sess.Authenticated() {
		return nil
	}
	bm, err := h.Bookmarks.List(r.Context(), sess)
	if err != nil {
		log.Warn().Err(err).Int64("user", sess.UserID).Msg("bookmarks unavailable; rendering unmarked")
		return nil
	}
	return bm
}

type searchResponse struct {
	Generation    uint64          `json:"generation"`
	Superseded    bool            `json:"superseded"`
	Term          string          `json:"term"`
	RadiusKm      int             `json:"radiusKm"`
	Local         []app.PlaceCard `json:"local"`
	External      []app.PlaceCard `json:"external"`
	LocalError    string          `json:"localError,omitempty"`
	ExternalError string          `json:"externalError,omitempty"`
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	radius := h.RadiusKm
	if rs := r.URL.Query().Get("radius"); rs != "" {
		n, err := strconv.Atoi(rs)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid radius", "radius must be an integer number of kilometres")
			return
		}
		radius = n
	}
	sess := SessionFrom(r.Context())

	var (
		upd        app.FeedUpdate
		superseded bool
	)
	if sess.ID != "" {
		feed := h.Feeds.For(sess.ID)
		var err error
		upd, err = feed.Search(r.Context(), term, radius)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !upd.Applied {
			// a newer search owns the feed; answer with what it last applied
			superseded = true
			upd.Result, upd.Generation = feed.Latest()
		}
	} else {
		res, err := h.Search.Search(r.Context(), term, radius)
		if err != nil {
			writeError(w, r, err)
			return
		}
		upd = app.FeedUpdate{Applied: true, Result: res}
	}

	bm := h.bookmarksFor(r, sess)
	resp := searchResponse{
		Generation: upd.Generation,
		Superseded: superseded,
		Term:       upd.Result.Term,
		RadiusKm:   upd.Result.RadiusKm,
		Local:      app.Annotate(upd.Result.Local, bm),
		External:   app.Annotate(upd.Result.External, bm),
	}
	if upd.Result.LocalErr != nil {
		resp.LocalError = "featured places are temporarily unavailable"
	}
	if upd.Result.ExternalErr != nil {
		resp.ExternalError = "global results are temporarily unavailable"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) placeDetail(w http.ResponseWriter, r *http.Request) {
	d, err := h.Detail.Detail(r.Context(), chi.URLParam(r, "routeID"), r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	bm := h.bookmarksFor(r, SessionFrom(r.Context()))
	resp := struct {
		app.PlaceDetail
		Bookmarked bool `json:"bookmarked"`
	}{d, app.IsBookmarked(bm, d.Place)}

	etag, body := calcETagAndBody(resp)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write placeDetail body")
	}
}

func (h *Handlers) listBookmarks(w http.ResponseWriter, r *http.Request) {
	bm, err := h.Bookmarks.List(r.Context(), SessionFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": app.Annotate(bm, bm)})
}

func (h *Handlers) toggleBookmark(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	var p domain.Place
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&p); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid place", err.Error())
		return
	}
	bm, saved, err := h.Bookmarks.Toggle(r.Context(), sess, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bookmarked": saved,
		"items":      app.Annotate(bm, bm),
	})
}

func (h *Handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	out, err := h.Bookings.Active(r.Context(), SessionFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	rest, err := h.Bookings.CancelForUser(r.Context(), SessionFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rest})
}

func (h *Handlers) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Bookings.Summary(r.Context(), SessionFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
