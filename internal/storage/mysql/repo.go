package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"tripsync/internal/domain"
)

// Repo keeps users and bookings in MySQL. It is the alternative to the
// catalog service for the user and booking ports.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) GetUser(ctx context.Context, id int64) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, getUserSQL, id)

	var u domain.User
	var bookmarks []byte
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &bookmarks); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	bm, skipped, err := domain.DecodeBookmarks(bookmarks)
	if err != nil {
		return domain.User{}, fmt.Errorf("decode bookmarks of user %d: %w", id, err)
	}
	for _, e := range skipped {
		log.Warn().Err(e).Int64("user", id).Msg("dropping undecodable bookmark")
	}
	u.Bookmarks = bm
	return u, nil
}

func (r *Repo) UpdateBookmarks(ctx context.Context, id int64, bm domain.Bookmarks) (domain.User, error) {
	if bm == nil {
		bm = domain.Bookmarks{}
	}
	b, err := json.Marshal(bm)
	if err != nil {
		return domain.User{}, fmt.Errorf("encode bookmarks: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, updateBookmarksSQL, string(b), id); err != nil {
		return domain.User{}, err
	}
	// MySQL reports 0 affected rows for an unchanged value, so existence is
	// checked by reading the row back.
	return r.GetUser(ctx, id)
}

func (r *Repo) ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, listBookingsSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		var b domain.Booking
		var (
			status            string
			hotelID, placeID  sql.NullInt64
			checkIn, checkOut sql.NullTime
			pkg               sql.NullString
		)
		if err := rows.Scan(
			&b.ID,
			&b.UserID,
			&status,
			&hotelID,
			&placeID,
			&checkIn,
			&checkOut,
			&b.Rooms,
			&b.Guests,
			&b.TotalPrice,
			&pkg,
		); err != nil {
			return nil, err
		}
		b.Status = domain.BookingStatus(status)
		if hotelID.Valid {
			v := hotelID.Int64
			b.HotelID = &v
		}
		if placeID.Valid {
			v := placeID.Int64
			b.PlaceID = &v
		}
		if checkIn.Valid {
			b.CheckIn = checkIn.Time
		}
		if checkOut.Valid {
			b.CheckOut = checkOut.Time
		}
		if pkg.Valid {
			s := pkg.String
			b.PackageName = &s
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CancelBooking(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, cancelBookingSQL, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// either missing or already cancelled
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
	}
	return nil
}
