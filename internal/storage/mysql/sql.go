package mysql

const getUserSQL = `
SELECT id, name, email, bookmarks
FROM users
WHERE id = ?
`

// bookmarks is replaced wholesale; the last writer wins.
const updateBookmarksSQL = `
UPDATE users
SET bookmarks = ?
WHERE id = ?
`

const listBookingsSQL = `
SELECT
  id,
  user_id,
  status,
  hotel_id,
  place_id,
  check_in,
  check_out,
  rooms,
  guests,
  total_price,
  package_name
FROM bookings
WHERE user_id = ?
ORDER BY id
`

// Cancelling keeps the row; only the status changes.
const cancelBookingSQL = `
UPDATE bookings
SET status = 'cancelled'
WHERE id = ?
`
