package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sharekeep/internal/models"
)

// Search keys for the item timeline projection. Whether "last" and "next"
// pivot on the booking start or end date is a product choice; keeping the
// column names here makes it changeable in exactly one place.
const (
	lastBookingKey = "end_date"   // most recent approved booking: max end strictly before now
	nextBookingKey = "start_date" // earliest approved booking: min start strictly after now
)

const bookingColumns = `id, item_id, booker_id, start_date, end_date, status`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (item_id, booker_id, start_date, end_date, status)
              VALUES (?, ?, ?, ?, ?)`
	// go-sqlite3 serializes time.Time as text with the original offset, and
	// DATETIME comparisons against bound parameters are lexicographic.
	// Storing UTC keeps the time filters correct for any input zone.
	result, err := db.ExecContext(ctx, query,
		booking.ItemID,
		booking.BookerID,
		booking.Start.UTC(),
		booking.End.UTC(),
		booking.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	var b models.Booking
	err := db.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.ItemID, &b.BookerID, &b.Start, &b.End, &b.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE bookings SET status = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// stateFilter translates a query-time state projection into SQL. The time
// filters constrain status to APPROVED; WAITING/REJECTED ignore time.
// now is forced to UTC to match the stored representation.
func stateFilter(state string, now time.Time) (string, []interface{}) {
	now = now.UTC()
	switch state {
	case models.StateCurrent:
		return ` AND status = ? AND start_date < ? AND end_date > ?`,
			[]interface{}{models.StatusApproved, now, now}
	case models.StateFuture:
		return ` AND status = ? AND start_date > ?`,
			[]interface{}{models.StatusApproved, now}
	case models.StatePast:
		return ` AND status = ? AND end_date < ?`,
			[]interface{}{models.StatusApproved, now}
	case models.StateWaiting:
		return ` AND status = ?`, []interface{}{models.StatusWaiting}
	case models.StateRejected:
		return ` AND status = ?`, []interface{}{models.StatusRejected}
	default: // ALL
		return ``, nil
	}
}

func (db *DB) ListBookingsByBooker(ctx context.Context, bookerID int64, state string, now time.Time, offset, limit int) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booker_id = ?`
	args := []interface{}{bookerID}

	cond, condArgs := stateFilter(state, now)
	query += cond
	args = append(args, condArgs...)

	query += ` ORDER BY start_date DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	return db.queryBookings(ctx, query, args...)
}

func (db *DB) ListBookingsByOwner(ctx context.Context, ownerID int64, state string, now time.Time, offset, limit int) ([]models.Booking, error) {
	query := `SELECT b.id, b.item_id, b.booker_id, b.start_date, b.end_date, b.status
              FROM bookings b JOIN items i ON b.item_id = i.id
              WHERE i.owner_id = ?`
	args := []interface{}{ownerID}

	// stateFilter columns exist only on bookings, so they stay unambiguous
	// inside the join.
	cond, condArgs := stateFilter(state, now)
	query += cond
	args = append(args, condArgs...)

	query += ` ORDER BY b.start_date DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	return db.queryBookings(ctx, query, args...)
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.ItemID, &b.BookerID, &b.Start, &b.End, &b.Status); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// LastBookingForItem returns the approved booking whose search key lies
// furthest in the past, or nil when the item has none.
func (db *DB) LastBookingForItem(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT `+bookingColumns+` FROM bookings
              WHERE item_id = ? AND status = ? AND %s < ?
              ORDER BY %s DESC LIMIT 1`, lastBookingKey, lastBookingKey)
	return db.queryOptionalBooking(ctx, query, itemID, models.StatusApproved, now.UTC())
}

// NextBookingForItem returns the earliest upcoming approved booking by the
// configured search key, or nil when the item has none.
func (db *DB) NextBookingForItem(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT `+bookingColumns+` FROM bookings
              WHERE item_id = ? AND status = ? AND %s > ?
              ORDER BY %s ASC LIMIT 1`, nextBookingKey, nextBookingKey)
	return db.queryOptionalBooking(ctx, query, itemID, models.StatusApproved, now.UTC())
}

func (db *DB) queryOptionalBooking(ctx context.Context, query string, args ...interface{}) (*models.Booking, error) {
	var b models.Booking
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&b.ID, &b.ItemID, &b.BookerID, &b.Start, &b.End, &b.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query booking: %w", err)
	}
	return &b, nil
}

// HasFinishedBooking reports whether the booker has an approved booking of
// the item that already ended. Gates comment creation.
func (db *DB) HasFinishedBooking(ctx context.Context, itemID, bookerID int64, now time.Time) (bool, error) {
	query := `SELECT COUNT(*) FROM bookings
              WHERE item_id = ? AND booker_id = ? AND status = ? AND end_date <= ?`
	var count int
	err := db.QueryRowContext(ctx, query, itemID, bookerID, models.StatusApproved, now.UTC()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check finished booking: %w", err)
	}
	return count > 0, nil
}

// HasBookingForViewer reports whether the user holds or held a WAITING or
// APPROVED booking of the item. Gates the item detail view for non-owners.
func (db *DB) HasBookingForViewer(ctx context.Context, itemID, userID int64) (bool, error) {
	query := `SELECT COUNT(*) FROM bookings
              WHERE item_id = ? AND booker_id = ? AND status IN (?, ?)`
	var count int
	err := db.QueryRowContext(ctx, query, itemID, userID, models.StatusWaiting, models.StatusApproved).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check viewer booking: %w", err)
	}
	return count > 0, nil
}
