package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"studioz/internal/models"
	"studioz/internal/slots"
)

const reservationColumns = `id, item_id, studio_id, COALESCE(customer_id, ''), date, time_slots,
                 status, expiration, item_price, total_price, COALESCE(add_on_ids, '[]'),
                 COALESCE(comment, ''), created_at, updated_at, version`

// CreateReservationWithHold atomically removes the requested slots from
// the date's availability and inserts the pending reservation. Both
// happen in one transaction guarded by the availability CAS: of two
// concurrent requests for an overlapping slot, at most one commits.
func (db *DB) CreateReservationWithHold(ctx context.Context, r *models.Reservation, defaultHours []string) error {
	for attempt := 0; attempt < casAttempts; attempt++ {
		err := db.withTx(ctx, func(tx *sql.Tx) error {
			current, observed, err := readOrSeedDate(ctx, tx, r.ItemID, r.Date, defaultHours)
			if err != nil {
				return err
			}

			if !slots.AllAvailable(r.TimeSlots, current) {
				return ErrSlotUnavailable
			}

			if err := casUpdateTimes(ctx, tx, r.ItemID, r.Date, observed, slots.Remove(current, r.TimeSlots)); err != nil {
				return err
			}

			return insertReservation(ctx, tx, r)
		})
		if errors.Is(err, ErrConcurrentModification) {
			continue
		}
		return err
	}
	return ErrConcurrentModification
}

func insertReservation(ctx context.Context, tx *sql.Tx, r *models.Reservation) error {
	slotsJSON, err := json.Marshal(r.TimeSlots)
	if err != nil {
		return fmt.Errorf("encode time slots: %w", err)
	}
	addOnsJSON, err := json.Marshal(r.AddOnIDs)
	if err != nil {
		return fmt.Errorf("encode add-on ids: %w", err)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `INSERT INTO reservations (
                id, item_id, studio_id, customer_id, date, time_slots, status,
                expiration, item_price, total_price, add_on_ids, comment,
                created_at, updated_at, version
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ItemID, r.StudioID, r.CustomerID, r.Date, string(slotsJSON), r.Status,
		r.Expiration, r.ItemPrice, r.TotalPrice, string(addOnsJSON), r.Comment,
		now, now, 1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}

	r.CreatedAt = now
	r.UpdatedAt = now
	r.Version = 1
	return nil
}

func (db *DB) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	r, err := scanReservation(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reservation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return r, nil
}

// ConfirmReservation flips a pending reservation to confirmed, guarded by
// the version AND the hold deadline. The deadline predicate closes the
// window where a confirm checked in memory moments before expiry could
// commit after the sweeper already released the slots.
func (db *DB) ConfirmReservation(ctx context.Context, id string, fromVersion int64, now time.Time) error {
	result, err := db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, version = version + 1, updated_at = ?
         WHERE id = ? AND version = ? AND status = ? AND expiration > ?`,
		models.StatusConfirmed, now, id, fromVersion, models.StatusPending, now)
	if err != nil {
		return fmt.Errorf("failed to confirm reservation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// UpdateReservationStatusWithVersion transitions status under optimistic
// locking; losing the version race (for example to the expiry sweeper)
// returns ErrConcurrentModification.
func (db *DB) UpdateReservationStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error {
	query := `UPDATE reservations SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// GetExpiredPending returns pending reservations whose hold deadline has
// passed, oldest first.
func (db *DB) GetExpiredPending(ctx context.Context, now time.Time) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
              FROM reservations WHERE status = ? AND expiration < ? ORDER BY expiration ASC`
	return db.queryReservations(ctx, query, models.StatusPending, now)
}

// MarkExpired bulk-transitions the listed reservations out of pending.
// The status guard keeps a concurrently confirmed reservation untouched.
func (db *DB) MarkExpired(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	query := fmt.Sprintf(
		`UPDATE reservations SET status = ?, version = version + 1, updated_at = ?
         WHERE id IN (%s) AND status = ?`, placeholders)

	args := make([]any, 0, len(ids)+3)
	args = append(args, models.StatusExpired, time.Now())
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, models.StatusPending)

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark reservations expired: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

// DeleteExpiredBefore hard-deletes expired reservations whose deadline
// is older than the retention cutoff.
func (db *DB) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM reservations WHERE status = ? AND expiration < ?`,
		models.StatusExpired, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old expired reservations: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

func (db *DB) GetReservationsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
              FROM reservations WHERE date >= ? AND date <= ? ORDER BY date, created_at`
	return db.queryReservations(ctx, query,
		startDate.Format(models.DateFormat), endDate.Format(models.DateFormat))
}

func (db *DB) GetCustomerReservations(ctx context.Context, customerID string) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
              FROM reservations WHERE customer_id = ? ORDER BY created_at DESC`
	return db.queryReservations(ctx, query, customerID)
}

func (db *DB) queryReservations(ctx context.Context, query string, args ...any) ([]*models.Reservation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var (
		r         models.Reservation
		slotsRaw  string
		addOnsRaw string
	)
	err := row.Scan(
		&r.ID, &r.ItemID, &r.StudioID, &r.CustomerID, &r.Date, &slotsRaw,
		&r.Status, &r.Expiration, &r.ItemPrice, &r.TotalPrice, &addOnsRaw,
		&r.Comment, &r.CreatedAt, &r.UpdatedAt, &r.Version,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(slotsRaw), &r.TimeSlots); err != nil {
		return nil, fmt.Errorf("decode time slots: %w", err)
	}
	if err := json.Unmarshal([]byte(addOnsRaw), &r.AddOnIDs); err != nil {
		return nil, fmt.Errorf("decode add-on ids: %w", err)
	}
	return &r, nil
}
