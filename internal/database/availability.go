package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studioz/internal/slots"
)

// Availability rows hold the serialized open-slot set per (item, date).
// All mutations go through a compare-and-swap on the serialized value so
// two writers can never clobber each other's slot math; a plain
// read-modify-write is never issued.

const casAttempts = 3

func encodeTimes(times []string) (string, error) {
	raw, err := json.Marshal(slots.Add(nil, times))
	if err != nil {
		return "", fmt.Errorf("encode times: %w", err)
	}
	return string(raw), nil
}

func decodeTimes(raw string) ([]string, error) {
	var times []string
	if err := json.Unmarshal([]byte(raw), &times); err != nil {
		return nil, fmt.Errorf("decode times: %w", err)
	}
	return times, nil
}

// GetDateTimes returns the open slots for the date and whether a row
// exists. Absent rows mean the date has never been touched; callers seed
// it with the item's default hours.
func (db *DB) GetDateTimes(ctx context.Context, itemID int64, date string) ([]string, bool, error) {
	var raw string
	err := db.QueryRowContext(ctx,
		`SELECT times FROM availability WHERE item_id = ? AND date = ?`, itemID, date).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get availability: %w", err)
	}

	times, err := decodeTimes(raw)
	if err != nil {
		return nil, false, err
	}
	return times, true, nil
}

// readOrSeedDate loads the date's open slots inside tx, inserting a row
// seeded with defaultHours when the date is untouched. The ON CONFLICT
// guard keeps a concurrent seeder from failing; the follow-up read picks
// up whichever row won.
func readOrSeedDate(ctx context.Context, tx *sql.Tx, itemID int64, date string, defaultHours []string) ([]string, string, error) {
	var raw string
	err := tx.QueryRowContext(ctx,
		`SELECT times FROM availability WHERE item_id = ? AND date = ?`, itemID, date).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		seeded, encErr := encodeTimes(defaultHours)
		if encErr != nil {
			return nil, "", encErr
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO availability (item_id, date, times, updated_at) VALUES (?, ?, ?, ?)
             ON CONFLICT(item_id, date) DO NOTHING`,
			itemID, date, seeded, time.Now()); err != nil {
			return nil, "", fmt.Errorf("failed to seed availability: %w", err)
		}
		err = tx.QueryRowContext(ctx,
			`SELECT times FROM availability WHERE item_id = ? AND date = ?`, itemID, date).Scan(&raw)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read availability: %w", err)
	}

	times, err := decodeTimes(raw)
	if err != nil {
		return nil, "", err
	}
	return times, raw, nil
}

// casUpdateTimes swaps the date's slot set from the previously observed
// serialization to newTimes. Zero rows affected means another writer got
// there first.
func casUpdateTimes(ctx context.Context, tx *sql.Tx, itemID int64, date, observedRaw string, newTimes []string) error {
	encoded, err := encodeTimes(newTimes)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE availability SET times = ?, updated_at = ? WHERE item_id = ? AND date = ? AND times = ?`,
		encoded, time.Now(), itemID, date, observedRaw)
	if err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// ReleaseSlots returns the reservation's slots to the date's open set.
// Union with dedup: slots already open are not duplicated, so the call is
// idempotent and safe to re-run after a partial sweep failure.
func (db *DB) ReleaseSlots(ctx context.Context, itemID int64, date string, released, defaultHours []string) ([]string, error) {
	var updated []string

	for attempt := 0; attempt < casAttempts; attempt++ {
		err := db.withTx(ctx, func(tx *sql.Tx) error {
			current, observed, err := readOrSeedDate(ctx, tx, itemID, date, defaultHours)
			if err != nil {
				return err
			}
			updated = slots.Add(current, released)
			return casUpdateTimes(ctx, tx, itemID, date, observed, updated)
		})
		if errors.Is(err, ErrConcurrentModification) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrConcurrentModification
}

func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
