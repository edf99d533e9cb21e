package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studioz/internal/models"
)

func (db *DB) AddCartEntry(ctx context.Context, entry *models.CartEntry) error {
	now := time.Now()
	_, err := db.ExecContext(ctx,
		`INSERT INTO cart_entries (id, customer_id, reservation_id, item_id, date, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.CustomerID, entry.ReservationID, entry.ItemID, entry.Date, now)
	if err != nil {
		return fmt.Errorf("failed to add cart entry: %w", err)
	}
	entry.CreatedAt = now
	return nil
}

// RemoveCartEntriesByReservationIDs prunes pointers to the listed
// reservations across all customers in a single statement.
func (db *DB) RemoveCartEntriesByReservationIDs(ctx context.Context, reservationIDs []string) (int64, error) {
	if len(reservationIDs) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(reservationIDs)-1) + "?"
	args := make([]any, len(reservationIDs))
	for i, id := range reservationIDs {
		args[i] = id
	}

	result, err := db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM cart_entries WHERE reservation_id IN (%s)`, placeholders), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to remove cart entries: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

func (db *DB) GetCartEntries(ctx context.Context, customerID string) ([]*models.CartEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, customer_id, reservation_id, item_id, date, created_at
         FROM cart_entries WHERE customer_id = ? ORDER BY created_at`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.CartEntry
	for rows.Next() {
		e := &models.CartEntry{}
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.ReservationID, &e.ItemID, &e.Date, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
