package database

import (
	"context"
	"fmt"
	"strings"

	"studioz/internal/models"
)

// SyncAddOns upserts the add-on catalog loaded from config.
func (db *DB) SyncAddOns(ctx context.Context, addOns []models.AddOn) error {
	for _, a := range addOns {
		_, err := db.ExecContext(ctx,
			`INSERT INTO add_ons (id, name, price, price_per) VALUES (?, ?, ?, ?)
             ON CONFLICT(id) DO UPDATE SET
                 name = excluded.name,
                 price = excluded.price,
                 price_per = excluded.price_per`,
			a.ID, a.Name, a.Price, a.PricePer)
		if err != nil {
			return fmt.Errorf("failed to sync add-on %s: %w", a.ID, err)
		}
	}
	return nil
}

func (db *DB) GetAddOnsByIDs(ctx context.Context, ids []string) ([]*models.AddOn, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, name, price, price_per FROM add_ons WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get add-ons: %w", err)
	}
	defer rows.Close()

	var addOns []*models.AddOn
	for rows.Next() {
		a := &models.AddOn{}
		if err := rows.Scan(&a.ID, &a.Name, &a.Price, &a.PricePer); err != nil {
			return nil, fmt.Errorf("failed to scan add-on: %w", err)
		}
		addOns = append(addOns, a)
	}
	return addOns, rows.Err()
}
