package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"studioz/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB wraps the sqlite store. The store is the single source of truth for
// availability and reservation status; in-process caches only cover the
// static catalog loaded from config.
type DB struct {
	*sql.DB
	mu           sync.RWMutex
	itemsCache   map[int64]models.Item
	studiosCache map[int64]models.Studio
	logger       *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{
		DB:           db,
		itemsCache:   make(map[int64]models.Item),
		studiosCache: make(map[int64]models.Studio),
		logger:       logger,
	}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS items (
            id INTEGER PRIMARY KEY,
            studio_id INTEGER NOT NULL,
            name TEXT NOT NULL,
            description TEXT,
            price_per_hour REAL NOT NULL DEFAULT 0,
            operating_hours TEXT,
            operating_days TEXT,
            sort_order INTEGER NOT NULL DEFAULT 0,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS availability (
            item_id INTEGER NOT NULL,
            date TEXT NOT NULL,
            times TEXT NOT NULL,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (item_id, date)
        )`,
		`CREATE TABLE IF NOT EXISTS reservations (
            id TEXT PRIMARY KEY,
            item_id INTEGER NOT NULL,
            studio_id INTEGER NOT NULL,
            customer_id TEXT,
            date TEXT NOT NULL,
            time_slots TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            expiration DATETIME NOT NULL,
            item_price REAL NOT NULL DEFAULT 0,
            total_price REAL NOT NULL DEFAULT 0,
            add_on_ids TEXT,
            comment TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS cart_entries (
            id TEXT PRIMARY KEY,
            customer_id TEXT NOT NULL,
            reservation_id TEXT NOT NULL,
            item_id INTEGER NOT NULL,
            date TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS add_ons (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            price REAL NOT NULL DEFAULT 0,
            price_per TEXT NOT NULL DEFAULT 'session'
        )`,

		`CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(status)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_expiration ON reservations(expiration)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_item_date ON reservations(item_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_customer ON reservations(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cart_entries_reservation ON cart_entries(reservation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cart_entries_customer ON cart_entries(customer_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// SetCatalog устанавливает каталог студий и позиций для проверок
func (db *DB) SetCatalog(studios []models.Studio, items []models.Item) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.studiosCache = make(map[int64]models.Studio, len(studios))
	for _, s := range studios {
		db.studiosCache[s.ID] = s
	}
	db.itemsCache = make(map[int64]models.Item, len(items))
	for _, item := range items {
		db.itemsCache[item.ID] = item
	}
}

func (db *DB) GetItemByID(id int64) (*models.Item, error) {
	db.mu.RLock()
	item, ok := db.itemsCache[id]
	db.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return &item, nil
}

func (db *DB) GetStudioByID(id int64) (*models.Studio, error) {
	db.mu.RLock()
	studio, ok := db.studiosCache[id]
	db.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("studio %d: %w", id, ErrNotFound)
	}
	return &studio, nil
}

// GetItems returns the active catalog sorted for display.
func (db *DB) GetItems() []models.Item {
	db.mu.RLock()
	defer db.mu.RUnlock()

	items := make([]models.Item, 0, len(db.itemsCache))
	for _, item := range db.itemsCache {
		if item.IsActive {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].ID < items[j].ID
	})
	return items
}

func (db *DB) Close() error {
	return db.DB.Close()
}
