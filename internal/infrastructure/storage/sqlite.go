package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for the persisted document.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveSnapshot replaces the whole persisted document in one transaction:
// delete everything, then insert the snapshot's rows. Either the new document
// lands completely or the old one survives untouched.
func (s *Storage) SaveSnapshot(snap *Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Children first so foreign keys hold during the delete.
	for _, table := range []string{"transactions", "detectors", "categories", "accounts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, a := range snap.Accounts {
		hashes, _ := json.Marshal(a.NumberHashes)
		_, err := tx.Exec(`
			INSERT INTO accounts (id, institution, type, name, short_name, number_hashes)
			VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, a.Institution, a.Type, a.Name, a.ShortName, string(hashes))
		if err != nil {
			return fmt.Errorf("failed to save account %s: %w", a.ID, err)
		}
	}

	for _, c := range snap.Categories {
		_, err := tx.Exec(`
			INSERT INTO categories (id, name, type, color)
			VALUES (?, ?, ?, ?)`,
			c.ID, c.Name, c.Type, c.Color)
		if err != nil {
			return fmt.Errorf("failed to save category %s: %w", c.ID, err)
		}
	}

	for _, d := range snap.Detectors {
		_, err := tx.Exec(`
			INSERT INTO detectors
			(id, category_id, vendor, description, pattern, cents_min, cents_max, matching_pattern)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.CategoryID, d.Vendor, d.Description, d.Pattern,
			d.CentsMin, d.CentsMax, d.MatchingPattern)
		if err != nil {
			return fmt.Errorf("failed to save detector %s: %w", d.ID, err)
		}
	}

	for _, t := range snap.Transactions {
		_, err := tx.Exec(`
			INSERT INTO transactions
			(account_id, tx_id, date, description, address, cents, note, detector_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.AccountID, t.TxID, t.Date.UTC().Format(time.RFC3339),
			t.Description, t.Address, t.Cents, t.Note, t.DetectorID)
		if err != nil {
			return fmt.Errorf("failed to save transaction %s/%s: %w", t.AccountID, t.TxID, err)
		}
	}

	return tx.Commit()
}

// LoadSnapshot reads the whole persisted document. Rows come back in insertion
// (rowid) order so account and category ordering is stable across runs.
func (s *Storage) LoadSnapshot() (*Snapshot, error) {
	snap := &Snapshot{}

	rows, err := s.db.Query(`
		SELECT id, institution, type, name, short_name, number_hashes
		FROM accounts ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	for rows.Next() {
		var a AccountRecord
		var hashes string
		if err := rows.Scan(&a.ID, &a.Institution, &a.Type, &a.Name, &a.ShortName, &hashes); err != nil {
			_ = rows.Close()
			return nil, err
		}
		if hashes != "" {
			if err := json.Unmarshal([]byte(hashes), &a.NumberHashes); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("account %s has corrupt number hashes: %w", a.ID, err)
			}
		}
		snap.Accounts = append(snap.Accounts, a)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`SELECT id, name, type, color FROM categories ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	for rows.Next() {
		var c CategoryRecord
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Color); err != nil {
			_ = rows.Close()
			return nil, err
		}
		snap.Categories = append(snap.Categories, c)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`
		SELECT id, category_id, vendor, description, pattern, cents_min, cents_max, matching_pattern
		FROM detectors ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to load detectors: %w", err)
	}
	for rows.Next() {
		var d DetectorRecord
		if err := rows.Scan(&d.ID, &d.CategoryID, &d.Vendor, &d.Description,
			&d.Pattern, &d.CentsMin, &d.CentsMax, &d.MatchingPattern); err != nil {
			_ = rows.Close()
			return nil, err
		}
		snap.Detectors = append(snap.Detectors, d)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`
		SELECT account_id, tx_id, date, description, address, cents, note, detector_id
		FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	for rows.Next() {
		var t TransactionRecord
		var date string
		if err := rows.Scan(&t.AccountID, &t.TxID, &date, &t.Description,
			&t.Address, &t.Cents, &t.Note, &t.DetectorID); err != nil {
			_ = rows.Close()
			return nil, err
		}
		t.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("transaction %s/%s has corrupt date %q: %w", t.AccountID, t.TxID, date, err)
		}
		snap.Transactions = append(snap.Transactions, t)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	return snap, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	return rows.Close()
}
