package storage

import "time"

// AccountRecord is the persisted form of a bank account. Account numbers are
// stored as SHA-256 hashes only.
type AccountRecord struct {
	ID           string
	Institution  string
	Type         string
	Name         string
	ShortName    string
	NumberHashes []string
}

// CategoryRecord is the persisted form of a category. Only categories that
// differ from the builtin defaults (or were added by the user) are written.
type CategoryRecord struct {
	ID    string
	Name  string
	Type  string
	Color string
}

// DetectorRecord is the persisted form of a detector. Derived mirror halves
// are never written; they are reconstructed from the primary on load.
type DetectorRecord struct {
	ID              string
	CategoryID      string
	Vendor          string
	Description     string
	Pattern         string
	CentsMin        int
	CentsMax        int
	MatchingPattern string
}

// TransactionRecord is the persisted form of a transaction, keyed by
// (account_id, tx_id).
type TransactionRecord struct {
	AccountID   string
	TxID        string
	Date        time.Time
	Description string
	Address     string
	Cents       int
	Note        string
	DetectorID  string
}

// Snapshot is a complete persisted document: every account, the user's
// category and detector overrides, and every transaction.
type Snapshot struct {
	Accounts     []AccountRecord
	Categories   []CategoryRecord
	Detectors    []DetectorRecord
	Transactions []TransactionRecord
}
