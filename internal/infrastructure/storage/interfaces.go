package storage

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	// SaveSnapshot atomically replaces the persisted document.
	SaveSnapshot(snap *Snapshot) error

	// LoadSnapshot reads the persisted document. A fresh database yields an
	// empty snapshot, not an error.
	LoadSnapshot() (*Snapshot, error)

	Close() error
}
