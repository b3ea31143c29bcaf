package storage

// MockRepository is an in-memory implementation of Repository for testing.
type MockRepository struct {
	snapshot *Snapshot

	// Hooks for test assertions
	SaveSnapshotCalled bool
	LoadSnapshotCalled bool
	LastSavedSnapshot  *Snapshot

	// Error injection for testing error paths
	SaveSnapshotErr error
	LoadSnapshotErr error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{snapshot: &Snapshot{}}
}

func (m *MockRepository) SaveSnapshot(snap *Snapshot) error {
	m.SaveSnapshotCalled = true
	if m.SaveSnapshotErr != nil {
		return m.SaveSnapshotErr
	}
	m.snapshot = snap
	m.LastSavedSnapshot = snap
	return nil
}

func (m *MockRepository) LoadSnapshot() (*Snapshot, error) {
	m.LoadSnapshotCalled = true
	if m.LoadSnapshotErr != nil {
		return nil, m.LoadSnapshotErr
	}
	return m.snapshot, nil
}

func (m *MockRepository) Close() error { return nil }
