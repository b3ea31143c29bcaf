package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Accounts: []AccountRecord{
			{
				ID:           "acct1",
				Institution:  "Test Bank",
				Type:         "checking",
				Name:         "Test Bank Checking",
				ShortName:    "Checking",
				NumberHashes: []string{"abc123", "def456"},
			},
			{
				ID:          "acct2",
				Institution: "Test Bank",
				Type:        "credit_card",
				Name:        "Test Bank Card",
			},
		},
		Categories: []CategoryRecord{
			{ID: "hobbies", Name: "Hobbies", Type: "expense", Color: "#3050ff"},
		},
		Detectors: []DetectorRecord{
			{
				ID:         "hobbies.music",
				CategoryID: "hobbies",
				Vendor:     "Music Store",
				Pattern:    "MUSIC STORE.*",
				CentsMin:   -50000,
				CentsMax:   -100,
			},
		},
		Transactions: []TransactionRecord{
			{
				AccountID:   "acct1",
				TxID:        "t1",
				Date:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				Description: "MUSIC STORE #5",
				Cents:       -1999,
				Note:        "guitar strings",
				DetectorID:  "hobbies.music",
			},
			{
				AccountID:   "acct2",
				TxID:        "t2",
				Date:        time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
				Description: "UNKNOWN VENDOR",
				Cents:       -500,
			},
		},
	}
}

func TestStorage_RoundTrip(t *testing.T) {
	store, err := NewStorage(createTempDB(t))
	require.NoError(t, err)
	defer store.Close()

	want := sampleSnapshot()
	require.NoError(t, store.SaveSnapshot(want))

	got, err := store.LoadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, want.Accounts, got.Accounts)
	assert.Equal(t, want.Categories, got.Categories)
	assert.Equal(t, want.Detectors, got.Detectors)
	assert.Equal(t, want.Transactions, got.Transactions)
}

func TestStorage_SaveReplacesPrevious(t *testing.T) {
	store, err := NewStorage(createTempDB(t))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveSnapshot(sampleSnapshot()))

	smaller := &Snapshot{
		Accounts: []AccountRecord{
			{ID: "acct3", Institution: "Other Bank", Type: "savings"},
		},
	}
	require.NoError(t, store.SaveSnapshot(smaller))

	got, err := store.LoadSnapshot()
	require.NoError(t, err)
	require.Len(t, got.Accounts, 1)
	assert.Equal(t, "acct3", got.Accounts[0].ID)
	assert.Empty(t, got.Categories)
	assert.Empty(t, got.Detectors)
	assert.Empty(t, got.Transactions)
}

func TestStorage_FreshDatabaseIsEmpty(t *testing.T) {
	store, err := NewStorage(createTempDB(t))
	require.NoError(t, err)
	defer store.Close()

	got, err := store.LoadSnapshot()
	require.NoError(t, err)
	assert.Empty(t, got.Accounts)
	assert.Empty(t, got.Transactions)
}

func TestStorage_ReopenKeepsData(t *testing.T) {
	path := createTempDB(t)

	store, err := NewStorage(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveSnapshot(sampleSnapshot()))
	require.NoError(t, store.Close())

	// Reopening re-runs migrations idempotently and sees the same rows.
	reopened, err := NewStorage(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.LoadSnapshot()
	require.NoError(t, err)
	assert.Len(t, got.Transactions, 2)
}

func TestStorage_TransactionRequiresAccount(t *testing.T) {
	store, err := NewStorage(createTempDB(t))
	require.NoError(t, err)
	defer store.Close()

	orphan := &Snapshot{
		Transactions: []TransactionRecord{
			{AccountID: "missing", TxID: "t1", Date: time.Now(), Cents: -100},
		},
	}
	assert.Error(t, store.SaveSnapshot(orphan))

	// The failed save must not have destroyed anything already stored.
	require.NoError(t, store.SaveSnapshot(sampleSnapshot()))
	assert.Error(t, store.SaveSnapshot(orphan))
	got, err := store.LoadSnapshot()
	require.NoError(t, err)
	assert.Len(t, got.Transactions, 2)
}
