package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount() *Account {
	return &Account{
		ID:          "acct1",
		Institution: "Test Bank",
		Type:        CheckingAccount,
		Name:        "Test Bank Checking",
		ShortName:   "Checking",
	}
}

func makeTransaction(account *Account, id string, cents int, date time.Time) *Transaction {
	return NewTransaction(account, id, date, "TEST TRANSACTION", "", cents)
}

type recordingListener struct {
	added       int
	removed     int
	dataChanged int
}

func (l *recordingListener) TransactionsAdded(from, to int)   { l.added++ }
func (l *recordingListener) TransactionsRemoved(from, to int) { l.removed++ }
func (l *recordingListener) TransactionsDataChanged()         { l.dataChanged++ }

func TestIndex_AddIsIdempotent(t *testing.T) {
	idx := NewIndex()
	account := testAccount()
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tx := makeTransaction(account, "t1", -500, day)
	assert.True(t, idx.Add(tx))
	assert.False(t, idx.Add(tx))

	// Same identity key, different object.
	dup := makeTransaction(account, "t1", -500, day)
	assert.False(t, idx.Add(dup))
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_ByCents(t *testing.T) {
	idx := NewIndex()
	account := testAccount()
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	a := makeTransaction(account, "a", -5000, day)
	b := makeTransaction(account, "b", -5000, day.AddDate(0, 0, 1))
	c := makeTransaction(account, "c", 5000, day)
	require.True(t, idx.AddAll([]*Transaction{a, b, c}))

	bucket := idx.ByCents(-5000)
	require.Len(t, bucket, 2)
	assert.Same(t, a, bucket[0])
	assert.Same(t, b, bucket[1])

	assert.Len(t, idx.ByCents(5000), 1)
	assert.Nil(t, idx.ByCents(123))
}

func TestIndex_Get(t *testing.T) {
	idx := NewIndex()
	account := testAccount()
	tx := makeTransaction(account, "t1", -500, time.Now())
	idx.Add(tx)

	got, ok := idx.Get(Key{AccountID: "acct1", TransactionID: "t1"})
	require.True(t, ok)
	assert.Same(t, tx, got)

	_, ok = idx.Get(Key{AccountID: "acct1", TransactionID: "missing"})
	assert.False(t, ok)
}

func TestIndex_Listeners(t *testing.T) {
	idx := NewIndex()
	account := testAccount()
	listener := &recordingListener{}
	idx.AddListener(listener)

	idx.Add(makeTransaction(account, "t1", -500, time.Now()))
	idx.Add(makeTransaction(account, "t2", -600, time.Now()))
	assert.Equal(t, 2, listener.added)

	idx.NotifyDataChanged()
	assert.Equal(t, 1, listener.dataChanged)

	idx.Clear()
	assert.Equal(t, 1, listener.removed)
	assert.Equal(t, 0, idx.Len())
	assert.Nil(t, idx.ByCents(-500))

	idx.RemoveListener(listener)
	idx.Add(makeTransaction(account, "t3", -700, time.Now()))
	assert.Equal(t, 2, listener.added)
}

func TestIndex_ClearOnEmptyFiresNothing(t *testing.T) {
	idx := NewIndex()
	listener := &recordingListener{}
	idx.AddListener(listener)

	idx.Clear()
	assert.Equal(t, 0, listener.removed)
}

func TestTransaction_CandidateSet(t *testing.T) {
	tx := makeTransaction(testAccount(), "t1", -500, time.Now())

	assert.Empty(t, tx.Candidates())
	assert.Equal(t, NullDetectorID, tx.DetectorID())

	tx.AddCandidate("b")
	tx.AddCandidate("a")
	assert.Equal(t, []string{"a", "b"}, tx.Candidates())
	assert.True(t, tx.HasCandidate("a"))
	assert.False(t, tx.HasCandidate("c"))
}

func TestAccounts_FindByNumber(t *testing.T) {
	accounts := NewAccounts()
	checking := &Account{
		ID:           "a1",
		Institution:  "Test Bank",
		NumberHashes: []string{HashAccountNumber("12345678")},
		Type:         CheckingAccount,
	}
	require.True(t, accounts.Add(checking))
	require.False(t, accounts.Add(checking))

	got, ok := accounts.FindByNumber("Test Bank", "12345678")
	require.True(t, ok)
	assert.Same(t, checking, got)

	_, ok = accounts.FindByNumber("Other Bank", "12345678")
	assert.False(t, ok)

	_, ok = accounts.FindByNumber("Test Bank", "99999999")
	assert.False(t, ok)
}
