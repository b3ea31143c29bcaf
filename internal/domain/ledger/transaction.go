package ledger

import (
	"fmt"
	"sort"
	"time"
)

// NullDetectorID is the sentinel detector assignment meaning "no category".
// It is the zero value on purpose: a freshly constructed transaction is
// uncategorized until a detection pass or a user edit assigns a detector.
const NullDetectorID = ""

// Key identifies a transaction by (account ID, transaction ID). Transaction IDs
// are only unique within an account.
type Key struct {
	AccountID     string
	TransactionID string
}

func (k Key) String() string {
	return k.AccountID + ":" + k.TransactionID
}

// Transaction is a single imported bank transaction. The identifying fields
// (account, ID, date, description, address, amount) are immutable facts from
// the statement; the classification state (assigned detector, candidate
// detectors, match link, note) is mutated by detection passes and user edits.
//
// Detectors are referenced by ID rather than by pointer so that the ledger
// package stays independent of the rules engine; the ID resolves against the
// rules registry's flat detector index.
type Transaction struct {
	Account     *Account
	ID          string
	Date        time.Time
	Description string
	Address     string
	Cents       int

	detectorID string
	note       string
	candidates map[string]struct{}
	match      *Transaction
}

// NewTransaction creates a transaction with no classification state. Cents are
// signed: negative for debits, positive for credits.
func NewTransaction(account *Account, id string, date time.Time, description, address string, cents int) *Transaction {
	return &Transaction{
		Account:     account,
		ID:          id,
		Date:        date,
		Description: description,
		Address:     address,
		Cents:       cents,
	}
}

// Key returns the transaction's identity key.
func (t *Transaction) Key() Key {
	accountID := ""
	if t.Account != nil {
		accountID = t.Account.ID
	}
	return Key{AccountID: accountID, TransactionID: t.ID}
}

// DetectorID returns the assigned detector ID, or NullDetectorID if the
// transaction is unclassified.
func (t *Transaction) DetectorID() string {
	return t.detectorID
}

// SetDetectorID assigns the detector for this transaction.
func (t *Transaction) SetDetectorID(id string) {
	t.detectorID = id
}

// Note returns the user-supplied note.
func (t *Transaction) Note() string {
	return t.note
}

// SetNote sets the user-supplied note.
func (t *Transaction) SetNote(note string) {
	t.note = note
}

// Candidates returns the IDs of all detectors that matched in the last
// detection pass, sorted for stable output.
func (t *Transaction) Candidates() []string {
	out := make([]string, 0, len(t.candidates))
	for id := range t.candidates {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// HasCandidate reports whether the given detector is in the candidate set.
func (t *Transaction) HasCandidate(id string) bool {
	_, ok := t.candidates[id]
	return ok
}

// SetCandidates replaces the candidate detector set.
func (t *Transaction) SetCandidates(ids map[string]struct{}) {
	t.candidates = ids
}

// AddCandidate adds a single detector to the candidate set.
func (t *Transaction) AddCandidate(id string) {
	if t.candidates == nil {
		t.candidates = make(map[string]struct{})
	}
	t.candidates[id] = struct{}{}
}

// Match returns the transaction linked as the opposite side of a transfer, or
// nil if none.
func (t *Transaction) Match() *Transaction {
	return t.match
}

// SetMatch links this transaction to the opposite side of a transfer.
func (t *Transaction) SetMatch(other *Transaction) {
	t.match = other
}

func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction[id=%s date=%s description=%q cents=%d]",
		t.ID, t.Date.Format("2006-01-02"), t.Description, t.Cents)
}
