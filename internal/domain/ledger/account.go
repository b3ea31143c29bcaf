package ledger

import (
	"crypto/sha256"
	"encoding/hex"
)

// AccountType identifies the kind of bank account a transaction belongs to.
type AccountType string

const (
	CheckingAccount AccountType = "checking"
	SavingsAccount  AccountType = "savings"
	CreditCard      AccountType = "credit_card"
	CashAccount     AccountType = "cash"
)

// Account is a bank or credit-card account. Account numbers are never stored
// directly; only their SHA-256 hashes are kept, so that imported statements can
// be matched back to an account without persisting the number itself.
type Account struct {
	ID           string
	Institution  string
	NumberHashes []string
	Type         AccountType
	Name         string
	ShortName    string
}

// HashAccountNumber returns the hex SHA-256 digest of an account number.
func HashAccountNumber(number string) string {
	sum := sha256.Sum256([]byte(number))
	return hex.EncodeToString(sum[:])
}

// HasNumber reports whether the account owns the given (plaintext) number.
func (a *Account) HasNumber(number string) bool {
	h := HashAccountNumber(number)
	for _, existing := range a.NumberHashes {
		if existing == h {
			return true
		}
	}
	return false
}

// Accounts is the collection of all known accounts, in insertion order.
type Accounts struct {
	list []*Account
	byID map[string]*Account
}

// NewAccounts creates an empty account collection.
func NewAccounts() *Accounts {
	return &Accounts{byID: make(map[string]*Account)}
}

// Add registers an account. It returns false if an account with the same ID
// already exists.
func (s *Accounts) Add(a *Account) bool {
	if _, ok := s.byID[a.ID]; ok {
		return false
	}
	s.list = append(s.list, a)
	s.byID[a.ID] = a
	return true
}

// Get looks up an account by ID.
func (s *Accounts) Get(id string) (*Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// FindByNumber returns the account owning the given account number, matching
// against the stored number hashes.
func (s *Accounts) FindByNumber(institution, number string) (*Account, bool) {
	for _, a := range s.list {
		if a.Institution != institution {
			continue
		}
		if a.HasNumber(number) {
			return a, true
		}
	}
	return nil, false
}

// All returns the accounts in insertion order.
func (s *Accounts) All() []*Account {
	out := make([]*Account, len(s.list))
	copy(out, s.list)
	return out
}

// Len returns the number of accounts.
func (s *Accounts) Len() int {
	return len(s.list)
}
