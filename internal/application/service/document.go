// Package service holds the application-level document service: the in-memory
// document (accounts, rules, transactions) plus the operations the API and
// import tooling run against it.
package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/aific/finances-backend/internal/adapters/banks"
	"github.com/aific/finances-backend/internal/domain/ledger"
	"github.com/aific/finances-backend/internal/domain/rules"
	"github.com/aific/finances-backend/internal/infrastructure/storage"
)

var (
	// ErrUnknownAccount is returned when an account ID does not resolve.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrUnknownTransaction is returned when a transaction key does not resolve.
	ErrUnknownTransaction = errors.New("unknown transaction")

	// ErrUnsupportedFormat is returned for import files that are neither CSV
	// nor OFX/QFX.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// DocumentService owns the live document. All operations take the document
// lock, so API handlers and import jobs can call it concurrently.
type DocumentService struct {
	mu       sync.Mutex
	accounts *ledger.Accounts
	registry *rules.Registry
	index    *ledger.Index
	store    storage.Repository
	logger   *slog.Logger

	matchingWindowDays int
}

// NewDocumentService creates a document service around an empty document with
// the builtin rule set. matchingWindowDays <= 0 keeps the default window.
func NewDocumentService(store storage.Repository, logger *slog.Logger, matchingWindowDays int) *DocumentService {
	registry := rules.Builtin()
	registry.SetMatchWindowDays(matchingWindowDays)

	return &DocumentService{
		accounts:           ledger.NewAccounts(),
		registry:           registry,
		index:              ledger.NewIndex(),
		store:              store,
		logger:             logger,
		matchingWindowDays: matchingWindowDays,
	}
}

// Load replaces the in-memory document with the persisted one. The builtin
// rule set is the baseline; stored categories and detectors overlay it. A
// stored transaction referencing an unknown account or detector fails the
// whole load.
func (s *DocumentService) Load() error {
	snap, err := s.store.LoadSnapshot()
	if err != nil {
		return err
	}

	accounts := ledger.NewAccounts()
	for _, a := range snap.Accounts {
		accounts.Add(&ledger.Account{
			ID:           a.ID,
			Institution:  a.Institution,
			NumberHashes: a.NumberHashes,
			Type:         ledger.AccountType(a.Type),
			Name:         a.Name,
			ShortName:    a.ShortName,
		})
	}

	registry := rules.Builtin()
	registry.SetMatchWindowDays(s.matchingWindowDays)
	for _, c := range snap.Categories {
		ctype, err := rules.ParseCategoryType(c.Type)
		if err != nil {
			return fmt.Errorf("category %s: %w", c.ID, err)
		}
		color, err := rules.ParseColor(c.Color)
		if err != nil {
			return fmt.Errorf("category %s: %w", c.ID, err)
		}
		if _, err := registry.UpsertCategory(c.ID, c.Name, ctype, color); err != nil {
			return err
		}
	}
	for _, d := range snap.Detectors {
		_, err := registry.UpsertDetector(rules.DetectorSpec{
			ID:              d.ID,
			CategoryID:      d.CategoryID,
			Vendor:          d.Vendor,
			Description:     d.Description,
			Pattern:         d.Pattern,
			CentsMin:        d.CentsMin,
			CentsMax:        d.CentsMax,
			MatchingPattern: d.MatchingPattern,
		})
		if err != nil {
			return fmt.Errorf("detector %s: %w", d.ID, err)
		}
	}

	index := ledger.NewIndex()
	var txs []*ledger.Transaction
	for _, rec := range snap.Transactions {
		account, ok := accounts.Get(rec.AccountID)
		if !ok {
			return fmt.Errorf("%w: transaction %s/%s references account %q",
				ErrUnknownAccount, rec.AccountID, rec.TxID, rec.AccountID)
		}
		t := ledger.NewTransaction(account, rec.TxID, rec.Date, rec.Description, rec.Address, rec.Cents)
		t.SetNote(rec.Note)
		txs = append(txs, t)
		index.Add(t)
	}

	// Candidate sets and transfer links are not persisted; recompute them,
	// then restore the stored assignments on top.
	registry.DetectAll(txs, index)
	for i, rec := range snap.Transactions {
		if rec.DetectorID == ledger.NullDetectorID {
			continue
		}
		if _, ok := registry.Detector(rec.DetectorID); !ok {
			return fmt.Errorf("%w: transaction %s/%s references detector %q",
				rules.ErrUnknownDetector, rec.AccountID, rec.TxID, rec.DetectorID)
		}
		txs[i].SetDetectorID(rec.DetectorID)
	}

	s.mu.Lock()
	s.accounts = accounts
	s.registry = registry
	s.index = index
	s.mu.Unlock()

	s.logger.Info("document loaded",
		"accounts", accounts.Len(),
		"transactions", index.Len(),
	)
	return nil
}

// Save persists the document. Categories and detectors are written as updates
// only: anything identical to the builtin defaults is skipped and
// reconstructed from the builtins on the next load.
func (s *DocumentService) Save() error {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.store.SaveSnapshot(snap); err != nil {
		return err
	}
	s.logger.Info("document saved",
		"accounts", len(snap.Accounts),
		"transactions", len(snap.Transactions),
		"category_overrides", len(snap.Categories),
		"detector_overrides", len(snap.Detectors),
	)
	return nil
}

func (s *DocumentService) snapshotLocked() *storage.Snapshot {
	snap := &storage.Snapshot{}

	for _, a := range s.accounts.All() {
		snap.Accounts = append(snap.Accounts, storage.AccountRecord{
			ID:           a.ID,
			Institution:  a.Institution,
			Type:         string(a.Type),
			Name:         a.Name,
			ShortName:    a.ShortName,
			NumberHashes: a.NumberHashes,
		})
	}

	baseline := rules.Builtin()
	for _, c := range s.registry.Categories() {
		base, ok := baseline.Category(c.ID())
		if ok && c.EqualCompletely(base) {
			continue // reconstructed from the built-in baseline
		}
		if !ok || base.Name() != c.Name() || base.Color() != c.Color() {
			snap.Categories = append(snap.Categories, storage.CategoryRecord{
				ID:    c.ID(),
				Name:  c.Name(),
				Type:  string(c.Type()),
				Color: c.Color().String(),
			})
		}
		for _, d := range c.Detectors() {
			if d.IsDerived() {
				continue // reconstructed from the primary
			}
			if base, ok := baseline.Detector(d.ID()); ok && d.Equal(base) {
				continue
			}
			snap.Detectors = append(snap.Detectors, storage.DetectorRecord{
				ID:              d.ID(),
				CategoryID:      d.CategoryID(),
				Vendor:          d.Vendor(),
				Description:     d.Description(),
				Pattern:         d.Pattern(),
				CentsMin:        d.CentsMin(),
				CentsMax:        d.CentsMax(),
				MatchingPattern: d.MatchingPattern(),
			})
		}
	}

	for _, t := range s.index.All() {
		snap.Transactions = append(snap.Transactions, storage.TransactionRecord{
			AccountID:   t.Account.ID,
			TxID:        t.ID,
			Date:        t.Date,
			Description: t.Description,
			Address:     t.Address,
			Cents:       t.Cents,
			Note:        t.Note(),
			DetectorID:  t.DetectorID(),
		})
	}

	return snap
}

// ImportResult describes one import run.
type ImportResult struct {
	Account    *ledger.Account
	NewAccount bool
	Read       int
	Added      int
}

// ImportFile imports a bank export file. OFX/QFX statements identify their own
// account; CSV exports need the target account ID.
func (s *DocumentService) ImportFile(path, accountID string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return s.ImportCSV(accountID, f)
	case ".ofx", ".qfx":
		return s.ImportOFX(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ImportCSV imports a CSV transaction history export into an existing account.
func (s *DocumentService) ImportCSV(accountID string, r io.Reader) (*ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts.Get(accountID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAccount, accountID)
	}

	txs, err := banks.CSVHistoryReader{}.ReadTransactions(account, r)
	if err != nil {
		return nil, err
	}

	return s.addImportedLocked(account, false, txs), nil
}

// ImportOFX imports an OFX/QFX statement, matching it to an existing account
// by institution, type and account number, or creating a new account.
func (s *DocumentService) ImportOFX(r io.Reader) (*ImportResult, error) {
	file, err := banks.ParseOFX(r)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, matched := file.MatchAccount(s.accounts)
	if !matched {
		account = file.NewAccount()
		s.accounts.Add(account)
	}

	txs, err := file.Transactions(account)
	if err != nil {
		return nil, err
	}

	return s.addImportedLocked(account, !matched, txs), nil
}

func (s *DocumentService) addImportedLocked(account *ledger.Account, newAccount bool, txs []*ledger.Transaction) *ImportResult {
	added := 0
	var fresh []*ledger.Transaction
	for _, t := range txs {
		if s.index.Add(t) {
			added++
			fresh = append(fresh, t)
		}
	}
	s.registry.DetectAll(fresh, s.index)

	// A new transaction can be the missing half of an already-imported
	// transfer, so give uncategorized ones another pass.
	if added > 0 {
		s.registry.DetectUncategorized(s.index)
	}

	s.logger.Info("imported transactions",
		"account", account.ID,
		"read", len(txs),
		"added", added,
		"new_account", newAccount,
	)

	return &ImportResult{
		Account:    account,
		NewAccount: newAccount,
		Read:       len(txs),
		Added:      added,
	}
}

// CreateAccount adds an account. Account numbers are hashed immediately and
// never kept in plain text.
func (s *DocumentService) CreateAccount(institution string, numbers []string, atype ledger.AccountType, name, shortName string) (*ledger.Account, error) {
	switch atype {
	case ledger.CheckingAccount, ledger.SavingsAccount, ledger.CreditCard, ledger.CashAccount:
	default:
		return nil, fmt.Errorf("unknown account type %q", atype)
	}

	hashes := make([]string, 0, len(numbers))
	for _, n := range numbers {
		hashes = append(hashes, ledger.HashAccountNumber(n))
	}

	account := &ledger.Account{
		ID:           uuid.NewString(),
		Institution:  institution,
		NumberHashes: hashes,
		Type:         atype,
		Name:         name,
		ShortName:    shortName,
	}

	s.mu.Lock()
	s.accounts.Add(account)
	s.mu.Unlock()
	return account, nil
}

// Accounts returns every account.
func (s *DocumentService) Accounts() []*ledger.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts.All()
}

// Account looks up one account.
func (s *DocumentService) Account(id string) (*ledger.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts.Get(id)
}

// Transactions returns every transaction in the index.
func (s *DocumentService) Transactions() []*ledger.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.All()
}

// Transaction looks up one transaction by key.
func (s *DocumentService) Transaction(key ledger.Key) (*ledger.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Get(key)
}

// Categories returns the registry's categories in order.
func (s *DocumentService) Categories() []*rules.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Categories()
}

// Category looks up one category.
func (s *DocumentService) Category(id string) (*rules.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Category(id)
}

// Detector looks up one detector.
func (s *DocumentService) Detector(id string) (*rules.Detector, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Detector(id)
}

// CategoryOf resolves a transaction's current category, or nil.
func (s *DocumentService) CategoryOf(t *ledger.Transaction) *rules.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.CategoryOf(t)
}

// AssignDetector manually assigns a detector (and thereby a category) to a
// transaction. The empty detector ID clears the assignment. Assigning a
// category's own ID marks a manual assignment to that category.
func (s *DocumentService) AssignDetector(key ledger.Key, detectorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.index.Get(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTransaction, key)
	}
	if _, ok := s.registry.Detector(detectorID); !ok {
		return fmt.Errorf("%w: %q", rules.ErrUnknownDetector, detectorID)
	}

	t.SetDetectorID(detectorID)
	s.index.NotifyDataChanged()
	return nil
}

// SetNote sets a transaction's free-form note.
func (s *DocumentService) SetNote(key ledger.Key, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.index.Get(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTransaction, key)
	}
	t.SetNote(note)
	s.index.NotifyDataChanged()
	return nil
}

// CreateCategory adds a category.
func (s *DocumentService) CreateCategory(id, name string, ctype rules.CategoryType, color rules.Color) (*rules.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.AddCategory(id, name, ctype, color)
}

// UpdateCategory updates a category's mutable metadata.
func (s *DocumentService) UpdateCategory(id, name string, ctype rules.CategoryType, color rules.Color) (*rules.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registry.Category(id); !ok {
		return nil, fmt.Errorf("%w: %q", rules.ErrUnknownCategory, id)
	}
	return s.registry.UpsertCategory(id, name, ctype, color)
}

// CreateDetector adds a detector and classifies any transactions it now
// matches.
func (s *DocumentService) CreateDetector(spec rules.DetectorSpec) (*rules.Detector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.registry.AddDetector(spec)
	if err != nil {
		return nil, err
	}
	if _, err := s.registry.DetectorUpdated(d.ID(), s.index); err != nil {
		return nil, err
	}
	return d, nil
}

// DetectorEdit holds the editable detector fields. Nil fields stay unchanged.
type DetectorEdit struct {
	Vendor          *string
	Description     *string
	CentsMin        *int
	CentsMax        *int
	Pattern         *string
	MatchingPattern *string
}

// EditDetector applies a field edit to a detector (propagating to its mirror)
// and re-validates the affected transactions.
func (s *DocumentService) EditDetector(id string, edit DetectorEdit) (*rules.Detector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.registry.Detector(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", rules.ErrUnknownDetector, id)
	}

	if edit.Vendor != nil {
		if err := s.registry.SetDetectorVendor(id, *edit.Vendor); err != nil {
			return nil, err
		}
	}
	if edit.Description != nil {
		if err := s.registry.SetDetectorDescription(id, *edit.Description); err != nil {
			return nil, err
		}
	}
	if edit.CentsMin != nil || edit.CentsMax != nil {
		min, max := d.CentsMin(), d.CentsMax()
		if edit.CentsMin != nil {
			min = *edit.CentsMin
		}
		if edit.CentsMax != nil {
			max = *edit.CentsMax
		}
		if err := s.registry.SetDetectorCentsRange(id, min, max); err != nil {
			return nil, err
		}
	}
	if edit.Pattern != nil {
		if err := s.registry.SetDetectorPattern(id, *edit.Pattern); err != nil {
			return nil, err
		}
	}
	if edit.MatchingPattern != nil {
		if err := s.registry.SetDetectorMatchingPattern(id, *edit.MatchingPattern); err != nil {
			return nil, err
		}
	}

	if _, err := s.registry.DetectorUpdated(id, s.index); err != nil {
		return nil, err
	}
	return d, nil
}
