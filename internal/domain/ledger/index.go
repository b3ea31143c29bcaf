// Package ledger holds the transaction facts and the ordered, amount-indexed
// collection the rules engine runs against.
//
// The Index keeps three views of the same data:
//   - an ordered list (statement order, which the UI layers render)
//   - an identity map keyed by (account, transaction ID) for idempotent adds
//   - buckets keyed by exact signed cents, so that transfer matching can find
//     "all transactions with the opposite amount" without a scan
package ledger

import "sync"

// Listener receives change notifications from an Index. Listeners are invoked
// synchronously, outside the index lock, on whichever goroutine performed the
// mutation.
type Listener interface {
	TransactionsAdded(from, to int)
	TransactionsRemoved(from, to int)
	TransactionsDataChanged()
}

// Index is the collection of all known transactions.
type Index struct {
	mu        sync.Mutex
	list      []*Transaction
	byKey     map[Key]*Transaction
	byCents   map[int][]*Transaction
	listeners []Listener
}

// NewIndex creates an empty transaction index.
func NewIndex() *Index {
	return &Index{
		byKey:   make(map[Key]*Transaction),
		byCents: make(map[int][]*Transaction),
	}
}

// Len returns the number of transactions.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.list)
}

// Contains reports whether a transaction with the same identity key is present.
func (x *Index) Contains(t *Transaction) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	_, ok := x.byKey[t.Key()]
	return ok
}

// Get looks up a transaction by its identity key.
func (x *Index) Get(key Key) (*Transaction, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	t, ok := x.byKey[key]
	return t, ok
}

// Add inserts a transaction unless one with the same identity key is already
// present. It returns whether the insertion happened.
func (x *Index) Add(t *Transaction) bool {
	x.mu.Lock()
	key := t.Key()
	if _, ok := x.byKey[key]; ok {
		x.mu.Unlock()
		return false
	}
	x.list = append(x.list, t)
	x.byKey[key] = t
	x.byCents[t.Cents] = append(x.byCents[t.Cents], t)
	pos := len(x.list) - 1
	listeners := x.snapshotListeners()
	x.mu.Unlock()

	for _, l := range listeners {
		l.TransactionsAdded(pos, pos)
	}
	return true
}

// AddAll inserts every transaction not already present and returns whether any
// insertion happened.
func (x *Index) AddAll(ts []*Transaction) bool {
	added := false
	for _, t := range ts {
		if x.Add(t) {
			added = true
		}
	}
	return added
}

// Clear removes all transactions.
func (x *Index) Clear() {
	x.mu.Lock()
	n := len(x.list)
	x.list = nil
	x.byKey = make(map[Key]*Transaction)
	x.byCents = make(map[int][]*Transaction)
	listeners := x.snapshotListeners()
	x.mu.Unlock()

	if n > 0 {
		for _, l := range listeners {
			l.TransactionsRemoved(0, n-1)
		}
	}
}

// At returns the transaction at the given position in insertion order.
func (x *Index) At(i int) *Transaction {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.list[i]
}

// All returns a snapshot of the transactions in insertion order.
func (x *Index) All() []*Transaction {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([]*Transaction, len(x.list))
	copy(out, x.list)
	return out
}

// ByCents returns the transactions whose signed amount is exactly the given
// number of cents, in insertion order, or nil if there are none.
func (x *Index) ByCents(cents int) []*Transaction {
	x.mu.Lock()
	defer x.mu.Unlock()
	bucket := x.byCents[cents]
	if bucket == nil {
		return nil
	}
	out := make([]*Transaction, len(bucket))
	copy(out, bucket)
	return out
}

// AddListener registers a change listener.
func (x *Index) AddListener(l Listener) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.listeners = append(x.listeners, l)
}

// RemoveListener unregisters a change listener.
func (x *Index) RemoveListener(l Listener) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for i, existing := range x.listeners {
		if existing == l {
			x.listeners = append(x.listeners[:i], x.listeners[i+1:]...)
			return
		}
	}
}

// NotifyDataChanged tells listeners that classification state changed in place
// without the set of transactions changing.
func (x *Index) NotifyDataChanged() {
	x.mu.Lock()
	listeners := x.snapshotListeners()
	x.mu.Unlock()

	for _, l := range listeners {
		l.TransactionsDataChanged()
	}
}

func (x *Index) snapshotListeners() []Listener {
	out := make([]Listener, len(x.listeners))
	copy(out, x.listeners)
	return out
}
