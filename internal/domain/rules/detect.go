package rules

import (
	"fmt"

	"github.com/aific/finances-backend/internal/domain/ledger"
)

// Accepts reports whether the detector accepts the transaction: the local
// range + pattern checks, and for paired detectors the existence of a mirror
// partner. It is a pure query; linking is done separately by the detection
// loop.
func (r *Registry) Accepts(d *Detector, t *ledger.Transaction, idx *ledger.Index) bool {
	if !d.Matches(t) {
		return false
	}
	if !d.Paired() {
		return true
	}
	return r.FindMirrorCandidate(d, t, idx) != nil
}

// FindMirrorCandidate searches the index for the opposite side of a transfer:
// a transaction with the exactly negated amount, posted within the matching
// window, whose description fully matches the detector's mirror pattern. It
// returns the first qualifying candidate in index order, or nil. The query has
// no side effects.
func (r *Registry) FindMirrorCandidate(d *Detector, t *ledger.Transaction, idx *ledger.Index) *ledger.Transaction {
	if !d.Paired() {
		return nil
	}
	for _, candidate := range idx.ByCents(-t.Cents) {
		if candidate == t {
			continue
		}
		delta := t.Date.Sub(candidate.Date)
		if delta < 0 {
			delta = -delta
		}
		if delta > r.window {
			continue
		}
		if d.MatchesMirror(candidate) {
			return candidate
		}
	}
	return nil
}

// linkMatch records a found transfer pair: the partner gets the mirror
// detector as a candidate and as its assignment, and both transactions point
// at each other as their matching transaction.
func (r *Registry) linkMatch(t, partner *ledger.Transaction, d *Detector) {
	partner.AddCandidate(d.mirrorID)
	partner.SetDetectorID(d.mirrorID)
	t.SetMatch(partner)
	partner.SetMatch(t)
}

// DetectCategories recomputes the candidate detector set for one transaction,
// testing every detector of every category in insertion order. The first
// accepting detector becomes the assignment, but only if the transaction is
// still on the null-detector sentinel; a manual or previous assignment is
// never overridden. When a paired detector accepts, the found partner is
// linked as the transaction's match.
//
// Returns whether any detector matched.
func (r *Registry) DetectCategories(t *ledger.Transaction, idx *ledger.Index) bool {
	matches := make(map[string]struct{})
	var first *Detector

	for _, c := range r.categories {
		for _, d := range c.detectors {
			if !d.Matches(t) {
				continue
			}
			if d.Paired() {
				partner := r.FindMirrorCandidate(d, t, idx)
				if partner == nil {
					continue
				}
				r.linkMatch(t, partner, d)
			}
			matches[d.id] = struct{}{}
			if first == nil {
				first = d
			}
		}
	}

	t.SetCandidates(matches)

	if first != nil && t.DetectorID() == ledger.NullDetectorID {
		t.SetDetectorID(first.id)
	}

	return len(matches) > 0
}

// DetectAll reclassifies every given transaction unconditionally.
func (r *Registry) DetectAll(ts []*ledger.Transaction, idx *ledger.Index) {
	for _, t := range ts {
		r.DetectCategories(t, idx)
	}
}

// DetectUncategorized reclassifies only transactions whose resolved category
// is currently nil.
func (r *Registry) DetectUncategorized(idx *ledger.Index) {
	for _, t := range idx.All() {
		if r.CategoryOf(t) == nil {
			r.DetectCategories(t, idx)
		}
	}
}

// DetectorUpdated re-validates the index after a detector's pattern, range or
// matching pattern was edited. Transactions classified under the detector or
// its mirror that it no longer accepts are reset to the null detector and
// re-detected against all rules; every currently-uncategorized transaction is
// re-detected as well, since the edited detector may now match it. A
// data-changed notification fires if anything moved.
//
// This is a full rescan over transactions x rules, acceptable because rule
// edits are rare interactive events.
func (r *Registry) DetectorUpdated(id string, idx *ledger.Index) (bool, error) {
	d, ok := r.detectors[id]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownDetector, id)
	}
	if d.synthetic {
		return false, fmt.Errorf("cannot re-validate the null detector %q", id)
	}

	updated := false

	if m := r.mirrorOf(d); m != nil {
		for _, t := range idx.All() {
			if t.DetectorID() == m.id && !r.Accepts(m, t, idx) {
				t.SetDetectorID(ledger.NullDetectorID)
				updated = true
			}
		}
	}

	for _, t := range idx.All() {
		switch {
		case t.DetectorID() == d.id:
			if !r.Accepts(d, t, idx) {
				t.SetDetectorID(ledger.NullDetectorID)
				r.DetectCategories(t, idx)
				updated = true
			}
		case r.CategoryOf(t) == nil:
			r.DetectCategories(t, idx)
			if r.CategoryOf(t) != nil {
				updated = true
			}
		}
	}

	if updated {
		idx.NotifyDataChanged()
	}
	return updated, nil
}
