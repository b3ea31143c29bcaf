// Package rules implements the category detection engine: detectors
// (pattern + amount-range rules), categories, and the registry that matches
// them against transactions, including mirrored detector pairs that link the
// two sides of a transfer.
package rules

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aific/finances-backend/internal/domain/ledger"
)

// MaxMatchingDays is the default transfer-matching window: a mirror partner
// must post within this many days (inclusive) of the transaction.
const MaxMatchingDays = 5

var (
	// ErrUnknownCategory is returned when a category ID does not resolve.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrUnknownDetector is returned when a detector ID does not resolve.
	ErrUnknownDetector = errors.New("unknown detector")

	// ErrMirrorStateMismatch is returned when a matching pattern is set on a
	// detector that is not part of a mirrored pair, or omitted on one that is.
	ErrMirrorStateMismatch = errors.New("detector mirror state mismatch")

	// ErrSyntheticDetector is returned when an edit targets one of the
	// always-present match-all detectors.
	ErrSyntheticDetector = errors.New("cannot edit a synthetic detector")
)

// DetectorSpec describes a detector to create or update. For detectors in a
// BALANCED category MatchingPattern is the mirror pattern and a mirror
// detector is created automatically; for all other categories it must be
// empty.
type DetectorSpec struct {
	ID              string // generated when empty
	CategoryID      string
	Vendor          string
	Description     string
	Pattern         string
	CentsMin        int
	CentsMax        int
	MatchingPattern string
}

// Registry holds every category and a flat index of every detector. It is the
// single entry point for rule construction, rule edits (so mirrored pairs stay
// consistent) and category detection.
//
// Categories iterate in insertion order and each category's detectors iterate
// in insertion order, so "first match wins" is deterministic and reproducible
// across runs.
type Registry struct {
	categories []*Category
	byID       map[string]*Category
	detectors  map[string]*Detector

	nullDetector *Detector
	window       time.Duration
	listeners    []func()
}

// NewRegistry creates an empty registry containing only the global null
// detector.
func NewRegistry() *Registry {
	r := &Registry{
		byID:      make(map[string]*Category),
		detectors: make(map[string]*Detector),
		window:    MaxMatchingDays * 24 * time.Hour,
	}
	re, _ := compileAnchored(".*")
	r.nullDetector = &Detector{id: ledger.NullDetectorID, pattern: ".*", re: re, synthetic: true}
	r.detectors[r.nullDetector.id] = r.nullDetector
	return r
}

// SetMatchWindowDays overrides the transfer-matching window. Days must be
// positive; other values leave the default in place.
func (r *Registry) SetMatchWindowDays(days int) {
	if days > 0 {
		r.window = time.Duration(days) * 24 * time.Hour
	}
}

// NullDetector returns the global "no category" sentinel detector.
func (r *Registry) NullDetector() *Detector { return r.nullDetector }

// Categories returns the categories in insertion order.
func (r *Registry) Categories() []*Category {
	out := make([]*Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// Category looks up a category by ID.
func (r *Registry) Category(id string) (*Category, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Detector looks up any detector (including synthetic ones) by ID.
func (r *Registry) Detector(id string) (*Detector, bool) {
	d, ok := r.detectors[id]
	return d, ok
}

// AllDetectors returns every non-synthetic detector, iterating categories and
// their detectors in insertion order.
func (r *Registry) AllDetectors() []*Detector {
	var out []*Detector
	for _, c := range r.categories {
		out = append(out, c.detectors...)
	}
	return out
}

// CategoryOf resolves the category a transaction is currently assigned to, or
// nil if it is uncategorized.
func (r *Registry) CategoryOf(t *ledger.Transaction) *Category {
	d, ok := r.detectors[t.DetectorID()]
	if !ok || d.categoryID == "" {
		return nil
	}
	return r.byID[d.categoryID]
}

// AddListener registers a callback fired after any category or detector
// change.
func (r *Registry) AddListener(fn func()) {
	r.listeners = append(r.listeners, fn)
}

func (r *Registry) notifyChanged() {
	for _, fn := range r.listeners {
		fn()
	}
}

// AddCategory creates a category. The type is fixed for the category's
// lifetime. An empty ID is replaced with a generated one.
func (r *Registry) AddCategory(id, name string, ctype CategoryType, color Color) (*Category, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := r.byID[id]; ok {
		return nil, fmt.Errorf("category %q already exists", id)
	}
	if _, ok := r.detectors[id]; ok {
		return nil, fmt.Errorf("category ID %q collides with an existing detector", id)
	}

	c := &Category{
		id:    id,
		name:  name,
		ctype: ctype,
		color: color,
		byID:  make(map[string]*Detector),
	}

	// The manual-assignment detector shares the category's ID. It lives in
	// the flat index only, so detection passes never iterate it.
	re, _ := compileAnchored(".*")
	c.nullDetector = &Detector{id: id, categoryID: id, pattern: ".*", re: re, synthetic: true}
	r.detectors[id] = c.nullDetector

	r.categories = append(r.categories, c)
	r.byID[id] = c
	r.notifyChanged()
	return c, nil
}

// UpsertCategory creates the category or updates its mutable metadata. A type
// change on an existing category is rejected.
func (r *Registry) UpsertCategory(id, name string, ctype CategoryType, color Color) (*Category, error) {
	if c, ok := r.byID[id]; ok {
		if c.ctype != ctype {
			return nil, fmt.Errorf("category %q: cannot change type from %s to %s", id, c.ctype, ctype)
		}
		c.SetName(name)
		c.SetColor(color)
		r.notifyChanged()
		return c, nil
	}
	return r.AddCategory(id, name, ctype, color)
}

// AddDetector creates a detector in the given category. For BALANCED
// categories the mirror detector is created and linked in the same call: it
// gets the vendor verbatim, a "Match - " description prefix, the negated and
// swapped cents range, and the two patterns cross-swapped. The mirror's ID is
// the primary's ID with a "::m" suffix, which keeps the primary the
// lexicographically smaller (non-derived) half.
func (r *Registry) AddDetector(spec DetectorSpec) (*Detector, error) {
	c, ok := r.byID[spec.CategoryID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, spec.CategoryID)
	}

	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := r.detectors[id]; ok {
		return nil, fmt.Errorf("detector %q already exists", id)
	}

	re, err := compileAnchored(spec.Pattern)
	if err != nil {
		return nil, err
	}
	min, max := normalizeRange(spec.CentsMin, spec.CentsMax)

	if c.ctype != Balanced {
		if spec.MatchingPattern != "" {
			return nil, fmt.Errorf("%w: matching pattern requires a balanced category", ErrMirrorStateMismatch)
		}
		d := &Detector{
			id:          id,
			categoryID:  c.id,
			vendor:      spec.Vendor,
			description: spec.Description,
			pattern:     spec.Pattern,
			re:          re,
			centsMin:    min,
			centsMax:    max,
		}
		c.add(d)
		r.detectors[id] = d
		r.notifyChanged()
		return d, nil
	}

	matchingRe, err := compileAnchored(spec.MatchingPattern)
	if err != nil {
		return nil, err
	}

	mirrorID := id + "::m"
	if _, ok := r.detectors[mirrorID]; ok {
		return nil, fmt.Errorf("detector %q already exists", mirrorID)
	}

	primary := &Detector{
		id:              id,
		categoryID:      c.id,
		vendor:          spec.Vendor,
		description:     spec.Description,
		pattern:         spec.Pattern,
		re:              re,
		centsMin:        min,
		centsMax:        max,
		matchingPattern: spec.MatchingPattern,
		matchingRe:      matchingRe,
		mirrorID:        mirrorID,
	}
	mirror := &Detector{
		id:              mirrorID,
		categoryID:      c.id,
		vendor:          spec.Vendor,
		description:     mirrorDescription(spec.Description),
		pattern:         spec.MatchingPattern,
		re:              matchingRe,
		centsMin:        -max,
		centsMax:        -min,
		matchingPattern: spec.Pattern,
		matchingRe:      re,
		mirrorID:        id,
	}

	c.add(primary)
	c.add(mirror)
	r.detectors[primary.id] = primary
	r.detectors[mirror.id] = mirror
	r.notifyChanged()
	return primary, nil
}

// UpsertDetector creates the detector or applies the spec's fields to the
// existing one, propagating to its mirror.
func (r *Registry) UpsertDetector(spec DetectorSpec) (*Detector, error) {
	d, ok := r.detectors[spec.ID]
	if !ok || d.synthetic {
		return r.AddDetector(spec)
	}
	if err := r.SetDetectorVendor(d.id, spec.Vendor); err != nil {
		return nil, err
	}
	if err := r.SetDetectorDescription(d.id, spec.Description); err != nil {
		return nil, err
	}
	if err := r.SetDetectorCentsRange(d.id, spec.CentsMin, spec.CentsMax); err != nil {
		return nil, err
	}
	if err := r.SetDetectorPattern(d.id, spec.Pattern); err != nil {
		return nil, err
	}
	if spec.MatchingPattern != "" || d.Paired() {
		if err := r.SetDetectorMatchingPattern(d.id, spec.MatchingPattern); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (r *Registry) editableDetector(id string) (*Detector, error) {
	d, ok := r.detectors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDetector, id)
	}
	if d.synthetic {
		return nil, ErrSyntheticDetector
	}
	return d, nil
}

func (r *Registry) mirrorOf(d *Detector) *Detector {
	if d.mirrorID == "" {
		return nil
	}
	return r.detectors[d.mirrorID]
}

// SetDetectorVendor sets the vendor label; the mirror gets the same value.
func (r *Registry) SetDetectorVendor(id, vendor string) error {
	d, err := r.editableDetector(id)
	if err != nil {
		return err
	}
	d.vendor = vendor
	if m := r.mirrorOf(d); m != nil {
		m.vendor = vendor
	}
	r.notifyChanged()
	return nil
}

// SetDetectorDescription sets the description label; the mirror gets a
// "Match - " prefixed derivation.
func (r *Registry) SetDetectorDescription(id, description string) error {
	d, err := r.editableDetector(id)
	if err != nil {
		return err
	}
	d.description = description
	if m := r.mirrorOf(d); m != nil {
		m.description = mirrorDescription(description)
	}
	r.notifyChanged()
	return nil
}

// SetDetectorCentsRange sets the signed-cents range, normalizing the bounds so
// min <= max; the mirror gets the negated, swapped range. Both bounds zero
// disables the check.
func (r *Registry) SetDetectorCentsRange(id string, min, max int) error {
	d, err := r.editableDetector(id)
	if err != nil {
		return err
	}
	min, max = normalizeRange(min, max)
	d.centsMin, d.centsMax = min, max
	if m := r.mirrorOf(d); m != nil {
		m.centsMin, m.centsMax = -max, -min
	}
	r.notifyChanged()
	return nil
}

// SetDetectorPattern sets the description pattern. A pattern that fails to
// compile leaves the detector's previous pattern untouched. The mirror's
// matching pattern tracks the primary's main pattern.
func (r *Registry) SetDetectorPattern(id, pattern string) error {
	d, err := r.editableDetector(id)
	if err != nil {
		return err
	}
	re, err := compileAnchored(pattern)
	if err != nil {
		return err
	}
	d.pattern, d.re = pattern, re
	if m := r.mirrorOf(d); m != nil {
		m.matchingPattern, m.matchingRe = pattern, re
	}
	r.notifyChanged()
	return nil
}

// SetDetectorMatchingPattern sets the mirror pattern on a paired detector. The
// mirror's main pattern tracks it. Setting a matching pattern on an unpaired
// detector is rejected.
func (r *Registry) SetDetectorMatchingPattern(id, pattern string) error {
	d, err := r.editableDetector(id)
	if err != nil {
		return err
	}
	if !d.Paired() {
		return fmt.Errorf("%w: detector %q has no mirror", ErrMirrorStateMismatch, id)
	}
	re, err := compileAnchored(pattern)
	if err != nil {
		return err
	}
	d.matchingPattern, d.matchingRe = pattern, re
	if m := r.mirrorOf(d); m != nil {
		m.pattern, m.re = pattern, re
	}
	r.notifyChanged()
	return nil
}
