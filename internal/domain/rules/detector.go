package rules

import (
	"fmt"
	"regexp"

	"github.com/aific/finances-backend/internal/domain/ledger"
)

// Detector is a single classification rule: a description pattern, an optional
// signed-cents range, and (for balanced categories) a mirror pattern used to
// find the opposite side of a transfer. Detectors are owned by a Category and
// indexed by ID in the Registry; the mirror relationship is stored as an ID
// reference resolved through that index, never as a pointer.
//
// All mutation goes through the Registry so that edits propagate to the mirror
// detector atomically.
type Detector struct {
	id         string
	categoryID string

	vendor      string
	description string

	pattern string
	re      *regexp.Regexp

	centsMin int
	centsMax int

	matchingPattern string
	matchingRe      *regexp.Regexp
	mirrorID        string

	synthetic bool
}

// compileAnchored compiles a pattern so it must match the whole description,
// not a substring.
func compileAnchored(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`\A(?:` + pattern + `)\z`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}

// ID returns the unique detector ID.
func (d *Detector) ID() string { return d.id }

// CategoryID returns the owning category's ID, or "" for the global null
// detector.
func (d *Detector) CategoryID() string { return d.categoryID }

// Vendor returns the vendor label.
func (d *Detector) Vendor() string { return d.vendor }

// Description returns the description label.
func (d *Detector) Description() string { return d.description }

// Pattern returns the description pattern source text.
func (d *Detector) Pattern() string { return d.pattern }

// CentsMin returns the lower bound of the signed-cents range. The range check
// is disabled when both bounds are zero.
func (d *Detector) CentsMin() int { return d.centsMin }

// CentsMax returns the upper bound of the signed-cents range.
func (d *Detector) CentsMax() int { return d.centsMax }

// MatchingPattern returns the mirror pattern source text, or "" for detectors
// that are not part of a mirrored pair.
func (d *Detector) MatchingPattern() string { return d.matchingPattern }

// MirrorID returns the paired detector's ID, or "" if unpaired.
func (d *Detector) MirrorID() string { return d.mirrorID }

// Paired reports whether this detector is half of a mirrored transfer pair.
func (d *Detector) Paired() bool { return d.mirrorID != "" }

// Synthetic reports whether this is one of the always-present match-all
// detectors (the global null detector or a category's manual-assignment
// detector). Synthetic detectors never take part in detection and are never
// persisted.
func (d *Detector) Synthetic() bool { return d.synthetic }

// IsDerived reports whether this detector is the reconstructed half of a
// mirrored pair: the one with the lexicographically larger ID. Derived
// detectors are not persisted as primary definitions.
func (d *Detector) IsDerived() bool {
	return d.mirrorID != "" && d.id > d.mirrorID
}

// Matches reports whether the transaction passes the detector's local checks:
// the signed-cents range (when enabled) and the full-anchored description
// pattern. For paired detectors this is necessary but not sufficient for
// acceptance; the mirror partner search is handled by the Registry.
func (d *Detector) Matches(t *ledger.Transaction) bool {
	if d.centsMin != 0 || d.centsMax != 0 {
		min, max := d.centsMin, d.centsMax
		if min > max {
			min, max = max, min
		}
		if t.Cents < min || t.Cents > max {
			return false
		}
	}
	return d.re.MatchString(t.Description)
}

// MatchesMirror reports whether a candidate partner's description passes the
// full-anchored mirror pattern.
func (d *Detector) MatchesMirror(t *ledger.Transaction) bool {
	if d.matchingRe == nil {
		return false
	}
	return d.matchingRe.MatchString(t.Description)
}

// Equal reports whether two detectors define the same rule (same ID, labels,
// pattern, range and mirror pattern). Used to diff a registry against the
// built-in baseline.
func (d *Detector) Equal(o *Detector) bool {
	if o == nil {
		return false
	}
	return d.id == o.id &&
		d.categoryID == o.categoryID &&
		d.vendor == o.vendor &&
		d.description == o.description &&
		d.pattern == o.pattern &&
		d.centsMin == o.centsMin &&
		d.centsMax == o.centsMax &&
		d.matchingPattern == o.matchingPattern
}

func (d *Detector) String() string {
	if d.description != "" && d.vendor != "" {
		return fmt.Sprintf("%s (%s - %s)", d.categoryID, d.description, d.vendor)
	}
	if d.description != "" {
		return fmt.Sprintf("%s (%s)", d.categoryID, d.description)
	}
	if d.vendor != "" {
		return fmt.Sprintf("%s (%s)", d.categoryID, d.vendor)
	}
	return d.categoryID
}

// mirrorDescription derives the mirror detector's description label from the
// primary's.
func mirrorDescription(description string) string {
	if description == "" {
		return "Match"
	}
	return "Match - " + description
}

// normalizeRange orders a cents range so min <= max.
func normalizeRange(min, max int) (int, int) {
	if min > max {
		return max, min
	}
	return min, max
}
