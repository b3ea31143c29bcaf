package rules

import "fmt"

// CategoryType classifies a category's role in income/expense reporting.
// BALANCED categories represent transfers between the user's own accounts and
// require every detector to carry a mirror pattern.
type CategoryType string

const (
	Income   CategoryType = "income"
	Expense  CategoryType = "expense"
	Balanced CategoryType = "balanced"
	External CategoryType = "external"
)

// ParseCategoryType parses a stored category type string.
func ParseCategoryType(s string) (CategoryType, error) {
	switch CategoryType(s) {
	case Income, Expense, Balanced, External:
		return CategoryType(s), nil
	}
	return "", fmt.Errorf("unknown category type %q", s)
}

// Color is a display color for a category.
type Color struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseColor parses a "#rrggbb" string.
func ParseColor(s string) (Color, error) {
	var c Color
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}

// Category is a named classification bucket owning a set of detectors. The
// type is fixed at creation; there is deliberately no setter for it.
type Category struct {
	id    string
	name  string
	ctype CategoryType
	color Color

	detectors []*Detector
	byID      map[string]*Detector

	// Match-all detector (ID == category ID) used to mark manual assignment
	// to this category. Registered in the registry's flat index but never
	// iterated during detection.
	nullDetector *Detector
}

// ID returns the unique category ID.
func (c *Category) ID() string { return c.id }

// Name returns the display name.
func (c *Category) Name() string { return c.name }

// SetName sets the display name.
func (c *Category) SetName(name string) { c.name = name }

// Type returns the category type. It cannot change after creation.
func (c *Category) Type() CategoryType { return c.ctype }

// Color returns the display color.
func (c *Category) Color() Color { return c.color }

// SetColor sets the display color.
func (c *Category) SetColor(color Color) { c.color = color }

// NullDetector returns the category's synthetic match-all detector.
func (c *Category) NullDetector() *Detector { return c.nullDetector }

// Detectors returns the category's detectors in insertion order, excluding the
// synthetic null detector.
func (c *Category) Detectors() []*Detector {
	out := make([]*Detector, len(c.detectors))
	copy(out, c.detectors)
	return out
}

// Detector looks up a detector owned by this category.
func (c *Category) Detector(id string) (*Detector, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// EqualCompletely reports whether two categories have the same metadata and
// the same detector definitions. Used to decide whether a category needs to be
// persisted at all or can be reconstructed from the built-in baseline.
func (c *Category) EqualCompletely(o *Category) bool {
	if o == nil {
		return false
	}
	if c.id != o.id || c.name != o.name || c.ctype != o.ctype || c.color != o.color {
		return false
	}
	if len(c.detectors) != len(o.detectors) {
		return false
	}
	for _, d := range c.detectors {
		od, ok := o.byID[d.id]
		if !ok || !d.Equal(od) {
			return false
		}
	}
	return true
}

func (c *Category) String() string {
	return c.name
}

func (c *Category) add(d *Detector) {
	c.detectors = append(c.detectors, d)
	c.byID[d.id] = d
}
