package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AddCategory(t *testing.T) {
	r := NewRegistry()

	c, err := r.AddCategory("groceries", "Groceries", Expense, Color{R: 0x20, G: 0xa0, B: 0x20})
	require.NoError(t, err)
	assert.Equal(t, "groceries", c.ID())
	assert.Equal(t, Expense, c.Type())

	t.Run("duplicate ID rejected", func(t *testing.T) {
		_, err := r.AddCategory("groceries", "Other", Expense, Color{})
		assert.Error(t, err)
	})

	t.Run("empty ID generates one", func(t *testing.T) {
		c, err := r.AddCategory("", "Anonymous", Income, Color{})
		require.NoError(t, err)
		assert.NotEmpty(t, c.ID())
	})

	t.Run("per-category null detector registered but not iterated", func(t *testing.T) {
		d, ok := r.Detector("groceries")
		require.True(t, ok)
		assert.True(t, d.Synthetic())
		assert.Empty(t, c.Detectors())
		for _, d := range r.AllDetectors() {
			assert.False(t, d.Synthetic())
		}
	})
}

func TestRegistry_UpsertCategoryRejectsTypeChange(t *testing.T) {
	r := NewRegistry()
	_, err := r.AddCategory("transfers", "Transfers", Balanced, Color{})
	require.NoError(t, err)

	_, err = r.UpsertCategory("transfers", "Transfers", Expense, Color{})
	assert.Error(t, err)

	c, err := r.UpsertCategory("transfers", "Internal Transfers", Balanced, Color{R: 1})
	require.NoError(t, err)
	assert.Equal(t, "Internal Transfers", c.Name())
}

func TestRegistry_MatchingPatternRequiresBalanced(t *testing.T) {
	r := NewRegistry()
	_, err := r.AddCategory("groceries", "Groceries", Expense, Color{})
	require.NoError(t, err)

	_, err = r.AddDetector(DetectorSpec{
		ID:              "groceries.bad",
		CategoryID:      "groceries",
		Pattern:         "WHOLEFDS.*",
		MatchingPattern: "WHOLEFDS.*",
	})
	assert.ErrorIs(t, err, ErrMirrorStateMismatch)
}

func TestRegistry_BalancedDetectorCreatesMirror(t *testing.T) {
	r := NewRegistry()
	_, err := r.AddCategory("transfers", "Transfers", Balanced, Color{})
	require.NoError(t, err)

	primary, err := r.AddDetector(DetectorSpec{
		ID:              "transfers.cc",
		CategoryID:      "transfers",
		Vendor:          "Test Bank",
		Description:     "Card payment",
		Pattern:         "Online payment.*",
		CentsMin:        -50000,
		CentsMax:        -100,
		MatchingPattern: "PAYMENT RECEIVED.*",
	})
	require.NoError(t, err)

	mirror, ok := r.Detector(primary.MirrorID())
	require.True(t, ok)

	assert.Equal(t, "Test Bank", mirror.Vendor())
	assert.Equal(t, "Match - Card payment", mirror.Description())
	assert.Equal(t, "PAYMENT RECEIVED.*", mirror.Pattern())
	assert.Equal(t, "Online payment.*", mirror.MatchingPattern())
	assert.Equal(t, 100, mirror.CentsMin())
	assert.Equal(t, 50000, mirror.CentsMax())

	// Both halves iterate with the category, primary first.
	c, _ := r.Category("transfers")
	ds := c.Detectors()
	require.Len(t, ds, 2)
	assert.Same(t, primary, ds[0])
	assert.Same(t, mirror, ds[1])
}

func TestRegistry_EditsPropagateToMirror(t *testing.T) {
	r := NewRegistry()
	_, err := r.AddCategory("transfers", "Transfers", Balanced, Color{})
	require.NoError(t, err)
	primary, err := r.AddDetector(DetectorSpec{
		ID:              "transfers.rent",
		CategoryID:      "transfers",
		Description:     "Rent",
		Pattern:         "RENT OUT.*",
		MatchingPattern: "RENT IN.*",
	})
	require.NoError(t, err)
	mirror, _ := r.Detector(primary.MirrorID())

	t.Run("vendor copied verbatim", func(t *testing.T) {
		require.NoError(t, r.SetDetectorVendor(primary.ID(), "Landlord"))
		assert.Equal(t, "Landlord", mirror.Vendor())
	})

	t.Run("description gets prefix", func(t *testing.T) {
		require.NoError(t, r.SetDetectorDescription(primary.ID(), "Monthly rent"))
		assert.Equal(t, "Match - Monthly rent", mirror.Description())
	})

	t.Run("empty description gives bare prefix", func(t *testing.T) {
		require.NoError(t, r.SetDetectorDescription(primary.ID(), ""))
		assert.Equal(t, "Match", mirror.Description())
	})

	t.Run("range negated and swapped", func(t *testing.T) {
		require.NoError(t, r.SetDetectorCentsRange(primary.ID(), -200000, -100000))
		assert.Equal(t, 100000, mirror.CentsMin())
		assert.Equal(t, 200000, mirror.CentsMax())
	})

	t.Run("pattern edits cross over", func(t *testing.T) {
		require.NoError(t, r.SetDetectorPattern(primary.ID(), "RENT PAID.*"))
		assert.Equal(t, "RENT PAID.*", mirror.MatchingPattern())

		require.NoError(t, r.SetDetectorMatchingPattern(primary.ID(), "RENT RECVD.*"))
		assert.Equal(t, "RENT RECVD.*", mirror.Pattern())
	})

	t.Run("bad pattern leaves state untouched", func(t *testing.T) {
		before := primary.Pattern()
		assert.Error(t, r.SetDetectorPattern(primary.ID(), "["))
		assert.Equal(t, before, primary.Pattern())
	})
}

func TestRegistry_EditGuards(t *testing.T) {
	r := NewRegistry()
	_, err := r.AddCategory("groceries", "Groceries", Expense, Color{})
	require.NoError(t, err)
	_, err = r.AddDetector(DetectorSpec{ID: "groceries.store", CategoryID: "groceries", Pattern: "STORE.*"})
	require.NoError(t, err)

	assert.ErrorIs(t, r.SetDetectorVendor("missing", "X"), ErrUnknownDetector)
	assert.ErrorIs(t, r.SetDetectorVendor("groceries", "X"), ErrSyntheticDetector)
	assert.ErrorIs(t, r.SetDetectorMatchingPattern("groceries.store", ".*"), ErrMirrorStateMismatch)

	_, err = r.AddDetector(DetectorSpec{ID: "d", CategoryID: "missing", Pattern: ".*"})
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestRegistry_ChangeListener(t *testing.T) {
	r := NewRegistry()
	fired := 0
	r.AddListener(func() { fired++ })

	_, err := r.AddCategory("groceries", "Groceries", Expense, Color{})
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	_, err = r.AddDetector(DetectorSpec{ID: "groceries.store", CategoryID: "groceries", Pattern: "STORE.*"})
	require.NoError(t, err)
	assert.Equal(t, 2, fired)

	require.NoError(t, r.SetDetectorVendor("groceries.store", "Store"))
	assert.Equal(t, 3, fired)
}

func TestBuiltin(t *testing.T) {
	r := Builtin()
	require.NotEmpty(t, r.Categories())

	transfers, ok := r.Category("transfers")
	require.True(t, ok)
	assert.Equal(t, Balanced, transfers.Type())
	for _, d := range transfers.Detectors() {
		assert.True(t, d.Paired())
	}

	// Builtin construction is deterministic: the same set every time.
	again := Builtin()
	for _, c := range r.Categories() {
		other, ok := again.Category(c.ID())
		require.True(t, ok)
		assert.True(t, c.EqualCompletely(other), "category %s differs between builds", c.ID())
	}
}

func TestCategory_EqualCompletely(t *testing.T) {
	base, ok := Builtin().Category("groceries")
	require.True(t, ok)

	assert.False(t, base.EqualCompletely(nil))

	t.Run("rename breaks equality", func(t *testing.T) {
		r := Builtin()
		_, err := r.UpsertCategory("groceries", "Food", Expense, base.Color())
		require.NoError(t, err)
		c, _ := r.Category("groceries")
		assert.False(t, base.EqualCompletely(c))
	})

	t.Run("detector edit breaks equality", func(t *testing.T) {
		r := Builtin()
		require.NoError(t, r.SetDetectorVendor("groceries.supermarket", "Corner Shop"))
		c, _ := r.Category("groceries")
		assert.False(t, base.EqualCompletely(c))
	})
}
