package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aific/finances-backend/internal/domain/ledger"
)

// groceryRegistry builds a registry with two expense categories whose
// detectors overlap, to exercise first-match ordering.
func groceryRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	_, err := r.AddCategory("groceries", "Groceries", Expense, Color{})
	require.NoError(t, err)
	_, err = r.AddCategory("shopping", "Shopping", Expense, Color{})
	require.NoError(t, err)
	_, err = r.AddDetector(DetectorSpec{ID: "groceries.wholefoods", CategoryID: "groceries", Pattern: "WHOLEFDS.*"})
	require.NoError(t, err)
	_, err = r.AddDetector(DetectorSpec{ID: "shopping.anything", CategoryID: "shopping", Pattern: "WHOLEFDS.*|AMZN.*"})
	require.NoError(t, err)
	return r
}

func TestDetectCategories_FirstMatchWins(t *testing.T) {
	r := groceryRegistry(t)
	idx := ledger.NewIndex()
	account := testAccount()

	groceries := tx(account, "t1", "WHOLEFDS #10245", -4520, day(0))
	idx.Add(groceries)

	require.True(t, r.DetectCategories(groceries, idx))

	// Both detectors match; the earlier category wins the assignment.
	assert.Equal(t, []string{"groceries.wholefoods", "shopping.anything"}, groceries.Candidates())
	assert.Equal(t, "groceries.wholefoods", groceries.DetectorID())
	assert.Equal(t, "groceries", r.CategoryOf(groceries).ID())
}

func TestDetectCategories_NeverOverridesAssignment(t *testing.T) {
	r := groceryRegistry(t)
	idx := ledger.NewIndex()
	account := testAccount()

	manual := tx(account, "t1", "WHOLEFDS #10245", -4520, day(0))
	idx.Add(manual)
	manual.SetDetectorID("shopping.anything")

	r.DetectCategories(manual, idx)

	// Candidates are refreshed but the assignment is untouched.
	assert.Equal(t, "shopping.anything", manual.DetectorID())
	assert.Contains(t, manual.Candidates(), "groceries.wholefoods")
}

func TestDetectCategories_NoMatch(t *testing.T) {
	r := groceryRegistry(t)
	idx := ledger.NewIndex()
	account := testAccount()

	unknown := tx(account, "t1", "SOMETHING ELSE", -100, day(0))
	idx.Add(unknown)

	assert.False(t, r.DetectCategories(unknown, idx))
	assert.Equal(t, ledger.NullDetectorID, unknown.DetectorID())
	assert.Nil(t, r.CategoryOf(unknown))
}

// transferRegistry builds a registry with one mirrored transfer pair: the
// primary matches the outgoing card payment, the mirror the incoming side.
func transferRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	_, err := r.AddCategory("transfers", "Transfers", Balanced, Color{})
	require.NoError(t, err)
	_, err = r.AddDetector(DetectorSpec{
		ID:              "transfers.cc",
		CategoryID:      "transfers",
		Description:     "Card payment",
		Pattern:         "Online payment to CRD.*",
		CentsMin:        -100000000,
		CentsMax:        -1,
		MatchingPattern: "PAYMENT RECEIVED.*",
	})
	require.NoError(t, err)
	return r
}

func TestDetectCategories_TransferPairLinked(t *testing.T) {
	r := transferRegistry(t)
	idx := ledger.NewIndex()
	checking := testAccount()
	card := &ledger.Account{ID: "card1", Institution: "Test Bank", Type: ledger.CreditCard}

	out := tx(checking, "o1", "Online payment to CRD 1234", -25000, day(0))
	in := tx(card, "i1", "PAYMENT RECEIVED - THANK YOU", 25000, day(2))
	idx.AddAll([]*ledger.Transaction{out, in})

	require.True(t, r.DetectCategories(out, idx))

	assert.Equal(t, "transfers.cc", out.DetectorID())
	assert.Equal(t, "transfers.cc::m", in.DetectorID())
	assert.Same(t, in, out.Match())
	assert.Same(t, out, in.Match())
	assert.Equal(t, "transfers", r.CategoryOf(in).ID())
}

func TestDetectCategories_TransferWindow(t *testing.T) {
	r := transferRegistry(t)

	t.Run("partner on day five links", func(t *testing.T) {
		idx := ledger.NewIndex()
		out := tx(testAccount(), "o1", "Online payment to CRD 1234", -25000, day(0))
		in := tx(testAccount(), "i1", "PAYMENT RECEIVED - THANK YOU", 25000, day(5))
		idx.AddAll([]*ledger.Transaction{out, in})

		require.True(t, r.DetectCategories(out, idx))
		assert.Same(t, in, out.Match())
	})

	t.Run("partner on day six does not", func(t *testing.T) {
		idx := ledger.NewIndex()
		out := tx(testAccount(), "o1", "Online payment to CRD 1234", -25000, day(0))
		in := tx(testAccount(), "i1", "PAYMENT RECEIVED - THANK YOU", 25000, day(6))
		idx.AddAll([]*ledger.Transaction{out, in})

		assert.False(t, r.DetectCategories(out, idx))
		assert.Nil(t, out.Match())
		assert.Equal(t, ledger.NullDetectorID, out.DetectorID())
	})

	t.Run("window is symmetric", func(t *testing.T) {
		idx := ledger.NewIndex()
		out := tx(testAccount(), "o1", "Online payment to CRD 1234", -25000, day(5))
		in := tx(testAccount(), "i1", "PAYMENT RECEIVED - THANK YOU", 25000, day(0))
		idx.AddAll([]*ledger.Transaction{out, in})

		require.True(t, r.DetectCategories(out, idx))
		assert.Same(t, in, out.Match())
	})
}

func TestDetectCategories_TransferAmountMustNegate(t *testing.T) {
	r := transferRegistry(t)
	idx := ledger.NewIndex()

	out := tx(testAccount(), "o1", "Online payment to CRD 1234", -25000, day(0))
	in := tx(testAccount(), "i1", "PAYMENT RECEIVED - THANK YOU", 24999, day(0))
	idx.AddAll([]*ledger.Transaction{out, in})

	assert.False(t, r.DetectCategories(out, idx))
}

func TestDetectCategories_FirstCandidateInIndexOrder(t *testing.T) {
	r := transferRegistry(t)
	idx := ledger.NewIndex()

	out := tx(testAccount(), "o1", "Online payment to CRD 1234", -25000, day(0))
	first := tx(testAccount(), "i1", "PAYMENT RECEIVED - THANK YOU", 25000, day(1))
	second := tx(testAccount(), "i2", "PAYMENT RECEIVED - THANK YOU", 25000, day(2))
	idx.AddAll([]*ledger.Transaction{out, first, second})

	require.True(t, r.DetectCategories(out, idx))
	assert.Same(t, first, out.Match())
	assert.Equal(t, ledger.NullDetectorID, second.DetectorID())
}

func TestDetectUncategorized(t *testing.T) {
	r := groceryRegistry(t)
	idx := ledger.NewIndex()
	account := testAccount()

	categorized := tx(account, "t1", "WHOLEFDS #1", -100, day(0))
	categorized.SetDetectorID("shopping.anything")
	pending := tx(account, "t2", "AMZN Mktp US", -2000, day(0))
	idx.AddAll([]*ledger.Transaction{categorized, pending})

	r.DetectUncategorized(idx)

	assert.Equal(t, "shopping.anything", categorized.DetectorID())
	assert.Equal(t, "shopping.anything", pending.DetectorID())
}

func TestDetectorUpdated(t *testing.T) {
	t.Run("narrowed pattern resets and reclassifies", func(t *testing.T) {
		r := groceryRegistry(t)
		idx := ledger.NewIndex()
		account := testAccount()

		groceries := tx(account, "t1", "WHOLEFDS #10245", -4520, day(0))
		idx.Add(groceries)
		r.DetectAll(idx.All(), idx)
		require.Equal(t, "groceries.wholefoods", groceries.DetectorID())

		require.NoError(t, r.SetDetectorPattern("groceries.wholefoods", "WHOLEFDS MARKET.*"))
		updated, err := r.DetectorUpdated("groceries.wholefoods", idx)
		require.NoError(t, err)
		assert.True(t, updated)

		// The second category's still-matching detector picks it up.
		assert.Equal(t, "shopping.anything", groceries.DetectorID())
	})

	t.Run("widened pattern claims uncategorized transactions", func(t *testing.T) {
		r := groceryRegistry(t)
		idx := ledger.NewIndex()
		account := testAccount()

		other := tx(account, "t1", "TRADER JOES #55", -3000, day(0))
		idx.Add(other)
		r.DetectAll(idx.All(), idx)
		require.Equal(t, ledger.NullDetectorID, other.DetectorID())

		require.NoError(t, r.SetDetectorPattern("groceries.wholefoods", "WHOLEFDS.*|TRADER JOES.*"))
		updated, err := r.DetectorUpdated("groceries.wholefoods", idx)
		require.NoError(t, err)
		assert.True(t, updated)
		assert.Equal(t, "groceries.wholefoods", other.DetectorID())
	})

	t.Run("no-op edit reports no change", func(t *testing.T) {
		r := groceryRegistry(t)
		idx := ledger.NewIndex()
		idx.Add(tx(testAccount(), "t1", "WHOLEFDS #1", -100, day(0)))
		r.DetectAll(idx.All(), idx)

		updated, err := r.DetectorUpdated("groceries.wholefoods", idx)
		require.NoError(t, err)
		assert.False(t, updated)
	})

	t.Run("mirror assignments re-validated", func(t *testing.T) {
		r := transferRegistry(t)
		idx := ledger.NewIndex()

		out := tx(testAccount(), "o1", "Online payment to CRD 1234", -25000, day(0))
		in := tx(testAccount(), "i1", "PAYMENT RECEIVED - THANK YOU", 25000, day(1))
		idx.AddAll([]*ledger.Transaction{out, in})
		r.DetectAll(idx.All(), idx)
		require.Equal(t, "transfers.cc::m", in.DetectorID())

		// Tighten the mirror pattern so the incoming side no longer matches.
		require.NoError(t, r.SetDetectorMatchingPattern("transfers.cc", "NOTHING MATCHES THIS"))
		updated, err := r.DetectorUpdated("transfers.cc", idx)
		require.NoError(t, err)
		assert.True(t, updated)
		assert.Equal(t, ledger.NullDetectorID, in.DetectorID())
		assert.Equal(t, ledger.NullDetectorID, out.DetectorID())
	})

	t.Run("guards", func(t *testing.T) {
		r := groceryRegistry(t)
		idx := ledger.NewIndex()

		_, err := r.DetectorUpdated("missing", idx)
		assert.ErrorIs(t, err, ErrUnknownDetector)

		_, err = r.DetectorUpdated("groceries", idx)
		assert.Error(t, err)
	})
}
