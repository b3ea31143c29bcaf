package banks

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aific/finances-backend/internal/domain/ledger"
)

const bofaExport = `Description,,Summary Amt.
Beginning balance as of 03/01/2025,,"1,000.00"
Total credits,,"2,500.00"
Total debits,,"-45.20"

Date,Description,Amount,Running Bal.
03/01/2025,Beginning balance as of 03/01/2025,,"1,000.00"
03/03/2025,WHOLEFDS #10245 CAMBRIDGE MA,-45.20,954.80
03/05/2025,"ACME CORP DES:PAYROLL ID:12345","2,500.00","3,454.80"
`

func TestCSVHistoryReader(t *testing.T) {
	account := &ledger.Account{ID: "acct1", Institution: "Bank of America", Type: ledger.CheckingAccount}

	txs, err := CSVHistoryReader{}.ReadTransactions(account, strings.NewReader(bofaExport))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	t.Run("debit row", func(t *testing.T) {
		tx := txs[0]
		assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), tx.Date)
		assert.Equal(t, "WHOLEFDS #10245 CAMBRIDGE MA", tx.Description)
		assert.Equal(t, -4520, tx.Cents)
		assert.Same(t, account, tx.Account)
	})

	t.Run("credit row with thousands separator", func(t *testing.T) {
		tx := txs[1]
		assert.Equal(t, 250000, tx.Cents)
	})

	t.Run("synthesized IDs are stable and distinct", func(t *testing.T) {
		again, err := CSVHistoryReader{}.ReadTransactions(account, strings.NewReader(bofaExport))
		require.NoError(t, err)
		assert.Equal(t, txs[0].ID, again[0].ID)
		assert.NotEqual(t, txs[0].ID, txs[1].ID)
	})

	t.Run("synthesized IDs are safe to use in URL paths", func(t *testing.T) {
		for _, tx := range txs {
			assert.NotContains(t, tx.ID, "/", tx.ID)
		}
		assert.Equal(t, "20250303_954.80_"+hashDescription("WHOLEFDS #10245 CAMBRIDGE MA"), txs[0].ID)
	})
}

func TestCSVHistoryReader_NoHeader(t *testing.T) {
	account := &ledger.Account{ID: "acct1"}
	_, err := CSVHistoryReader{}.ReadTransactions(account, strings.NewReader("just,some,fields\n"))
	assert.Error(t, err)
}

func TestParseCents(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"-45.20", -4520},
		{"2,500.00", 250000},
		{"+3.99", 399},
		{"-0.05", -5},
		{"17", 1700},
	}
	for _, c := range cases {
		got, err := parseCents(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	_, err := parseCents("abc")
	assert.Error(t, err)
	_, err = parseCents("1.2")
	assert.Error(t, err)
}
