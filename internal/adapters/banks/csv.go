// Package banks parses exported transaction history files (bank CSV exports
// and OFX/QFX statements) into ledger transactions.
package banks

import (
	"encoding/csv"
	"fmt"
	"hash/fnv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aific/finances-backend/internal/domain/ledger"
)

// CSVHistoryReader parses a Bank of America style transaction history export.
// The file may carry an arbitrary preamble (summary lines); parsing starts at
// the header row containing the Date column.
type CSVHistoryReader struct{}

// ReadTransactions reads every transaction row for the given account. Rows
// with an empty amount (the balance summary rows) are skipped. The export
// carries no stable transaction IDs, so one is synthesized from the date, the
// running balance and a hash of the description.
func (CSVHistoryReader) ReadTransactions(account *ledger.Account, r io.Reader) ([]*ledger.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	indexDate, indexDescription, indexAmount, indexRunningBal := -1, -1, -1, -1

	for indexDate < 0 {
		record, err := cr.Read()
		if err == io.EOF {
			return nil, fmt.Errorf("did not find the transaction history header")
		}
		if err != nil {
			return nil, err
		}
		for i, field := range record {
			switch field {
			case "Date":
				indexDate = i
			case "Description":
				indexDescription = i
			case "Amount":
				indexAmount = i
			case "Running Bal.":
				indexRunningBal = i
			}
		}
		if indexDate < 0 {
			// Preamble row; any column names seen here don't count.
			indexDescription, indexAmount, indexRunningBal = -1, -1, -1
		}
	}
	if indexDescription < 0 || indexAmount < 0 || indexRunningBal < 0 {
		return nil, fmt.Errorf("transaction history header is missing a required column")
	}

	var out []*ledger.Transaction
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(record) <= indexDate || len(record) <= indexDescription ||
			len(record) <= indexAmount || len(record) <= indexRunningBal {
			continue
		}

		strAmount := record[indexAmount]
		if strAmount == "" {
			continue
		}
		cents, err := parseCents(strAmount)
		if err != nil {
			return nil, err
		}

		date, err := time.Parse("01/02/2006", record[indexDate])
		if err != nil {
			return nil, fmt.Errorf("bad transaction date %q: %w", record[indexDate], err)
		}

		// The ID ends up in URL paths, so the date goes in as yyyymmdd
		// rather than the slash-separated form the export uses.
		description := record[indexDescription]
		id := date.Format("20060102") + "_" + record[indexRunningBal] + "_" + hashDescription(description)

		out = append(out, ledger.NewTransaction(account, id, date, description, "", cents))
	}

	return out, nil
}

// parseCents converts a decimal amount string to signed cents without going
// through floating point. Thousands separators are stripped.
func parseCents(s string) (int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac := s, "00"
	if dot := strings.LastIndexByte(s, '.'); dot >= 0 {
		whole, frac = s[:dot], s[dot+1:]
	}
	if len(frac) != 2 {
		return 0, fmt.Errorf("bad amount %q", s)
	}

	w, err := strconv.Atoi(whole)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q: %w", s, err)
	}
	f, err := strconv.Atoi(frac)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q: %w", s, err)
	}

	cents := w*100 + f
	if negative {
		cents = -cents
	}
	return cents, nil
}

func hashDescription(s string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}
