package banks

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aific/finances-backend/internal/domain/ledger"
)

// OFXFile is a parsed OFX/QFX statement: the header block, the institution and
// account identification, and the statement's transaction list.
type OFXFile struct {
	header       map[string]string
	institution  string
	accountType  ledger.AccountType
	accountNum   string
	currency     string
	transactions *sgmlElement
}

// ParseOFX reads an OFX/QFX statement. The file starts with "KEY:VALUE" header
// lines; a blank line separates the header from the SGML body.
func ParseOFX(r io.Reader) (*OFXFile, error) {
	header := make(map[string]string)
	var body strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	inBody := false
	for scanner.Scan() {
		line := scanner.Text()
		if !inBody {
			if strings.TrimSpace(line) == "" {
				inBody = true
				continue
			}
			// Some exports skip the blank separator and go straight to <OFX>.
			if strings.HasPrefix(strings.TrimSpace(line), "<") {
				inBody = true
			} else {
				sep := strings.IndexByte(line, ':')
				if sep < 0 {
					return nil, fmt.Errorf("ofx header line without ':': %q", line)
				}
				header[strings.TrimSpace(line[:sep])] = strings.TrimSpace(line[sep+1:])
				continue
			}
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sgml, err := parseSGML(body.String())
	if err != nil {
		return nil, err
	}

	f := &OFXFile{header: header}

	f.institution = sgml.getText("SIGNONMSGSRSV1", "SONRS", "FI", "ORG")
	if f.institution == "" {
		return nil, fmt.Errorf("cannot determine the financial institution")
	}
	// Santander statements still carry the pre-rebranding name.
	if f.institution == "Sovereign Bank New" {
		f.institution = "Santander Bank"
	}

	var statement *sgmlElement
	accountTypeString := sgml.getText("BANKMSGSRSV1", "STMTTRNRS", "STMTRS", "BANKACCTFROM", "ACCTTYPE")
	switch {
	case strings.EqualFold(accountTypeString, "CHECKING"):
		f.accountType = ledger.CheckingAccount
		statement = sgml.get("BANKMSGSRSV1", "STMTTRNRS", "STMTRS")
		f.accountNum = statement.getText("BANKACCTFROM", "ACCTID")
	case strings.EqualFold(accountTypeString, "SAVINGS"):
		f.accountType = ledger.SavingsAccount
		statement = sgml.get("BANKMSGSRSV1", "STMTTRNRS", "STMTRS")
		f.accountNum = statement.getText("BANKACCTFROM", "ACCTID")
	case accountTypeString == "" && sgml.get("CREDITCARDMSGSRSV1") != nil:
		f.accountType = ledger.CreditCard
		statement = sgml.get("CREDITCARDMSGSRSV1", "CCSTMTTRNRS", "CCSTMTRS")
		if statement == nil {
			return nil, fmt.Errorf("cannot find the statement aggregate")
		}
		f.accountNum = statement.getText("CCACCTFROM", "ACCTID")
	default:
		return nil, fmt.Errorf("unsupported account type %q", accountTypeString)
	}
	if statement == nil {
		return nil, fmt.Errorf("cannot find the statement aggregate")
	}
	if f.accountNum == "" {
		return nil, fmt.Errorf("cannot determine the account number")
	}

	f.currency = statement.getText("CURDEF")
	if f.currency == "" {
		return nil, fmt.Errorf("cannot determine the currency")
	}

	f.transactions = statement.get("BANKTRANLIST")
	if f.transactions == nil {
		return nil, fmt.Errorf("cannot read the transactions")
	}

	return f, nil
}

// Institution returns the financial institution name.
func (f *OFXFile) Institution() string { return f.institution }

// AccountType returns the statement's account type.
func (f *OFXFile) AccountType() ledger.AccountType { return f.accountType }

// Currency returns the statement currency code.
func (f *OFXFile) Currency() string { return f.currency }

// MatchAccount finds the existing account this statement belongs to, matching
// the institution, the account type and the account number hash.
func (f *OFXFile) MatchAccount(accounts *ledger.Accounts) (*ledger.Account, bool) {
	for _, a := range accounts.All() {
		if a.Institution != f.institution || a.Type != f.accountType {
			continue
		}
		if a.HasNumber(f.accountNum) {
			return a, true
		}
	}
	return nil, false
}

// NewAccount creates an account for this statement. The account number is
// stored hashed; the last four digits go into the display name.
func (f *OFXFile) NewAccount() *ledger.Account {
	shortNumber := f.accountNum
	if len(shortNumber) > 4 {
		shortNumber = shortNumber[len(shortNumber)-4:]
	}
	name := f.institution + " " + shortNumber

	return &ledger.Account{
		ID:           uuid.NewString(),
		Institution:  f.institution,
		NumberHashes: []string{ledger.HashAccountNumber(f.accountNum)},
		Type:         f.accountType,
		Name:         name,
		ShortName:    name,
	}
}

// Transactions reads the statement's transactions for the given account. The
// transaction ID is the account ID joined with the bank's FITID, so re-imports
// of overlapping statements dedupe in the transaction index.
func (f *OFXFile) Transactions(account *ledger.Account) ([]*ledger.Transaction, error) {
	var out []*ledger.Transaction

	for _, e := range f.transactions.children {
		if e.tag != "STMTTRN" {
			continue
		}

		strDatePosted := e.getText("DTPOSTED")
		if len(strDatePosted) < 8 {
			return nil, fmt.Errorf("cannot determine the date of a transaction")
		}
		date, err := time.Parse("20060102", strDatePosted[:8])
		if err != nil {
			return nil, fmt.Errorf("bad transaction date %q: %w", strDatePosted, err)
		}

		name := e.getText("NAME")
		if name == "" {
			return nil, fmt.Errorf("cannot determine the transaction name")
		}
		description := name
		if memo := e.getText("MEMO"); strings.HasPrefix(memo, description) {
			description = memo
		}

		cents, err := parseOFXAmount(e.getText("TRNAMT"))
		if err != nil {
			return nil, err
		}

		fitID := e.getText("FITID")
		if fitID == "" {
			return nil, fmt.Errorf("cannot determine the transaction ID")
		}
		if correct := e.getText("CORRECTFITID"); correct != "" && correct != fitID {
			return nil, fmt.Errorf("corrected transactions (CORRECTFITID) are not supported")
		}

		id := account.ID + ":" + fitID
		out = append(out, ledger.NewTransaction(account, id, date, description, "", cents))
	}

	return out, nil
}

// parseOFXAmount converts a TRNAMT value with exactly two decimal places to
// signed cents.
func parseOFXAmount(s string) (int, error) {
	if len(s) < 4 || s[len(s)-3] != '.' {
		return 0, fmt.Errorf("cannot determine the transaction amount: %q", s)
	}
	cents, err := strconv.Atoi(s[:len(s)-3] + s[len(s)-2:])
	if err != nil {
		return 0, fmt.Errorf("cannot determine the transaction amount: %q", s)
	}
	return cents, nil
}
