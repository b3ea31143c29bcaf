package rules

// Builtin constructs the built-in default category set. A fresh instance is
// built on every call; the persistence layer diffs a live registry against one
// of these to decide which categories and detectors actually need to be
// stored.
//
// IDs are fixed strings so that user customizations persisted against one
// build keep resolving in the next.
func Builtin() *Registry {
	r := NewRegistry()

	type det struct {
		id          string
		vendor      string
		description string
		pattern     string
		centsMin    int
		centsMax    int
		matching    string
	}

	categories := []struct {
		id    string
		name  string
		ctype CategoryType
		color Color
		dets  []det
	}{
		{
			id: "income", name: "Income", ctype: Income, color: Color{R: 0x2e, G: 0x7d, B: 0x32},
			dets: []det{
				{id: "income.salary", description: "Salary", pattern: `.*(PAYROLL|DIRECT DEP|DIR DEP).*`, centsMin: 1, centsMax: 100000000},
				{id: "income.interest", description: "Interest", pattern: `.*(INTEREST PAYMENT|INTEREST PAID).*`, centsMin: 1, centsMax: 100000000},
			},
		},
		{
			id: "groceries", name: "Groceries", ctype: Expense, color: Color{R: 0xf9, G: 0xa8, B: 0x25},
			dets: []det{
				{id: "groceries.supermarket", description: "Supermarket", pattern: `.*(WHOLEFDS|WHOLE FOODS|TRADER JOE|SAFEWAY|STAR MARKET|MARKET BASKET).*`},
			},
		},
		{
			id: "restaurants", name: "Restaurants", ctype: Expense, color: Color{R: 0xd8, G: 0x43, B: 0x15},
			dets: []det{
				{id: "restaurants.coffee", description: "Coffee", pattern: `.*(STARBUCKS|DUNKIN|PEET).*`},
				{id: "restaurants.delivery", description: "Delivery", pattern: `.*(DOORDASH|GRUBHUB|UBER\s*EATS).*`},
			},
		},
		{
			id: "transport", name: "Transportation", ctype: Expense, color: Color{R: 0x15, G: 0x65, B: 0xc0},
			dets: []det{
				{id: "transport.rideshare", description: "Rideshare", pattern: `.*(UBER\s*TRIP|LYFT).*`},
				{id: "transport.transit", description: "Transit", pattern: `.*(MBTA|MTA|BART|CHARLIE\s*CARD).*`},
				{id: "transport.gas", description: "Gas", pattern: `.*(SHELL OIL|EXXON|CHEVRON|SUNOCO).*`},
			},
		},
		{
			id: "utilities", name: "Utilities", ctype: Expense, color: Color{R: 0x6a, G: 0x1b, B: 0x9a},
			dets: []det{
				{id: "utilities.power", description: "Electricity", pattern: `.*(EVERSOURCE|NATIONAL GRID|PG&E).*`},
				{id: "utilities.internet", description: "Internet", pattern: `.*(COMCAST|XFINITY|VERIZON FIOS).*`},
			},
		},
		{
			id: "transfers", name: "Transfers", ctype: Balanced, color: Color{R: 0x60, G: 0x7d, B: 0x8b},
			dets: []det{
				{
					id:          "transfers.ccpayment",
					description: "Credit card payment",
					pattern:     `.*(Online Banking payment|PAYMENT - THANK YOU|ONLINE PAYMENT).*`,
					centsMin:    -100000000,
					centsMax:    -1,
					matching:    `.*(Online Banking payment|PAYMENT RECEIVED|ONLINE PMT).*`,
				},
			},
		},
		{
			id: "external", name: "External", ctype: External, color: Color{R: 0x9e, G: 0x9e, B: 0x9e},
			dets: []det{
				{id: "external.atm", description: "ATM withdrawal", pattern: `.*(ATM WITHDRAWAL|BKOFAMERICA ATM).*`, centsMin: -100000000, centsMax: -1},
			},
		},
	}

	for _, c := range categories {
		if _, err := r.AddCategory(c.id, c.name, c.ctype, c.color); err != nil {
			panic("builtin categories: " + err.Error())
		}
		for _, d := range c.dets {
			spec := DetectorSpec{
				ID:              d.id,
				CategoryID:      c.id,
				Vendor:          d.vendor,
				Description:     d.description,
				Pattern:         d.pattern,
				CentsMin:        d.centsMin,
				CentsMax:        d.centsMax,
				MatchingPattern: d.matching,
			}
			if _, err := r.AddDetector(spec); err != nil {
				panic("builtin detectors: " + err.Error())
			}
		}
	}

	return r
}
