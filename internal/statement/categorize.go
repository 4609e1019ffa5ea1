package statement

import (
	"strings"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

// Rule assigns Category to descriptions containing any of Keywords.
type Rule struct {
	Category string
	Keywords []string
	// CreditOnly rules never apply to debits.
	CreditOnly bool
}

// Categorizer applies rules in order; the first match wins.
type Categorizer struct {
	rules []Rule
}

func NewCategorizer(rules ...Rule) *Categorizer {
	c := &Categorizer{rules: make([]Rule, len(rules))}
	for i, r := range rules {
		kw := make([]string, len(r.Keywords))
		for j, k := range r.Keywords {
			kw[j] = strings.ToUpper(k)
		}
		r.Keywords = kw
		c.rules[i] = r
	}
	return c
}

// DefaultCategorizer knows the merchants that show up most on Indian UPI and
// card statements.
func DefaultCategorizer() *Categorizer {
	return NewCategorizer(
		Rule{Category: "Salary", Keywords: []string{"SALARY", "SAL CREDIT", "PAYROLL"}, CreditOnly: true},
		Rule{Category: "Refunds", Keywords: []string{"REFUND", "REVERSAL", "CASHBACK"}, CreditOnly: true},
		Rule{Category: "Food & Dining", Keywords: []string{"SWIGGY", "ZOMATO", "RESTAURANT", "CAFE", "DOMINOS", "MCDONALD", "KFC", "STARBUCKS"}},
		Rule{Category: "Groceries", Keywords: []string{"BIGBASKET", "BLINKIT", "ZEPTO", "DMART", "GROFERS", "INSTAMART", "RELIANCE FRESH", "MORE RETAIL"}},
		Rule{Category: "Transport", Keywords: []string{"UBER", "OLA", "RAPIDO", "IRCTC", "METRO", "FASTAG", "PETROL", "FUEL", "HPCL", "BPCL", "IOCL"}},
		Rule{Category: "Shopping", Keywords: []string{"AMAZON", "FLIPKART", "MYNTRA", "AJIO", "MEESHO", "NYKAA"}},
		Rule{Category: "Bills & Utilities", Keywords: []string{"ELECTRICITY", "BESCOM", "AIRTEL", "JIO", "VODAFONE", "BROADBAND", "RECHARGE", "GAS BILL", "WATER BILL", "BILLDESK"}},
		Rule{Category: "Entertainment", Keywords: []string{"NETFLIX", "SPOTIFY", "HOTSTAR", "PRIME VIDEO", "BOOKMYSHOW", "PVR", "INOX"}},
		Rule{Category: "Health", Keywords: []string{"PHARMACY", "APOLLO", "HOSPITAL", "MEDPLUS", "1MG", "PHARMEASY", "CLINIC"}},
		Rule{Category: "Cash", Keywords: []string{"ATM WDL", "ATM CASH", "CASH WITHDRAWAL"}},
	)
}

// Categorize returns the category for a row, or core.Uncategorized.
func (c *Categorizer) Categorize(desc string, typ core.TxnType) string {
	upper := strings.ToUpper(desc)
	for _, r := range c.rules {
		if r.CreditOnly && typ != core.Credit {
			continue
		}
		for _, k := range r.Keywords {
			if strings.Contains(upper, k) {
				return r.Category
			}
		}
	}
	return core.Uncategorized
}
