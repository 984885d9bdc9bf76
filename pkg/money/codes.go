package money

// Code represents a currency code (e.g., "KES", "USD").
type Code string

// Common currency codes
const (
	KES Code = "KES" // Kenyan Shilling
	UGX Code = "UGX" // Ugandan Shilling
	TZS Code = "TZS" // Tanzanian Shilling
	USD Code = "USD" // US Dollar
	EUR Code = "EUR" // Euro
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = KES

// Scale is the number of decimal places every ledger amount is kept at.
const Scale = 2

// known lists the currencies the ledger accepts, with their display symbol.
// All of them are booked at Scale regardless of their ISO minor unit.
var known = map[Code]string{
	KES:   "KSh",
	UGX:   "USh",
	TZS:   "TSh",
	"RWF": "FRw",
	"ETB": "Br",
	"NGN": "₦",
	"GHS": "GH₵",
	"ZAR": "R",
	"EGP": "£",
	USD:   "$",
	EUR:   "€",
	"GBP": "£",
	"CAD": "C$",
	"AUD": "A$",
	"CHF": "CHF",
	"CNY": "¥",
	"INR": "₹",
}

// IsValid reports whether c is a supported currency code.
func (c Code) IsValid() bool {
	_, ok := known[c]
	return ok
}

// Symbol returns the display symbol, or the code itself when none is known.
func (c Code) Symbol() string {
	if s, ok := known[c]; ok {
		return s
	}
	return string(c)
}

// String returns the string representation of the currency code.
func (c Code) String() string {
	return string(c)
}
