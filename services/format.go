package services

import (
	"fmt"
	"strings"
)

// Currency describes how money is printed.
type Currency struct {
	Code      string
	Symbol    string
	Thousands string
	Decimal   string
	// Indian switches to lakh/crore grouping after the first three digits.
	Indian bool
}

var (
	BRL = Currency{Code: "BRL", Symbol: "R$ ", Thousands: ".", Decimal: ","}
	USD = Currency{Code: "USD", Symbol: "$", Thousands: ",", Decimal: "."}
	INR = Currency{Code: "INR", Symbol: "₹", Thousands: ",", Decimal: ".", Indian: true}
)

// CurrencyByCode looks up a preset, falling back to USD.
func CurrencyByCode(code string) Currency {
	switch strings.ToUpper(code) {
	case "BRL":
		return BRL
	case "INR":
		return INR
	default:
		return USD
	}
}

// FormatMoney formats amount with exactly 2 decimal places using the
// currency's separators, e.g. R$ 1.234,56 or ₹1,23,45,678.90.
func FormatMoney(amount float64, c Currency) string {
	negative := false
	if amount < 0 {
		negative = true
		amount = -amount
	}

	raw := fmt.Sprintf("%.2f", amount)
	parts := strings.SplitN(raw, ".", 2)
	intPart, decPart := parts[0], parts[1]

	// -0.00 prints without a sign.
	if intPart == "0" && decPart == "00" {
		negative = false
	}

	var grouped string
	if c.Indian {
		grouped = applyIndianGrouping(intPart, c.Thousands)
	} else {
		grouped = applyThousandsGrouping(intPart, c.Thousands)
	}

	result := c.Symbol + grouped + c.Decimal + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// FormatPercent prints a percentage with one decimal place.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// applyThousandsGrouping inserts sep between every 3 digits from the right.
func applyThousandsGrouping(s, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// applyIndianGrouping keeps the rightmost 3 digits together, then groups
// the rest in pairs.
func applyIndianGrouping(s, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	remaining := s[:n-3]

	for len(remaining) > 2 {
		result = remaining[len(remaining)-2:] + sep + result
		remaining = remaining[:len(remaining)-2]
	}
	if len(remaining) > 0 {
		result = remaining + sep + result
	}

	return result
}
