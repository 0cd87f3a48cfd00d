package entity

import (
	"strconv"
	"strings"
)

var currencySymbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"₹": "INR",
	"¥": "JPY",
}

var currencyCodes = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "INR": true, "JPY": true,
	"AUD": true, "CAD": true, "CHF": true, "CNY": true, "THB": true,
}

var currencyWords = map[string]string{
	"DOLLAR": "USD", "DOLLARS": "USD",
	"EURO": "EUR", "EUROS": "EUR",
	"POUND": "GBP", "POUNDS": "GBP",
	"RUPEE": "INR", "RUPEES": "INR",
	"YEN": "JPY",
}

// NormalizeMoney parses an amount with a currency symbol or code in either
// position ("$450", "450 USD", "EUR 1,200.50") and returns the canonical
// "<amount> <CODE>" form. Canonical forms re-parse to themselves.
func NormalizeMoney(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	code := ""
	for sym, c := range currencySymbols {
		if strings.Contains(s, sym) {
			code = c
			s = strings.ReplaceAll(s, sym, " ")
			break
		}
	}
	fields := strings.Fields(s)
	var numeric string
	for _, f := range fields {
		upper := strings.ToUpper(strings.Trim(f, ".,"))
		if currencyCodes[upper] {
			if code == "" {
				code = upper
			}
			continue
		}
		if c, ok := currencyWords[upper]; ok {
			if code == "" {
				code = c
			}
			continue
		}
		if numeric == "" && strings.IndexFunc(f, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0 {
			numeric = f
		}
	}
	if numeric == "" || code == "" {
		return "", false
	}
	numeric = strings.TrimRight(strings.ReplaceAll(numeric, ",", ""), ".")
	amount, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatFloat(amount, 'f', -1, 64) + " " + code, true
}
