// Package core provides the expense domain: the expense model and its
// validation rules, the reporting period resolver, and amount parsing and
// formatting.
//
// This file contains functions for parsing monetary amounts from strings
// and rendering them with Indian digit grouping.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	lakh  = decimal.NewFromInt(100_000)
	crore = decimal.NewFromInt(10_000_000)
)

// ParseAmount converts a decimal string to an amount rounded to two places.
//
// The decimal separator is a dot. Commas are accepted only as en-IN grouping
// of the integer part (1,200 or 1,23,456.50) and are stripped; any other comma
// is rejected, as are signs, exponents and zero amounts.
//
// Examples:
//
//	ParseAmount("12.34")    -> 12.34, nil
//	ParseAmount("1,23,456") -> 123456, nil
//	ParseAmount("12,34")    -> error
//	ParseAmount("12.345")   -> 12.35, nil (half-up)
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	intPart, frac, hasDot := strings.Cut(s, ".")
	intPart, ok := stripIndianGrouping(intPart)
	if !ok || strings.ContainsAny(frac, ".,") {
		return decimal.Zero, ErrInvalidAmount
	}
	if hasDot {
		s = intPart + "." + frac
	} else {
		s = intPart
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// stripIndianGrouping removes en-IN group separators from an integer part:
// the last group has three digits, the ones before it two, the leading one
// one or two. Input without commas is returned unchanged.
func stripIndianGrouping(s string) (string, bool) {
	if !strings.Contains(s, ",") {
		return s, true
	}
	groups := strings.Split(s, ",")
	last := len(groups) - 1
	for i, g := range groups {
		switch {
		case i == last && len(g) != 3:
			return "", false
		case i == 0 && i != last && (len(g) < 1 || len(g) > 2):
			return "", false
		case i > 0 && i < last && len(g) != 2:
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}

// FormatAmount renders d with two decimals and en-IN grouping: the last three
// integer digits form one group and the rest are grouped in pairs
// (1234567.5 -> "12,34,567.50").
func FormatAmount(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	intPart, frac, _ := strings.Cut(s, ".")
	out := groupIndian(intPart) + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// FormatCompact abbreviates large amounts the way the report chart axis does:
// crores ("1.50 Cr") from 1e7, lakhs ("2.25 L") from 1e5, FormatAmount below.
func FormatCompact(d decimal.Decimal) string {
	switch {
	case d.GreaterThanOrEqual(crore):
		return d.Div(crore).StringFixed(2) + " Cr"
	case d.GreaterThanOrEqual(lakh):
		return d.Div(lakh).StringFixed(2) + " L"
	default:
		return FormatAmount(d)
	}
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(append(groups, tail), ",")
}
