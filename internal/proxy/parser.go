// Package proxy parses proxy-basket formulas and resolves per-security
// reference-ticker dependency lists for the return estimators.
package proxy

import (
	"fmt"
	"strconv"
	"strings"
)

// Term is one weighted reference security in a proxy formula.
type Term struct {
	Coef   float64
	Ticker string
}

// ParseFormula parses a formula of the form `coef*TICKER[+coef*TICKER]...`
// such as "0.19*BKLN US+0.08*SJNK US". A leading sign is honored, an
// omitted coefficient is 1, and tickers may contain embedded spaces
// (exchange suffixes). Term order is preserved.
func ParseFormula(formula string) ([]Term, error) {
	s := strings.TrimSpace(formula)
	if s == "" {
		return nil, nil
	}

	var terms []Term
	start := 0
	sign := 1.0
	if s[0] == '+' || s[0] == '-' {
		if s[0] == '-' {
			sign = -1
		}
		start = 1
	}

	for start < len(s) {
		end := start
		for end < len(s) && s[end] != '+' && s[end] != '-' {
			end++
		}
		term, err := parseTerm(s[start:end], sign)
		if err != nil {
			return nil, fmt.Errorf("formula %q: %w", formula, err)
		}
		terms = append(terms, term)

		if end >= len(s) {
			break
		}
		if s[end] == '-' {
			sign = -1
		} else {
			sign = 1
		}
		start = end + 1
	}
	return terms, nil
}

func parseTerm(raw string, sign float64) (Term, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Term{}, fmt.Errorf("empty term")
	}

	coef := 1.0
	ticker := raw
	if i := strings.Index(raw, "*"); i >= 0 {
		c, err := strconv.ParseFloat(strings.TrimSpace(raw[:i]), 64)
		if err != nil {
			return Term{}, fmt.Errorf("bad coefficient %q", raw[:i])
		}
		coef = c
		ticker = strings.TrimSpace(raw[i+1:])
	}
	if ticker == "" {
		return Term{}, fmt.Errorf("missing ticker in term %q", raw)
	}
	return Term{Coef: sign * coef, Ticker: ticker}, nil
}
