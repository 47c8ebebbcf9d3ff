// Package grammar extracts monetary tokens from free draft text.
//
// A token is an amount followed by whitespace and a lowercase unit literal,
// e.g. "2.5 lei" or "1,20 ron". The grammar runs over the concatenation of
// all non-empty lines with no separator, so a token may be assembled from
// text that spans two adjacent lines. That matches the observed behavior of
// the editor this parser was lifted from and is covered by tests.
package grammar

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit tags the currency literal a token was matched with. Lei and ron name
// the same currency; amounts are summed together without conversion.
type Unit string

const (
	UnitLei Unit = "lei"
	UnitRon Unit = "ron"
)

// Token is one matched monetary line item.
type Token struct {
	// Raw is the exact matched substring, unit included.
	Raw string `json:"raw"`
	// Amount is the normalized decimal amount (comma read as decimal point).
	Amount decimal.Decimal `json:"amount"`
	// Unit is the matched unit literal.
	Unit Unit `json:"unit"`
}

// Amount prefix: either digits followed by a dot ("12."), or optional digits
// followed by a comma ("1," or a bare ","). The comma is normalized to a dot,
// so "1,20 lei" reads as 1.20 and ",20 lei" as 0.20. Matching is
// case-sensitive; only the exact lowercase unit literals count.
var tokenRe = regexp.MustCompile(`(([0-9]+\.|[0-9]*,)?[0-9]+)\s+(lei|ron)`)

// Lines splits raw text into its non-empty lines. Lines are kept verbatim;
// whitespace-only lines count as non-empty, matching the source editor.
func Lines(raw string) []string {
	split := strings.Split(raw, "\n")
	out := make([]string, 0, len(split))
	for _, l := range split {
		if len(l) != 0 {
			out = append(out, l)
		}
	}
	return out
}

// Scan returns every non-overlapping token in text, in match order.
// Text that parses to no token yields an empty slice, never an error.
func Scan(text string) []Token {
	matches := tokenRe.FindAllStringSubmatch(text, -1)
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		amount, ok := normalizeAmount(m[1])
		if !ok {
			continue
		}
		tokens = append(tokens, Token{
			Raw:    m[0],
			Amount: amount,
			Unit:   Unit(m[3]),
		})
	}
	return tokens
}

// ScanLines runs the grammar over raw multi-line text: non-empty lines are
// concatenated with no separator and scanned as a single blob.
func ScanLines(raw string) []Token {
	return Scan(strings.Join(Lines(raw), ""))
}

// Sum adds up token amounts regardless of unit. No tokens sums to zero.
func Sum(tokens []Token) decimal.Decimal {
	total := decimal.Zero
	for _, t := range tokens {
		total = total.Add(t.Amount)
	}
	return total
}

// normalizeAmount converts a matched amount string into a decimal,
// treating a comma as the decimal separator.
func normalizeAmount(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
