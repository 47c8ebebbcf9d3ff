package grammar

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		amounts []string
		units   []Unit
	}{
		{
			name:    "single lei token",
			text:    "2.5 lei",
			amounts: []string{"2.5"},
			units:   []Unit{UnitLei},
		},
		{
			name:    "single ron token",
			text:    "coffee 14 ron",
			amounts: []string{"14"},
			units:   []Unit{UnitRon},
		},
		{
			name:    "comma decimal separator",
			text:    "1,20 lei",
			amounts: []string{"1.2"},
			units:   []Unit{UnitLei},
		},
		{
			name:    "bare comma fraction",
			text:    ",20 lei",
			amounts: []string{"0.2"},
			units:   []Unit{UnitLei},
		},
		{
			name:    "mixed units in order",
			text:    "bread 3.5 lei and taxi 12 ron later",
			amounts: []string{"3.5", "12"},
			units:   []Unit{UnitLei, UnitRon},
		},
		{
			name:    "uppercase unit is not a token",
			text:    "2.5 LEI",
			amounts: nil,
		},
		{
			name:    "unit glued to amount is not a token",
			text:    "2.5lei",
			amounts: nil,
		},
		{
			name:    "no tokens",
			text:    "just a note about groceries",
			amounts: nil,
		},
		{
			name:    "empty text",
			text:    "",
			amounts: nil,
		},
		{
			name:    "negative sign is not part of the amount",
			text:    "-5 lei",
			amounts: []string{"5"},
			units:   []Unit{UnitLei},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Scan(tt.text)
			if len(tokens) != len(tt.amounts) {
				t.Fatalf("Scan(%q) = %d tokens, want %d", tt.text, len(tokens), len(tt.amounts))
			}
			for i, tok := range tokens {
				want := decimal.RequireFromString(tt.amounts[i])
				if !tok.Amount.Equal(want) {
					t.Errorf("token %d amount = %s, want %s", i, tok.Amount, want)
				}
				if tok.Unit != tt.units[i] {
					t.Errorf("token %d unit = %s, want %s", i, tok.Unit, tt.units[i])
				}
			}
		})
	}
}

func TestScan_CountMatchesOccurrences(t *testing.T) {
	// N valid tokens separated by non-matching filler extract exactly N
	// tokens and sum to their total, regardless of order.
	text := "a 1 lei b 2 ron c 3.5 lei d ,50 ron e"
	tokens := Scan(text)
	if len(tokens) != 4 {
		t.Fatalf("got %d tokens, want 4", len(tokens))
	}
	if got, want := Sum(tokens), decimal.RequireFromString("7"); !got.Equal(want) {
		t.Errorf("Sum = %s, want %s", got, want)
	}
}

func TestScanLines(t *testing.T) {
	tokens := ScanLines("2.5 lei\ncoffee\n1,20 lei")
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2", len(tokens))
	}
	if !tokens[0].Amount.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("first amount = %s, want 2.5", tokens[0].Amount)
	}
	if !tokens[1].Amount.Equal(decimal.RequireFromString("1.2")) {
		t.Errorf("second amount = %s, want 1.2", tokens[1].Amount)
	}
	if got, want := Sum(tokens), decimal.RequireFromString("3.7"); !got.Equal(want) {
		t.Errorf("Sum = %s, want %s", got, want)
	}
}

// Lines are concatenated with no separator before matching, so a token can
// be assembled from text split across two lines. Reproduced deliberately
// from the source editor; this test documents the sharp edge.
func TestScanLines_TokenSpansLines(t *testing.T) {
	tokens := ScanLines("12.\n50 lei")
	if len(tokens) != 1 {
		t.Fatalf("got %d tokens, want 1", len(tokens))
	}
	if !tokens[0].Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("amount = %s, want 12.5", tokens[0].Amount)
	}
}

func TestLines(t *testing.T) {
	got := Lines("one\n\ntwo\n\n\nthree\n")
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("Lines = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLines_WhitespaceOnlyLineSurvives(t *testing.T) {
	got := Lines("a\n \nb")
	if len(got) != 3 {
		t.Fatalf("got %d lines, want 3 (whitespace-only line is kept)", len(got))
	}
}

func TestSum_Empty(t *testing.T) {
	if got := Sum(nil); !got.Equal(decimal.Zero) {
		t.Errorf("Sum(nil) = %s, want 0", got)
	}
}

func TestScan_LargeInput(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		sb.WriteString("item 2 lei ")
	}
	tokens := Scan(sb.String())
	if len(tokens) != 500 {
		t.Fatalf("got %d tokens, want 500", len(tokens))
	}
	if got, want := Sum(tokens), decimal.NewFromInt(1000); !got.Equal(want) {
		t.Errorf("Sum = %s, want %s", got, want)
	}
}
