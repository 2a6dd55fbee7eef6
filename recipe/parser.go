package recipe

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"macrotrack"
)

var fusedPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)([a-z]+)$`)

// unitWords maps recognized unit spellings to their canonical form.
var unitWords = map[string]string{
	"g":      "g",
	"grams":  "g",
	"piece":  "piece",
	"pieces": "piece",
	"slice":  "slice",
	"slices": "slice",
}

var stopwords = map[string]bool{
	"and":  true,
	"with": true,
	"the":  true,
	"of":   true,
}

const (
	defaultQuantity = 1
	defaultUnit     = "g"
	minTermLength   = 3
)

// Parser turns free-text meal descriptions into food requests.
type Parser struct {
	table FoodTable
}

func NewParser(table FoodTable) *Parser {
	if table == nil {
		table = FoodTable{}
	}
	return &Parser{table: table}
}

// state is what carries between tokens: a pending quantity and unit that
// the next food-bearing token consumes.
type state struct {
	pendingQuantity float64
	pendingUnit     string
}

func initialState() state {
	return state{pendingQuantity: defaultQuantity}
}

// Parse is a single left-to-right fold of step over the tokens.
// Numbers and units only modify state; a trailing number or unit with no food after it is dropped.
func (p *Parser) Parse(input string) []macrotrack.FoodRequest {
	out := make([]macrotrack.FoodRequest, 0)

	st := initialState()
	for _, tok := range tokenize(input) {
		var req *macrotrack.FoodRequest
		st, req = p.step(st, tok)
		if req != nil {
			out = append(out, *req)
		}
	}
	return out
}

// step applies one token to the state and returns the next state plus the request the token emitted, if any.
func (p *Parser) step(st state, tok string) (state, *macrotrack.FoodRequest) {
	if q, ok := parseQuantity(tok); ok {
		// any numeral is consumed; only a usable amount replaces the pending one
		if q > 0 && !math.IsInf(q, 0) {
			st.pendingQuantity = q
		}
		return st, nil
	}

	if unit, ok := unitWords[tok]; ok {
		st.pendingUnit = unit
		return st, nil
	}

	if fact, ok := p.table.Lookup(tok); ok {
		// A table food is measured in its own basis: per-100 g foods always
		// read the count as grams, whatever unit word came before.
		unit := fact.Unit
		if fact.PerHundredGrams() {
			unit = defaultUnit
		}
		base := fact
		return initialState(), &macrotrack.FoodRequest{
			Name:     fact.Name,
			Quantity: st.pendingQuantity,
			Unit:     unit,
			Fact:     &base,
			Macros:   fact.Macros.Scale(macrotrack.ScaleFactor(fact.Unit, st.pendingQuantity, unit)),
		}
	}

	if utf8.RuneCountInString(tok) >= minTermLength && !stopwords[tok] {
		unit := st.pendingUnit
		if unit == "" {
			unit = defaultUnit
		}
		return initialState(), &macrotrack.FoodRequest{
			Name:       tok,
			SearchTerm: tok,
			Quantity:   st.pendingQuantity,
			Unit:       unit,
		}
	}

	return st, nil
}

// parseQuantity reports whether tok is a numeral at all, including signed,
// exponent, out-of-range and NaN forms. The value may be unusable as a quantity.
func parseQuantity(tok string) (float64, bool) {
	q, err := strconv.ParseFloat(tok, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return q, true
}

// tokenize lowercases, splits on whitespace, strips surrounding punctuation
// and splits fused quantities like "100g" into "100" and "g".
func tokenize(input string) []string {
	fields := strings.Fields(strings.ToLower(input))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `,;:!?()"'`)
		f = strings.TrimRight(f, ".")
		if f == "" {
			continue
		}
		if m := fusedPattern.FindStringSubmatch(f); m != nil {
			if _, ok := unitWords[m[2]]; ok {
				out = append(out, m[1], m[2])
				continue
			}
		}
		out = append(out, f)
	}
	return out
}
