// Package extract turns one raw row of datasheet text into property
// candidates. It is pure string work: no I/O, no logging, deterministic for
// identical input.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperifyio/gradesheet/internal/schema"
	"github.com/hyperifyio/gradesheet/internal/units"
)

// noiseTerms are vendor and test-standard tokens that glue themselves onto
// property names in flattened rows ("MPa ExxonMobil") and must be scrubbed
// before alias matching.
var noiseTerms = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ExxonMobil`),
	regexp.MustCompile(`(?i)Method`),
	regexp.MustCompile(`(?i)ASTM`),
	regexp.MustCompile(`(?i)ISO`),
	regexp.MustCompile(`(?i)GB/T`),
	regexp.MustCompile(`(?i)IEC`),
	regexp.MustCompile(`(?i)\bMD\b`),
	regexp.MustCompile(`(?i)\bTD\b`),
	regexp.MustCompile(`(?i)Test`),
	regexp.MustCompile(`(?i)Values`),
	regexp.MustCompile(`(?i)English`),
	regexp.MustCompile(`(?i)\bSI\b`),
	regexp.MustCompile(`(?i)Typical`),
	regexp.MustCompile(`(?i)Properties`),
	regexp.MustCompile(`(?i)Note`),
	regexp.MustCompile(`(?i)Data`),
}

// ignoreKeywords mark processing-parameter and footnote rows that carry
// numbers but never property values.
var ignoreKeywords = []string{
	"blow-up", "die gap", "screw", "extruder", "ratio", "temp profile",
	"加工参数", "模头", "薄膜厚度", "film thickness", "typical value",
}

// Extractor matches rows against the alias table and unit vocabulary.
type Extractor struct {
	Aliases *schema.AliasTable
	Units   *units.Vocabulary
}

// New returns an extractor over the given tables.
func New(aliases *schema.AliasTable, vocab *units.Vocabulary) *Extractor {
	return &Extractor{Aliases: aliases, Units: vocab}
}

// RowOptions tweak per-document extraction behavior.
type RowOptions struct {
	// TrailingFallback enables the last-token parse used for Shell-format
	// sheets where the value sits at the end of the line with no adjacent
	// unit token.
	TrailingFallback bool
}

// Row produces zero or one Candidate from a raw row. A row whose label
// matches no alias yields nothing; that is not dirty data, just an
// unrecognized line. A row that matches a label but has no parseable
// numeric token yields one candidate with ParseOK false, which callers
// record as UNPARSEABLE_VALUE.
func (e *Extractor) Row(row schema.RawRow, opts RowOptions) []schema.Candidate {
	text := row.Text
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if ignored(text) {
		return nil
	}
	clean := CleanNoise(text)

	pairs := e.valueUnitPairs(clean)
	if len(pairs) == 0 {
		// No unit-adjacent number. A bare numeric token still counts: the
		// property's canonical unit is assumed when the row carries none.
		if p, ok := e.unitless(clean); ok {
			pairs = append(pairs, p)
		}
	}
	if len(pairs) == 0 && opts.TrailingFallback {
		if p, ok := e.trailing(clean); ok {
			pairs = append(pairs, p)
		}
	}
	if len(pairs) == 0 {
		// No numeric reading at all. If the row names a known property the
		// value is unparseable; otherwise the row is simply not ours.
		if _, ok := e.Aliases.Lookup(clean); !ok {
			return nil
		}
		return []schema.Candidate{{
			Label:    strings.TrimSpace(clean),
			RawValue: rawRemainder(clean),
			Row:      row.Ref(),
		}}
	}

	first := pairs[0]
	label := strings.TrimSpace(clean[:first.labelEnd])
	if _, ok := e.Aliases.Lookup(label); !ok {
		return nil
	}

	best := first
	for _, p := range pairs {
		if e.Units.Preferred(p.unit) {
			best = p
			break
		}
	}
	return []schema.Candidate{{
		Label:    label,
		RawValue: best.rawValue,
		RawUnit:  best.rawUnit,
		Value:    best.value,
		ParseOK:  true,
		Row:      row.Ref(),
	}}
}

// pair is a matched numeric token with an optional adjacent unit.
type pair struct {
	value    float64
	unit     string // canonical symbol, empty when absent
	rawValue string
	rawUnit  string
	labelEnd int // byte offset of the value token in the cleaned text
}

// valueUnitPairs scans tokens for numbers and pairs each with a recognized
// unit, checking Value-Unit order first and Unit-Value order second (the
// latter appears on Shell-format sheets).
func (e *Extractor) valueUnitPairs(text string) []pair {
	spaced := strings.ReplaceAll(text, "%", " % ")
	tokens := strings.Fields(spaced)
	offsets := tokenOffsets(text, tokens)

	var out []pair
	for i, tok := range tokens {
		val, ok := ParseNumber(tok)
		if !ok {
			continue
		}
		if i+1 < len(tokens) {
			if unit, ok := e.Units.Normalize(tokens[i+1]); ok && e.Units.Known(unit) {
				out = append(out, pair{value: val, unit: unit, rawValue: tok, rawUnit: tokens[i+1], labelEnd: offsets[i]})
				continue
			}
		}
		if i > 0 {
			if unit, ok := e.Units.Normalize(tokens[i-1]); ok && e.Units.Known(unit) {
				out = append(out, pair{value: val, unit: unit, rawValue: tok, rawUnit: tokens[i-1], labelEnd: offsets[i-1]})
			}
		}
	}
	return out
}

// unitless takes the first strictly numeric token as a value with no unit.
// Only the strict form qualifies; glued tokens like "D1238" stay out.
func (e *Extractor) unitless(text string) (pair, bool) {
	tokens := strings.Fields(text)
	offsets := tokenOffsets(text, tokens)
	for i, tok := range tokens {
		t := strings.Trim(tok, "()[]{}:;,，：")
		if !numberRe.MatchString(t) {
			continue
		}
		val, ok := ParseNumber(t)
		if !ok {
			continue
		}
		return pair{value: val, rawValue: tok, labelEnd: offsets[i]}, true
	}
	return pair{}, false
}

// trailing parses the last token of a line as a value, taking the
// second-to-last token as unit when it is recognized. Lines ending in a
// bare number are accepted with no unit; the property's canonical unit is
// assumed downstream.
func (e *Extractor) trailing(text string) (pair, bool) {
	tokens := strings.Fields(text)
	if len(tokens) < 2 {
		return pair{}, false
	}
	last := strings.Trim(tokens[len(tokens)-1], "()[]{}:;,，：")
	// Strict parse only: the lenient digit-strip would turn unit tokens
	// like "g/10min" into numbers when they end a line.
	if !numberRe.MatchString(last) {
		return pair{}, false
	}
	val, ok := ParseNumber(last)
	if !ok {
		return pair{}, false
	}
	end := strings.LastIndex(text, last)
	p := pair{value: val, rawValue: last, labelEnd: end}
	if len(tokens) > 2 {
		if unit, ok := e.Units.Normalize(tokens[len(tokens)-2]); ok && e.Units.Known(unit) {
			p.unit = unit
			p.rawUnit = tokens[len(tokens)-2]
			p.labelEnd = strings.LastIndex(text[:end], tokens[len(tokens)-2])
		}
	}
	return p, true
}

// CleanNoise scrubs vendor and test-standard tokens from a line.
func CleanNoise(line string) string {
	cleaned := line
	for _, re := range noiseTerms {
		cleaned = re.ReplaceAllString(cleaned, " ")
	}
	return strings.TrimSpace(cleaned)
}

func ignored(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range ignoreKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

var numberRe = regexp.MustCompile(`^[+-]?\d+(?:[.,]\d+)?(?:[eE][+-]?\d+)?$`)
var digitsRe = regexp.MustCompile(`[^0-9.\-]`)

// ParseNumber parses a numeric token supporting decimal, scientific
// notation, and comma-as-decimal. As a last resort non-numeric characters
// are stripped so glued tokens like "D1238" still yield their digits; the
// standard-number blacklist rejects those later.
func ParseNumber(tok string) (float64, bool) {
	t := strings.Trim(tok, "()[]{}:;,，：")
	if numberRe.MatchString(t) {
		if !strings.Contains(t, ".") {
			t = strings.Replace(t, ",", ".", 1)
		}
		v, err := strconv.ParseFloat(t, 64)
		return v, err == nil
	}
	stripped := digitsRe.ReplaceAllString(t, "")
	if stripped == "" || stripped == "-" || stripped == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(stripped, 64)
	return v, err == nil
}

// rawRemainder returns the text after the last alias-looking word, used as
// the recorded raw value of an unparseable row. Best effort only; the full
// cleaned line is acceptable when no split point is obvious.
func rawRemainder(clean string) string {
	if i := strings.IndexAny(clean, ":："); i >= 0 && i+1 < len(clean) {
		return strings.TrimSpace(clean[i+1:])
	}
	return clean
}

// tokenOffsets maps each token index to its byte offset in the original
// text. Tokens came from a percent-spaced copy, so offsets are recovered by
// sequential search.
func tokenOffsets(text string, tokens []string) []int {
	offsets := make([]int, len(tokens))
	pos := 0
	for i, tok := range tokens {
		idx := strings.Index(text[pos:], tok)
		if idx < 0 {
			offsets[i] = pos
			continue
		}
		offsets[i] = pos + idx
		pos = pos + idx + len(tok)
	}
	return offsets
}
