// Package resolve decides, per document, whether to extract from structured
// table cells or fall back to line text, and which column holds the metric
// value when a table carries paired imperial/metric columns.
package resolve

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperifyio/gradesheet/internal/schema"
	"github.com/hyperifyio/gradesheet/internal/units"
)

// Diagnostic flags a resolution that needed a documented heuristic rather
// than an explicit header tag.
type Diagnostic string

const (
	DiagNone            Diagnostic = ""
	DiagUntaggedColumns Diagnostic = "untagged-dual-column"
	DiagDegenerateTable Diagnostic = "degenerate-table"
)

// Resolution is the per-document outcome: flattened rows ready for the
// extractor, tagged with the strategy that produced them.
type Resolution struct {
	Mode       schema.ExtractionMode
	Diagnostic Diagnostic
	Rows       []schema.RawRow
}

// ColumnStrategy selects the metric value column of a dual-column table.
// Implementations receive the header cells (empty when the table has no
// header row) and a sample of data rows.
type ColumnStrategy interface {
	Select(headers []string, sample [][]string) (col int, diag Diagnostic, ok bool)
}

// Resolver applies the column strategy and flattens rows.
type Resolver struct {
	Strategy ColumnStrategy
	Units    *units.Vocabulary
}

// New returns a resolver with the default metric-first column strategy.
func New(vocab *units.Vocabulary) *Resolver {
	return &Resolver{Strategy: &MetricFirst{Units: vocab}, Units: vocab}
}

// Resolve inspects a document's rows and returns the flattened sequence.
// Structured-cell mode requires at least two consistent data columns;
// anything less degenerates to line-text mode over the rows' text.
func (r *Resolver) Resolve(docID string, rows []schema.RawRow) Resolution {
	cellRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row.Cells) > 0 {
			cellRows = append(cellRows, row.Cells)
		}
	}
	cellRows = dropEmptyColumns(cellRows)

	if usableTable(cellRows) {
		return r.resolveStructured(docID, cellRows)
	}

	diag := DiagNone
	if len(cellRows) > 0 {
		diag = DiagDegenerateTable
	}
	out := make([]schema.RawRow, 0, len(rows))
	for _, row := range rows {
		text := row.Text
		if text == "" && len(row.Cells) > 0 {
			text = strings.Join(row.Cells, " ")
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		out = append(out, schema.RawRow{DocID: docID, Index: len(out), Text: text})
	}
	return Resolution{Mode: schema.ModeLineText, Diagnostic: diag, Rows: out}
}

func (r *Resolver) resolveStructured(docID string, rows [][]string) Resolution {
	headers, dataRows := splitHeader(rows)
	metricIdx, unitIdx, valueIdx := headerIndices(headers, dataRows)

	diag := DiagNone
	if metricIdx < 0 && unitIdx < 0 {
		col, d, ok := r.Strategy.Select(headers, sampleRows(dataRows, 8))
		if ok {
			metricIdx = col
			diag = d
		}
	}

	out := make([]schema.RawRow, 0, len(dataRows))
	for _, row := range dataRows {
		if isHeaderLike(row) {
			continue
		}
		prop := strings.TrimSpace(row[0])
		if prop == "" || len(prop) > 120 {
			continue
		}
		var text string
		switch {
		case metricIdx > 0 && len(row) > metricIdx:
			comments := ""
			if len(row) > metricIdx+2 {
				comments = row[metricIdx+2]
			}
			if v := NormalizeMetricCell(row[metricIdx], comments); v != "" {
				text = prop + " " + v
			}
		case unitIdx >= 0 && valueIdx >= 0 && len(row) > unitIdx && len(row) > valueIdx:
			text = prop + " " + row[valueIdx] + " " + row[unitIdx]
		case len(row) >= 3:
			text = prop + " " + row[1] + " " + row[2]
		case len(row) >= 2:
			text = prop + " " + row[1]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		out = append(out, schema.RawRow{DocID: docID, Index: len(out), Text: text})
	}
	return Resolution{Mode: schema.ModeStructured, Diagnostic: diag, Rows: out}
}

// usableTable requires at least two data columns and a consistent cell
// count across rows (±1 tolerates a trailing comments column).
func usableTable(rows [][]string) bool {
	if len(rows) < 2 {
		return false
	}
	width := len(rows[0])
	if width < 2 {
		return false
	}
	for _, row := range rows {
		if len(row) < 2 {
			return false
		}
		if abs(len(row)-width) > 1 {
			return false
		}
	}
	return true
}

// splitHeader peels a leading header row off when it contains layout
// keywords, returning it separately from the data rows.
func splitHeader(rows [][]string) (headers []string, data [][]string) {
	for i, row := range rows {
		if isHeaderLike(row) {
			return row, append(append([][]string{}, rows[:i]...), rows[i+1:]...)
		}
	}
	return nil, rows
}

// isHeaderLike recognizes layout header rows by paired column tags: a
// metric/english (or imperial) pair, or a unit/value pair. A lone token is
// not enough; data rows legitimately carry "Average value: ..." comments
// and must not be mistaken for headers.
func isHeaderLike(row []string) bool {
	joined := strings.ToLower(strings.Join(row, " "))
	hasMetric := strings.Contains(joined, "metric")
	hasEnglish := strings.Contains(joined, "english") || strings.Contains(joined, "imperial")
	hasUnit := strings.Contains(joined, "unit") || strings.Contains(joined, "单位")
	hasValue := strings.Contains(joined, "value") || strings.Contains(joined, "数值")
	return (hasMetric && hasEnglish) || (hasUnit && hasValue)
}

// headerIndices finds explicitly tagged columns: a "Metric" column in a
// metric/english pair, or separate unit and value columns in the bilingual
// layout.
func headerIndices(headers []string, rows [][]string) (metricIdx, unitIdx, valueIdx int) {
	metricIdx, unitIdx, valueIdx = -1, -1, -1
	scan := func(row []string) {
		lower := make([]string, len(row))
		for i, c := range row {
			lower[i] = strings.ToLower(c)
		}
		hasMetric, hasEnglish := false, false
		for _, c := range lower {
			if strings.Contains(c, "metric") {
				hasMetric = true
			}
			if strings.Contains(c, "english") || strings.Contains(c, "imperial") {
				hasEnglish = true
			}
		}
		if hasMetric && hasEnglish {
			for i, c := range lower {
				if strings.Contains(c, "metric") {
					metricIdx = i
					break
				}
			}
		}
		for i, c := range lower {
			if unitIdx < 0 && (strings.Contains(c, "unit") || strings.Contains(row[i], "单位")) {
				unitIdx = i
			}
			if valueIdx < 0 && (strings.Contains(c, "value") || strings.Contains(row[i], "数值")) {
				valueIdx = i
			}
		}
	}
	if headers != nil {
		scan(headers)
	}
	for _, row := range rows {
		if metricIdx >= 0 || (unitIdx >= 0 && valueIdx >= 0) {
			break
		}
		if isHeaderLike(row) {
			scan(row)
		}
	}
	if unitIdx >= 0 && valueIdx < 0 {
		unitIdx = -1
	}
	return metricIdx, unitIdx, valueIdx
}

// MetricFirst is the default column strategy: prefer the column whose
// header or sampled cells carry metric unit tokens, fall back to the
// rightmost data column with an untagged-columns diagnostic when neither
// column is tagged. The rightmost default matches the vendor layouts seen
// so far, where the metric reading follows the imperial one.
type MetricFirst struct {
	Units *units.Vocabulary
}

var imperialTokens = []string{"psi", "lb", "in", "°f", "ksi"}

func (s *MetricFirst) Select(headers []string, sample [][]string) (int, Diagnostic, bool) {
	width := 0
	for _, row := range sample {
		if len(row) > width {
			width = len(row)
		}
	}
	if width < 2 {
		return 0, DiagNone, false
	}

	metricScore := make([]int, width)
	imperialScore := make([]int, width)
	score := func(col int, cell string) {
		for _, tok := range strings.Fields(strings.ReplaceAll(cell, "%", " % ")) {
			if u, ok := s.Units.Normalize(tok); ok && s.Units.Preferred(u) {
				metricScore[col]++
			}
		}
		lower := strings.ToLower(cell)
		for _, t := range imperialTokens {
			if strings.Contains(lower, t) {
				imperialScore[col]++
			}
		}
	}
	for i, h := range headers {
		if i < width {
			score(i, h)
		}
	}
	for _, row := range sample {
		// column 0 is the property label, never a value column
		for i := 1; i < len(row); i++ {
			score(i, row[i])
		}
	}

	best, bestScore := -1, 0
	for i := 1; i < width; i++ {
		s := metricScore[i] - imperialScore[i]
		// ties go to the rightmost candidate
		if s > 0 && s >= bestScore {
			best, bestScore = i, s
		}
	}
	if best >= 0 {
		return best, DiagNone, true
	}
	// Neither column is tagged: take the rightmost data column but flag the
	// document so the guess is auditable.
	return width - 1, DiagUntaggedColumns, true
}

var avgRe = regexp.MustCompile(`Average value:\s*([\d.]+)\s*([A-Za-z°/%μµ³²·\-]+)`)
var rangeRe = regexp.MustCompile(`([\d.]+)\s*(?:[-–~]+|to)\s*([\d.]+)\s*([A-Za-z°/%μµ³²·\-]+)`)

// NormalizeMetricCell collapses range cells ("0.915 – 0.925 g/cm³") to
// their midpoint and honors an "Average value: X unit" comment override.
func NormalizeMetricCell(metric, comments string) string {
	metric = strings.TrimSpace(metric)
	if metric == "" {
		return ""
	}
	if comments != "" {
		if m := avgRe.FindStringSubmatch(comments); m != nil {
			return m[1] + " " + m[2]
		}
	}
	if m := rangeRe.FindStringSubmatch(metric); m != nil {
		lo, errLo := strconv.ParseFloat(m[1], 64)
		hi, errHi := strconv.ParseFloat(m[2], 64)
		if errLo == nil && errHi == nil {
			return trimFloat((lo+hi)/2) + " " + m[3]
		}
	}
	return metric
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(round4(v), 'f', -1, 64)
}

func round4(v float64) float64 {
	s, _ := strconv.ParseFloat(fmt.Sprintf("%.4f", v), 64)
	return s
}

// sampleRows returns up to n leading data rows for strategy scoring.
func sampleRows(rows [][]string, n int) [][]string {
	if len(rows) <= n {
		return rows
	}
	return rows[:n]
}

// dropEmptyColumns removes columns that are whitespace-only across every
// row, which pdf table extraction produces for merged cells.
func dropEmptyColumns(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	keep := make([]bool, width)
	for _, row := range rows {
		for i, cell := range row {
			if strings.TrimSpace(cell) != "" {
				keep[i] = true
			}
		}
	}
	out := make([][]string, len(rows))
	for ri, row := range rows {
		cells := make([]string, 0, len(row))
		for i, cell := range row {
			if keep[i] {
				cells = append(cells, strings.TrimSpace(cell))
			}
		}
		out[ri] = cells
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
