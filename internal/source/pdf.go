package source

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hyperifyio/gradesheet/internal/schema"
)

// PDFAdapter reads vendor datasheet PDFs. Text fragments are regrouped
// into lines by baseline; PDFs carry no reusable cell structure here, so
// every line enters the pipeline as line text and the resolver picks
// line-text mode.
type PDFAdapter struct{}

var gradeCodeRe = regexp.MustCompile(`^\d{4}[A-Z]+`)

// Load extracts rows and document metadata from one PDF file.
func (a *PDFAdapter) Load(ctx context.Context, path string) (schema.Document, error) {
	if err := ctx.Err(); err != nil {
		return schema.Document{}, err
	}
	f, r, err := pdf.Open(path)
	if err != nil {
		return schema.Document{}, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	docID := filepath.Base(path)
	var lines []string
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		if err := ctx.Err(); err != nil {
			return schema.Document{}, err
		}
		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}
		lines = append(lines, pageLines(p)...)
	}
	if len(lines) == 0 {
		return schema.Document{}, fmt.Errorf("pdf %s: no extractable text", path)
	}

	full := strings.Join(lines, " ")
	isShell := strings.Contains(full, "中海壳牌") || strings.Contains(full, "CNOOC") || strings.Contains(full, "Shell")
	isExxon := strings.Contains(full, "ExxonMobil")

	doc := schema.Document{
		ID:               docID,
		SourceType:       "pdf",
		MaterialName:     materialNameFromLines(lines, isShell, strings.TrimSuffix(docID, filepath.Ext(docID))),
		TrailingFallback: isShell,
	}
	switch {
	case isShell:
		doc.Vendor = "Shell"
	case isExxon:
		doc.Vendor = "ExxonMobil"
	}
	doc.Rows = make([]schema.RawRow, len(lines))
	for i, line := range lines {
		doc.Rows[i] = schema.RawRow{DocID: docID, Index: i, Text: line}
	}
	return doc, nil
}

// baselineTolerance is the maximum baseline difference, in points, between
// fragments of the same line.
const baselineTolerance = 2.0

// pageLines regroups a page's text fragments into lines by their Y
// coordinate. Some generators emit distinct baselines that the library's
// own row grouping merges into one row, so grouping happens here: bucket
// fragments by baseline, order top to bottom, then left to right within
// each line, inserting a space wherever fragments do not touch.
func pageLines(p pdf.Page) []string {
	type line struct {
		yMin, yMax float64
		frags      []pdf.Text
	}
	var buckets []*line
	for _, t := range p.Content().Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		placed := false
		for _, b := range buckets {
			if t.Y >= b.yMin-baselineTolerance && t.Y <= b.yMax+baselineTolerance {
				b.frags = append(b.frags, t)
				if t.Y < b.yMin {
					b.yMin = t.Y
				}
				if t.Y > b.yMax {
					b.yMax = t.Y
				}
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, &line{yMin: t.Y, yMax: t.Y, frags: []pdf.Text{t}})
		}
	}

	// PDF Y grows upward: the top line of the page has the largest Y.
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].yMax > buckets[j].yMax })

	lines := make([]string, 0, len(buckets))
	for _, b := range buckets {
		sort.SliceStable(b.frags, func(i, j int) bool { return b.frags[i].X < b.frags[j].X })
		var sb strings.Builder
		prevEnd := 0.0
		for i, f := range b.frags {
			if i > 0 && f.X-prevEnd > 1 {
				sb.WriteByte(' ')
			}
			sb.WriteString(f.S)
			prevEnd = f.X + f.W
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			lines = append(lines, text)
		}
	}
	return lines
}

// materialNameFromLines scans the first lines for a vendor grade name:
// ExxonMobil "Enable"/"Exceed" product lines, or the bare 2420D-style grade
// codes Shell sheets lead with.
func materialNameFromLines(lines []string, isShell bool, fallback string) string {
	limit := len(lines)
	if limit > 10 {
		limit = 10
	}
	for _, line := range lines[:limit] {
		if strings.Contains(line, "Enable") || strings.Contains(line, "Exceed") {
			return strings.TrimSpace(line)
		}
		if isShell && gradeCodeRe.MatchString(line) {
			return strings.TrimSpace(line)
		}
	}
	return fallback
}
