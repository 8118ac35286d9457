package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/gradesheet/internal/schema"
)

// HTMLAdapter reads crawled property pages. Table rows become cell rows for
// the resolver; pages without usable tables degrade to text lines.
type HTMLAdapter struct{}

// skipTitlePrefixes mark index pages that list materials without data.
var skipTitlePrefixes = []string{
	"MatWeb - The Online Materials Information Resource",
}

// materialNameSelectors are tried in order; the MatWeb content ids cover
// the bulk of the crawl.
var materialNameSelectors = []string{
	"h1",
	"#ctl00_ContentBody_lblMatName",
	"#ctl00_ContentBody_lnkMaterial",
	"#ctl00_SubHeader",
}

// Load parses one saved HTML page into the shared ingestion shape.
func (a *HTMLAdapter) Load(ctx context.Context, path string) (schema.Document, error) {
	if err := ctx.Err(); err != nil {
		return schema.Document{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return schema.Document{}, fmt.Errorf("read html %s: %w", path, err)
	}
	html := string(raw)
	docID := filepath.Base(path)

	if strings.Contains(html, "errorUser.aspx") || strings.Contains(html, "msgid=") {
		return schema.Document{}, &SkipError{Path: path, Reason: "overview_or_blocked"}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return schema.Document{}, fmt.Errorf("parse html %s: %w", path, err)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	for _, prefix := range skipTitlePrefixes {
		if strings.HasPrefix(title, prefix) {
			return schema.Document{}, &SkipError{Path: path, Reason: "overview_or_blocked"}
		}
	}

	out := schema.Document{
		ID:           docID,
		SourceType:   "html",
		MaterialName: materialName(doc, title, strings.TrimSuffix(docID, filepath.Ext(docID))),
	}

	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, collapseWhitespace(td.Text()))
		})
		if len(cells) < 2 {
			return
		}
		out.Rows = append(out.Rows, schema.RawRow{DocID: docID, Index: len(out.Rows), Cells: cells})
	})

	if len(out.Rows) == 0 {
		for _, line := range textLines(raw) {
			out.Rows = append(out.Rows, schema.RawRow{DocID: docID, Index: len(out.Rows), Text: line})
		}
	}
	if len(out.Rows) == 0 {
		return schema.Document{}, fmt.Errorf("html %s: no extractable rows", path)
	}
	return out, nil
}

func materialName(doc *goquery.Document, title, fallback string) string {
	for _, sel := range materialNameSelectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	if title != "" {
		return title
	}
	return fallback
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
