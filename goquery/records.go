package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/postmap"
)

// AltSuffix is appended to an IMAGE field name to form its alt text field.
const AltSuffix = "/_alt"

// ExtractRecords parses html and extracts one record per element matched by
// the connector's record selector. An empty record selector treats the whole
// document as a single record.
//
// Each field collects every match of its selector in document order. STRING
// fields take the element text, or the Attr attribute when set. IMAGE fields
// take src (or Attr) resolved against pageURL and add a "<name>/_alt" sibling
// holding the alt attribute of each image. Records with no values are dropped.
func ExtractRecords(html, pageURL string, c *postmap.Connector) ([]postmap.Record, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, postmap.Errorf(postmap.EINVALID, "invalid page URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, postmap.Errorf(postmap.EINVALID, "failed to parse HTML: %v", err)
	}

	var roots []*goquery.Selection
	if c.RecordSelector == "" {
		roots = append(roots, doc.Selection)
	} else {
		doc.Find(c.RecordSelector).Each(func(_ int, sel *goquery.Selection) {
			roots = append(roots, sel)
		})
	}

	var records []postmap.Record
	for _, root := range roots {
		rec, ok := extractRecord(root, base, c.Fields)
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func extractRecord(root *goquery.Selection, base *url.URL, fields []postmap.ConnectorField) (postmap.Record, bool) {
	var rec postmap.Record
	found := false

	for _, f := range fields {
		switch f.Type {
		case postmap.PropertyImage:
			srcs, alts := extractImages(root, base, f)
			if len(srcs) == 0 {
				continue
			}
			rec.Set(f.Name, srcs...)
			rec.Set(f.Name+AltSuffix, alts...)
			found = true
		default:
			values := extractStrings(root, f)
			if len(values) == 0 {
				continue
			}
			rec.Set(f.Name, values...)
			found = true
		}
	}

	return rec, found
}

func extractStrings(root *goquery.Selection, f postmap.ConnectorField) []string {
	var values []string
	root.Find(f.Selector).Each(func(_ int, sel *goquery.Selection) {
		var v string
		if f.Attr != "" {
			v, _ = sel.Attr(f.Attr)
		} else {
			v = sel.Text()
		}
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	})
	return values
}

func extractImages(root *goquery.Selection, base *url.URL, f postmap.ConnectorField) (srcs, alts []string) {
	attr := f.Attr
	if attr == "" {
		attr = "src"
	}
	root.Find(f.Selector).Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr(attr)
		resolved := resolveURL(base, src)
		if resolved == "" {
			return
		}
		alt, _ := sel.Attr("alt")
		srcs = append(srcs, resolved)
		alts = append(alts, strings.TrimSpace(alt))
	})
	return srcs, alts
}

// resolveURL resolves a relative URL against a base URL.
// Returns empty string for blank, unparseable or non-HTTP references.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || isNonHTTPLink(href) {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(href)
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
