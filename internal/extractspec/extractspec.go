// Package extractspec evaluates a task's optional extract_spec (§4.6) over
// a parsed document: a map of field name to either a bare CSS selector or a
// {selector, attribute, multiple, exists, fields} object supporting nested
// records.
package extractspec

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/spider/internal/model"
)

// Evaluate runs every field of spec against doc and returns the extracted
// values keyed by field name.
func Evaluate(doc *goquery.Document, spec map[string]model.ExtractField) map[string]any {
	out := make(map[string]any, len(spec))
	for name, field := range spec {
		out[name] = evaluateField(doc.Selection, field)
	}
	return out
}

func evaluateField(scope *goquery.Selection, field model.ExtractField) any {
	matches := scope.Find(field.Selector)

	if field.Exists {
		return matches.Length() > 0
	}

	if field.Multiple {
		values := make([]any, 0, matches.Length())
		matches.Each(func(_ int, sel *goquery.Selection) {
			if len(field.Fields) > 0 {
				nested := make(map[string]any, len(field.Fields))
				for name, nestedField := range field.Fields {
					nested[name] = evaluateField(sel, nestedField)
				}
				values = append(values, nested)
			} else {
				values = append(values, extractValue(sel, field.Attribute))
			}
		})
		return values
	}

	first := matches.First()
	if first.Length() == 0 {
		return nil
	}
	return extractValue(first, field.Attribute)
}

func extractValue(sel *goquery.Selection, attribute string) string {
	if attribute != "" {
		val, _ := sel.Attr(attribute)
		return val
	}
	return strings.TrimSpace(sel.Text())
}
