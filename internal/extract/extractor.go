// Package extract turns one complete grant XML document into a
// patent.Record via a declarative table of path-query rules.
package extract

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/grantstream/patentrag/internal/domain"
	"github.com/grantstream/patentrag/internal/domain/patent"
)

// Extractor evaluates a rule table against parsed documents.
type Extractor struct {
	rules []Rule
}

// NewExtractor creates an Extractor. A nil rule table means GrantSchema.
func NewExtractor(rules []Rule) *Extractor {
	if rules == nil {
		rules = GrantSchema()
	}
	return &Extractor{rules: rules}
}

// fieldValues holds resolved rule results before record construction.
type fieldValues struct {
	scalars map[string]string
	lists   map[string][]string
}

// Extract parses doc and builds one Record. Failures are scoped to this
// document: the caller decides whether to skip or abort.
func (e *Extractor) Extract(doc []byte) (patent.Record, error) {
	tree := etree.NewDocument()
	tree.ReadSettings.Permissive = true
	if err := tree.ReadFromBytes(doc); err != nil {
		return patent.Record{}, fmt.Errorf("parse document: %v: %w", err, domain.ErrMalformedDocument)
	}
	if tree.Root() == nil {
		return patent.Record{}, fmt.Errorf("no root element: %w", domain.ErrMalformedDocument)
	}

	vals, err := e.evaluate(tree)
	if err != nil {
		return patent.Record{}, err
	}

	rec, err := patent.New(
		vals.scalars[FieldPatentID],
		vals.scalars[FieldPatentType],
		vals.scalars[FieldTitle],
		vals.scalars[FieldClaims],
		vals.lists[FieldAssignees],
	)
	if err != nil {
		return patent.Record{}, fmt.Errorf("build record: %v: %w", err, domain.ErrMissingField)
	}
	return rec, nil
}

// evaluate resolves every rule in table order. A required rule with no
// match fails the document; optional rules resolve to absent.
func (e *Extractor) evaluate(tree *etree.Document) (fieldValues, error) {
	vals := fieldValues{
		scalars: make(map[string]string, len(e.rules)),
		lists:   make(map[string][]string),
	}

	for _, rule := range e.rules {
		matches := tree.FindElements(rule.Path)
		if len(matches) == 0 {
			if rule.Required {
				return fieldValues{}, fmt.Errorf("field %s: no match for %s: %w",
					rule.Field, rule.Path, domain.ErrMissingField)
			}
			continue
		}

		switch rule.Kind {
		case Text:
			text := collapseWhitespace(elementText(matches[0]))
			if rule.Required && text == "" && !rule.AllowEmpty {
				return fieldValues{}, fmt.Errorf("field %s: empty text at %s: %w",
					rule.Field, rule.Path, domain.ErrMissingField)
			}
			vals.scalars[rule.Field] = text
		case Attr:
			vals.scalars[rule.Field] = matches[0].SelectAttrValue(rule.AttrName, "")
		case List:
			var items []string
			for _, m := range matches {
				if text := collapseWhitespace(elementText(m)); text != "" {
					items = append(items, text)
				}
			}
			if items != nil {
				vals.lists[rule.Field] = items
			}
		}
	}

	return vals, nil
}

// elementText collects the text content of el and all its descendants,
// in document order.
func elementText(el *etree.Element) string {
	var sb strings.Builder
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, child := range e.Child {
			switch c := child.(type) {
			case *etree.CharData:
				sb.WriteString(c.Data)
			case *etree.Element:
				walk(c)
				sb.WriteByte(' ')
			}
		}
	}
	walk(el)
	return sb.String()
}

// collapseWhitespace normalizes runs of whitespace to single spaces and
// trims the ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
