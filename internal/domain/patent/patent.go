package patent

import "fmt"

// Record is one extracted patent grant (immutable value object).
type Record struct {
	id          string
	patentType  string
	title       string
	assignees   []string
	claims      string
	derivedText string
}

// New validates and creates a Record.
// ID and title must be non-empty. Claims must be present in the source
// document but its text may be empty. PatentType is an open vocabulary
// (utility, design, plant, reissue, ...) and may be empty; assignees may
// be nil, meaning the document declared none.
func New(id, patentType, title, claims string, assignees []string) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("patent ID is required")
	}
	if title == "" {
		return Record{}, fmt.Errorf("title is required")
	}

	return Record{
		id:          id,
		patentType:  patentType,
		title:       title,
		assignees:   cloneStrings(assignees),
		claims:      claims,
		derivedText: deriveText(title, claims),
	}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(id, patentType, title, claims string, assignees []string) Record {
	return Record{
		id:          id,
		patentType:  patentType,
		title:       title,
		assignees:   assignees,
		claims:      claims,
		derivedText: deriveText(title, claims),
	}
}

// deriveText builds the embedding text from title and claims.
// Computed once at construction; never sourced from the document itself.
func deriveText(title, claims string) string {
	return title + "\n\n" + claims
}

// ID returns the patent document number.
func (r *Record) ID() string { return r.id }

// PatentType returns the application type (utility, design, plant, reissue, ...).
func (r *Record) PatentType() string { return r.patentType }

// Title returns the invention title.
func (r *Record) Title() string { return r.title }

// Assignees returns the assignee organization names. Nil means the
// document declared no assignees.
func (r *Record) Assignees() []string { return cloneStrings(r.assignees) }

// Claims returns the full claims text. May be empty.
func (r *Record) Claims() string { return r.claims }

// DerivedText returns the text used for embedding: title and claims
// joined by a blank line.
func (r *Record) DerivedText() string { return r.derivedText }

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
