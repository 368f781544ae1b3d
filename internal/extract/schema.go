package extract

// Kind selects how a rule resolves its match.
type Kind int

const (
	// Text takes the whitespace-collapsed text of the first matched element.
	Text Kind = iota
	// Attr takes an attribute value of the first matched element.
	Attr
	// List takes the collapsed text of every matched element.
	List
)

// Rule maps one path query into one record field. Rules are evaluated
// in table order against the parsed document tree.
type Rule struct {
	Field      string
	Path       string
	AttrName   string // only for Kind == Attr
	Kind       Kind
	Required   bool
	AllowEmpty bool // required element whose text may still be empty
}

// Record field names used by the grant schema.
const (
	FieldPatentID   = "patent_id"
	FieldPatentType = "patent_type"
	FieldTitle      = "title"
	FieldClaims     = "claims"
	FieldAssignees  = "assignees"
)

// GrantSchema is the extraction rule table for USPTO grant documents.
// patent_type is an open vocabulary and optional; assignees may be
// absent; claims must be present but its text may be empty.
func GrantSchema() []Rule {
	return []Rule{
		{Field: FieldPatentID, Path: "//publication-reference/document-id/doc-number", Kind: Text, Required: true},
		{Field: FieldPatentType, Path: "//application-reference", AttrName: "appl-type", Kind: Attr},
		{Field: FieldTitle, Path: "//invention-title", Kind: Text, Required: true},
		{Field: FieldAssignees, Path: "//assignees/assignee//orgname", Kind: List},
		{Field: FieldClaims, Path: "//claims", Kind: Text, Required: true, AllowEmpty: true},
	}
}
