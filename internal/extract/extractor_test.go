package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/grantstream/patentrag/internal/domain"
)

const designGrant = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE us-patent-grant SYSTEM "us-patent-grant-v46.dtd">
<us-patent-grant>
  <us-bibliographic-data-grant>
    <publication-reference>
      <document-id>
        <country>US</country>
        <doc-number>D0912345</doc-number>
        <kind>S1</kind>
      </document-id>
    </publication-reference>
    <application-reference appl-type="design">
      <document-id>
        <doc-number>29712345</doc-number>
      </document-id>
    </application-reference>
    <invention-title id="d0001">Canine biscuit</invention-title>
    <assignees>
      <assignee>
        <addressbook>
          <orgname>Acme Pet Foods, Inc.</orgname>
        </addressbook>
      </assignee>
    </assignees>
  </us-bibliographic-data-grant>
  <claims id="claims">
    <claim id="CLM-00001" num="00001">
      <claim-text>The ornamental design for a canine biscuit, as shown.</claim-text>
    </claim>
  </claims>
</us-patent-grant>
`

func TestExtract_DesignGrant(t *testing.T) {
	e := NewExtractor(nil)

	rec, err := e.Extract([]byte(designGrant))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if rec.ID() != "D0912345" {
		t.Errorf("ID = %q", rec.ID())
	}
	if rec.PatentType() != "design" {
		t.Errorf("PatentType = %q", rec.PatentType())
	}
	if rec.Title() != "Canine biscuit" {
		t.Errorf("Title = %q", rec.Title())
	}
	if got := rec.Claims(); got != "The ornamental design for a canine biscuit, as shown." {
		t.Errorf("Claims = %q", got)
	}
	assignees := rec.Assignees()
	if len(assignees) != 1 || assignees[0] != "Acme Pet Foods, Inc." {
		t.Errorf("Assignees = %v", assignees)
	}
	if rec.DerivedText() != rec.Title()+"\n\n"+rec.Claims() {
		t.Errorf("DerivedText = %q", rec.DerivedText())
	}
}

func TestExtract_MissingClaimsFailsRecord(t *testing.T) {
	doc := strings.Replace(designGrant, "<claims id=\"claims\">", "<notclaims>", 1)
	doc = strings.Replace(doc, "</claims>", "</notclaims>", 1)

	e := NewExtractor(nil)
	_, err := e.Extract([]byte(doc))
	if err == nil {
		t.Fatal("expected error for missing claims element")
	}
	if !errors.Is(err, domain.ErrMissingField) {
		t.Errorf("error = %v, want ErrMissingField", err)
	}
}

func TestExtract_EmptyClaimsTextAllowed(t *testing.T) {
	doc := strings.Replace(designGrant,
		"<claim-text>The ornamental design for a canine biscuit, as shown.</claim-text>",
		"", 1)

	e := NewExtractor(nil)
	rec, err := e.Extract([]byte(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.Claims() != "" {
		t.Errorf("Claims = %q, want empty", rec.Claims())
	}
	if rec.DerivedText() != rec.Title()+"\n\n" {
		t.Errorf("DerivedText = %q", rec.DerivedText())
	}
}

func TestExtract_MissingAssigneesIsAbsent(t *testing.T) {
	doc := strings.Replace(designGrant, "<orgname>Acme Pet Foods, Inc.</orgname>", "", 1)

	e := NewExtractor(nil)
	rec, err := e.Extract([]byte(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.Assignees() != nil {
		t.Errorf("Assignees = %v, want nil (absent)", rec.Assignees())
	}
}

func TestExtract_MissingPatentTypeAccepted(t *testing.T) {
	doc := strings.Replace(designGrant, ` appl-type="design"`, "", 1)

	e := NewExtractor(nil)
	rec, err := e.Extract([]byte(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.PatentType() != "" {
		t.Errorf("PatentType = %q, want empty", rec.PatentType())
	}
}

func TestExtract_MalformedDocument(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Extract([]byte("<?xml version=\"1.0\"?>\nnot an xml document at all\n"))
	if err == nil {
		t.Fatal("expected error for malformed document")
	}
	if !errors.Is(err, domain.ErrMalformedDocument) {
		t.Errorf("error = %v, want ErrMalformedDocument", err)
	}
}

func TestExtract_WhitespaceCollapsed(t *testing.T) {
	doc := strings.Replace(designGrant,
		"<invention-title id=\"d0001\">Canine biscuit</invention-title>",
		"<invention-title id=\"d0001\">Canine\n      biscuit</invention-title>", 1)

	e := NewExtractor(nil)
	rec, err := e.Extract([]byte(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.Title() != "Canine biscuit" {
		t.Errorf("Title = %q", rec.Title())
	}
}

func TestExtract_MultipleClaimsJoined(t *testing.T) {
	doc := strings.Replace(designGrant,
		"</claim>",
		"</claim><claim id=\"CLM-00002\" num=\"00002\"><claim-text>2. A second claim.</claim-text></claim>", 1)

	e := NewExtractor(nil)
	rec, err := e.Extract([]byte(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(rec.Claims(), "as shown.") || !strings.Contains(rec.Claims(), "2. A second claim.") {
		t.Errorf("Claims = %q", rec.Claims())
	}
}
