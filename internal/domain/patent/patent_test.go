package patent

import "testing"

func TestNew_Valid(t *testing.T) {
	r, err := New("D0912345", "design", "Canine biscuit", "The ornamental design for a canine biscuit, as shown.", []string{"Acme Pet Foods, Inc."})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID() != "D0912345" {
		t.Errorf("ID = %q", r.ID())
	}
	if r.PatentType() != "design" {
		t.Errorf("PatentType = %q", r.PatentType())
	}
	if len(r.Assignees()) != 1 || r.Assignees()[0] != "Acme Pet Foods, Inc." {
		t.Errorf("Assignees = %v", r.Assignees())
	}
}

func TestNew_RequiredFields(t *testing.T) {
	if _, err := New("", "utility", "Title", "claims", nil); err == nil {
		t.Error("expected error for empty ID")
	}
	if _, err := New("US1", "utility", "", "claims", nil); err == nil {
		t.Error("expected error for empty title")
	}
}

func TestNew_EmptyClaimsAllowed(t *testing.T) {
	r, err := New("US1", "utility", "Widget", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Claims() != "" {
		t.Errorf("Claims = %q", r.Claims())
	}
}

func TestNew_UnknownPatentTypeAccepted(t *testing.T) {
	if _, err := New("US1", "hologram", "Widget", "c", nil); err != nil {
		t.Fatalf("unknown patent type must not fail: %v", err)
	}
}

func TestDerivedText(t *testing.T) {
	r, err := New("US1", "utility", "Widget", "1. A widget.", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := r.DerivedText(), "Widget\n\n1. A widget."; got != want {
		t.Errorf("DerivedText = %q, want %q", got, want)
	}
}

func TestAssignees_NilMeansAbsent(t *testing.T) {
	r, err := New("US1", "utility", "Widget", "c", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Assignees() != nil {
		t.Errorf("expected nil assignees, got %v", r.Assignees())
	}

	r2, err := New("US2", "utility", "Widget", "c", []string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r2.Assignees() == nil || len(r2.Assignees()) != 0 {
		t.Errorf("expected empty non-nil assignees, got %#v", r2.Assignees())
	}
}

func TestAssignees_CopyOnRead(t *testing.T) {
	src := []string{"Acme"}
	r, err := New("US1", "utility", "Widget", "c", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src[0] = "mutated"
	got := r.Assignees()
	if got[0] != "Acme" {
		t.Errorf("record shares caller slice: %v", got)
	}
	got[0] = "mutated again"
	if r.Assignees()[0] != "Acme" {
		t.Error("getter exposes internal slice")
	}
}
