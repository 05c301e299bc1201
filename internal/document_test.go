package internal

import (
	"regexp"
	"testing"
)

func TestNewTableName(t *testing.T) {
	valid := []string{"docs", "my-table", "a_b", "T1", "0notes"}
	for _, s := range valid {
		if _, err := NewTableName(s); err != nil {
			t.Errorf("NewTableName(%q) unexpected error: %v", s, err)
		}
	}

	invalid := []string{"", "-lead", "_lead", "has space", "../etc", "a/b", "semi;colon", `quo"te`}
	for _, s := range invalid {
		if _, err := NewTableName(s); err != ErrInvalidTableName {
			t.Errorf("NewTableName(%q) = %v, want ErrInvalidTableName", s, err)
		}
	}
}

func TestDeriveIDDeterministic(t *testing.T) {
	a := DeriveID("hello world", "src1")
	b := DeriveID("hello world", "src1")
	if a != b {
		t.Errorf("expected identical ids, got %q and %q", a, b)
	}

	if !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(a) {
		t.Errorf("expected 64 lowercase hex chars, got %q", a)
	}
}

func TestDeriveIDDistinctContent(t *testing.T) {
	if DeriveID("text one", "src") == DeriveID("text two", "src") {
		t.Error("different texts produced the same id")
	}
	if DeriveID("text", "src1") == DeriveID("text", "src2") {
		t.Error("different labels produced the same id")
	}
}

func TestDeriveIDFieldBoundaries(t *testing.T) {
	cases := [][2][2]string{
		{{"ab", "c"}, {"a", "bc"}},
		{{"hello", "world"}, {"world", "hello"}},
		{{"", "x"}, {"x", ""}},
	}
	for _, c := range cases {
		if DeriveID(c[0][0], c[0][1]) == DeriveID(c[1][0], c[1][1]) {
			t.Errorf("DeriveID%v collides with DeriveID%v", c[0], c[1])
		}
	}
}

func TestNewDocument(t *testing.T) {
	vec := []float32{0.1, 0.2}
	doc := NewDocument("body", "label", vec)

	if doc.ID != DeriveID("body", "label") {
		t.Errorf("id = %q, want derived id", doc.ID)
	}
	if doc.Name != "label" || doc.Text != "body" {
		t.Errorf("unexpected document fields: %+v", doc)
	}
	if len(doc.Vector) != 2 {
		t.Errorf("vector length = %d, want 2", len(doc.Vector))
	}
}
