package keyfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/elliotnunn/dynareadout/internal/dconfig"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
	return path
}

func TestParseSimpleInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub.k", "*NODE\n       1            1.0            2.0            3.0\n*END\n")
	main := writeFile(t, dir, "main.k", "*INCLUDE\nsub.k\n*PART\ntitle\n*END\n")

	deck, err := Parse(main, dconfig.DefaultParseConfig())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(deck.GetSlice("NODE")) != 1 {
		t.Fatalf("expected 1 NODE keyword from the include, got %d", len(deck.GetSlice("NODE")))
	}
	if len(deck.GetSlice("PART")) != 1 {
		t.Fatalf("expected 1 PART keyword from main, got %d", len(deck.GetSlice("PART")))
	}
}

func TestParseCircularIncludeRejected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.k", "*INCLUDE\nb.k\n*END\n")
	b := writeFile(t, dir, "b.k", "*INCLUDE\na.k\n*END\n")
	_ = b

	_, err := Parse(filepath.Join(dir, "a.k"), dconfig.DefaultParseConfig())
	if err == nil {
		t.Fatal("expected circular include to be rejected")
	}
}

func TestParseMissingIncludeIgnored(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.k", "*INCLUDE\nmissing.k\n*PART\ntitle\n*END\n")

	cfg := dconfig.ParseConfig{ParseIncludes: true, IgnoreNotFoundIncludes: true}
	deck, err := Parse(main, cfg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(deck.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(deck.Warnings), deck.Warnings)
	}
	if len(deck.GetSlice("PART")) != 1 {
		t.Fatal("expected parsing to continue past the missing include")
	}
}

func TestParseMissingIncludeErrorsByDefault(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.k", "*INCLUDE\nmissing.k\n*END\n")

	_, err := Parse(main, dconfig.DefaultParseConfig())
	if err == nil {
		t.Fatal("expected an error for a missing include when IgnoreNotFoundIncludes is false")
	}
}

func TestParseExtraIncludePaths(t *testing.T) {
	dir := t.TempDir()
	altDir := t.TempDir()
	writeFile(t, altDir, "sub.k", "*PART\ntitle\n*END\n")
	main := writeFile(t, dir, "main.k", "*INCLUDE\nsub.k\n*END\n")

	cfg := dconfig.ParseConfig{ParseIncludes: true, ExtraIncludePaths: []string{altDir}}
	deck, err := Parse(main, cfg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(deck.GetSlice("PART")) != 1 {
		t.Fatal("expected the include to resolve via ExtraIncludePaths")
	}
}

func TestParseCommentsAndBlankLinesSkipped(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.k", "$ a comment\n\n*PART\ntitle\n$ another comment\n*END\n")

	deck, err := Parse(main, dconfig.DefaultParseConfig())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	part := deck.Get("PART", 0)
	if part == nil || len(part.Cards) != 1 || part.Cards[0] != "title" {
		t.Fatalf("PART = %+v, want a single card %q", part, "title")
	}
}

func TestParseIncludeTransformApplied(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub.k", "*NODE\n"+field(8, "1")+field(16, "1.0")+field(16, "2.0")+field(16, "3.0")+"\n*END\n")
	main := writeFile(t, dir, "main.k",
		"*INCLUDE_TRANSFORM\n"+
			"sub.k\n"+
			field(10, "100")+"\n"+
			"\n"+
			"\n"+
			"\n"+
			"*END\n")

	deck, err := Parse(main, dconfig.DefaultParseConfig())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	node := deck.Get("NODE", 0)
	if node == nil {
		t.Fatal("expected an included NODE keyword")
	}
	id, ok := getIntField(node.Cards[0], 0, 8)
	if !ok || id != 101 {
		t.Errorf("node id = %v (ok=%v), want 101 (1 + IDNOFF 100)", id, ok)
	}
}
