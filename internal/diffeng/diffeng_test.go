package diffeng

import (
	"strings"
	"testing"
)

func TestLines_SimpleAddition(t *testing.T) {
	oldContent := "line1\nline2\nline3"
	newContent := "line1\nline2\nline2.5\nline3"

	engine := NewEngine()
	lines := engine.Lines(oldContent, newContent)

	hasAddition := false
	for _, line := range lines {
		if line.Type == LineAdded && line.Content == "line2.5" {
			hasAddition = true
		}
	}
	if !hasAddition {
		t.Error("Expected to find added line 'line2.5'")
	}
}

func TestLines_SimpleDeletion(t *testing.T) {
	oldContent := "line1\nline2\nline3\nline4"
	newContent := "line1\nline2\nline4"

	engine := NewEngine()
	lines := engine.Lines(oldContent, newContent)

	hasRemoval := false
	for _, line := range lines {
		if line.Type == LineRemoved && line.Content == "line3" {
			hasRemoval = true
		}
	}
	if !hasRemoval {
		t.Error("Expected to find removed line 'line3'")
	}
}

func TestHasChanges(t *testing.T) {
	engine := NewEngine()

	if engine.HasChanges("a\nb", "a\nb") {
		t.Error("Identical texts should not report changes")
	}
	if !engine.HasChanges("a\nb", "a\nc") {
		t.Error("Modified line should report changes")
	}
}

func TestUnified_Identical(t *testing.T) {
	engine := NewEngine()
	if diff := engine.Unified("same\ntext", "same\ntext", 1); diff != "" {
		t.Errorf("Expected empty diff for identical texts, got %q", diff)
	}
}

func TestUnified_SingleLineChange(t *testing.T) {
	oldContent := "int main() {\nint sum;\nreturn sum;\n}"
	newContent := "int main() {\nint sum = 0;\nreturn sum;\n}"

	engine := NewEngine()
	diff := engine.Unified(oldContent, newContent, 1)

	if diff == "" {
		t.Fatal("Expected a non-empty diff")
	}
	if !strings.HasPrefix(diff, "@@ ") {
		t.Errorf("Diff should start with a hunk header, got %q", diff)
	}
	if !strings.Contains(diff, "-int sum;") {
		t.Errorf("Missing removed line in %q", diff)
	}
	if !strings.Contains(diff, "+int sum = 0;") {
		t.Errorf("Missing added line in %q", diff)
	}
	if strings.Contains(diff, "---") || strings.Contains(diff, "+++") {
		t.Errorf("Diff body must not carry a file header: %q", diff)
	}
}

func TestHunks_CountsAndStarts(t *testing.T) {
	oldContent := "a\nb\nc\nd\ne"
	newContent := "a\nb\nX\nd\ne"

	engine := NewEngine()
	hunks := engine.Hunks(oldContent, newContent, 1)

	if len(hunks) != 1 {
		t.Fatalf("Expected 1 hunk, got %d", len(hunks))
	}
	h := hunks[0]
	if h.OldStart != 2 || h.NewStart != 2 {
		t.Errorf("Expected both sides to start at line 2, got -%d +%d", h.OldStart, h.NewStart)
	}
	// 1 context + removal + addition + 1 context on each side.
	if h.OldCount != 3 || h.NewCount != 3 {
		t.Errorf("Expected counts 3/3, got %d/%d", h.OldCount, h.NewCount)
	}
}

func TestHunks_PureInsertion(t *testing.T) {
	oldContent := "a\nb"
	newContent := "a\nnew\nb"

	engine := NewEngine()
	hunks := engine.Hunks(oldContent, newContent, 1)

	if len(hunks) != 1 {
		t.Fatalf("Expected 1 hunk, got %d", len(hunks))
	}
	h := hunks[0]
	if h.NewCount != h.OldCount+1 {
		t.Errorf("Insertion should grow the new side by one, got %d/%d", h.OldCount, h.NewCount)
	}
}

func TestUnified_MultipleHunks(t *testing.T) {
	oldLines := make([]string, 20)
	for i := range oldLines {
		oldLines[i] = strings.Repeat("x", i+1)
	}
	newLines := append([]string(nil), oldLines...)
	newLines[1] = "changed-top"
	newLines[18] = "changed-bottom"

	engine := NewEngine()
	diff := engine.Unified(strings.Join(oldLines, "\n"), strings.Join(newLines, "\n"), 1)

	if got := strings.Count(diff, "@@ -"); got != 2 {
		t.Errorf("Expected 2 hunks, got %d in %q", got, diff)
	}
}
