package knowledge

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labta/internal/types"
)

func catalogEntry(typ string, priority int, pattern, hint string) CatalogEntry {
	return CatalogEntry{
		Type:     typ,
		Priority: priority,
		Pattern:  regexp.MustCompile("(?i)" + pattern),
		Hint:     hint,
	}
}

func TestAnalyze_NoMatch(t *testing.T) {
	catalog := []CatalogEntry{
		catalogEntry("SYNTAX_ERROR", 1, "scanf.*expects", "Check scanf."),
	}

	_, found := Analyze([]string{"Phase 3: Running Test Case #1...", "all clean"}, catalog)
	assert.False(t, found)
}

func TestAnalyze_LowestPriorityWins(t *testing.T) {
	catalog := []CatalogEntry{
		catalogEntry("LOGIC_ERROR", 3, "mismatch", "Compare outputs."),
		catalogEntry("SYNTAX_ERROR", 1, "scanf.*expects", "Check scanf."),
	}
	logs := []string{
		"warning: scanf format expects int *",
		"Failure: Logic Mismatch.",
	}

	match, found := Analyze(logs, catalog)
	require.True(t, found)
	assert.Equal(t, types.StatusSyntaxError, match.Type)
	assert.Equal(t, 1, match.Priority)
	assert.Equal(t, "Check scanf.", match.Hint)
}

func TestAnalyze_TieBrokenByCatalogOrder(t *testing.T) {
	catalog := []CatalogEntry{
		catalogEntry("RUNTIME_ERROR", 2, "overflow", "First."),
		catalogEntry("TYPE_ERROR", 2, "overflow", "Second."),
	}

	match, found := Analyze([]string{"stack overflow detected"}, catalog)
	require.True(t, found)
	assert.Equal(t, types.StatusRuntimeError, match.Type)
	assert.Equal(t, "First.", match.Hint)
}

func TestAnalyze_CaseInsensitive(t *testing.T) {
	catalog := []CatalogEntry{
		catalogEntry("SYNTAX_ERROR", 1, "segmentation fault", "Pointer trouble."),
	}

	_, found := Analyze([]string{"SEGMENTATION FAULT (core dumped)"}, catalog)
	assert.True(t, found)
}

func TestAnalyze_MatchesAcrossLogLines(t *testing.T) {
	catalog := []CatalogEntry{
		catalogEntry("RUNTIME_ERROR", 2, "division by zero", "Guard the divisor."),
	}
	logs := []string{"Phase 3: Running Test Case #1...", "ZeroDivisionError: division by zero"}

	match, found := Analyze(logs, catalog)
	require.True(t, found)
	assert.Equal(t, types.StatusRuntimeError, match.Type)
}

func TestOverridable(t *testing.T) {
	assert.True(t, Overridable(types.StatusLogicError, false))
	assert.False(t, Overridable(types.StatusRuntimeError, false))
	assert.True(t, Overridable(types.StatusRuntimeError, true))
	assert.False(t, Overridable(types.StatusSegfault, true))
	assert.False(t, Overridable(types.StatusSuccess, true))
}
