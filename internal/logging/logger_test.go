package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetState() {
	CloseAll()
	logsDir = ""
	opts = Options{}
}

func TestDisabledByDefault(t *testing.T) {
	defer resetState()

	dataDir := t.TempDir()
	if err := Initialize(dataDir, Options{DebugMode: false}); err != nil {
		t.Fatal(err)
	}

	// No-op logging must not create the logs directory.
	Boot("this goes nowhere")
	if _, err := os.Stat(filepath.Join(dataDir, "logs")); !os.IsNotExist(err) {
		t.Error("logs directory should not exist when debug mode is off")
	}
}

func TestDebugModeWritesCategoryFiles(t *testing.T) {
	defer resetState()

	dataDir := t.TempDir()
	if err := Initialize(dataDir, Options{DebugMode: true, Level: "debug"}); err != nil {
		t.Fatal(err)
	}

	Grader("case %d failed", 3)
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(dataDir, "logs"))
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), "_grader.log") {
			found = true
			data, err := os.ReadFile(filepath.Join(dataDir, "logs", e.Name()))
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), "case 3 failed") {
				t.Errorf("log file missing message: %s", data)
			}
		}
	}
	if !found {
		t.Error("expected a date-prefixed grader log file")
	}
}

func TestCategoryToggle(t *testing.T) {
	defer resetState()

	dataDir := t.TempDir()
	err := Initialize(dataDir, Options{
		DebugMode:  true,
		Level:      "debug",
		Categories: map[string]bool{"sandbox": false},
	})
	if err != nil {
		t.Fatal(err)
	}

	if IsCategoryEnabled(CategorySandbox) {
		t.Error("sandbox category should be disabled")
	}
	if !IsCategoryEnabled(CategoryGrader) {
		t.Error("unlisted categories default to enabled")
	}
}
