// Package problems holds the problem catalog: loaded once at startup,
// read-only to callers, optionally hot-reloaded when the backing JSON file
// changes. Hidden cases never leave this package except through Get.
package problems

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"labta/internal/logging"
	"labta/internal/types"
)

// Problem is a single graded exercise.
type Problem struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Difficulty  string           `json:"difficulty"`
	SampleCases []types.TestCase `json:"sample_cases"`
	HiddenCases []types.TestCase `json:"hidden_cases"`
}

// Summary is the student-visible view of a problem. Hidden cases are
// represented only by their count.
type Summary struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	SampleCases []types.TestCase `json:"sample_cases"`
	Difficulty  string           `json:"difficulty"`
	CaseCount   int              `json:"case_count"`
}

// Catalog is the process-wide problem set.
type Catalog struct {
	mu       sync.RWMutex
	path     string
	problems map[string]Problem
}

// Load reads the catalog from a JSON file mapping problem id to Problem.
func Load(path string) (*Catalog, error) {
	c := &Catalog{path: path, problems: map[string]Problem{}}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the backing file, replacing the catalog atomically.
func (c *Catalog) Reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("reading problem catalog: %w", err)
	}

	problems := map[string]Problem{}
	if err := json.Unmarshal(data, &problems); err != nil {
		return fmt.Errorf("parsing problem catalog: %w", err)
	}

	c.mu.Lock()
	c.problems = problems
	c.mu.Unlock()

	logging.Boot("loaded %d problems from %s", len(problems), c.path)
	return nil
}

// Get returns the full problem record, hidden cases included.
func (c *Catalog) Get(id string) (Problem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.problems[id]
	return p, ok
}

// Count returns the number of problems.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.problems)
}

// Sanitized returns the student-visible catalog view. Hidden cases are
// never included.
func (c *Catalog) Sanitized() map[string]Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]Summary, len(c.problems))
	for id, p := range c.problems {
		difficulty := p.Difficulty
		if difficulty == "" {
			difficulty = "Unknown"
		}
		out[id] = Summary{
			Title:       p.Title,
			Description: p.Description,
			SampleCases: p.SampleCases,
			Difficulty:  difficulty,
			CaseCount:   len(p.HiddenCases),
		}
	}
	return out
}
