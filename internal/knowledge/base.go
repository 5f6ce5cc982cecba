// Package knowledge holds the merged error-class dictionary and the
// prioritized pattern catalog built from the data-dir JSON files.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"labta/internal/logging"
)

// Field defaults applied when a lookup misses or an entry is partial.
const (
	DefaultConcept  = "Unknown Error"
	DefaultTemplate = "Explain the error clearly."
	DefaultCitation = "General Concept"
)

// Entry is the merged pedagogical record for one error class.
type Entry struct {
	Concept      string
	HintTemplate string
	Citation     string
}

// CatalogEntry is one prioritized pattern the analyzer scans logs against.
// Lower priority numbers are more critical (1 = syntax, 2 = runtime,
// 3 = logic).
type CatalogEntry struct {
	Type     string
	Priority int
	Pattern  *regexp.Regexp
	Hint     string
}

// rawCatalogEntry is the on-disk shape inside a priority_N list.
type rawCatalogEntry struct {
	Type    string `json:"type"`
	Pattern string `json:"pattern"`
	Hint    string `json:"hint"`

	Concept      string `json:"concept"`
	HintTemplate string `json:"hint_template"`
	Citation     string `json:"citation"`
}

// Base is the process-wide knowledge base, immutable after Load.
type Base struct {
	entries map[string]map[string]string
	catalog []CatalogEntry
}

// Load reads and deep-merges the given knowledge files. Two shapes are
// recognized per file: a priority dictionary (top-level priority_N keys,
// each a list of pattern entries) and a flat index (error type to field
// map). Missing files are skipped with a warning; merging is per key, with
// later files updating earlier fields.
func Load(paths ...string) (*Base, error) {
	b := &Base{entries: map[string]map[string]string{}}
	for _, path := range paths {
		if err := b.loadFile(path); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *Base) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Knowledge("knowledge file %s absent, skipping", path)
			return nil
		}
		return fmt.Errorf("reading knowledge file %s: %w", path, err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return fmt.Errorf("parsing knowledge file %s: %w", path, err)
	}

	if isPriorityShape(top) {
		return b.mergePriority(path, top)
	}
	return b.mergeFlat(path, top)
}

func isPriorityShape(top map[string]json.RawMessage) bool {
	for key := range top {
		if strings.HasPrefix(key, "priority_") {
			return true
		}
	}
	return false
}

// mergePriority appends every entry to the pattern catalog in ascending
// priority order and upserts its fields into the knowledge map by type.
func (b *Base) mergePriority(path string, top map[string]json.RawMessage) error {
	type priorityKey struct {
		key string
		n   int
	}
	keys := make([]priorityKey, 0, len(top))
	for key := range top {
		if !strings.HasPrefix(key, "priority_") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(key, "priority_"))
		if err != nil {
			return fmt.Errorf("knowledge file %s: bad priority key %q", path, key)
		}
		keys = append(keys, priorityKey{key: key, n: n})
	}
	// Numeric order: priority_10 sorts after priority_2.
	sort.Slice(keys, func(i, j int) bool { return keys[i].n < keys[j].n })

	for _, pk := range keys {
		key, priority := pk.key, pk.n

		var raws []rawCatalogEntry
		if err := json.Unmarshal(top[key], &raws); err != nil {
			return fmt.Errorf("knowledge file %s: %s: %w", path, key, err)
		}

		for _, raw := range raws {
			if raw.Pattern != "" {
				re, err := regexp.Compile("(?i)" + raw.Pattern)
				if err != nil {
					return fmt.Errorf("knowledge file %s: pattern %q: %w", path, raw.Pattern, err)
				}
				b.catalog = append(b.catalog, CatalogEntry{
					Type:     raw.Type,
					Priority: priority,
					Pattern:  re,
					Hint:     raw.Hint,
				})
			}
			b.upsert(raw.Type, map[string]string{
				"concept":       raw.Concept,
				"hint_template": raw.HintTemplate,
				"citation":      raw.Citation,
			})
		}
	}

	logging.Knowledge("loaded priority catalog from %s (%d patterns)", path, len(b.catalog))
	return nil
}

// mergeFlat merges a type-to-fields index into the knowledge map.
func (b *Base) mergeFlat(path string, top map[string]json.RawMessage) error {
	for key, raw := range top {
		fields := map[string]string{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return fmt.Errorf("knowledge file %s: entry %s: %w", path, key, err)
		}
		b.upsert(key, fields)
	}

	logging.Knowledge("merged flat index from %s (%d entries)", path, len(top))
	return nil
}

// upsert merges non-empty fields into the entry for errType.
func (b *Base) upsert(errType string, fields map[string]string) {
	if errType == "" {
		return
	}
	entry, ok := b.entries[errType]
	if !ok {
		entry = map[string]string{}
		b.entries[errType] = entry
	}
	for field, value := range fields {
		if value != "" {
			entry[field] = value
		}
	}
}

// Lookup returns the merged entry for an error class with defaults filled
// in. Unknown classes return the full default entry.
func (b *Base) Lookup(errType string) Entry {
	fields := b.entries[errType]
	entry := Entry{
		Concept:      fields["concept"],
		HintTemplate: fields["hint_template"],
		Citation:     fields["citation"],
	}
	if entry.Concept == "" {
		entry.Concept = DefaultConcept
	}
	if entry.HintTemplate == "" {
		entry.HintTemplate = DefaultTemplate
	}
	if entry.Citation == "" {
		entry.Citation = DefaultCitation
	}
	return entry
}

// Catalog returns the ordered pattern catalog for the analyzer.
func (b *Base) Catalog() []CatalogEntry {
	return b.catalog
}
