package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RewriteAggregate rebuilds an aggregate JSONL file as the key-sorted union
// of the per-item JSONL records in dir. Rebuilding instead of appending
// makes reruns converge on byte-identical output with no duplicate lines.
func RewriteAggregate(dir, aggregatePath string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read aggregate dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	aggregateBase := filepath.Base(aggregatePath)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".jsonl") || name == aggregateBase {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var builder strings.Builder
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		line := strings.TrimSpace(string(data))
		if line == "" {
			continue
		}
		builder.WriteString(line)
		builder.WriteByte('\n')
	}

	tmp := aggregatePath + ".tmp"
	if err := os.WriteFile(tmp, []byte(builder.String()), 0o644); err != nil {
		return fmt.Errorf("write aggregate: %w", err)
	}
	if err := os.Rename(tmp, aggregatePath); err != nil {
		return fmt.Errorf("place aggregate: %w", err)
	}
	return nil
}
