package main

import (
	"fmt"
	"sort"
	"strings"
)

// collectCharsetWarnings reports charset ids used by the table that the
// resolver cannot name. Each id is reported once with the columns using it.
func collectCharsetWarnings(t *TableDescriptor, charsets CharsetResolver) []string {
	unresolved := make(map[int][]string)
	if id := int(t.Header.TableCharset); id != 0 {
		if _, ok := lookupCharset(charsets, id); !ok {
			unresolved[id] = append(unresolved[id], "table default")
		}
	}
	for _, col := range t.Columns {
		if !isCharacterType(col) || col.CharsetID == 0 || col.CharsetID == int(t.Header.TableCharset) {
			continue
		}
		if _, ok := lookupCharset(charsets, col.CharsetID); !ok {
			unresolved[col.CharsetID] = append(unresolved[col.CharsetID], col.Name)
		}
	}

	ids := make([]int, 0, len(unresolved))
	for id := range unresolved {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var warnings []string
	for _, id := range ids {
		warnings = append(warnings, fmt.Sprintf("%s: charset id %d: %v (used by %s)",
			t.Name, id, ErrUnresolvedCharset, strings.Join(unresolved[id], ", ")))
	}
	return warnings
}

// collectCharsetSummary lists the distinct collations a set of tables uses.
func collectCharsetSummary(tables []*TableDescriptor, charsets CharsetResolver) []string {
	collations := make(map[string]bool)
	for _, t := range tables {
		if ci, ok := lookupCharset(charsets, int(t.Header.TableCharset)); ok {
			collations[ci.Collation] = true
		}
		for _, col := range t.Columns {
			if !isCharacterType(col) {
				continue
			}
			if ci, ok := lookupCharset(charsets, col.CharsetID); ok {
				collations[ci.Collation] = true
			}
		}
	}
	if len(collations) == 0 {
		return nil
	}
	return []string{fmt.Sprintf("collations found: %s", strings.Join(sortedKeys(collations), ", "))}
}

// sortedKeys returns the keys of a map in sorted order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
