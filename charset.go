package main

import "sort"

// CharsetInfo describes one collation id.
type CharsetInfo struct {
	ID               int
	Charset          string
	Collation        string
	DefaultCollation string // default collation of Charset
	MaxLen           int    // max bytes per character
}

// IsDefaultCollation reports whether Collation is the charset's default.
func (ci CharsetInfo) IsDefaultCollation() bool {
	return ci.Collation == ci.DefaultCollation
}

// CharsetResolver maps a numeric charset/collation id to its metadata.
type CharsetResolver interface {
	Lookup(id int) (CharsetInfo, bool)
}

// charsetTable is an immutable in-memory resolver sorted by id.
type charsetTable struct {
	entries []CharsetInfo
}

func newCharsetTable(entries []CharsetInfo) *charsetTable {
	sorted := append([]CharsetInfo(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &charsetTable{entries: sorted}
}

func (t *charsetTable) Lookup(id int) (CharsetInfo, bool) {
	i := sort.Search(len(t.entries), func(i int) bool { return t.entries[i].ID >= id })
	if i < len(t.entries) && t.entries[i].ID == id {
		return t.entries[i], true
	}
	return CharsetInfo{}, false
}

func (t *charsetTable) Len() int { return len(t.entries) }

// builtinCharsets covers the collations found in most 5.x data directories.
func builtinCharsets() *charsetTable {
	return newCharsetTable([]CharsetInfo{
		{1, "big5", "big5_chinese_ci", "big5_chinese_ci", 2},
		{8, "latin1", "latin1_swedish_ci", "latin1_swedish_ci", 1},
		{11, "ascii", "ascii_general_ci", "ascii_general_ci", 1},
		{13, "sjis", "sjis_japanese_ci", "sjis_japanese_ci", 2},
		{24, "gb2312", "gb2312_chinese_ci", "gb2312_chinese_ci", 2},
		{28, "gbk", "gbk_chinese_ci", "gbk_chinese_ci", 2},
		{33, "utf8", "utf8_general_ci", "utf8_general_ci", 3},
		{35, "ucs2", "ucs2_general_ci", "ucs2_general_ci", 2},
		{45, "utf8mb4", "utf8mb4_general_ci", "utf8mb4_general_ci", 4},
		{46, "utf8mb4", "utf8mb4_bin", "utf8mb4_general_ci", 4},
		{47, "latin1", "latin1_bin", "latin1_swedish_ci", 1},
		{48, "latin1", "latin1_general_ci", "latin1_swedish_ci", 1},
		{54, "utf16", "utf16_general_ci", "utf16_general_ci", 4},
		{60, "utf32", "utf32_general_ci", "utf32_general_ci", 4},
		{63, "binary", "binary", "binary", 1},
		{65, "ascii", "ascii_bin", "ascii_general_ci", 1},
		{83, "utf8", "utf8_bin", "utf8_general_ci", 3},
		{192, "utf8", "utf8_unicode_ci", "utf8_general_ci", 3},
		{224, "utf8mb4", "utf8mb4_unicode_ci", "utf8mb4_general_ci", 4},
		{255, "utf8mb4", "utf8mb4_0900_ai_ci", "utf8mb4_general_ci", 4},
	})
}

// charsetMaxLen returns the bytes per character of id, 1 when unknown.
func charsetMaxLen(r CharsetResolver, id int) int {
	if r == nil {
		return 1
	}
	if ci, ok := r.Lookup(id); ok && ci.MaxLen > 0 {
		return ci.MaxLen
	}
	return 1
}
