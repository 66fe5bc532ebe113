package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"
)

// DecodeOptions controls one decode pass.
type DecodeOptions struct {
	Database string          // qualifier for the statement; empty means unqualified
	Table    string          // table name; empty means derived from the file name
	Engine   string          // engine override
	Defaults DefaultsMode    // default-value reconstruction
	Charsets CharsetResolver // may be nil
	ViewDDL  bool            // render views as full CREATE VIEW statements
}

// decodeFrmFile opens path read-only and decodes it. Files ending in .xz are
// decompressed first.
func decodeFrmFile(path string, opts DecodeOptions) (*FrmFile, error) {
	r, closeFn, err := openFrm(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return decodeFrm(r, path, opts)
}

// openFrm returns a seekable reader over the (possibly xz compressed) file.
func openFrm(path string) (io.ReadSeeker, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &DecodeError{Path: path, Stage: "open", Err: fmt.Errorf("%w: %v", ErrUnreadableFile, err)}
	}
	if !strings.HasSuffix(strings.ToLower(path), ".xz") {
		return f, f.Close, nil
	}
	defer f.Close()
	zr, err := xz.NewReader(f)
	if err != nil {
		return nil, nil, &DecodeError{Path: path, Stage: "open", Err: fmt.Errorf("%w: xz: %v", ErrUnreadableFile, err)}
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, nil, &DecodeError{Path: path, Stage: "open", Err: fmt.Errorf("%w: xz: %v", ErrUnreadableFile, err)}
	}
	return bytes.NewReader(data), func() error { return nil }, nil
}

// decodeFrm decodes a table or view from r. The table sections are read in
// dependency order: header, keys, defaults, engine, columns, comment.
func decodeFrm(r io.ReadSeeker, path string, opts DecodeOptions) (*FrmFile, error) {
	c := newBinaryCursor(r, path)
	var warnings []string
	name := opts.Table
	if name == "" {
		var ok bool
		if name, ok = tableNameFromPath(path); !ok {
			warnings = append(warnings, filenameWarning(path, fileStem(path)))
		}
	}

	kind, err := readFileKind(c)
	if err != nil {
		return nil, err
	}
	if kind == KindView {
		values, err := readView(c)
		if err != nil {
			return nil, err
		}
		return &FrmFile{Kind: KindView, warnings: warnings, View: &ViewDescriptor{
			Path:     path,
			Database: opts.Database,
			Name:     name,
			Values:   values,
		}}, nil
	}

	h, err := readHeader(c)
	if err != nil {
		return nil, err
	}
	g := geometryFor(h)
	t := &TableDescriptor{
		Path:     path,
		Database: opts.Database,
		Name:     name,
		Header:   h,
		Geometry: g,
	}

	if t.Keys, err = readKeys(c, g); err != nil {
		return nil, err
	}
	if t.defaults, err = readDefaults(c, g); err != nil {
		return nil, err
	}
	if t.Engine, err = readEngine(c, g, h, t.Keys); err != nil {
		return nil, err
	}
	if t.Columns, err = readColumns(c, g, h); err != nil {
		return nil, err
	}
	if t.Comment, err = readTableComment(c, g, t.Engine); err != nil {
		return nil, err
	}

	if opts.Defaults != DefaultsOff {
		for i := range t.Columns {
			t.Columns[i].Default = decodeColumnDefault(t.Columns[i], t.defaults, opts.Defaults)
		}
	}
	return &FrmFile{Kind: KindTable, Table: t, warnings: warnings}, nil
}

// readCreateStatement decodes path and renders its statement together with
// any non-fatal warnings.
func readCreateStatement(path string, opts DecodeOptions) (string, []string, error) {
	frm, err := decodeFrmFile(path, opts)
	if err != nil {
		return "", nil, err
	}
	stmt, warnings := frm.Statement(opts)
	return stmt, warnings, nil
}

// Statement renders the decoded file.
func (f *FrmFile) Statement(opts DecodeOptions) (string, []string) {
	warnings := append([]string(nil), f.warnings...)
	if f.Kind == KindView {
		return viewStatement(f.View, opts.ViewDDL), warnings
	}
	stmt := newStatementBuilder(f.Table, opts).build()
	warnings = append(warnings, collectCharsetWarnings(f.Table, opts.Charsets)...)
	warnings = append(warnings, collectTypeWarnings(f.Table)...)
	warnings = append(warnings, collectKeyWarnings(f.Table)...)
	return stmt, warnings
}

// tableNameFromPath strips .frm (and .xz) and decodes MySQL's filename
// escapes. ok is false when an escape had to be kept as written.
func tableNameFromPath(path string) (name string, ok bool) {
	return decodeFilename(fileStem(path))
}

func fileStem(path string) string {
	base := filepath.Base(path)
	if strings.HasSuffix(strings.ToLower(base), ".xz") {
		base = base[:len(base)-3]
	}
	if strings.HasSuffix(strings.ToLower(base), ".frm") {
		base = base[:len(base)-4]
	}
	return base
}

// decodeFilename decodes MySQL's filename charset. "@" followed by four hex
// digits is a code point. Letters from the accented, Greek, Cyrillic and
// fullwidth ranges are written as "@" plus two characters from a lookup table
// that is not carried here; those sequences, and any malformed "@", stay as
// written and ok is false.
//
// Hex escapes never collide with two-character codes: the server writes every
// code point outside the letter table as four lowercase hex digits, so no
// pair of hex digits can be a table code.
func decodeFilename(s string) (name string, ok bool) {
	if !strings.Contains(s, "@") {
		return s, true
	}
	ok = true
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '@' {
			b.WriteByte(s[i])
			continue
		}
		if i+5 <= len(s) && isHexEscape(s[i+1:i+5]) {
			v, _ := strconv.ParseUint(s[i+1:i+5], 16, 32)
			b.WriteRune(rune(v))
			i += 4
			continue
		}
		ok = false
		b.WriteByte('@')
	}
	return b.String(), ok
}

func isHexEscape(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func filenameWarning(path, raw string) string {
	return fmt.Sprintf("%s: name %q has filename escapes that were kept as written", path, raw)
}
