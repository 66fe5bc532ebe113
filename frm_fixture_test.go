package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// fixtureColumn describes one column record of a test .frm.
type fixtureColumn struct {
	name       string
	fieldType  uint8
	length     int
	recPos     int // 1-based; 0 means "not used in the default row"
	packFlag   uint16
	unireg     uint8
	charset    int
	intervalNr int
	geom       uint8
	comment    string
}

type fixtureKeyPart struct {
	fieldNr int
	length  int
}

type fixtureKey struct {
	name      string
	flags     uint16 // logical flags, stored XORed with HA_NOSAME
	algorithm KeyAlgorithm
	parts     []fixtureKeyPart
	comment   string
	parser    string // fulltext parser, written to the extra segment
}

// frmFixture lays out a table .frm the way the server writes one.
type frmFixture struct {
	ioSize        int
	legacyType    uint8
	version       uint32
	tableCharset  uint16
	createOptions uint16
	rowType       uint8
	avgRowLength  uint32
	maxRows       uint32
	minRows       uint32
	keyBlockSize  uint16
	partDBType    uint8

	noExtra    bool // omit the extra segment entirely
	connection string
	engine     string
	partition  string
	comment    string

	defaults  []byte // default row; its length is rec_length
	columns   []fixtureColumn
	keys      []fixtureKey
	intervals [][]string
	screens   int // bytes of screen data to skip
}

func putU16(b []byte, off, v int)        { binary.LittleEndian.PutUint16(b[off:], uint16(v)) }
func putU32(b []byte, off int, v uint32) { binary.LittleEndian.PutUint32(b[off:], v) }

func nameBlock(names []string) []byte {
	var b bytes.Buffer
	b.WriteByte(namesSepChar)
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte(namesSepChar)
	}
	b.WriteByte(0)
	return b.Bytes()
}

func (f frmFixture) keyBlock() []byte {
	var b bytes.Buffer
	parts := 0
	for _, k := range f.keys {
		parts += len(k.parts)
	}
	counts := encodeKeyCounts(len(f.keys), parts)
	b.Write(counts[:])
	b.Write([]byte{0, 0})
	if len(f.keys) == 0 {
		return b.Bytes()
	}

	rec := make([]byte, keyRecordSize)
	part := make([]byte, keyPartRecordSize)
	for _, k := range f.keys {
		flags := k.flags
		if k.comment != "" {
			flags |= haUsesComment
		}
		if k.parser != "" {
			flags |= haUsesParser
		}
		keyLen := 0
		for _, p := range k.parts {
			keyLen += p.length
		}
		putU16(rec, 0, int(flags^haNoSame))
		putU16(rec, 2, keyLen)
		rec[4] = byte(len(k.parts))
		rec[5] = byte(k.algorithm)
		putU16(rec, 6, 0)
		b.Write(rec)
		for _, p := range k.parts {
			putU16(part, 0, p.fieldNr)
			putU16(part, 2, 1)
			part[4] = 0
			putU16(part, 5, 0)
			putU16(part, 7, p.length)
			b.Write(part)
		}
	}

	names := make([]string, len(f.keys))
	for i, k := range f.keys {
		names[i] = k.name
	}
	b.Write(nameBlock(names))

	for _, k := range f.keys {
		if k.comment == "" {
			continue
		}
		var n [2]byte
		binary.LittleEndian.PutUint16(n[:], uint16(len(k.comment)))
		b.Write(n[:])
		b.WriteString(k.comment)
	}
	return b.Bytes()
}

func (f frmFixture) longComment() bool { return len(f.comment) > 60 }

func (f frmFixture) extraSegment() []byte {
	if f.noExtra {
		return nil
	}
	var b bytes.Buffer
	var n [4]byte
	binary.LittleEndian.PutUint16(n[:2], uint16(len(f.connection)))
	b.Write(n[:2])
	b.WriteString(f.connection)
	binary.LittleEndian.PutUint16(n[:2], uint16(len(f.engine)))
	b.Write(n[:2])
	b.WriteString(f.engine)
	binary.LittleEndian.PutUint32(n[:], uint32(len(f.partition)))
	b.Write(n[:])
	b.WriteString(f.partition)
	b.WriteByte(0)
	if f.version >= 50110 {
		b.WriteByte(0)
	}
	for _, k := range f.keys {
		if k.parser != "" {
			b.WriteString(k.parser)
			b.WriteByte(0)
		}
	}
	if f.longComment() {
		binary.LittleEndian.PutUint16(n[:2], uint16(len(f.comment)))
		b.Write(n[:2])
		b.WriteString(f.comment)
	}
	return b.Bytes()
}

func (f frmFixture) fieldSection() []byte {
	var recs bytes.Buffer
	var comments bytes.Buffer
	names := make([]string, len(f.columns))
	nullFields := 0
	for i, c := range f.columns {
		names[i] = c.name
		rec := make([]byte, fieldRecordSize)
		putU16(rec, 3, c.length)
		rec[5] = byte(c.recPos)
		rec[6] = byte(c.recPos >> 8)
		rec[7] = byte(c.recPos >> 16)
		putU16(rec, 8, int(c.packFlag))
		rec[10] = c.unireg
		rec[11] = byte(c.charset >> 8)
		rec[12] = byte(c.intervalNr)
		rec[13] = c.fieldType
		rec[14] = byte(c.charset)
		if c.fieldType == typeGeometry {
			rec[14] = c.geom
		}
		putU16(rec, 15, len(c.comment))
		recs.Write(rec)
		comments.WriteString(c.comment)
		if c.packFlag&fieldFlagMaybeNull != 0 {
			nullFields++
		}
	}
	nameBytes := nameBlock(names)

	var intervals bytes.Buffer
	parts := 0
	for _, iv := range f.intervals {
		intervals.Write(nameBlock(iv))
		parts += len(iv)
	}

	head := make([]byte, formScreensStart-formFieldsHeader)
	putU16(head, 0, len(f.columns))
	putU16(head, 2, f.screens)
	putU16(head, 10, len(nameBytes))
	putU16(head, 12, len(f.intervals))
	putU16(head, 14, parts)
	putU16(head, 16, intervals.Len())
	putU16(head, 24, nullFields)
	putU16(head, 26, comments.Len())

	var b bytes.Buffer
	b.Write(head)
	b.Write(bytes.Repeat([]byte{' '}, f.screens))
	b.Write(recs.Bytes())
	b.Write(nameBytes)
	b.Write(intervals.Bytes())
	b.Write(comments.Bytes())
	return b.Bytes()
}

// bytes renders the fixture.
func (f frmFixture) bytes() []byte {
	ioSize := f.ioSize
	if ioSize == 0 {
		ioSize = 4096
	}
	keys := f.keyBlock()
	extra := f.extraSegment()
	recLen := len(f.defaults)

	formInfo := int(nextIOSize(int64(ioSize+len(keys)+recLen+len(extra)), int64(ioSize)))
	fields := f.fieldSection()
	buf := make([]byte, formInfo+formFieldsHeader+len(fields))

	putU16(buf, 0, magicTable)
	buf[hdrFrmVersion] = 10
	buf[hdrLegacyDBType] = f.legacyType
	putU16(buf, hdrIOSize, ioSize)
	putU32(buf, hdrLength, uint32(len(buf)))
	if len(keys) >= 0xFFFF {
		putU16(buf, hdrTmpKeyLength, 0xFFFF)
	} else {
		putU16(buf, hdrTmpKeyLength, len(keys))
	}
	putU16(buf, hdrRecLength, recLen)
	putU32(buf, hdrMaxRows, f.maxRows)
	putU32(buf, hdrMinRows, f.minRows)
	putU16(buf, hdrKeyInfoLength, len(keys))
	putU16(buf, hdrCreateOptions, int(f.createOptions))
	buf[hdrFrmFileVer] = 5
	putU32(buf, hdrAvgRowLength, f.avgRowLength)
	buf[hdrCharsetLow] = byte(f.tableCharset)
	buf[hdrRowType] = f.rowType
	buf[hdrCharsetHigh] = byte(f.tableCharset >> 8)
	putU32(buf, hdrKeyLength, uint32(len(keys)))
	putU32(buf, hdrMySQLVersion, f.version)
	putU32(buf, hdrExtraSize, uint32(len(extra)))
	buf[hdrDefaultPartDB] = f.partDBType
	putU16(buf, hdrKeyBlockSize, int(f.keyBlockSize))

	copy(buf[ioSize:], keys)
	copy(buf[ioSize+len(keys):], f.defaults)
	copy(buf[ioSize+len(keys)+recLen:], extra)

	if f.longComment() {
		buf[formInfo+formCommentLen] = 0xFF
	} else {
		buf[formInfo+formCommentLen] = byte(len(f.comment))
		copy(buf[formInfo+formCommentLen+1:], f.comment)
	}
	copy(buf[formInfo+formFieldsHeader:], fields)
	return buf
}

// write stores the fixture as dir/name and returns the path.
func (f frmFixture) write(t *testing.T, dir, name string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, f.bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// minimalFixture is an InnoDB table with `id` int NOT NULL PRIMARY KEY and a
// nullable `name` varchar(50).
func minimalFixture() frmFixture {
	return frmFixture{
		legacyType: 12,
		version:    50744,
		engine:     "InnoDB",
		// null byte, id (4 bytes), name (1 + 50 bytes)
		defaults: make([]byte, 1+4+51),
		columns: []fixtureColumn{
			{name: "id", fieldType: typeLong, length: 11, recPos: 2, packFlag: fieldFlagNumber | fieldFlagDecimal},
			{name: "name", fieldType: typeVarchar, length: 50, recPos: 6, packFlag: fieldFlagMaybeNull},
		},
		keys: []fixtureKey{
			{name: "PRIMARY", flags: haNoSame, parts: []fixtureKeyPart{{fieldNr: 1, length: 4}}},
		},
	}
}

func viewFixture(values string) []byte {
	return []byte("TYPE=VIEW\n" + values)
}
