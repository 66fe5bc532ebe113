package main

import (
	"fmt"
	"sort"
)

const (
	magicTable = 0x01FE
	magicView  = 0x5954 // "TY" of "TYPE=VIEW"

	headerOffset = 2
	headerSize   = 64

	legacyTypeHeap = 6
)

// Field offsets inside the header, relative to the start of the file.
const (
	hdrFrmVersion    = 2
	hdrLegacyDBType  = 3
	hdrIOSize        = 6
	hdrLength        = 10
	hdrTmpKeyLength  = 14
	hdrRecLength     = 16
	hdrMaxRows       = 18
	hdrMinRows       = 22
	hdrKeyInfoLength = 28
	hdrCreateOptions = 30
	hdrFrmFileVer    = 33
	hdrAvgRowLength  = 34
	hdrCharsetLow    = 38
	hdrRowType       = 40
	hdrCharsetHigh   = 41
	hdrKeyLength     = 47
	hdrMySQLVersion  = 51
	hdrExtraSize     = 55
	hdrDefaultPartDB = 61
	hdrKeyBlockSize  = 62
)

type legacyEngine struct {
	code uint8
	name string
}

// legacyEngines is sorted by code.
var legacyEngines = []legacyEngine{
	{0, "UNKNOWN"},
	{1, "DIAB_ISAM"},
	{2, "HASH"},
	{3, "MISAM"},
	{4, "PISAM"},
	{5, "RMS_ISAM"},
	{6, "HEAP"},
	{7, "ISAM"},
	{8, "MRG_ISAM"},
	{9, "MYISAM"},
	{10, "MRG_MYISAM"},
	{11, "BERKELEY_DB"},
	{12, "INNODB"},
	{13, "GEMINI"},
	{14, "NDBCLUSTER"},
	{15, "EXAMPLE_DB"},
	{16, "ARCHIVE_DB"},
	{17, "CSV"},
	{18, "FEDERATED"},
	{19, "BLACKHOLE"},
	{20, "PARTITION_DB"},
	{21, "BINLOG"},
	{22, "SOLID"},
	{23, "PBXT"},
	{24, "TABLE_FUNCTION"},
	{25, "MEMCACHE"},
	{26, "FALCON"},
	{27, "MARIA"},
	{28, "PERFORMANCE_SCHEMA"},
	{42, "FIRST_DYNAMIC"},
	{127, "DEFAULT"},
}

// legacyEngineName maps a legacy engine code to its name, UNKNOWN when unlisted.
func legacyEngineName(code uint8) string {
	i := sort.Search(len(legacyEngines), func(i int) bool { return legacyEngines[i].code >= code })
	if i < len(legacyEngines) && legacyEngines[i].code == code {
		return legacyEngines[i].name
	}
	return "UNKNOWN"
}

// readFileKind reads the 2-byte magic number at offset 0.
func readFileKind(c *binaryCursor) (FileKind, error) {
	c.stage = "magic"
	if err := c.seek(0); err != nil {
		return 0, err
	}
	magic, err := c.uint16()
	if err != nil {
		return 0, err
	}
	switch magic {
	case magicTable:
		return KindTable, nil
	case magicView:
		return KindView, nil
	default:
		return 0, c.fail(fmt.Errorf("%w: magic 0x%04X", ErrUnsupportedFormat, magic))
	}
}

// readHeader decodes the fixed 64-byte header block starting at offset 2.
func readHeader(c *binaryCursor) (FileHeader, error) {
	c.stage = "header"
	if err := c.seek(headerOffset); err != nil {
		return FileHeader{}, err
	}
	raw, err := c.read(headerSize)
	if err != nil {
		return FileHeader{}, err
	}
	// The buffer starts at file offset 2; index it by absolute offsets.
	b := make([]byte, headerOffset, headerOffset+headerSize)
	b = append(b, raw...)

	h := FileHeader{
		FrmVersion:        b[hdrFrmVersion],
		LegacyDBType:      b[hdrLegacyDBType],
		IOSize:            uint16(le16(b, hdrIOSize)),
		Length:            le32(b, hdrLength),
		TmpKeyLength:      uint16(le16(b, hdrTmpKeyLength)),
		RecLength:         uint16(le16(b, hdrRecLength)),
		MaxRows:           le32(b, hdrMaxRows),
		MinRows:           le32(b, hdrMinRows),
		KeyInfoLength:     uint16(le16(b, hdrKeyInfoLength)),
		CreateOptions:     uint16(le16(b, hdrCreateOptions)),
		FrmFileVer:        b[hdrFrmFileVer],
		AvgRowLength:      le32(b, hdrAvgRowLength),
		TableCharset:      uint16(b[hdrCharsetHigh])<<8 | uint16(b[hdrCharsetLow]),
		RowType:           b[hdrRowType],
		KeyLength:         le32(b, hdrKeyLength),
		MySQLVersion:      le32(b, hdrMySQLVersion),
		ExtraSize:         le32(b, hdrExtraSize),
		DefaultPartDBType: b[hdrDefaultPartDB],
		KeyBlockSize:      uint16(le16(b, hdrKeyBlockSize)),
	}
	if h.IOSize == 0 {
		return FileHeader{}, c.fail(fmt.Errorf("%w: zero IO_SIZE", ErrUnsupportedFormat))
	}
	return h, nil
}

// geometryFor derives every section offset from the header.
func geometryFor(h FileHeader) Geometry {
	g := Geometry{
		IOSize:    int64(h.IOSize),
		KeyLength: int64(h.TmpKeyLength),
		RecLength: int64(h.RecLength),
		ExtraSize: int64(h.ExtraSize),
	}
	if h.TmpKeyLength == 0xFFFF {
		g.KeyLength = int64(h.KeyLength)
	}
	g.KeyBlockOffset = g.IOSize
	g.RecordOffset = g.IOSize + g.KeyLength
	g.ExtraOffset = g.RecordOffset + g.RecLength
	g.FormInfoOffset = nextIOSize(g.IOSize+g.KeyLength+g.RecLength+g.ExtraSize, g.IOSize)
	return g
}

// nextIOSize rounds pos up to a multiple of ioSize.
func nextIOSize(pos, ioSize int64) int64 {
	if off := pos % ioSize; off != 0 {
		return pos - off + ioSize
	}
	return pos
}
