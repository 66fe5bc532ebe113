package main

import "sort"

// MySQL field type codes as stored in the column records.
const (
	typeDecimal    = 0
	typeTiny       = 1
	typeShort      = 2
	typeLong       = 3
	typeFloat      = 4
	typeDouble     = 5
	typeNull       = 6
	typeTimestamp  = 7
	typeLongLong   = 8
	typeInt24      = 9
	typeDate       = 10
	typeTime       = 11
	typeDatetime   = 12
	typeYear       = 13
	typeNewDate    = 14
	typeVarchar    = 15
	typeBit        = 16
	typeTimestamp2 = 17
	typeDatetime2  = 18
	typeTime2      = 19
	typeJSON       = 245
	typeNewDecimal = 246
	typeEnum       = 247
	typeSet        = 248
	typeTinyBlob   = 249
	typeMediumBlob = 250
	typeLongBlob   = 251
	typeBlob       = 252
	typeVarString  = 253
	typeString     = 254
	typeGeometry   = 255
)

// Size sentinels in the field type table.
const (
	sizeCharWidth = -1 // declared width, divided by charset max length for display
	sizeBitWidth  = -2 // declared width is in bits
	sizeDeclared  = -3 // look at the declared width directly
)

type fieldTypeInfo struct {
	code uint8
	name string
	size int
}

// fieldTypes is sorted by code.
var fieldTypes = []fieldTypeInfo{
	{typeDecimal, "decimal", sizeDeclared},
	{typeTiny, "tinyint", 1},
	{typeShort, "smallint", 2},
	{typeLong, "int", 4},
	{typeFloat, "float", 4},
	{typeDouble, "double", 8},
	{typeNull, "null", 0},
	{typeTimestamp, "timestamp", 4},
	{typeLongLong, "bigint", 8},
	{typeInt24, "mediumint", 3},
	{typeDate, "date", 4},
	{typeTime, "time", 3},
	{typeDatetime, "datetime", 8},
	{typeYear, "year", 1},
	{typeNewDate, "date", 3},
	{typeVarchar, "varchar", sizeCharWidth},
	{typeBit, "bit", sizeBitWidth},
	{typeTimestamp2, "timestamp", 4},
	{typeDatetime2, "datetime", 5},
	{typeTime2, "time", 3},
	{typeJSON, "json", 0},
	{typeNewDecimal, "decimal", sizeDeclared},
	{typeEnum, "enum", 0},
	{typeSet, "set", 0},
	{typeTinyBlob, "tinyblob", 0},
	{typeMediumBlob, "mediumblob", 0},
	{typeLongBlob, "longblob", 0},
	{typeBlob, "blob", 0},
	{typeVarString, "varchar", sizeCharWidth},
	{typeString, "char", sizeCharWidth},
	{typeGeometry, "geometry", 0},
}

func lookupFieldType(code uint8) (fieldTypeInfo, bool) {
	i := sort.Search(len(fieldTypes), func(i int) bool { return fieldTypes[i].code >= code })
	if i < len(fieldTypes) && fieldTypes[i].code == code {
		return fieldTypes[i], true
	}
	return fieldTypeInfo{}, false
}

// Pack flag bits of a column record.
const (
	fieldFlagDecimal   = 0x0001 // signed, for numeric types
	fieldFlagBinary    = 0x0001 // binary, for character types
	fieldFlagNumber    = 0x0002
	fieldFlagZerofill  = 0x0004
	fieldFlagPack      = 0x0078
	fieldFlagInterval  = 0x0100
	fieldFlagBitfield  = 0x0200
	fieldFlagBlob      = 0x0400
	fieldFlagGeom      = 0x0800
	fieldFlagNoDefault = 0x4000
	fieldFlagMaybeNull = 0x8000

	fieldFlagPackShift = 3
	fieldFlagDecShift  = 8
	fieldFlagMaxDec    = 31
)

// fieldFlags is a column pack flag decoded once.
type fieldFlags struct {
	Decimal   bool
	Number    bool
	Zerofill  bool
	Interval  bool
	Bitfield  bool
	Blob      bool
	Geom      bool
	NoDefault bool
	MaybeNull bool
	PackType  int
	Decimals  int
}

func decodeFieldFlags(f uint16) fieldFlags {
	return fieldFlags{
		Decimal:   f&fieldFlagDecimal != 0,
		Number:    f&fieldFlagNumber != 0,
		Zerofill:  f&fieldFlagZerofill != 0,
		Interval:  f&fieldFlagInterval != 0,
		Bitfield:  f&fieldFlagBitfield != 0,
		Blob:      f&fieldFlagBlob != 0,
		Geom:      f&fieldFlagGeom != 0,
		NoDefault: f&fieldFlagNoDefault != 0,
		MaybeNull: f&fieldFlagMaybeNull != 0,
		PackType:  int(f&fieldFlagPack) >> fieldFlagPackShift,
		Decimals:  int(f>>fieldFlagDecShift) & fieldFlagMaxDec,
	}
}

// Unireg types relevant to DDL reconstruction.
const (
	uniregNextNumber    = 15
	uniregTimestampDN   = 21
	uniregTimestampUN   = 22
	uniregTimestampDNUN = 23
	charsetBinary       = 63
	notFixedDec         = 31
)

var geometryTypeNames = []string{
	"geometry", "point", "linestring", "polygon",
	"multipoint", "multilinestring", "multipolygon", "geometrycollection",
}

// isCharacterType reports whether a column carries a character set.
func isCharacterType(col ColumnDescriptor) bool {
	switch col.FieldType {
	case typeVarchar, typeVarString, typeString, typeEnum, typeSet:
		return col.CharsetID != charsetBinary
	case typeBlob, typeTinyBlob, typeMediumBlob, typeLongBlob:
		return !col.Flags.Geom && col.CharsetID != charsetBinary
	}
	return false
}

func isIntegerType(t uint8) bool {
	switch t {
	case typeTiny, typeShort, typeLong, typeLongLong, typeInt24:
		return true
	}
	return false
}

func isNumericType(t uint8) bool {
	switch t {
	case typeDecimal, typeNewDecimal, typeFloat, typeDouble:
		return true
	}
	return isIntegerType(t)
}
