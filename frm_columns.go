package main

import (
	"fmt"
	"sort"
)

// Offsets inside the form-info block.
const (
	formCommentLen     = 46
	formFieldsHeader   = 258
	formScreensStart   = 288
	fieldRecordSize    = 17
	haOptionPackRecord = 0x0001
)

// fieldSectionHeader is the block at form-info + 258.
type fieldSectionHeader struct {
	Fields         int
	ScreensLength  int
	NamesLength    int
	IntervalCount  int
	IntervalParts  int
	IntervalLength int
	NullFields     int
	CommentsLength int
}

func readFieldSectionHeader(c *binaryCursor, g Geometry) (fieldSectionHeader, error) {
	if err := c.seek(g.FormInfoOffset + formFieldsHeader); err != nil {
		return fieldSectionHeader{}, err
	}
	b, err := c.read(formScreensStart - formFieldsHeader)
	if err != nil {
		return fieldSectionHeader{}, err
	}
	return fieldSectionHeader{
		Fields:         le16(b, 0),
		ScreensLength:  le16(b, 2),
		NamesLength:    le16(b, 10),
		IntervalCount:  le16(b, 12),
		IntervalParts:  le16(b, 14),
		IntervalLength: le16(b, 16),
		NullFields:     le16(b, 24),
		CommentsLength: le16(b, 26),
	}, nil
}

// readColumns decodes the column records, names, interval values and comments.
// Columns are returned in ordinal order.
func readColumns(c *binaryCursor, g Geometry, h FileHeader) ([]ColumnDescriptor, error) {
	c.stage = "columns"
	fh, err := readFieldSectionHeader(c, g)
	if err != nil {
		return nil, err
	}
	if err := c.skip(int64(fh.ScreensLength)); err != nil {
		return nil, err
	}

	cols := make([]ColumnDescriptor, fh.Fields)
	for i := range cols {
		rec, err := c.read(fieldRecordSize)
		if err != nil {
			return nil, err
		}
		cols[i] = decodeColumnRecord(i, rec)
	}

	names, err := c.read(fh.NamesLength)
	if err != nil {
		return nil, err
	}
	nameList := splitNameBlock(names)
	if len(nameList) < len(cols) {
		return nil, c.fail(fmt.Errorf("%w: %d column names for %d columns", ErrTruncatedRecord, len(nameList), len(cols)))
	}
	for i := range cols {
		cols[i].Name = nameList[i]
	}

	intervalBlock, err := c.read(fh.IntervalLength)
	if err != nil {
		return nil, err
	}
	intervals := splitIntervals(intervalBlock, fh.IntervalCount)
	for i := range cols {
		if nr := cols[i].IntervalNr; nr > 0 && nr <= len(intervals) {
			cols[i].Intervals = intervals[nr-1]
		}
	}

	comments, err := c.read(fh.CommentsLength)
	if err != nil {
		return nil, err
	}
	pos := 0
	for i := range cols {
		n := cols[i].CommentLen
		if n == 0 {
			continue
		}
		if pos+n > len(comments) {
			return nil, c.fail(fmt.Errorf("%w: column comment for %q", ErrTruncatedRecord, cols[i].Name))
		}
		cols[i].Comment = string(comments[pos : pos+n])
		pos += n
	}

	assignNullBits(cols, h.CreateOptions)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Ordinal < cols[j].Ordinal })
	return cols, nil
}

// decodeColumnRecord unpacks one 17-byte column record.
func decodeColumnRecord(ordinal int, rec []byte) ColumnDescriptor {
	packFlag := uint16(le16(rec, 8))
	col := ColumnDescriptor{
		Ordinal:     ordinal,
		FieldLength: le16(rec, 3),
		RecPos:      le24(rec, 5),
		PackFlag:    packFlag,
		Flags:       decodeFieldFlags(packFlag),
		UniregType:  rec[10],
		IntervalNr:  int(rec[12]),
		FieldType:   rec[13],
		CommentLen:  le16(rec, 15),
	}
	if col.FieldType == typeGeometry {
		// The charset byte holds the geometry subtype.
		col.GeomType = rec[14]
		col.CharsetID = charsetBinary
	} else {
		col.CharsetID = int(rec[11])<<8 | int(rec[14])
	}

	switch {
	case col.IntervalNr > 0 && (col.FieldType == typeString || col.FieldType == typeVarString):
		if col.Flags.Bitfield {
			col.FieldType = typeSet
		} else {
			col.FieldType = typeEnum
		}
	case col.FieldType == typeBlob && col.Flags.Geom:
		col.FieldType = typeGeometry
	case col.FieldType == typeBlob:
		switch col.Flags.PackType {
		case 1:
			col.FieldType = typeTinyBlob
		case 3:
			col.FieldType = typeMediumBlob
		case 4:
			col.FieldType = typeLongBlob
		}
	}
	return col
}

// assignNullBits records each nullable column's position in the row null
// bitmap. Bit 0 of the first byte is reserved unless records are packed.
func assignNullBits(cols []ColumnDescriptor, createOptions uint16) {
	nullByte := 0
	var nullBit uint = 1
	if createOptions&haOptionPackRecord != 0 {
		nullBit = 0
	}
	for i := range cols {
		if !cols[i].Flags.MaybeNull {
			continue
		}
		cols[i].nullByte = nullByte
		cols[i].nullBit = nullBit
		nullBit++
		if nullBit == 8 {
			nullBit = 0
			nullByte++
		}
	}
}

// splitNameBlock splits a separator-delimited block. The first byte is the
// separator and a NUL byte ends the block.
func splitNameBlock(b []byte) []string {
	values, _ := splitOneNameBlock(b)
	return values
}

func splitOneNameBlock(b []byte) ([]string, int) {
	if len(b) == 0 {
		return nil, 0
	}
	sep := b[0]
	var values []string
	start := 1
	for i := 1; i < len(b); i++ {
		switch b[i] {
		case 0:
			return values, i + 1
		case sep:
			values = append(values, string(b[start:i]))
			start = i + 1
		}
	}
	return values, len(b)
}

// splitIntervals parses count consecutive ENUM/SET value lists.
func splitIntervals(b []byte, count int) [][]string {
	out := make([][]string, 0, count)
	for len(out) < count && len(b) > 0 {
		values, n := splitOneNameBlock(b)
		out = append(out, values)
		b = b[n:]
	}
	return out
}
