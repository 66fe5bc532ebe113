package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultsMode controls default-value reconstruction from the default row.
type DefaultsMode int

const (
	// DefaultsOff emits no reconstructed defaults.
	DefaultsOff DefaultsMode = iota
	// DefaultsSafe decodes NULL, character, ENUM/SET, DECIMAL and floating point defaults.
	DefaultsSafe
	// DefaultsExperimental adds integer and temporal defaults, whose decoding
	// has not been verified against every server version.
	DefaultsExperimental
)

func (m DefaultsMode) String() string {
	switch m {
	case DefaultsSafe:
		return "safe"
	case DefaultsExperimental:
		return "experimental"
	default:
		return "off"
	}
}

func parseDefaultsMode(s string) (DefaultsMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off":
		return DefaultsOff, nil
	case "safe":
		return DefaultsSafe, nil
	case "experimental":
		return DefaultsExperimental, nil
	default:
		return DefaultsOff, fmt.Errorf("defaults must be one of: off, safe, experimental")
	}
}

// readDefaults reads the raw default-row buffer stored after the key block.
func readDefaults(c *binaryCursor, g Geometry) ([]byte, error) {
	c.stage = "defaults"
	if err := c.seek(g.RecordOffset); err != nil {
		return nil, err
	}
	return c.read(int(g.RecLength))
}

// dig2bytes maps a digit count (0-9) to the bytes it packs into.
var dig2bytes = [10]int{0, 1, 1, 2, 2, 3, 3, 4, 4, 4}

const digPerDec1 = 9

// decimalPrecision recovers (precision, scale) of a DECIMAL column.
func decimalPrecision(col ColumnDescriptor) (int, int) {
	scale := col.Flags.Decimals
	precision := col.FieldLength
	if scale > 0 {
		precision--
	}
	if col.Flags.Decimal && precision > 0 {
		precision--
	}
	return precision, scale
}

func decimalBinarySize(precision, scale int) int {
	intg := precision - scale
	return (intg/digPerDec1)*4 + dig2bytes[intg%digPerDec1] +
		(scale/digPerDec1)*4 + dig2bytes[scale%digPerDec1]
}

// decodeDecimal decodes MySQL's packed binary DECIMAL representation.
func decodeDecimal(b []byte, precision, scale int) (string, error) {
	size := decimalBinarySize(precision, scale)
	if size == 0 || len(b) < size {
		return "", fmt.Errorf("%w: decimal(%d,%d) needs %d bytes, have %d", ErrTruncatedRecord, precision, scale, size, len(b))
	}
	buf := append([]byte(nil), b[:size]...)
	negative := buf[0]&0x80 == 0
	buf[0] ^= 0x80
	if negative {
		for i := range buf {
			buf[i] ^= 0xFF
		}
	}

	pos := 0
	group := func(n int) uint64 {
		var v uint64
		for i := 0; i < n; i++ {
			v = v<<8 | uint64(buf[pos])
			pos++
		}
		return v
	}

	intg := precision - scale
	intg0, intg0x := intg/digPerDec1, intg%digPerDec1
	frac0, frac0x := scale/digPerDec1, scale%digPerDec1

	var ip strings.Builder
	if intg0x > 0 {
		if v := group(dig2bytes[intg0x]); v != 0 {
			ip.WriteString(strconv.FormatUint(v, 10))
		}
	}
	for i := 0; i < intg0; i++ {
		v := group(4)
		if ip.Len() == 0 {
			if v != 0 {
				ip.WriteString(strconv.FormatUint(v, 10))
			}
			continue
		}
		fmt.Fprintf(&ip, "%09d", v)
	}
	s := ip.String()
	if s == "" {
		s = "0"
	}

	if scale > 0 {
		var fp strings.Builder
		for i := 0; i < frac0; i++ {
			fmt.Fprintf(&fp, "%09d", group(4))
		}
		if frac0x > 0 {
			fmt.Fprintf(&fp, "%0*d", frac0x, group(dig2bytes[frac0x]))
		}
		s += "." + fp.String()
	}
	if negative {
		s = "-" + s
	}
	return s, nil
}

// temporalFraction returns the fractional-second digits of a temporal column.
func temporalFraction(col ColumnDescriptor) int {
	width := 19
	if col.FieldType == typeTime2 || col.FieldType == typeTime {
		width = 10
	}
	if col.FieldLength > width {
		return col.FieldLength - width - 1
	}
	return 0
}

// packLength is the number of bytes the column occupies in a row record.
func packLength(col ColumnDescriptor) int {
	switch col.FieldType {
	case typeNewDecimal:
		p, s := decimalPrecision(col)
		return decimalBinarySize(p, s)
	case typeDecimal, typeString:
		return col.FieldLength
	case typeVarchar, typeVarString:
		if col.FieldLength < 256 {
			return col.FieldLength + 1
		}
		return col.FieldLength + 2
	case typeBit:
		return (col.FieldLength + 7) / 8
	case typeEnum:
		if len(col.Intervals) < 256 {
			return 1
		}
		return 2
	case typeSet:
		n := (len(col.Intervals) + 7) / 8
		if n > 4 {
			return 8
		}
		return n
	case typeTinyBlob:
		return 1 + 8
	case typeBlob:
		return 2 + 8
	case typeMediumBlob:
		return 3 + 8
	case typeLongBlob, typeJSON, typeGeometry:
		return 4 + 8
	case typeTimestamp2, typeDatetime2, typeTime2:
		info, _ := lookupFieldType(col.FieldType)
		return info.size + (temporalFraction(col)+1)/2
	}
	if info, ok := lookupFieldType(col.FieldType); ok && info.size > 0 {
		return info.size
	}
	return 0
}

// decodeColumnDefault reconstructs a column default from the default row.
// It returns nil when the column has no representable default under mode.
func decodeColumnDefault(col ColumnDescriptor, row []byte, mode DefaultsMode) *ColumnDefault {
	if mode == DefaultsOff || col.Flags.NoDefault || col.UniregType == uniregNextNumber {
		return nil
	}
	switch col.FieldType {
	case typeTinyBlob, typeBlob, typeMediumBlob, typeLongBlob, typeJSON, typeGeometry, typeNull:
		return nil
	}
	if col.Flags.MaybeNull {
		if col.nullByte >= len(row) {
			return nil
		}
		if row[col.nullByte]&(1<<col.nullBit) != 0 {
			return &ColumnDefault{Null: true}
		}
	}

	start := col.RecPos - 1
	n := packLength(col)
	if start < 0 || n <= 0 || start+n > len(row) {
		return nil
	}
	b := row[start : start+n]

	if v, ok := decodeSafeDefault(col, b); ok {
		return &ColumnDefault{Value: v}
	}
	if mode == DefaultsExperimental {
		if v, ok := decodeExperimentalDefault(col, b); ok {
			return &ColumnDefault{Value: v}
		}
	}
	return nil
}

func decodeSafeDefault(col ColumnDescriptor, b []byte) (string, bool) {
	switch col.FieldType {
	case typeString:
		return strings.TrimRight(string(b), " "), true
	case typeDecimal:
		return strings.TrimSpace(string(b)), true
	case typeVarchar, typeVarString:
		prefix := 1
		length := int(b[0])
		if col.FieldLength >= 256 {
			prefix = 2
			length = le16(b, 0)
		}
		if prefix+length > len(b) {
			return "", false
		}
		return string(b[prefix : prefix+length]), true
	case typeEnum:
		idx := int(leUint(b))
		if idx == 0 || idx > len(col.Intervals) {
			return "", true
		}
		return col.Intervals[idx-1], true
	case typeSet:
		mask := leUint(b)
		var picked []string
		for i, v := range col.Intervals {
			if mask&(1<<uint(i)) != 0 {
				picked = append(picked, v)
			}
		}
		return strings.Join(picked, ","), true
	case typeNewDecimal:
		p, s := decimalPrecision(col)
		v, err := decodeDecimal(b, p, s)
		if err != nil {
			return "", false
		}
		return v, true
	case typeFloat:
		f := math.Float32frombits(binary.LittleEndian.Uint32(b))
		return strconv.FormatFloat(float64(f), 'g', -1, 32), true
	case typeDouble:
		f := math.Float64frombits(binary.LittleEndian.Uint64(b))
		return strconv.FormatFloat(f, 'g', -1, 64), true
	}
	return "", false
}

func decodeExperimentalDefault(col ColumnDescriptor, b []byte) (string, bool) {
	switch {
	case isIntegerType(col.FieldType):
		u := leUint(b)
		if col.Flags.Decimal {
			shift := uint(64 - 8*len(b))
			return strconv.FormatInt(int64(u<<shift)>>shift, 10), true
		}
		return strconv.FormatUint(u, 10), true
	case col.FieldType == typeYear:
		if b[0] == 0 {
			return "0000", true
		}
		return strconv.Itoa(1900 + int(b[0])), true
	case col.FieldType == typeNewDate:
		v := le24(b, 0)
		return fmt.Sprintf("%04d-%02d-%02d", v>>9, (v>>5)&15, v&31), true
	case col.FieldType == typeDatetime:
		v := binary.LittleEndian.Uint64(b)
		date, clock := v/1000000, v%1000000
		return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
			date/10000, (date/100)%100, date%100,
			clock/10000, (clock/100)%100, clock%100), true
	}
	return "", false
}

// leUint decodes up to 8 little-endian bytes.
func leUint(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
