package main

import (
	"fmt"
	"sort"
)

// KeyAlgorithm is the index structure recorded per key.
type KeyAlgorithm uint8

const (
	KeyAlgUndef KeyAlgorithm = iota
	KeyAlgBTree
	KeyAlgRTree
	KeyAlgHash
	KeyAlgFullText
)

func (a KeyAlgorithm) String() string {
	switch a {
	case KeyAlgBTree:
		return "BTREE"
	case KeyAlgRTree:
		return "RTREE"
	case KeyAlgHash:
		return "HASH"
	case KeyAlgFullText:
		return "FULLTEXT"
	default:
		return ""
	}
}

// Key flag bits.
const (
	haNoSame      = 0x0001
	haFullText    = 0x0080
	haSpatial     = 0x0400
	haUsesComment = 0x1000
	haUsesParser  = 0x4000

	fieldNrMask  = 0x3FFF
	namesSepChar = 0xFF

	keyRecordSize     = 8
	keyPartRecordSize = 9
)

// readKeys decodes the key block at IO_SIZE: counts, fixed key records, key
// part records, the name list and the optional key comments.
func readKeys(c *binaryCursor, g Geometry) ([]KeyDescriptor, error) {
	c.stage = "keys"
	if err := c.seek(g.KeyBlockOffset); err != nil {
		return nil, err
	}
	head, err := c.read(6)
	if err != nil {
		return nil, err
	}
	keyCount, _ := decodeKeyCounts(head)
	if keyCount == 0 {
		return nil, nil
	}

	keys := make([]KeyDescriptor, keyCount)
	for i := range keys {
		rec, err := c.read(keyRecordSize)
		if err != nil {
			return nil, err
		}
		flags := uint16(le16(rec, 0)) ^ haNoSame
		k := KeyDescriptor{
			Flags:     flags,
			Unique:    flags&haNoSame != 0,
			KeyLength: uint16(le16(rec, 2)),
			Algorithm: KeyAlgorithm(rec[5]),
			BlockSize: uint16(le16(rec, 6)),
		}
		numParts := int(rec[4])
		k.Parts = make([]KeyPart, numParts)
		for j := range k.Parts {
			p, err := c.read(keyPartRecordSize)
			if err != nil {
				return nil, err
			}
			k.Parts[j] = KeyPart{
				FieldNr: le16(p, 0) & fieldNrMask,
				Offset:  le16(p, 2) - 1,
				Flag:    p[4],
				KeyType: uint16(le16(p, 5)),
				Length:  le16(p, 7),
			}
		}
		keys[i] = k
	}

	names, err := readNameList(c)
	if err != nil {
		return nil, err
	}
	for i := range keys {
		if i < len(names) {
			keys[i].Name = names[i]
		}
	}

	for i := range keys {
		if keys[i].Flags&haUsesComment == 0 {
			continue
		}
		comment, err := c.string16()
		if err != nil {
			return nil, err
		}
		keys[i].Comment = comment
	}

	for i := range keys {
		if keys[i].IsPrimary() {
			keys[i].Unique = true
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].IsPrimary() && !keys[j].IsPrimary()
	})
	return keys, nil
}

// decodeKeyCounts reads the key and key-part counts from the 6-byte key block
// head. Counts above 127 use the extended encoding flagged by the high bit.
func decodeKeyCounts(head []byte) (keys, parts int) {
	if head[0]&0x80 != 0 {
		return int(head[1])<<7 | int(head[0]&0x7F), le16(head, 2)
	}
	return int(head[0]), int(head[1])
}

// encodeKeyCounts is the inverse of decodeKeyCounts.
func encodeKeyCounts(keys, parts int) [4]byte {
	var b [4]byte
	if keys > 127 || parts > 127 {
		b[0] = byte(keys&0x7F) | 0x80
		b[1] = byte(keys >> 7)
		b[2] = byte(parts)
		b[3] = byte(parts >> 8)
		return b
	}
	b[0] = byte(keys)
	b[1] = byte(parts)
	return b
}

// readNameList reads a separator-delimited name list terminated by a NUL
// byte. The first byte is the separator, historically 0xFF.
func readNameList(c *binaryCursor) ([]string, error) {
	sep, err := c.uint8()
	if err != nil {
		return nil, err
	}
	if sep == 0 {
		return nil, nil
	}
	var names []string
	var cur []byte
	for {
		b, err := c.uint8()
		if err != nil {
			return nil, err
		}
		switch b {
		case 0:
			if len(cur) > 0 {
				return nil, c.fail(fmt.Errorf("%w: name list ends without separator", ErrUnsupportedFormat))
			}
			return names, nil
		case sep:
			names = append(names, string(cur))
			cur = cur[:0]
		default:
			cur = append(cur, b)
		}
	}
}
