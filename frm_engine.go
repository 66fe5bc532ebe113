package main

import (
	"bytes"
	"fmt"
	"strings"
)

// readEngine decodes the extra segment that follows the default row:
// connection string, engine name, partition text and one fulltext parser
// name per key flagged with haUsesParser, stored into keys. Whatever follows
// is kept for the comment decoder.
func readEngine(c *binaryCursor, g Geometry, h FileHeader, keys []KeyDescriptor) (EngineInfo, error) {
	c.stage = "engine"
	var info EngineInfo
	if g.ExtraSize < 2 {
		return info, nil
	}
	if err := c.seek(g.ExtraOffset); err != nil {
		return info, err
	}
	buf, err := c.read(int(g.ExtraSize))
	if err != nil {
		return info, err
	}

	s := extraSegment{buf: buf}
	conn, ok := s.string16()
	if !ok {
		return info, nil
	}
	info.Connection = conn

	name, ok := s.string16()
	if !ok {
		return info, nil
	}
	info.Name = name

	if s.remaining() > 5 {
		n := int(le32(s.buf, s.pos))
		s.pos += 4
		if s.pos+n <= len(s.buf) {
			info.Partition = flattenPartition(string(s.buf[s.pos : s.pos+n]))
			// The partition text is NUL terminated.
			s.pos += n + 1
			if h.MySQLVersion >= 50110 && s.remaining() > 0 {
				info.AutoPartition = s.buf[s.pos] != 0
				s.pos++
			}
		}
	}

	for i := range keys {
		if keys[i].Flags&haUsesParser == 0 {
			continue
		}
		parser, ok := s.cstring()
		if !ok {
			return info, c.fail(fmt.Errorf("%w: fulltext parser name for key %q", ErrTruncatedRecord, keys[i].Name))
		}
		keys[i].Parser = parser
	}

	info.tail = s.buf[s.pos:]
	return info, nil
}

// flattenPartition folds the stored partition clause onto one line.
func flattenPartition(p string) string {
	p = strings.ReplaceAll(p, "\r\n", " ")
	p = strings.ReplaceAll(p, "\n", " ")
	return strings.TrimSpace(p)
}

type extraSegment struct {
	buf []byte
	pos int
}

func (s *extraSegment) remaining() int { return len(s.buf) - s.pos }

func (s *extraSegment) string16() (string, bool) {
	if s.remaining() < 2 {
		return "", false
	}
	n := le16(s.buf, s.pos)
	if s.pos+2+n > len(s.buf) {
		return "", false
	}
	v := string(s.buf[s.pos+2 : s.pos+2+n])
	s.pos += 2 + n
	return v, true
}

// cstring reads a NUL-terminated string.
func (s *extraSegment) cstring() (string, bool) {
	end := bytes.IndexByte(s.buf[s.pos:], 0)
	if end < 0 {
		return "", false
	}
	v := string(s.buf[s.pos : s.pos+end])
	s.pos += end + 1
	return v, true
}

// resolveEngineName picks the engine name for the statement: an explicit
// override, then the stored name, then the partition engine, then the legacy code.
func resolveEngineName(override string, info EngineInfo, h FileHeader) string {
	if override != "" {
		return override
	}
	if h.DefaultPartDBType != 0 && (info.Name == "" || strings.EqualFold(info.Name, "partition")) {
		return legacyEngineName(h.DefaultPartDBType)
	}
	if info.Name != "" {
		return info.Name
	}
	return legacyEngineName(h.LegacyDBType)
}
