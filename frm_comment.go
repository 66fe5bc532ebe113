package main

import "fmt"

// readTableComment reads the table comment. Short comments live in the
// form-info block; a stored length of 255 means the comment is kept in the
// extra segment, right after the partition section.
func readTableComment(c *binaryCursor, g Geometry, engine EngineInfo) (string, error) {
	c.stage = "comment"
	if err := c.seek(g.FormInfoOffset + formCommentLen); err != nil {
		return "", err
	}
	n, err := c.uint8()
	if err != nil {
		return "", err
	}
	if n != 0xFF {
		b, err := c.read(int(n))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	s := extraSegment{buf: engine.tail}
	comment, ok := s.string16()
	if !ok {
		return "", c.fail(fmt.Errorf("%w: long table comment missing from extra segment", ErrTruncatedRecord))
	}
	return comment, nil
}
