package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// binaryCursor is a seek-based little-endian reader over a .frm byte stream.
// Every failure is reported as a *DecodeError tagged with the current stage.
type binaryCursor struct {
	r     io.ReadSeeker
	path  string
	stage string
	pos   int64
	size  int64 // stream length, -1 until first needed
}

func newBinaryCursor(r io.ReadSeeker, path string) *binaryCursor {
	return &binaryCursor{r: r, path: path, size: -1}
}

func (c *binaryCursor) fail(err error) error {
	return &DecodeError{Path: c.path, Stage: c.stage, Offset: c.pos, Err: err}
}

func (c *binaryCursor) seek(off int64) error {
	if _, err := c.r.Seek(off, io.SeekStart); err != nil {
		c.pos = off
		return c.fail(fmt.Errorf("%w: seek: %v", ErrUnreadableFile, err))
	}
	c.pos = off
	return nil
}

func (c *binaryCursor) skip(n int64) error {
	return c.seek(c.pos + n)
}

// remaining returns the number of bytes between the current position and the
// end of the stream.
func (c *binaryCursor) remaining() (int64, error) {
	if c.size < 0 {
		end, err := c.r.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, c.fail(fmt.Errorf("%w: seek: %v", ErrUnreadableFile, err))
		}
		if _, err := c.r.Seek(c.pos, io.SeekStart); err != nil {
			return 0, c.fail(fmt.Errorf("%w: seek: %v", ErrUnreadableFile, err))
		}
		c.size = end
	}
	return c.size - c.pos, nil
}

// read returns exactly n bytes or ErrTruncatedRecord. Lengths taken from the
// file are checked against the stream size before anything is allocated.
func (c *binaryCursor) read(n int) ([]byte, error) {
	left, err := c.remaining()
	if err != nil {
		return nil, err
	}
	if n < 0 || int64(n) > left {
		if left < 0 {
			left = 0
		}
		return nil, c.fail(fmt.Errorf("%w: want %d bytes, %d left", ErrTruncatedRecord, n, left))
	}
	buf := make([]byte, n)
	got, err := io.ReadFull(c.r, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, c.fail(fmt.Errorf("%w: want %d bytes, got %d", ErrTruncatedRecord, n, got))
		}
		return nil, c.fail(fmt.Errorf("%w: %v", ErrUnreadableFile, err))
	}
	c.pos += int64(n)
	return buf, nil
}

func (c *binaryCursor) uint8() (uint8, error) {
	b, err := c.read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *binaryCursor) uint16() (uint16, error) {
	b, err := c.read(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// string16 reads a string prefixed by a 2-byte length.
func (c *binaryCursor) string16() (string, error) {
	n, err := c.uint16()
	if err != nil {
		return "", err
	}
	b, err := c.read(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// rest reads until end of stream.
func (c *binaryCursor) rest() ([]byte, error) {
	b, err := io.ReadAll(c.r)
	if err != nil {
		return nil, c.fail(fmt.Errorf("%w: %v", ErrUnreadableFile, err))
	}
	c.pos += int64(len(b))
	return b, nil
}

func le16(b []byte, off int) int {
	return int(binary.LittleEndian.Uint16(b[off:]))
}

func le24(b []byte, off int) int {
	return int(b[off]) | int(b[off+1])<<8 | int(b[off+2])<<16
}

func le32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off:])
}
