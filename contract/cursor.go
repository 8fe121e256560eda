package contract

import (
	"encoding/binary"
	"fmt"
)

// cursor is a forward-only reader over a script's raw bytes, grounded on
// the same read-exact-then-advance shape used across this codebase's wire
// parsing.
type cursor struct {
	b   []byte
	pos int
}

func newCursor(b []byte) *cursor {
	return &cursor{b: b}
}

func (c *cursor) remaining() int {
	if c.pos >= len(c.b) {
		return 0
	}
	return len(c.b) - c.pos
}

func (c *cursor) readExact(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, fmt.Errorf("contract: truncated script")
	}
	start := c.pos
	c.pos += n
	return c.b[start:c.pos], nil
}

func (c *cursor) readU8() (byte, error) {
	b, err := c.readExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readU32LE() (uint32, error) {
	b, err := c.readExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// readPush reads one push opcode: a single length-prefix byte (1..75,
// minimally-encoded data pushes only — the template never emits OP_PUSHDATA1+)
// followed by that many data bytes.
func (c *cursor) readPush() ([]byte, error) {
	n, err := c.readU8()
	if err != nil {
		return nil, err
	}
	if n == 0 || n > 75 {
		return nil, fmt.Errorf("contract: push length %d outside minimal range", n)
	}
	return c.readExact(int(n))
}

const opPushData1 byte = 0x4c

// readAnyPush reads either a minimal push (length byte 1..75) or an
// OP_PUSHDATA1 push (opcode 0x4c, one length byte 76..255), the two forms
// the message sibling's payload may use once it exceeds 75 bytes.
func (c *cursor) readAnyPush() ([]byte, error) {
	save := c.pos
	n, err := c.readU8()
	if err != nil {
		return nil, err
	}
	if n >= 1 && n <= 75 {
		return c.readExact(int(n))
	}
	if n == opPushData1 {
		ln, err := c.readU8()
		if err != nil {
			return nil, err
		}
		return c.readExact(int(ln))
	}
	c.pos = save
	return nil, fmt.Errorf("contract: not a push opcode at offset %d", save)
}

// readMinimalInt reads one push and decodes it as a non-negative
// little-endian integer, rejecting non-minimal (trailing zero byte)
// encodings the way the reference script's minimal-push rule requires.
func (c *cursor) readMinimalInt() (uint64, error) {
	data, err := c.readPush()
	if err != nil {
		return 0, err
	}
	if len(data) > 8 {
		return 0, fmt.Errorf("contract: minimal push too wide for uint64")
	}
	// A trailing zero byte is only legitimate when the prior byte's high
	// bit is set (sign-disambiguation padding); otherwise it is padding
	// the encoder had no reason to emit.
	if len(data) > 1 && data[len(data)-1] == 0 && data[len(data)-2]&0x80 == 0 {
		return 0, fmt.Errorf("contract: non-minimal numeric push")
	}
	var v uint64
	for i := len(data) - 1; i >= 0; i-- {
		v = v<<8 | uint64(data[i])
	}
	return v, nil
}
