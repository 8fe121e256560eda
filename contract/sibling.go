package contract

import (
	"bytes"
	"errors"
)

// IsBurnOutput reports whether script matches the burn sibling template:
// OP_PUSHINPUTREFSINGLETON push(ref) OP_RETURN. A transaction carrying
// only a burn sibling (no state output) is a terminal mint.
func IsBurnOutput(script []byte, wantRef [36]byte) bool {
	cur := newCursor(script)
	op, err := cur.readU8()
	if err != nil || op != opPushInputRefSingleton {
		return false
	}
	refBytes, err := cur.readExact(36)
	if err != nil {
		return false
	}
	if !bytes.Equal(refBytes, wantRef[:]) {
		return false
	}
	tail, err := cur.readU8()
	if err != nil || tail != opReturn {
		return false
	}
	return cur.remaining() == 0
}

// ParseMessageOutput decodes a message sibling output: OP_RETURN
// push("msg") push(utf8), the payload truncated to 80 bytes. Returns the
// decoded UTF-8 payload, or an error if script is not a message output.
func ParseMessageOutput(script []byte) (string, error) {
	cur := newCursor(script)
	op, err := cur.readU8()
	if err != nil || op != opReturn {
		return "", errors.New("contract: not an OP_RETURN output")
	}
	marker, err := cur.readPush()
	if err != nil {
		return "", err
	}
	if !bytes.Equal(marker, msgMarker) {
		return "", errors.New("contract: missing msg marker")
	}
	payload, err := cur.readAnyPush()
	if err != nil {
		return "", err
	}
	if len(payload) > maxMessageBytes {
		payload = payload[:maxMessageBytes]
	}
	return string(payload), nil
}
