package claim

import (
	"encoding/binary"
	"fmt"
)

// LocateOutput extracts the locking script and value of output vout from a
// raw transaction's bytes, in the same wire layout BuildClaimTx emits:
// version(4) | input_count | inputs | output_count | outputs, each output
// value(8) | script_len | script. This is plain wire parsing, not script
// interpretation, so it stays within this module's scope even though
// opcode-level semantics beyond suffix matching remain out of bounds.
func LocateOutput(rawTx []byte, vout uint32) (script []byte, value uint64, err error) {
	r := &txCursor{b: rawTx}
	if _, err = r.readExact(4); err != nil { // version
		return nil, 0, err
	}

	inputCount, err := r.readCompactSize()
	if err != nil {
		return nil, 0, err
	}
	for i := uint64(0); i < inputCount; i++ {
		if _, err = r.readExact(36); err != nil { // prevout txid+vout
			return nil, 0, err
		}
		sigLen, err := r.readCompactSize()
		if err != nil {
			return nil, 0, err
		}
		if _, err = r.readExact(int(sigLen)); err != nil {
			return nil, 0, err
		}
		if _, err = r.readExact(4); err != nil { // sequence
			return nil, 0, err
		}
	}

	outputCount, err := r.readCompactSize()
	if err != nil {
		return nil, 0, err
	}
	if uint64(vout) >= outputCount {
		return nil, 0, fmt.Errorf("claim: vout %d out of range (tx has %d outputs)", vout, outputCount)
	}
	for i := uint64(0); i < outputCount; i++ {
		valBytes, err := r.readExact(8)
		if err != nil {
			return nil, 0, err
		}
		scriptLen, err := r.readCompactSize()
		if err != nil {
			return nil, 0, err
		}
		scriptBytes, err := r.readExact(int(scriptLen))
		if err != nil {
			return nil, 0, err
		}
		if i == uint64(vout) {
			return append([]byte(nil), scriptBytes...), binary.LittleEndian.Uint64(valBytes), nil
		}
	}
	return nil, 0, fmt.Errorf("claim: vout %d not found", vout)
}

// txCursor is a forward-only reader, duplicated locally rather than shared
// with contract.cursor: each package owns its own small wire-reading
// helper rather than a central parser.
type txCursor struct {
	b   []byte
	pos int
}

func (r *txCursor) readExact(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.b) {
		return nil, fmt.Errorf("claim: truncated transaction")
	}
	start := r.pos
	r.pos += n
	return r.b[start:r.pos], nil
}

func (r *txCursor) readCompactSize() (uint64, error) {
	b, err := r.readExact(1)
	if err != nil {
		return 0, err
	}
	switch b[0] {
	case 0xFD:
		v, err := r.readExact(2)
		if err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(v)), nil
	case 0xFE:
		v, err := r.readExact(4)
		if err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(v)), nil
	case 0xFF:
		v, err := r.readExact(8)
		if err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(v), nil
	default:
		return uint64(b[0]), nil
	}
}
