package contract

// BuildStateScript re-encodes state as a V1 locking script: the exact
// inverse of Parse for the fields Parse reads. Used by the claim
// coordinator to reconstruct the next-state contract output.
func BuildStateScript(state State) []byte {
	var script []byte
	script = append(script, 4,
		byte(state.Height), byte(state.Height>>8), byte(state.Height>>16), byte(state.Height>>24))
	script = append(script, opPushInputRefSingleton)
	script = append(script, state.ContractRef[:]...)
	script = append(script, opPushInputRef)
	script = append(script, state.TokenRef[:]...)
	script = appendMinimalPush(script, state.MaxHeight)
	script = appendMinimalPush(script, state.Reward)
	script = appendMinimalPush(script, state.Target)

	if state.Layout == LayoutV2 {
		script = append(script, byte(state.AlgoID))
		script = append(script, byte(state.LastTime), byte(state.LastTime>>8), byte(state.LastTime>>16), byte(state.LastTime>>24))
		script = appendMinimalPush(script, state.TargetTime)
		script = append(script, templateTailV2...)
		return script
	}
	script = append(script, templateTailV1...)
	return script
}

// BuildBurnScript encodes the terminal burn sibling output script for ref.
func BuildBurnScript(ref [36]byte) []byte {
	var script []byte
	script = append(script, opPushInputRefSingleton)
	script = append(script, ref[:]...)
	script = append(script, opReturn)
	return script
}

// BuildMessageOutput encodes message as a message sibling output script:
// OP_RETURN push("msg") push(utf8), the inverse of ParseMessageOutput.
// message is truncated to maxMessageBytes before encoding.
func BuildMessageOutput(message string) []byte {
	payload := []byte(message)
	if len(payload) > maxMessageBytes {
		payload = payload[:maxMessageBytes]
	}
	script := []byte{opReturn}
	script = append(script, byte(len(msgMarker)))
	script = append(script, msgMarker...)
	script = appendAnyPush(script, payload)
	return script
}

// appendAnyPush appends data as a minimal push (length byte 1..75) or an
// OP_PUSHDATA1 push for longer payloads, mirroring cursor.readAnyPush.
func appendAnyPush(dst, data []byte) []byte {
	if len(data) <= 75 {
		return append(append(dst, byte(len(data))), data...)
	}
	dst = append(dst, opPushData1, byte(len(data)))
	return append(dst, data...)
}

// appendMinimalPush appends v as a minimally-encoded little-endian push
// (the inverse of cursor.readMinimalInt).
func appendMinimalPush(dst []byte, v uint64) []byte {
	if v == 0 {
		return append(dst, 1, 0)
	}
	var data []byte
	for v > 0 {
		data = append(data, byte(v))
		v >>= 8
	}
	if data[len(data)-1]&0x80 != 0 {
		data = append(data, 0)
	}
	return append(append(dst, byte(len(data))), data...)
}
