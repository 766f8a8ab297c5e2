package pdu

// ProtocolMode selects the leniency of the decoder. Some SMPP 3.4 clients in
// the wild send bind PDUs whose C-octet-string fields are missing their
// trailing NUL terminator. V50 decodes strictly; V34 additionally attempts to
// repair a bind PDU body that fails strict decoding before giving up.
type ProtocolMode int

const (
	// V50 decodes strictly, per the SMPP 5.0 spec.
	V50 ProtocolMode = iota
	// V34 tolerates missing NUL terminators on bind PDU string fields.
	V34
)

// SetMode configures the decoder's leniency. The zero value is V50.
func (d *Decoder) SetMode(m ProtocolMode) {
	d.mode = m
}

func isBindCommand(id CommandID) bool {
	switch id {
	case BindReceiverID, BindTransmitterID, BindTransceiverID:
		return true
	}
	return false
}

// repairBindNULs rebuilds a bind PDU body, inserting a NUL terminator after
// any of system_id, password, system_type or address_range that runs to the
// end of the available bytes without one. Returns the repaired body and
// whether any terminator was actually added; a body that already decodes
// cleanly is never reached by this path, so callers only invoke this on
// decode failure.
func repairBindNULs(body []byte) ([]byte, bool) {
	fixed := make([]byte, 0, len(body)+4)
	pos := 0
	anyFixed := false

	for i := 0; i < 3; i++ {
		end, added := copyCOctetString(body[pos:], &fixed)
		pos += end
		if added {
			anyFixed = true
		}
		if pos >= len(body) {
			return fixed, anyFixed
		}
	}

	// interface_version, addr_ton, addr_npi.
	n := 3
	if rem := len(body) - pos; rem < n {
		n = rem
	}
	fixed = append(fixed, body[pos:pos+n]...)
	pos += n
	if pos >= len(body) {
		return fixed, anyFixed
	}

	end, added := copyCOctetString(body[pos:], &fixed)
	pos += end
	if added {
		anyFixed = true
	}

	if pos < len(body) {
		fixed = append(fixed, body[pos:]...)
	}

	return fixed, anyFixed
}

// copyCOctetString copies src up to and including its first NUL byte into
// *dst, appending a synthetic NUL if src runs out first. Returns the number
// of source bytes consumed and whether a NUL was synthesized.
func copyCOctetString(src []byte, dst *[]byte) (int, bool) {
	for i, b := range src {
		if b == 0 {
			*dst = append(*dst, src[:i+1]...)
			return i + 1, false
		}
	}
	*dst = append(*dst, src...)
	*dst = append(*dst, 0)
	return len(src), true
}
