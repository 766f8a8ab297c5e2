package pdu

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// fieldReader walks a PDU body left to right, exposing typed accessors for
// the handful of field shapes the SMPP wire format uses: fixed-width
// integers, NUL-terminated C-octet strings and length-prefixed octet
// strings. It replaces ad-hoc byte slicing with named, boundary-checked
// steps so each PDU's UnmarshalBinary reads as a list of its fields.
type fieldReader struct {
	body []byte
	pos  int
}

func newFieldReader(body []byte) *fieldReader {
	return &fieldReader{body: body}
}

// left reports how many bytes are still unread.
func (r *fieldReader) left() int {
	return len(r.body) - r.pos
}

// rest returns every byte not yet consumed, for callers (Options) that take
// over parsing the remainder of a body themselves.
func (r *fieldReader) rest() []byte {
	return r.body[r.pos:]
}

func (r *fieldReader) octet() (byte, error) {
	if r.left() < 1 {
		return 0, fmt.Errorf("smpp/pdu: unexpected end of body at offset %d", r.pos)
	}
	b := r.body[r.pos]
	r.pos++
	return b, nil
}

// uint32 reads a 4-byte big-endian integer, the shape every header field
// uses.
func (r *fieldReader) uint32(field string) (uint32, error) {
	if r.left() < 4 {
		return 0, fmt.Errorf("smpp/pdu: decoding %s: unexpected end of body at offset %d", field, r.pos)
	}
	v := binary.BigEndian.Uint32(r.body[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

// uint16 reads a 2-byte big-endian integer, the shape TLV tag and length
// fields use.
func (r *fieldReader) uint16(field string) (uint16, error) {
	if r.left() < 2 {
		return 0, fmt.Errorf("smpp/pdu: decoding %s: unexpected end of body at offset %d", field, r.pos)
	}
	v := binary.BigEndian.Uint16(r.body[r.pos : r.pos+2])
	r.pos += 2
	return v, nil
}

// fixed reads exactly n raw bytes.
func (r *fieldReader) fixed(n int) ([]byte, error) {
	if r.left() < n {
		return nil, fmt.Errorf("smpp/pdu: unexpected end of body at offset %d", r.pos)
	}
	b := r.body[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *fieldReader) int1(field string) (int, error) {
	b, err := r.octet()
	if err != nil {
		return 0, fmt.Errorf("smpp/pdu: decoding %s: %w", field, err)
	}
	return int(b), nil
}

// cOctetString reads bytes up to and including the next NUL, returning the
// bytes before it. maxLen bounds how many bytes (NUL included) are scanned
// before the field is considered malformed.
func (r *fieldReader) cOctetString(field string, maxLen int) (string, error) {
	for i := 0; ; i++ {
		if i == maxLen {
			return "", fmt.Errorf("smpp/pdu: decoding %s: exceeds max length %d", field, maxLen)
		}
		b, err := r.octet()
		if err != nil {
			return "", fmt.Errorf("smpp/pdu: decoding %s: %w", field, err)
		}
		if b == 0 {
			return string(r.body[r.pos-i-1 : r.pos-1]), nil
		}
	}
}

// octetString reads a one-byte length prefix followed by that many raw
// bytes - the shape used for short_message.
func (r *fieldReader) octetString(field string, maxLen int) (string, error) {
	n, err := r.octet()
	if err != nil {
		return "", fmt.Errorf("smpp/pdu: decoding %s length: %w", field, err)
	}
	if int(n) > maxLen {
		return "", fmt.Errorf("smpp/pdu: decoding %s: length %d exceeds max %d", field, n, maxLen)
	}
	if r.left() < int(n) {
		return "", fmt.Errorf("smpp/pdu: decoding %s: short body", field)
	}
	start := r.pos
	r.pos += int(n)
	return string(r.body[start:r.pos]), nil
}

// fieldWriter accumulates a PDU body field by field, mirroring fieldReader's
// vocabulary on the write side.
type fieldWriter struct {
	buf bytes.Buffer
}

func (w *fieldWriter) cOctetString(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte(0)
}

func (w *fieldWriter) octetString(s string) {
	w.buf.WriteByte(byte(len(s)))
	w.buf.WriteString(s)
}

func (w *fieldWriter) octet(b byte) {
	w.buf.WriteByte(b)
}

func (w *fieldWriter) raw(b []byte) {
	w.buf.Write(b)
}

// tlv writes one tag-length-value triplet, the shape every optional SMPP
// field uses.
func (w *fieldWriter) tlv(tag uint16, val []byte) {
	var hdr [4]byte
	binary.BigEndian.PutUint16(hdr[:2], tag)
	binary.BigEndian.PutUint16(hdr[2:], uint16(len(val)))
	w.buf.Write(hdr[:])
	w.buf.Write(val)
}

func (w *fieldWriter) bytes() []byte {
	return w.buf.Bytes()
}

// respBody is the shape shared by every *_resp PDU that carries nothing but
// a single C-octet string followed by optional TLVs (Bind*Resp,
// SubmitSmResp, QuerySmResp's message_id prefix is handled separately).
func marshalCOctetResp(value string, opts *Options) ([]byte, error) {
	w := &fieldWriter{}
	w.cOctetString(value)
	if opts == nil {
		return w.bytes(), nil
	}
	tlv, err := opts.MarshalBinary()
	if err != nil {
		return nil, err
	}
	w.raw(tlv)
	return w.bytes(), nil
}

func unmarshalCOctetResp(body []byte) (string, *Options, error) {
	r := newFieldReader(body)
	value, err := r.cOctetString("c_octet_resp", len(body)+1)
	if err != nil {
		return "", nil, err
	}
	var opts *Options
	if r.left() > 0 {
		opts = NewOptions()
		if err := opts.UnmarshalBinary(r.rest()); err != nil {
			return "", nil, err
		}
	}
	return value, opts, nil
}
