package pdu

import (
	"encoding"
	"errors"
)

// Header is the fixed 16-byte prefix every PDU carries: total length,
// command id, status and sequence number, all big-endian uint32.
type Header interface {
	encoding.BinaryUnmarshaler
	Length() uint32
	CommandID() CommandID
	Status() Status
	Sequence() uint32
}

type header struct {
	length    uint32
	commandID CommandID
	status    Status
	sequence  uint32
}

func (h header) Length() uint32       { return h.length }
func (h header) CommandID() CommandID { return h.commandID }
func (h header) Status() Status       { return h.status }
func (h header) Sequence() uint32     { return h.sequence }

// UnmarshalBinary implements encoding.BinaryUnmarshaler interface.
func (h *header) UnmarshalBinary(body []byte) error {
	r := newFieldReader(body)
	length, err := r.uint32("command_length")
	if err != nil {
		return err
	}
	if length < 16 {
		return errors.New("smpp: pdu length under lower limit")
	}
	if length > MaxPDUSize {
		return errors.New("smpp: pdu length over upper limit")
	}
	commandID, err := r.uint32("command_id")
	if err != nil {
		return err
	}
	status, err := r.uint32("command_status")
	if err != nil {
		return err
	}
	sequence, err := r.uint32("sequence_number")
	if err != nil {
		return err
	}
	h.length = length
	h.commandID = CommandID(commandID)
	h.status = Status(status)
	h.sequence = sequence
	return nil
}
