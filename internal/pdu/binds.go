package pdu

import (
	"fmt"
)

// bindBody is the mandatory field set shared by bind_transmitter,
// bind_receiver and bind_transceiver: only the command id differs between
// the three bind flavors.
type bindBody struct {
	SystemID         string
	Password         string
	SystemType       string
	InterfaceVersion int
	AddrTon          int
	AddrNpi          int
	AddressRange     string
}

func (b bindBody) marshal() ([]byte, error) {
	w := &fieldWriter{}
	w.cOctetString(b.SystemID)
	w.cOctetString(b.Password)
	w.cOctetString(b.SystemType)
	w.octet(byte(b.InterfaceVersion))
	w.octet(byte(b.AddrTon))
	w.octet(byte(b.AddrNpi))
	w.cOctetString(b.AddressRange)
	return w.bytes(), nil
}

func (b *bindBody) unmarshal(body []byte) error {
	if len(body) < 7 {
		return fmt.Errorf("smpp/pdu: bind body too short: %d", len(body))
	}
	r := newFieldReader(body)
	var err error
	if b.SystemID, err = r.cOctetString("system_id", 16); err != nil {
		return err
	}
	if b.Password, err = r.cOctetString("password", 9); err != nil {
		return err
	}
	if b.SystemType, err = r.cOctetString("system_type", 13); err != nil {
		return err
	}
	if b.InterfaceVersion, err = r.int1("interface_version"); err != nil {
		return err
	}
	if b.AddrTon, err = r.int1("addr_ton"); err != nil {
		return err
	}
	if b.AddrNpi, err = r.int1("addr_npi"); err != nil {
		return err
	}
	if b.AddressRange, err = r.cOctetString("address_range", 41); err != nil {
		return err
	}
	return nil
}

// BindTx binding pdu in transmitter mode.
type BindTx struct {
	SystemID         string
	Password         string
	SystemType       string
	InterfaceVersion int
	AddrTon          int
	AddrNpi          int
	AddressRange     string
}

// CommandID implements pdu.PDU interface.
func (p BindTx) CommandID() CommandID {
	return BindTransmitterID
}

// Response creates new BindTxResp.
func (p BindTx) Response(sysID string) *BindTxResp {
	return &BindTxResp{SystemID: sysID}
}

// MarshalBinary implements encoding.BinaryMarshaler interface.
func (p BindTx) MarshalBinary() ([]byte, error) {
	return p.asBindBody().marshal()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler interface.
func (p *BindTx) UnmarshalBinary(body []byte) error {
	var b bindBody
	if err := b.unmarshal(body); err != nil {
		return err
	}
	p.fromBindBody(b)
	return nil
}

func (p BindTx) asBindBody() bindBody {
	return bindBody{p.SystemID, p.Password, p.SystemType, p.InterfaceVersion, p.AddrTon, p.AddrNpi, p.AddressRange}
}

func (p *BindTx) fromBindBody(b bindBody) {
	p.SystemID, p.Password, p.SystemType = b.SystemID, b.Password, b.SystemType
	p.InterfaceVersion, p.AddrTon, p.AddrNpi, p.AddressRange = b.InterfaceVersion, b.AddrTon, b.AddrNpi, b.AddressRange
}

// BindTxResp bind response.
type BindTxResp struct {
	SystemID string
	Options  *Options
}

// CommandID implements pdu.PDU interface.
func (p BindTxResp) CommandID() CommandID {
	return BindTransmitterRespID
}

// MarshalBinary implements encoding.BinaryMarshaler interface.
func (p BindTxResp) MarshalBinary() ([]byte, error) {
	return marshalCOctetResp(p.SystemID, p.Options)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler interface.
func (p *BindTxResp) UnmarshalBinary(body []byte) error {
	var err error
	p.SystemID, p.Options, err = unmarshalCOctetResp(body)
	return err
}

// BindRx binding pdu in receiver mode.
type BindRx struct {
	SystemID         string
	Password         string
	SystemType       string
	InterfaceVersion int
	AddrTon          int
	AddrNpi          int
	AddressRange     string
}

// CommandID implements pdu.PDU interface.
func (p BindRx) CommandID() CommandID {
	return BindReceiverID
}

// Response creates new BindRxResp.
func (p BindRx) Response(sysID string) *BindRxResp {
	return &BindRxResp{SystemID: sysID}
}

// MarshalBinary implements encoding.BinaryMarshaler interface.
func (p BindRx) MarshalBinary() ([]byte, error) {
	return p.asBindBody().marshal()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler interface.
func (p *BindRx) UnmarshalBinary(body []byte) error {
	var b bindBody
	if err := b.unmarshal(body); err != nil {
		return err
	}
	p.fromBindBody(b)
	return nil
}

func (p BindRx) asBindBody() bindBody {
	return bindBody{p.SystemID, p.Password, p.SystemType, p.InterfaceVersion, p.AddrTon, p.AddrNpi, p.AddressRange}
}

func (p *BindRx) fromBindBody(b bindBody) {
	p.SystemID, p.Password, p.SystemType = b.SystemID, b.Password, b.SystemType
	p.InterfaceVersion, p.AddrTon, p.AddrNpi, p.AddressRange = b.InterfaceVersion, b.AddrTon, b.AddrNpi, b.AddressRange
}

// BindRxResp bind response.
type BindRxResp struct {
	SystemID string
	Options  *Options
}

// CommandID implements pdu.PDU interface.
func (p BindRxResp) CommandID() CommandID {
	return BindReceiverRespID
}

// MarshalBinary implements encoding.BinaryMarshaler interface.
func (p BindRxResp) MarshalBinary() ([]byte, error) {
	return marshalCOctetResp(p.SystemID, p.Options)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler interface.
func (p *BindRxResp) UnmarshalBinary(body []byte) error {
	var err error
	p.SystemID, p.Options, err = unmarshalCOctetResp(body)
	return err
}

// BindTRx binding PDU in transceiver mode.
type BindTRx struct {
	SystemID         string
	Password         string
	SystemType       string
	InterfaceVersion int
	AddrTon          int
	AddrNpi          int
	AddressRange     string
}

// CommandID implements pdu.PDU interface.
func (p BindTRx) CommandID() CommandID {
	return BindTransceiverID
}

// Response creates new BindTRxResp.
func (p BindTRx) Response(sysID string) *BindTRxResp {
	return &BindTRxResp{SystemID: sysID}
}

// MarshalBinary implements encoding.BinaryMarshaler interface.
func (p BindTRx) MarshalBinary() ([]byte, error) {
	return p.asBindBody().marshal()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler interface.
func (p *BindTRx) UnmarshalBinary(body []byte) error {
	var b bindBody
	if err := b.unmarshal(body); err != nil {
		return err
	}
	p.fromBindBody(b)
	return nil
}

func (p BindTRx) asBindBody() bindBody {
	return bindBody{p.SystemID, p.Password, p.SystemType, p.InterfaceVersion, p.AddrTon, p.AddrNpi, p.AddressRange}
}

func (p *BindTRx) fromBindBody(b bindBody) {
	p.SystemID, p.Password, p.SystemType = b.SystemID, b.Password, b.SystemType
	p.InterfaceVersion, p.AddrTon, p.AddrNpi, p.AddressRange = b.InterfaceVersion, b.AddrTon, b.AddrNpi, b.AddressRange
}

// BindTRxResp bind response.
type BindTRxResp struct {
	SystemID string
	Options  *Options
}

// CommandID implements pdu.PDU interface.
func (p BindTRxResp) CommandID() CommandID {
	return BindTransceiverRespID
}

// MarshalBinary implements encoding.BinaryMarshaler interface.
func (p BindTRxResp) MarshalBinary() ([]byte, error) {
	return marshalCOctetResp(p.SystemID, p.Options)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler interface.
func (p *BindTRxResp) UnmarshalBinary(body []byte) error {
	var err error
	p.SystemID, p.Options, err = unmarshalCOctetResp(body)
	return err
}
