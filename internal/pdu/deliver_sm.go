package pdu

import (
	"fmt"
	"time"

	smpptime "github.com/smppsim/smppsim/internal/smpptime"
)

// DeliverSm contains mandatory fields for delivering short message.
// There is no need to set SmLength it will be automatically set when
// encoding pdu to binary representation.
type DeliverSm struct {
	ServiceType          string
	SourceAddrTon        int
	SourceAddrNpi        int
	SourceAddr           string
	DestAddrTon          int
	DestAddrNpi          int
	DestinationAddr      string
	EsmClass             EsmClass
	ProtocolID           int
	PriorityFlag         int
	ScheduleDeliveryTime time.Time
	ValidityPeriod       time.Time
	RegisteredDelivery   RegisteredDelivery
	ReplaceIfPresentFlag int
	DataCoding           int
	SmDefaultMsgID       int
	ShortMessage         string
	Options              *Options
}

// CommandID implements pdu.PDU interface.
func (p DeliverSm) CommandID() CommandID {
	return DeliverSmID
}

// Response creates new DeliverSmResp.
func (p DeliverSm) Response(msgID string) *DeliverSmResp {
	return &DeliverSmResp{
		MessageID: msgID,
	}
}

// MarshalBinary implements encoding.BinaryMarshaler interface.
func (p DeliverSm) MarshalBinary() ([]byte, error) {
	w := &fieldWriter{}
	w.cOctetString(p.ServiceType)
	w.octet(byte(p.SourceAddrTon))
	w.octet(byte(p.SourceAddrNpi))
	w.cOctetString(p.SourceAddr)
	w.octet(byte(p.DestAddrTon))
	w.octet(byte(p.DestAddrNpi))
	w.cOctetString(p.DestinationAddr)
	w.octet(p.EsmClass.Byte())
	w.octet(byte(p.ProtocolID))
	w.octet(byte(p.PriorityFlag))
	sched, err := writeTime(smpptime.Absolute, p.ScheduleDeliveryTime)
	if err != nil {
		return nil, err
	}
	w.raw(sched)
	valid, err := writeTime(smpptime.Absolute, p.ValidityPeriod)
	if err != nil {
		return nil, err
	}
	w.raw(valid)
	w.octet(p.RegisteredDelivery.Byte())
	w.octet(byte(p.ReplaceIfPresentFlag))
	w.octet(byte(p.DataCoding))
	w.octet(byte(p.SmDefaultMsgID))
	w.octetString(p.ShortMessage)
	if p.Options == nil {
		return w.bytes(), nil
	}
	opts, err := p.Options.MarshalBinary()
	if err != nil {
		return nil, err
	}
	w.raw(opts)
	return w.bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler interface.
func (p *DeliverSm) UnmarshalBinary(body []byte) error {
	if len(body) < 25 {
		return fmt.Errorf("smpp/pdu: deliver_sm body too short: %d", len(body))
	}
	r := newFieldReader(body)
	if err := readSmPrefix(r, &p.ServiceType, &p.SourceAddrTon, &p.SourceAddrNpi, &p.SourceAddr,
		&p.DestAddrTon, &p.DestAddrNpi, &p.DestinationAddr, &p.EsmClass, &p.ProtocolID, &p.PriorityFlag,
		&p.ScheduleDeliveryTime, &p.ValidityPeriod, &p.RegisteredDelivery, &p.ReplaceIfPresentFlag,
		&p.DataCoding, &p.SmDefaultMsgID); err != nil {
		return err
	}
	sm, err := r.octetString("short_message", 254)
	if err != nil {
		return fmt.Errorf("smpp/pdu: decoding short_message %w", err)
	}
	p.ShortMessage = sm
	if r.left() == 0 {
		return nil
	}
	p.Options = NewOptions()
	return p.Options.UnmarshalBinary(r.rest())
}

// DeliverSmResp contains mandatory fields for deliver_sm response.
type DeliverSmResp struct {
	MessageID string
}

// CommandID implements pdu.PDU interface.
func (p DeliverSmResp) CommandID() CommandID {
	return DeliverSmRespID
}

// MarshalBinary implements encoding.BinaryMarshaler interface.
func (p DeliverSmResp) MarshalBinary() ([]byte, error) {
	return []byte{0}, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler interface.
func (p *DeliverSmResp) UnmarshalBinary(body []byte) error {
	return nil
}
