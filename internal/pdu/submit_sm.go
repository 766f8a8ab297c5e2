package pdu

import (
	"fmt"
	"time"

	smpptime "github.com/smppsim/smppsim/internal/smpptime"
)

// SubmitSm contains mandatory fields for submiting short message.
// There is no need to set SmLength it will be automatically set when
// encoding pdu to binary representation.
// Also long ShortMessages will be marshaled as payload in options.
type SubmitSm struct {
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
func (p SubmitSm) CommandID() CommandID {
	return SubmitSmID
}

// Response creates new SubmitSmResp.
func (p SubmitSm) Response(msgID string) *SubmitSmResp {
	return &SubmitSmResp{
		MessageID: msgID,
	}
}

// MarshalBinary implements encoding.BinaryMarshaler interface.
func (p SubmitSm) MarshalBinary() ([]byte, error) {
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
func (p *SubmitSm) UnmarshalBinary(body []byte) error {
	if len(body) < 25 {
		return fmt.Errorf("smpp/pdu: submit_sm body too short: %d", len(body))
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

// readSmPrefix decodes the field layout shared by submit_sm and deliver_sm,
// up to (but excluding) short_message.
func readSmPrefix(r *fieldReader, serviceType *string, srcTon, srcNpi *int, src *string,
	dstTon, dstNpi *int, dst *string, esm *EsmClass, protocolID, priority *int,
	schedule, validity *time.Time, regDelivery *RegisteredDelivery, replace, dataCoding, defMsgID *int) error {
	var err error
	if *serviceType, err = r.cOctetString("service_type", 6); err != nil {
		return fmt.Errorf("smpp/pdu: decoding service_type %w", err)
	}
	if *srcTon, err = r.int1("source_addr_ton"); err != nil {
		return err
	}
	if *srcNpi, err = r.int1("source_addr_npi"); err != nil {
		return err
	}
	if *src, err = r.cOctetString("source_addr", 21); err != nil {
		return err
	}
	if *dstTon, err = r.int1("dest_addr_ton"); err != nil {
		return err
	}
	if *dstNpi, err = r.int1("dest_addr_npi"); err != nil {
		return err
	}
	if *dst, err = r.cOctetString("dest_addr", 21); err != nil {
		return err
	}
	b, err := r.octet()
	if err != nil {
		return fmt.Errorf("smpp/pdu: decoding esm_class %w", err)
	}
	*esm = ParseEsmClass(b)
	if *protocolID, err = r.int1("protocol_id"); err != nil {
		return err
	}
	if *priority, err = r.int1("priority_flag"); err != nil {
		return err
	}
	schedStr, err := r.cOctetString("schedule_delivery_time", 17)
	if err != nil {
		return err
	}
	if *schedule, err = smpptime.Parse([]byte(schedStr)); err != nil {
		return fmt.Errorf("smpp/pdu: decoding schedule_delivery_time %w", err)
	}
	validStr, err := r.cOctetString("validity_period", 17)
	if err != nil {
		return err
	}
	if *validity, err = smpptime.Parse([]byte(validStr)); err != nil {
		return fmt.Errorf("smpp/pdu: decoding validity_period %w", err)
	}
	b, err = r.octet()
	if err != nil {
		return fmt.Errorf("smpp/pdu: decoding registered_delivery %w", err)
	}
	*regDelivery = ParseRegisteredDelivery(b)
	if *replace, err = r.int1("replace_if_present_flag"); err != nil {
		return err
	}
	if *dataCoding, err = r.int1("data_coding"); err != nil {
		return err
	}
	if *defMsgID, err = r.int1("sm_default_msg_id"); err != nil {
		return err
	}
	return nil
}

// SubmitSmResp contains mandatory fields for submit_sm response.
type SubmitSmResp struct {
	MessageID string
	Options   *Options
}

// CommandID implements pdu.PDU interface.
func (p SubmitSmResp) CommandID() CommandID {
	return SubmitSmRespID
}

// MarshalBinary implements encoding.BinaryMarshaler interface.
func (p SubmitSmResp) MarshalBinary() ([]byte, error) {
	return marshalCOctetResp(p.MessageID, p.Options)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler interface.
func (p *SubmitSmResp) UnmarshalBinary(body []byte) error {
	var err error
	p.MessageID, p.Options, err = unmarshalCOctetResp(body)
	return err
}
