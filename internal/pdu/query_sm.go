package pdu

import (
	"fmt"
	"time"

	smpptime "github.com/smppsim/smppsim/internal/smpptime"
)

// QuerySm represents quering PDU.
type QuerySm struct {
	MessageID     string
	SourceAddrTon int
	SourceAddrNpi int
	SourceAddr    string
}

// CommandID implements pdu.PDU interface.
func (p QuerySm) CommandID() CommandID {
	return QuerySmID
}

// Response creates new QuerySmResp.
func (p QuerySm) Response(date time.Time, state, err int) *QuerySmResp {
	return &QuerySmResp{
		MessageID:    p.MessageID,
		FinalDate:    date,
		MessageState: state,
		ErrorCode:    err,
	}
}

// MarshalBinary implements encoding.BinaryMarshaler interface.
func (p QuerySm) MarshalBinary() ([]byte, error) {
	w := &fieldWriter{}
	w.cOctetString(p.MessageID)
	w.octet(byte(p.SourceAddrTon))
	w.octet(byte(p.SourceAddrNpi))
	w.cOctetString(p.SourceAddr)
	return w.bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler interface.
func (p *QuerySm) UnmarshalBinary(body []byte) error {
	if len(body) < 6 {
		return fmt.Errorf("smpp/pdu: query_sm body too short: %d", len(body))
	}
	r := newFieldReader(body)
	var err error
	if p.MessageID, err = r.cOctetString("message_id", 65); err != nil {
		return err
	}
	if p.SourceAddrTon, err = r.int1("source_addr_ton"); err != nil {
		return err
	}
	if p.SourceAddrNpi, err = r.int1("source_addr_npi"); err != nil {
		return err
	}
	if p.SourceAddr, err = r.cOctetString("source_addr", 21); err != nil {
		return err
	}
	return nil
}

// QuerySmResp holds response to query_sm PDU.
type QuerySmResp struct {
	MessageID    string
	FinalDate    time.Time
	MessageState int
	ErrorCode    int
}

// CommandID implements pdu.PDU interface.
func (p QuerySmResp) CommandID() CommandID {
	return QuerySmRespID
}

// MarshalBinary implements encoding.BinaryMarshaler interface.
func (p QuerySmResp) MarshalBinary() ([]byte, error) {
	w := &fieldWriter{}
	w.cOctetString(p.MessageID)
	tm, err := writeTime(smpptime.Absolute, p.FinalDate)
	if err != nil {
		return nil, err
	}
	w.raw(tm)
	w.octet(byte(p.MessageState))
	w.octet(byte(p.ErrorCode))
	return w.bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler interface.
func (p *QuerySmResp) UnmarshalBinary(body []byte) error {
	if len(body) < 6 {
		return fmt.Errorf("smpp/pdu: query_sm_resp body too short: %d", len(body))
	}
	r := newFieldReader(body)
	msgID, err := r.cOctetString("message_id", 65)
	if err != nil {
		return err
	}
	p.MessageID = msgID
	dateStr, err := r.cOctetString("final_date", 17)
	if err != nil {
		return err
	}
	t, err := smpptime.Parse([]byte(dateStr))
	if err != nil {
		return fmt.Errorf("smpp/pdu: decoding final_date %w", err)
	}
	p.FinalDate = t
	if p.MessageState, err = r.int1("message_state"); err != nil {
		return err
	}
	if p.ErrorCode, err = r.int1("error_code"); err != nil {
		return err
	}
	return nil
}
