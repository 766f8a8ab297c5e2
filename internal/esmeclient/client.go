// Package esmeclient is a minimal synchronous SMPP client playing the ESME
// role, used to drive internal/smsc in integration tests without a second
// full implementation of the wire protocol.
package esmeclient

import (
	"context"
	"net"
	"time"

	"github.com/smppsim/smppsim/internal/pdu"
	"github.com/smppsim/smppsim/internal/smsc"
)

// BindConf carries the fields common to every bind flavor.
type BindConf struct {
	Addr         string
	SystemID     string
	Password     string
	AddressRange string
}

func dial(sc smsc.SessionConf, bc BindConf, req pdu.PDU) (*smsc.Session, error) {
	conn, err := net.Dial("tcp", bc.Addr)
	if err != nil {
		return nil, err
	}
	sc.Type = smsc.ESME
	sess := smsc.NewSession(conn, sc)

	timeout := sc.WindowTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := sess.Send(ctx, req); err != nil {
		return sess, err
	}
	return sess, nil
}

// BindTransmitter dials addr and binds as a transmitter.
func BindTransmitter(sc smsc.SessionConf, bc BindConf) (*smsc.Session, error) {
	return dial(sc, bc, &pdu.BindTx{
		SystemID:         bc.SystemID,
		Password:         bc.Password,
		InterfaceVersion: 0x34,
		AddressRange:     bc.AddressRange,
	})
}

// BindReceiver dials addr and binds as a receiver.
func BindReceiver(sc smsc.SessionConf, bc BindConf) (*smsc.Session, error) {
	return dial(sc, bc, &pdu.BindRx{
		SystemID:         bc.SystemID,
		Password:         bc.Password,
		InterfaceVersion: 0x34,
		AddressRange:     bc.AddressRange,
	})
}

// BindTransceiver dials addr and binds as a transceiver.
func BindTransceiver(sc smsc.SessionConf, bc BindConf) (*smsc.Session, error) {
	return dial(sc, bc, &pdu.BindTRx{
		SystemID:         bc.SystemID,
		Password:         bc.Password,
		InterfaceVersion: 0x34,
		AddressRange:     bc.AddressRange,
	})
}

// SubmitSm sends a submit_sm and returns the correlated response.
func SubmitSm(ctx context.Context, sess *smsc.Session, p *pdu.SubmitSm) (*pdu.SubmitSmResp, error) {
	resp, err := sess.Send(ctx, p)
	if resp == nil {
		return nil, err
	}
	return resp.(*pdu.SubmitSmResp), err
}

// EnquireLink sends an enquire_link and returns the correlated response.
func EnquireLink(ctx context.Context, sess *smsc.Session) (*pdu.EnquireLinkResp, error) {
	resp, err := sess.Send(ctx, &pdu.EnquireLink{})
	if resp == nil {
		return nil, err
	}
	return resp.(*pdu.EnquireLinkResp), err
}

// Unbind sends an unbind request and closes the session regardless of the
// outcome.
func Unbind(ctx context.Context, sess *smsc.Session) error {
	defer sess.Close()
	_, err := sess.Send(ctx, &pdu.Unbind{})
	return err
}
