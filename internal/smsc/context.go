package smsc

import (
	"context"
	"errors"
	"fmt"

	"github.com/smppsim/smppsim/internal/pdu"
)

// Context carries one inbound request through a Handler.
type Context struct {
	sess   *Session
	status pdu.Status
	ctx    context.Context
	seq    uint32
	req    pdu.PDU
	resp   pdu.PDU
	close  bool
}

// SystemID returns the system_id of the bound peer, once known.
func (ctx *Context) SystemID() string {
	return ctx.sess.SystemID()
}

// SessionID returns the id of the session handling this request.
func (ctx *Context) SessionID() string {
	return ctx.sess.ID()
}

// Session returns the underlying session, for handlers that need to reach
// the registry entry or push PDUs outside the request/response cycle.
func (ctx *Context) Session() *Session {
	return ctx.sess
}

// CommandID returns the command id of the request PDU.
func (ctx *Context) CommandID() pdu.CommandID {
	return ctx.req.CommandID()
}

// RemoteAddr returns the address of the bound peer.
func (ctx *Context) RemoteAddr() string {
	return ctx.sess.remoteAddr()
}

// Context returns the request's deadline-bound Go context.
func (ctx *Context) Context() context.Context {
	return ctx.ctx
}

// Status returns the response status set by Respond.
func (ctx *Context) Status() pdu.Status {
	return ctx.status
}

// Respond sends resp with the given status to the bound peer.
func (ctx *Context) Respond(resp pdu.PDU, status pdu.Status) error {
	ctx.status = status
	ctx.resp = resp
	if resp == nil {
		return errors.New("smsc: responding with nil PDU")
	}

	sess := ctx.sess
	sess.mu.Lock()
	if err := sess.makeTransition(resp.CommandID(), false, status); err != nil {
		sess.conf.Logger.ErrorF("transitioning resp pdu: %s %+v", sess, err)
		sess.mu.Unlock()
		return err
	}
	if _, err := sess.enc.Encode(resp, pdu.EncodeStatus(status), pdu.EncodeSeq(ctx.seq)); err != nil {
		sess.conf.Logger.ErrorF("error encoding pdu: %s %+v", sess, err)
		sess.mu.Unlock()
		return err
	}
	sess.conf.Logger.InfoF("sent response: %s %s %+v", sess, resp.CommandID(), resp)
	sess.mu.Unlock()

	return nil
}

// CloseSession marks the session for shutdown once the handler returns.
func (ctx *Context) CloseSession() {
	ctx.close = true
}

func castErr(req pdu.PDU) error {
	return fmt.Errorf("smsc: invalid cast, PDU is of type 0x%X", uint32(req.CommandID()))
}

// GenericNack returns the request as *pdu.GenericNack.
func (ctx *Context) GenericNack() (*pdu.GenericNack, error) {
	if p, ok := ctx.req.(*pdu.GenericNack); ok {
		return p, nil
	}
	return nil, castErr(ctx.req)
}

// BindRx returns the request as *pdu.BindRx.
func (ctx *Context) BindRx() (*pdu.BindRx, error) {
	if p, ok := ctx.req.(*pdu.BindRx); ok {
		return p, nil
	}
	return nil, castErr(ctx.req)
}

// BindTx returns the request as *pdu.BindTx.
func (ctx *Context) BindTx() (*pdu.BindTx, error) {
	if p, ok := ctx.req.(*pdu.BindTx); ok {
		return p, nil
	}
	return nil, castErr(ctx.req)
}

// BindTRx returns the request as *pdu.BindTRx.
func (ctx *Context) BindTRx() (*pdu.BindTRx, error) {
	if p, ok := ctx.req.(*pdu.BindTRx); ok {
		return p, nil
	}
	return nil, castErr(ctx.req)
}

// SubmitSm returns the request as *pdu.SubmitSm.
func (ctx *Context) SubmitSm() (*pdu.SubmitSm, error) {
	if p, ok := ctx.req.(*pdu.SubmitSm); ok {
		return p, nil
	}
	return nil, castErr(ctx.req)
}

// DeliverSmResp returns the request as *pdu.DeliverSmResp.
func (ctx *Context) DeliverSmResp() (*pdu.DeliverSmResp, error) {
	if p, ok := ctx.req.(*pdu.DeliverSmResp); ok {
		return p, nil
	}
	return nil, castErr(ctx.req)
}

// Unbind returns the request as *pdu.Unbind.
func (ctx *Context) Unbind() (*pdu.Unbind, error) {
	if p, ok := ctx.req.(*pdu.Unbind); ok {
		return p, nil
	}
	return nil, castErr(ctx.req)
}

// UnbindResp returns the request as *pdu.UnbindResp.
func (ctx *Context) UnbindResp() (*pdu.UnbindResp, error) {
	if p, ok := ctx.req.(*pdu.UnbindResp); ok {
		return p, nil
	}
	return nil, castErr(ctx.req)
}

// EnquireLink returns the request as *pdu.EnquireLink.
func (ctx *Context) EnquireLink() (*pdu.EnquireLink, error) {
	if p, ok := ctx.req.(*pdu.EnquireLink); ok {
		return p, nil
	}
	return nil, castErr(ctx.req)
}

// EnquireLinkResp returns the request as *pdu.EnquireLinkResp.
func (ctx *Context) EnquireLinkResp() (*pdu.EnquireLinkResp, error) {
	if p, ok := ctx.req.(*pdu.EnquireLinkResp); ok {
		return p, nil
	}
	return nil, castErr(ctx.req)
}
