package smsc

import (
	"time"

	"github.com/smppsim/smppsim/internal/metrics"
	"github.com/smppsim/smppsim/internal/pdu"
	"github.com/smppsim/smppsim/internal/queue"
	"github.com/smppsim/smppsim/internal/registry"
)

// Dispatcher routes inbound requests to the bind/submit/unbind/enquire_link
// handling the simulator actually implements; anything else is logged and
// ignored rather than torn down, per the wire handler's fallback arm.
type Dispatcher struct {
	Auth     *Authenticator
	Registry *registry.Registry
	Queue    *queue.Queue
	Logger   Logger
}

// ServeSMPP implements Handler.
func (d *Dispatcher) ServeSMPP(ctx *Context) {
	switch ctx.CommandID() {
	case pdu.BindTransmitterID:
		d.handleBind(ctx, registry.Transmitter)
	case pdu.BindReceiverID:
		d.handleBind(ctx, registry.Receiver)
	case pdu.BindTransceiverID:
		d.handleBind(ctx, registry.Transceiver)
	case pdu.SubmitSmID:
		d.handleSubmitSm(ctx)
	case pdu.EnquireLinkID:
		d.handleEnquireLink(ctx)
	case pdu.UnbindID:
		d.handleUnbind(ctx)
	default:
		d.logger().InfoF("unhandled command: %s from %s", ctx.CommandID(), ctx.RemoteAddr())
	}
}

func (d *Dispatcher) logger() Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return NopLogger{}
}

// bindReq is the shape common to BindTx/BindRx/BindTRx, letting handleBind
// stay a single function instead of three near-identical copies.
type bindReq struct {
	systemID     string
	password     string
	addressRange string
}

func (d *Dispatcher) handleBind(ctx *Context, role registry.BindRole) {
	var req bindReq
	switch role {
	case registry.Transmitter:
		p, err := ctx.BindTx()
		if err != nil {
			d.logger().ErrorF("bind_transmitter cast: %+v", err)
			return
		}
		req = bindReq{p.SystemID, p.Password, p.AddressRange}
	case registry.Receiver:
		p, err := ctx.BindRx()
		if err != nil {
			d.logger().ErrorF("bind_receiver cast: %+v", err)
			return
		}
		req = bindReq{p.SystemID, p.Password, p.AddressRange}
	case registry.Transceiver:
		p, err := ctx.BindTRx()
		if err != nil {
			d.logger().ErrorF("bind_transceiver cast: %+v", err)
			return
		}
		req = bindReq{p.SystemID, p.Password, p.AddressRange}
	}

	if !d.Auth.Authenticate(req.systemID, req.password) {
		d.logger().ErrorF("bind auth failed: system_id=%s peer=%s", req.systemID, ctx.RemoteAddr())
		d.respondBindFailure(ctx, role)
		return
	}

	sess := ctx.Session()
	entry := registry.NewEntry(sess.ID(), req.systemID, role, ctx.RemoteAddr(), req.addressRange, sess.Outbound())
	d.Registry.Insert(entry)
	metrics.ActiveSessions.Set(float64(d.Registry.Len()))
	d.logger().InfoF("bound: system_id=%s role=%s session=%s", req.systemID, role, sess.ID())

	d.respondBindSuccess(ctx, role, req.systemID)
}

func (d *Dispatcher) respondBindSuccess(ctx *Context, role registry.BindRole, systemID string) {
	opts := pdu.NewOptions().SetScInterfaceVersion(0x50)
	switch role {
	case registry.Transmitter:
		ctx.Respond(&pdu.BindTxResp{SystemID: systemID, Options: opts}, pdu.StatusOK)
	case registry.Receiver:
		ctx.Respond(&pdu.BindRxResp{SystemID: systemID, Options: opts}, pdu.StatusOK)
	case registry.Transceiver:
		ctx.Respond(&pdu.BindTRxResp{SystemID: systemID, Options: opts}, pdu.StatusOK)
	}
}

func (d *Dispatcher) respondBindFailure(ctx *Context, role registry.BindRole) {
	switch role {
	case registry.Transmitter:
		ctx.Respond(&pdu.BindTxResp{}, pdu.StatusBindFail)
	case registry.Receiver:
		ctx.Respond(&pdu.BindRxResp{}, pdu.StatusBindFail)
	case registry.Transceiver:
		ctx.Respond(&pdu.BindTRxResp{}, pdu.StatusBindFail)
	}
}

func (d *Dispatcher) handleSubmitSm(ctx *Context) {
	req, err := ctx.SubmitSm()
	if err != nil {
		d.logger().ErrorF("submit_sm cast: %+v", err)
		return
	}

	if _, ok := d.Registry.Get(ctx.SessionID()); !ok {
		d.logger().ErrorF("submit_sm without bound session: %s", ctx.SessionID())
		ctx.Respond(&pdu.SubmitSmResp{}, pdu.StatusInvBnd)
		return
	}

	msgID := d.Queue.NextMessageID()
	d.logger().InfoF("submit_sm: message_id=%s dest=%s", msgID, req.DestinationAddr)
	d.Queue.AddPendingDR(&queue.Message{
		MessageID:    msgID,
		SourceAddr:   req.SourceAddr,
		DestAddr:     req.DestinationAddr,
		ShortMessage: req.ShortMessage,
		DataCoding:   req.DataCoding,
		SessionID:    ctx.SessionID(),
		SubmittedAt:  time.Now(),
	})
	metrics.MessagesSubmitted.Inc()

	ctx.Respond(req.Response(msgID), pdu.StatusOK)
}

func (d *Dispatcher) handleEnquireLink(ctx *Context) {
	ctx.Respond(&pdu.EnquireLinkResp{}, pdu.StatusOK)
}

func (d *Dispatcher) handleUnbind(ctx *Context) {
	d.Registry.Remove(ctx.SessionID())
	metrics.ActiveSessions.Set(float64(d.Registry.Len()))
	ctx.Respond(&pdu.UnbindResp{}, pdu.StatusOK)
	ctx.CloseSession()
}
