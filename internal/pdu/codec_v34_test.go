package pdu

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestDecodeV34BindRepair(t *testing.T) {
	// bind_transceiver whose address_range is missing its trailing NUL and
	// nothing follows it in the PDU body - a common truncation from older
	// ESME stacks. Strict (V50) decode fails trying to find the terminator;
	// V34 decode repairs the body in memory and retries.
	body, _ := hex.DecodeString("7465737400" + "746573743200" + "00" + "340101" + "61736466")
	header := []byte{0, 0, 0, byte(len(body) + 16), 0, 0, 0, 9, 0, 0, 0, 0, 0, 0, 0, 1}
	frame := append(header, body...)

	dec := NewDecoder(bytes.NewReader(frame))
	if _, _, err := dec.Decode(); err == nil {
		t.Fatalf("expected strict decode to fail on missing NUL, got nil error")
	}

	dec = NewDecoder(bytes.NewReader(frame))
	dec.SetMode(V34)
	h, p, err := dec.Decode()
	if err != nil {
		t.Fatalf("V34 decode: unexpected error %s", err)
	}
	bind, ok := p.(*BindTRx)
	if !ok {
		t.Fatalf("V34 decode: expected *BindTRx, got %T", p)
	}
	if bind.SystemID != "test" || bind.Password != "test2" || bind.AddressRange != "asdf" {
		t.Errorf("V34 decode: got system_id=%q password=%q address_range=%q",
			bind.SystemID, bind.Password, bind.AddressRange)
	}
	if bind.InterfaceVersion != 0x34 || bind.AddrTon != 1 || bind.AddrNpi != 1 {
		t.Errorf("V34 decode: got interface_version=%d addr_ton=%d addr_npi=%d",
			bind.InterfaceVersion, bind.AddrTon, bind.AddrNpi)
	}
	if h.Sequence() != 1 {
		t.Errorf("V34 decode: got sequence %d, want 1", h.Sequence())
	}
}

func TestRepairBindNULsNoChangeNeeded(t *testing.T) {
	body, _ := hex.DecodeString("7465737400" + "746573743200" + "00" + "340101" + "6173646600")
	repaired, fixed := repairBindNULs(body)
	if fixed {
		t.Errorf("repairBindNULs: expected no fix needed for well-formed body")
	}
	if !bytes.Equal(repaired, body) {
		t.Errorf("repairBindNULs: body changed when no repair was needed")
	}
}
