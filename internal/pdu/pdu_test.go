package pdu

import (
	"bytes"
	"encoding/hex"
	"reflect"
	"strings"
	"testing"
)

// wireCase pairs a PDU value with the hex wire form it must marshal to and
// unmarshal from. hexStr uses "|" as a purely visual field separator; it
// carries no meaning to the parser.
type wireCase struct {
	desc   string
	hexStr string
	pdu    PDU
	err    bool
}

var wireCases = []wireCase{
	{
		"valid submit_sm pdu",
		"00|00|00|7465737400|00|00|746573743200|00|00|00|00|00|00|00|00|00|03|6d7367",
		&SubmitSm{
			SourceAddr:      "test",
			DestinationAddr: "test2",
			ShortMessage:    "msg",
		},
		false,
	},
	{
		"valid submit_sm with long message",
		"00010161736466000101333831363331323334353400000001000000000100f76161736466617364666173646661736466206173646661736466617364666173646661207364666173642066612073646620617364206661207364666173642066612064666173646661736466617364666173646620617364666173646661736466617364666120736466617364206661207364662061736420666120736466617364206661206466617364666173646661736466617364666173646661736431313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313102040002006f",
		&SubmitSm{
			SourceAddrTon:   0x01,
			SourceAddrNpi:   0x01,
			SourceAddr:      "asdf",
			DestAddrTon:     0x01,
			DestAddrNpi:     0x01,
			DestinationAddr: "38163123454",
			PriorityFlag:    0x01,
			DataCoding:      0x01,
			ShortMessage:    "aasdfasdfasdfasdf asdfasdfasdfasdfa sdfasd fa sdf asd fa sdfasd fa dfasdfasdfasdfasdf asdfasdfasdfasdfa sdfasd fa sdf asd fa sdfasd fa dfasdfasdfasdfasdfasdfasd111111111111111111111111111111111111111111111111111111111111111111111111111111111111111",
			Options:         NewOptions().SetUserMessageReference(0x6F),
		},
		false,
	},
	{
		"valid deliver_sm with long message",
		"00010161736466000101333831363331323334353400000001000000000100f76161736466617364666173646661736466206173646661736466617364666173646661207364666173642066612073646620617364206661207364666173642066612064666173646661736466617364666173646620617364666173646661736466617364666120736466617364206661207364662061736420666120736466617364206661206466617364666173646661736466617364666173646661736431313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313131313102040002006f",
		&DeliverSm{
			SourceAddrTon:   0x01,
			SourceAddrNpi:   0x01,
			SourceAddr:      "asdf",
			DestAddrTon:     0x01,
			DestAddrNpi:     0x01,
			DestinationAddr: "38163123454",
			PriorityFlag:    0x01,
			DataCoding:      0x01,
			ShortMessage:    "aasdfasdfasdfasdf asdfasdfasdfasdfa sdfasd fa sdf asd fa sdfasd fa dfasdfasdfasdfasdf asdfasdfasdfasdfa sdfasd fa sdf asd fa sdfasd fa dfasdfasdfasdfasdfasdfasd111111111111111111111111111111111111111111111111111111111111111111111111111111111111111",
			Options:         NewOptions().SetUserMessageReference(0x6F),
		},
		false,
	},
	{
		"valid bind_trx pdu",
		"7465737400|746573743200|00|00|01|01|00",
		&BindTRx{
			SystemID: "test",
			Password: "test2",
			AddrTon:  1,
			AddrNpi:  1,
		},
		false,
	},
	{
		"valid query_sm pdu",
		"7465737400|01|01|6173646600",
		&QuerySm{
			MessageID:     "test",
			SourceAddrTon: 0x01,
			SourceAddrNpi: 0x01,
			SourceAddr:    "asdf",
		},
		false,
	},
	{
		"valid empty unbind pdu",
		"",
		&Unbind{},
		false,
	},
	{
		"valid bind_trx_resp pdu",
		"7465737400|0210|0001|34",
		&BindTRxResp{
			SystemID: "test",
			Options:  NewOptions().SetScInterfaceVersion(0x34),
		},
		false,
	},
	// Always append new cases to avoid messing up the header-encoding tests
	// below, which reference this slice by index.
}

func compactHex(s string) string {
	return strings.Replace(s, "|", "", -1)
}

func TestWireCasesMarshalBinary(t *testing.T) {
	for _, tc := range wireCases {
		t.Run(tc.desc, func(t *testing.T) {
			b, err := tc.pdu.MarshalBinary()
			if err != nil {
				if !tc.err {
					t.Fatalf("unexpected error %s", err)
				}
				return
			}
			got := hex.EncodeToString(b)
			want := compactHex(tc.hexStr)
			if got != want {
				t.Errorf("MarshalBinary() => %q, want %q", got, want)
			}
		})
	}
}

func TestWireCasesUnmarshalBinary(t *testing.T) {
	for _, tc := range wireCases {
		t.Run(tc.desc, func(t *testing.T) {
			data, _ := hex.DecodeString(compactHex(tc.hexStr))
			got := reflect.New(reflect.TypeOf(tc.pdu).Elem()).Interface().(PDU)
			err := got.UnmarshalBinary(data)
			if err != nil {
				if !tc.err {
					t.Fatalf("unexpected error %s", err)
				}
				return
			}
			if !reflect.DeepEqual(got, tc.pdu) {
				t.Errorf("UnmarshalBinary() =>\n%+v\nwant\n%+v", got, tc.pdu)
			}
		})
	}
}

func BenchmarkSubmitSmMarshalBinary(b *testing.B) {
	b.SetBytes(285)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bin, err := wireCases[1].pdu.MarshalBinary()
		if err != nil {
			b.Fatalf("error with marshaling %v", err)
		}
		_ = bin
	}
}

func BenchmarkSubmitSmUnmarshalBinary(b *testing.B) {
	in, _ := hex.DecodeString(compactHex(wireCases[1].hexStr))
	b.SetBytes(int64(len(in)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := &SubmitSm{}
		if err := p.UnmarshalBinary(in); err != nil {
			b.Fatalf("error with unmarshaling %v", err)
		}
	}
}

func TestSeparateUDH(t *testing.T) {
	wantUDH, _ := hex.DecodeString("0B0504158200000003AA0301")
	in, _ := hex.DecodeString("0B0504158200000003AA030174657374")
	udh, content, err := SeparateUDH(in)
	if err != nil {
		t.Fatalf("separate udh %v", err)
	}
	if !bytes.Equal(udh, wantUDH) {
		t.Errorf("separate udh got %X, want %X", udh, wantUDH)
	}
	if string(content) != "test" {
		t.Errorf("separate udh content got %q, want %q", content, "test")
	}
}

// headerCase checks that a PDU from wireCases round-trips through the full
// 16-byte header plus body, not just the body in isolation.
type headerCase struct {
	desc      string
	headerHex string
	sequencer Sequencer
	caseIndex int
	status    Status
	seq       uint32
	err       bool
}

var headerCases = []headerCase{
	{
		"submit_sm with default sequencer",
		"0000002D|00000004|00000000|00000001",
		nil,
		0,
		StatusOK,
		1,
		false,
	},
	{
		"submit_sm with custom sequencer",
		"0000002D|00000004|00000000|00000003",
		NewSequencer(3),
		0,
		StatusOK,
		3,
		false,
	},
	{
		"submit_sm with sequence number",
		"0000002D|00000004|00000000|00000004",
		nil,
		0,
		StatusOK,
		4,
		false,
	},
	{
		"unbind with empty body",
		"00000010|00000006|00000000|00000001",
		nil,
		5,
		StatusOK,
		1,
		false,
	},
	{
		"unbind with custom status",
		"00000010|00000006|00000004|00000001",
		nil,
		5,
		StatusInvBnd,
		1,
		false,
	},
	{
		"bindtrx resp with options",
		"0000001A|80000009|00000000|00000001",
		nil,
		6,
		StatusOK,
		1,
		false,
	},
}

func TestHeaderCasesEncode(t *testing.T) {
	for _, tc := range headerCases {
		t.Run(tc.desc, func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			enc := NewEncoder(buf, tc.sequencer)

			opts := []EncoderOption{EncodeStatus(tc.status)}
			if tc.sequencer == nil {
				opts = append(opts, EncodeSeq(tc.seq))
			}
			seq, err := enc.Encode(wireCases[tc.caseIndex].pdu, opts...)
			if err != nil {
				if !tc.err {
					t.Fatalf("unexpected error %s", err)
				}
				return
			}
			if seq != tc.seq {
				t.Errorf("Encode() => seq %d, want %d", seq, tc.seq)
			}
			want, _ := hex.DecodeString(compactHex(tc.headerHex + wireCases[tc.caseIndex].hexStr))
			got := buf.Bytes()
			if !bytes.Equal(want, got) {
				t.Errorf("Encode() => bytes\n%X\nwant\n%X", got, want)
			}
		})
	}
}

func TestHeaderCasesDecode(t *testing.T) {
	for _, tc := range headerCases {
		t.Run(tc.desc, func(t *testing.T) {
			in, _ := hex.DecodeString(compactHex(tc.headerHex + wireCases[tc.caseIndex].hexStr))
			dec := NewDecoder(bytes.NewBuffer(in))
			h, p, err := dec.Decode()
			if err != nil {
				if !tc.err {
					t.Fatalf("unexpected error %s", err)
				}
				return
			}
			if h.Sequence() != tc.seq {
				t.Errorf("Decode() => seq %d, want %d", h.Sequence(), tc.seq)
			}
			if h.Status() != tc.status {
				t.Errorf("Decode() => status %d, want %d", h.Status(), tc.status)
			}
			if !reflect.DeepEqual(p, wireCases[tc.caseIndex].pdu) {
				t.Errorf("Decode() => pdu\n%+v\nwant\n%+v", p, wireCases[tc.caseIndex].pdu)
			}
		})
	}
}
