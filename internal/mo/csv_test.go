package mo

import "testing"

func TestParseCSVLinePreservesEmbeddedCommas(t *testing.T) {
	msg, ok := parseCSVLine("1000,2000,hello, world, with, commas")
	if !ok {
		t.Fatalf("expected line to parse")
	}
	if msg.SourceAddr != "1000" || msg.DestAddr != "2000" {
		t.Fatalf("unexpected source/dest: %+v", msg)
	}
	if msg.ShortMessage != "hello, world, with, commas" {
		t.Fatalf("expected embedded commas preserved, got %q", msg.ShortMessage)
	}
}

func TestParseCSVLineRejectsMissingFields(t *testing.T) {
	if _, ok := parseCSVLine("1000"); ok {
		t.Fatalf("expected a single-field line to fail to parse")
	}
	if _, ok := parseCSVLine("1000,2000"); ok {
		t.Fatalf("expected a line with no message field to fail to parse")
	}
}

func TestBuildDeliverSmHexDecodesBinaryPayload(t *testing.T) {
	msg := Message{SourceAddr: "1000", DestAddr: "2000", ShortMessage: "0x48656c6c6f"}
	d := buildDeliverSm(msg)
	if d.DataCoding != 0 {
		t.Fatalf("expected data_coding to stay at its default for a hex payload, got %d", d.DataCoding)
	}
	if d.ShortMessage != "Hello" {
		t.Fatalf("expected decoded payload 'Hello', got %q", d.ShortMessage)
	}
}

func TestBuildDeliverSmLiteralPayload(t *testing.T) {
	msg := Message{SourceAddr: "1000", DestAddr: "2000", ShortMessage: "plain text"}
	d := buildDeliverSm(msg)
	if d.DataCoding != 0 {
		t.Fatalf("expected data_coding 0 for literal text, got %d", d.DataCoding)
	}
	if d.ShortMessage != "plain text" {
		t.Fatalf("expected literal payload preserved, got %q", d.ShortMessage)
	}
}
