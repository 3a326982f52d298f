package wire

import (
	"bufio"
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, 3, 7, []any{"hello", 42}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec := NewDecoder(bufio.NewReader(&buf))
	f, err := dec.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Span != 3 || f.Type != 7 {
		t.Fatalf("span=%d type=%d want=3,7", f.Span, f.Type)
	}
	var args []any
	if err := UnmarshalArgs(f, &args); err != nil {
		t.Fatalf("unmarshal args: %v", err)
	}
	if len(args) != 2 || args[0] != "hello" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDecoderReadsMultipleFramesFromOneStream(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, 1, 0, []any{1}); err != nil {
		t.Fatalf("encode 1: %v", err)
	}
	if err := Encode(&buf, 2, 0, []any{2}); err != nil {
		t.Fatalf("encode 2: %v", err)
	}
	dec := NewDecoder(bufio.NewReader(&buf))
	f1, err := dec.Decode()
	if err != nil || f1.Span != 1 {
		t.Fatalf("first frame: span=%d err=%v", f1.Span, err)
	}
	f2, err := dec.Decode()
	if err != nil || f2.Span != 2 {
		t.Fatalf("second frame: span=%d err=%v", f2.Span, err)
	}
}

func TestTryDecodeNeedsMoreOnPartialFrame(t *testing.T) {
	full, err := EncodeBytes(1, 2, []any{"x"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, _, err = TryDecode(full[:len(full)-1])
	if !errors.Is(err, ErrNeedMore) {
		t.Fatalf("expected ErrNeedMore, got %v", err)
	}
}

func TestTryDecodeConsumesExactlyOneFrame(t *testing.T) {
	f1, err := EncodeBytes(1, 0, []any{"a"})
	if err != nil {
		t.Fatalf("encode 1: %v", err)
	}
	f2, err := EncodeBytes(2, 0, []any{"b"})
	if err != nil {
		t.Fatalf("encode 2: %v", err)
	}
	buf := append(append([]byte{}, f1...), f2...)

	frame, consumed, err := TryDecode(buf)
	if err != nil {
		t.Fatalf("try decode: %v", err)
	}
	if consumed != len(f1) {
		t.Fatalf("consumed=%d want=%d", consumed, len(f1))
	}
	if frame.Span != 1 {
		t.Fatalf("span=%d want=1", frame.Span)
	}

	frame2, consumed2, err := TryDecode(buf[consumed:])
	if err != nil {
		t.Fatalf("try decode 2: %v", err)
	}
	if consumed2 != len(f2) || frame2.Span != 2 {
		t.Fatalf("frame2=%+v consumed2=%d", frame2, consumed2)
	}
}

func TestDecodeRejectsWrongArity(t *testing.T) {
	// A msgpack fixarray of length 2 (0x92) is well-formed msgpack but not a
	// valid frame, which must always be a 3-element array.
	bad := []byte{0x92, 0x00, 0x00}
	if _, _, err := TryDecode(bad); !errors.Is(err, ErrDecodeFailed) {
		t.Fatalf("expected ErrDecodeFailed, got %v", err)
	}
}

func TestEndpointConstructors(t *testing.T) {
	tcp := TCPEndpoint("127.0.0.1", 10053)
	if tcp.Network != "tcp" || tcp.Address != "127.0.0.1:10053" {
		t.Fatalf("unexpected tcp endpoint: %+v", tcp)
	}
	if tcp.String() != "tcp://127.0.0.1:10053" {
		t.Fatalf("unexpected string: %s", tcp.String())
	}

	unix := UnixEndpoint("/var/run/cocaine.sock")
	if unix.Network != "unix" || unix.Address != "/var/run/cocaine.sock" {
		t.Fatalf("unexpected unix endpoint: %+v", unix)
	}
}

func TestProtocolMute(t *testing.T) {
	var p *Protocol
	if !p.Mute() {
		t.Fatalf("nil protocol should be mute")
	}
	empty := NewProtocol(nil)
	if !empty.Mute() {
		t.Fatalf("empty protocol should be mute")
	}
	nonEmpty := NewProtocol(map[uint64]ProtocolState{0: {Terminal: true}})
	if nonEmpty.Mute() {
		t.Fatalf("non-empty protocol should not be mute")
	}
}

func TestProtocolAllows(t *testing.T) {
	p := NewProtocol(map[uint64]ProtocolState{
		0: {Terminal: false},
		1: {Terminal: true},
	})
	st, ok := p.Allows(0)
	if !ok || st.Terminal {
		t.Fatalf("type 0 should be allowed and non-terminal, got %+v ok=%v", st, ok)
	}
	st, ok = p.Allows(1)
	if !ok || !st.Terminal {
		t.Fatalf("type 1 should be allowed and terminal, got %+v ok=%v", st, ok)
	}
	if _, ok := p.Allows(2); ok {
		t.Fatalf("type 2 should not be allowed")
	}
}

func TestProtocolAllowsReportsNextStateForRecursiveProtocols(t *testing.T) {
	advanced := NewProtocol(map[uint64]ProtocolState{1: {Terminal: true}})
	p := NewProtocol(map[uint64]ProtocolState{
		0: {Terminal: false, Next: advanced},
	})
	st, ok := p.Allows(0)
	if !ok || st.Terminal {
		t.Fatalf("type 0 should be allowed and non-terminal, got %+v ok=%v", st, ok)
	}
	if st.Next != advanced {
		t.Fatalf("expected Allows to surface the advanced Protocol, got %+v", st.Next)
	}
}

func TestStaticRegistryLookup(t *testing.T) {
	reg := StaticRegistry{
		"app.echo": {
			InitialType: 0,
			Dispatch:    NewProtocol(map[uint64]ProtocolState{0: {Terminal: true}}),
			Upstream:    NewProtocol(map[uint64]ProtocolState{0: {Terminal: true}}),
		},
	}
	d, ok := reg.Lookup("app.echo")
	if !ok || d.InitialType != 0 {
		t.Fatalf("lookup failed: %+v ok=%v", d, ok)
	}
	if _, ok := reg.Lookup("app.missing"); ok {
		t.Fatalf("expected miss for unknown tag")
	}
}
